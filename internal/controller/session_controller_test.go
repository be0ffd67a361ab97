package controller

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindContext(body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPut, "/api/sessions/x/score", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func TestBindOptionalJSON(t *testing.T) {
	var req ScoreRequest
	require.NoError(t, bindOptionalJSON(bindContext(""), &req))
	assert.Nil(t, req.Score)
	assert.Nil(t, req.Version)

	require.NoError(t, bindOptionalJSON(bindContext(`{"score":88,"version":3}`), &req))
	if assert.NotNil(t, req.Score) {
		assert.Equal(t, 88, *req.Score)
	}
	if assert.NotNil(t, req.Version) {
		assert.Equal(t, 3, *req.Version)
	}

	assert.Error(t, bindOptionalJSON(bindContext(`{"score":`), &ScoreRequest{}))
}
