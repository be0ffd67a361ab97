package util

import (
	"context"
	"errors"
	"interview_prep_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse 统一错误响应结构
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse 无数据返回时的提示
type MessageResponse struct {
	Message string `json:"message"`
}

// Success 直接返回文档本身，不做包装
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, MessageResponse{Message: message})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, ErrorResponse{Error: message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

func InternalServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	InternalServerError(c, err.Error())
}

// HandleError 按错误类型映射 HTTP 状态码
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, ErrSessionNotFound):
		NotFound(c, ErrSessionNotFound.Error())
	case errors.Is(err, ErrUserNotFound):
		NotFound(c, ErrUserNotFound.Error())
	case errors.Is(err, ErrEmailImmutable):
		BadRequest(c, ErrEmailImmutable.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		Error(c, http.StatusServiceUnavailable, "request timed out")
	case errors.Is(err, ErrEmailRegistered),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrSessionScored):
		Conflict(c, err.Error())
	default:
		LogInternalError(c, err)
	}
}
