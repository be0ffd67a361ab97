package llm

import (
	"context"
	"errors"
	"interview_prep_backend/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveModel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.0-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-1.5-flash-8b", "gemini-1.5-flash-8b"},
		{"", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, resolveModel(tt.input, geminiModels, "gemini-flash"), tt.input)
	}
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	_, err := NewProvider(ctx, config.AIConfig{Provider: ""}, log)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewProvider(ctx, config.AIConfig{Provider: "gemini"}, log)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewProvider(ctx, config.AIConfig{Provider: "cohere", APIKey: "k"}, log)
	assert.Error(t, err)

	p, err := NewProvider(ctx, config.AIConfig{Provider: "openai", APIKey: "k", Model: "gpt-4o", RequestsPerMinute: 30}, log)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", p.ModelID())
	_, throttled := p.(*ThrottledProvider)
	assert.True(t, throttled)

	p, err = NewProvider(ctx, config.AIConfig{Provider: "anthropic", APIKey: "k"}, log)
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-4-5-20251001", p.ModelID())
}

func TestMockProvider_FIFOAndExhaustion(t *testing.T) {
	m := NewMockProvider(
		MockResponse{Text: "first"},
		MockResponse{Err: errors.New("boom")},
	)
	ctx := context.Background()

	text, err := m.Complete(ctx, Request{Prompt: "a"})
	require.NoError(t, err)
	assert.Equal(t, "first", text)

	_, err = m.Complete(ctx, Request{Prompt: "b"})
	assert.EqualError(t, err, "boom")

	_, err = m.Complete(ctx, Request{Prompt: "c"})
	var unavailable *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavailable)

	assert.Equal(t, 3, m.CallCount())
	assert.Equal(t, "b", m.Calls[1].Prompt)
}

func TestWithThrottle_Disabled(t *testing.T) {
	m := NewMockProvider()
	assert.Same(t, Provider(m), WithThrottle(m, 0))
}

func TestWithThrottle_WaitHonoursContext(t *testing.T) {
	m := NewMockProvider(MockResponse{Text: "one"}, MockResponse{Text: "two"})
	p := WithThrottle(m, 1)

	text, err := p.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "one", text)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Complete(ctx, Request{})
	var limited *ErrRateLimit
	assert.ErrorAs(t, err, &limited)
	assert.Equal(t, 1, m.CallCount())
}

func TestWithLogging_PassesThrough(t *testing.T) {
	m := NewMockProvider(MockResponse{Text: "ok"}, MockResponse{Err: ErrEmptyResponse})
	p := WithLogging(m, zap.NewNop())

	text, err := p.Complete(context.Background(), Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)

	_, err = p.Complete(context.Background(), Request{Prompt: "y"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, "mock", p.ModelID())
}

func TestClassifyStatus(t *testing.T) {
	var limited *ErrRateLimit
	assert.ErrorAs(t, classifyStatus(429, errors.New("x")), &limited)

	var unavailable *ErrProviderUnavailable
	assert.ErrorAs(t, classifyStatus(503, errors.New("x")), &unavailable)
}
