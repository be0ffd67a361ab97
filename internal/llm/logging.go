package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LoggingProvider 记录每次调用的耗时与结果
type LoggingProvider struct {
	inner Provider
	log   *zap.Logger
}

func WithLogging(p Provider, log *zap.Logger) Provider {
	return &LoggingProvider{inner: p, log: log}
}

func (l *LoggingProvider) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	text, err := l.inner.Complete(ctx, req)

	fields := []zap.Field{
		zap.String("model", l.inner.ModelID()),
		zap.Duration("latency", time.Since(start)),
		zap.Int("prompt_chars", len(req.Prompt)),
	}
	if err != nil {
		l.log.Warn("llm call failed", append(fields, zap.Error(err))...)
		return "", err
	}
	l.log.Debug("llm call succeeded", append(fields, zap.Int("output_chars", len(text)))...)
	return text, nil
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
