package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ThrottledProvider 限制对上游的调用频率，等待受 ctx 超时约束
type ThrottledProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// WithThrottle requestsPerMinute <= 0 时不限流
func WithThrottle(p Provider, requestsPerMinute int) Provider {
	if requestsPerMinute <= 0 {
		return p
	}
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &ThrottledProvider{
		inner:   p,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst),
	}
}

func (t *ThrottledProvider) Complete(ctx context.Context, req Request) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", &ErrRateLimit{Err: fmt.Errorf("local throttle: %w", err)}
	}
	return t.inner.Complete(ctx, req)
}

func (t *ThrottledProvider) ModelID() string {
	return t.inner.ModelID()
}
