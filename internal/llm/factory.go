package llm

import (
	"context"
	"fmt"
	"interview_prep_backend/internal/config"

	"go.uber.org/zap"
)

// NewProvider 按配置创建 provider，外层依次包装限流和日志。
// 未配置 API Key 时返回 ErrNotConfigured，调用方应改用兜底文案。
func NewProvider(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (Provider, error) {
	var (
		base Provider
		err  error
	)

	switch cfg.Provider {
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		base, err = NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case "", "none":
		return nil, ErrNotConfigured
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return WithThrottle(WithLogging(base, log), cfg.RequestsPerMinute), nil
}
