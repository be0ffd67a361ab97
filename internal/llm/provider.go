package llm

import "context"

// Provider 文本生成服务的统一抽象，返回内容按不透明文本处理
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	ModelID() string
}

// Request 单轮生成请求
type Request struct {
	// System 系统提示词，可为空
	System string
	Prompt string
	// MaxTokens 为 0 时使用各 provider 默认值
	MaxTokens   int
	Temperature float64
}

// resolveModel 把简称映射为具体模型 ID，未命中时原样返回
func resolveModel(name string, models map[string]string, fallback string) string {
	if name == "" {
		name = fallback
	}
	if id, ok := models[name]; ok {
		return id
	}
	return name
}

func maxTokens(n int) int {
	if n <= 0 {
		return 512
	}
	return n
}
