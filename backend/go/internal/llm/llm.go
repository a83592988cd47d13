package llm

import (
	"VoiceCalendarAI/backend/go/internal/config"
	"context"
	"fmt"
)

// LLM 定义了所有大型语言模型客户端必须实现的通用接口。
// 解释器只需要一种能力：给定系统提示词和用户提示词，返回模型生成的文本。
// 所有实现都要求模型以 JSON 格式输出。
type LLM interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// NewClient 是一个工厂函数，根据提供的配置创建并返回一个实现了 LLM 接口的客户端。
func NewClient(cfg config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllama(cfg.Ollama.Model, cfg.Ollama.Host)
	case "openai":
		return NewOpenAI(cfg.OpenAI.Model, cfg.OpenAI.APIKey)
	case "gemini":
		return NewGemini(context.Background(), cfg.Gemini.Model, cfg.Gemini.APIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
