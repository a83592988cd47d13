package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	olla "github.com/ollama/ollama/api"
)

// Ollama 是一个用于 Ollama API 的 LLM 客户端。
type Ollama struct {
	client *olla.Client // Ollama 客户端实例。
	model  string       // 要使用的模型名称。
}

// NewOllama 创建一个新的 Ollama 客户端。
//
// 参数:
//
//	model: 要使用的模型名称。
//	baseURL: Ollama 服务的基准 URL。如果为空，则默认为 "http://localhost:11434"。
//
// 返回值:
//
//	*Ollama: 新创建的 Ollama 客户端实例。
//	error: 如果基准 URL 无效，则返回错误。
func NewOllama(model, baseURL string) (*Ollama, error) {
	// 如果 baseURL 为空，则使用默认地址。
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	// 将字符串 URL 转换为 *url.URL。
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	// 创建一个带有超时设置的 HTTP 客户端。
	hc := &http.Client{
		Timeout: 120 * time.Second,
	}

	// 创建 Ollama 客户端。
	client := olla.NewClient(parsedURL, hc)

	return &Ollama{client: client, model: model}, nil
}

// Generate 使用 Ollama API 生成内容。
// 请求强制 JSON 输出格式并使用低温度（0.1），以获得稳定的结构化抽取结果。
//
// 参数:
//
//	ctx: 上下文，用于控制请求的生命周期（含超时）。
//	system: 系统提示词。
//	prompt: 用户提示词。
//
// 返回值:
//
//	string: 模型生成的文本。
//	error: 如果生成内容失败，则返回错误。
func (o *Ollama) Generate(ctx context.Context, system, prompt string) (string, error) {
	var sb strings.Builder // 用于拼接流式返回的所有片段。

	// 调用 Ollama 客户端的 Generate 方法生成内容。
	err := o.client.Generate(ctx, &olla.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		System: system,
		Stream: &[]bool{false}[0],            // 设置为非流式传输。
		Format: json.RawMessage(`"json"`),    // 要求模型输出 JSON。
		Options: map[string]interface{}{
			"temperature": 0.1, // 低温度，减小抽取结果的随机性。
		},
	}, func(resp olla.GenerateResponse) error {
		sb.WriteString(resp.Response) // 存储响应。
		return nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to generate content with ollama: %w", err)
	}

	return sb.String(), nil
}
