// Package llm provides a client for OpenAI-compatible chat completion APIs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sportconnect-go/internal/config"
)

const defaultTimeout = 40 * time.Second

// ErrNoChoices 表示响应体中没有 choices。
var ErrNoChoices = errors.New("llm: response has no choices")

// Client defines the interface for an LLM client.
type Client interface {
	// ChatMessages 以 role-based 消息与可选生成参数调用聊天接口，返回第一个 choice 的内容。
	ChatMessages(ctx context.Context, messages []Message, gen *GenerationParams) (string, error)
	// Configured 报告是否配置了 API key；未配置时不应发起网络请求。
	Configured() bool
}

type openAIClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new LLM client with a bounded request timeout.
func NewClient(cfg config.LLMConfig) Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &openAIClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// GenerationParams 控制生成行为
type GenerationParams struct {
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("llm: chat api returned status %d: %s", e.StatusCode, e.Body)
}

func (c *openAIClient) Configured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

func (c *openAIClient) ChatMessages(ctx context.Context, messages []Message, gen *GenerationParams) (string, error) {
	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
	}
	// 传参优先，其次使用全局配置中的非零值
	if gen != nil {
		reqBody.Temperature = gen.Temperature
		reqBody.TopP = gen.TopP
		reqBody.MaxTokens = gen.MaxTokens
	} else {
		if c.cfg.Generation.Temperature != 0 {
			t := c.cfg.Generation.Temperature
			reqBody.Temperature = &t
		}
		if c.cfg.Generation.TopP != 0 {
			p := c.cfg.Generation.TopP
			reqBody.TopP = &p
		}
		if c.cfg.Generation.MaxTokens != 0 {
			m := c.cfg.Generation.MaxTokens
			reqBody.MaxTokens = &m
		}
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
