// Package openrouter OpenRouter chat completions 視覺模型提供者
package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"menu-lens/internal/core/ai/provider"
	"menu-lens/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL OpenRouter API
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	defaultTimeout = 90 * time.Second
)

// Client OpenRouter API 客戶端
type Client struct {
	client *resty.Client
	config provider.Config
}

// ContentPart 多段訊息內容
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL 圖片內容
type ImageURL struct {
	URL string `json:"url"`
}

// Message 消息結構
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ResponseFormat 輸出格式
type ResponseFormat struct {
	Type string `json:"type"`
}

// Request 表示 API 請求
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// Response OpenRouter 響應結構
type Response struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage provider.Usage `json:"usage"`
}

// Error 表示 API 錯誤
type Error struct {
	Error struct {
		Message string      `json:"message"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg provider.Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("HTTP-Referer", "https://menu-lens.app").
		SetHeader("X-Title", "Menu Lens")

	return &Client{client: client, config: cfg}
}

// Generate 生成回應
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	apiKey := provider.Credential(req, c.config.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter: no api key: %w", provider.ErrUnauthorized)
	}

	parts := []ContentPart{{Type: "text", Text: req.Prompt}}
	if req.ImageData != "" {
		url := req.ImageData
		if !strings.HasPrefix(url, "data:image/") {
			url = "data:image/jpeg;base64," + url
		}
		parts = append(parts, ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: url}})
	}

	body := &Request{
		Model:       c.config.Model,
		Messages:    []Message{{Role: "user", Content: parts}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = c.config.MaxTokens
	}
	if req.JSONMode {
		body.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	common.LogInfo("Sending request to OpenRouter",
		zap.String("model", body.Model),
		zap.Bool("has_image", req.ImageData != ""),
		zap.Int("max_tokens", body.MaxTokens),
	)

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(apiKey).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		common.LogAICall(body.Model, time.Since(start), err)
		return nil, fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if !resp.IsSuccess() {
		sanitized := sanitizeResponse(resp.Body())
		apiErr := fmt.Errorf("OpenRouter API error (status %d): %s", resp.StatusCode(), sanitized)
		common.LogAICall(body.Model, time.Since(start), apiErr)
		return nil, provider.StatusError(resp.StatusCode(), apiErr)
	}

	var result Response
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return nil, errors.New("empty choices in OpenRouter response")
	}

	common.LogAICall(body.Model, time.Since(start), nil)
	return &provider.Response{
		Content: result.Choices[0].Message.Content,
		Model:   result.Model,
		Usage:   result.Usage,
	}, nil
}

// GetModel 模型名稱
func (c *Client) GetModel() string { return c.config.Model }

// GetTimeout 請求超時
func (c *Client) GetTimeout() time.Duration { return c.config.Timeout }

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

// sanitizeResponse 清理錯誤內容，避免圖片資料進入日誌
func sanitizeResponse(body []byte) string {
	s := string(body)
	if strings.Contains(s, "data:image/") || (len(s) > 100 && strings.Contains(s, "base64")) {
		return "[IMAGE_DATA_REMOVED]"
	}

	var apiErr Error
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}

	const maxLen = 512
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
