// Package openai OpenAI chat completions 視覺模型提供者
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"menu-lens/internal/core/ai/provider"
	"menu-lens/internal/pkg/common"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 90 * time.Second
)

// Client OpenAI 客戶端
type Client struct {
	config provider.Config
	client *openai.Client
}

// NewClient 創建 OpenAI 客戶端
func NewClient(cfg provider.Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{config: cfg, client: newAPIClient(cfg, cfg.APIKey)}
}

func newAPIClient(cfg provider.Config, apiKey string) *openai.Client {
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

// Generate 生成回應；req.APIKey 不為空時使用一次性的客戶端
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	apiKey := provider.Credential(req, c.config.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai: no api key: %w", provider.ErrUnauthorized)
	}
	client := c.client
	if apiKey != c.config.APIKey {
		client = newAPIClient(c.config, apiKey)
	}

	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: req.Prompt}}
	if req.ImageData != "" {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    req.ImageData,
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	chatReq := openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		Temperature: float32(req.Temperature),
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.config.MaxTokens
	}
	// 推理模型使用 MaxCompletionTokens
	if isReasoningModel(chatReq.Model) {
		chatReq.MaxCompletionTokens = maxTokens
	} else {
		chatReq.MaxTokens = maxTokens
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	common.LogInfo("Sending request to OpenAI",
		zap.String("model", chatReq.Model),
		zap.Bool("has_image", req.ImageData != ""),
	)

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, chatReq)
	common.LogAICall(chatReq.Model, time.Since(start), err)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, errors.New("empty choices in OpenAI response")
	}

	return &provider.Response{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: provider.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// classify 將 SDK 錯誤對應到結構化錯誤
func classify(err error) error {
	wrapped := fmt.Errorf("failed to create chat completion: %w", err)

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return provider.StatusError(apiErr.HTTPStatusCode, wrapped)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return provider.StatusError(reqErr.HTTPStatusCode, wrapped)
	}
	return wrapped
}

func isReasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// GetModel 模型名稱
func (c *Client) GetModel() string { return c.config.Model }

// GetTimeout 請求超時
func (c *Client) GetTimeout() time.Duration { return c.config.Timeout }

// Close 無需釋放資源
func (c *Client) Close() error { return nil }
