// Package gemini Google Gemini 視覺模型提供者
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"menu-lens/internal/core/ai/provider"
	"menu-lens/internal/core/image"
	"menu-lens/internal/pkg/common"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultModel   = "gemini-1.5-flash"
	defaultTimeout = 90 * time.Second
)

// Gemini Google Gemini 提供者。每次請求建立客戶端，讓請求可以帶自己的 API key。
type Gemini struct {
	config provider.Config
}

// New 創建 Gemini 提供者
func New(cfg provider.Config) *Gemini {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Gemini{config: cfg}
}

// Generate 生成回應
func (g *Gemini) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	apiKey := provider.Credential(req, g.config.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: no api key: %w", provider.ErrUnauthorized)
	}

	parts := []genai.Part{genai.Text(req.Prompt)}
	if req.ImageData != "" {
		mime, data, err := image.DecodeDataURL(req.ImageData)
		if err != nil {
			return nil, fmt.Errorf("gemini: invalid image data: %w", err)
		}
		parts = append(parts, genai.ImageData(strings.TrimPrefix(mime, "image/"), data))
	}

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if g.config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(g.config.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.config.Model)
	model.SetTemperature(float32(req.Temperature))
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = g.config.MaxTokens
	}
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}
	if req.JSONMode {
		model.ResponseMIMEType = "application/json"
	}

	common.LogInfo("Sending request to Gemini",
		zap.String("model", g.config.Model),
		zap.Bool("has_image", req.ImageData != ""),
	)

	start := time.Now()
	resp, err := model.GenerateContent(ctx, parts...)
	common.LogAICall(g.config.Model, time.Since(start), err)
	if err != nil {
		return nil, classify(err)
	}

	content, err := textOf(resp)
	if err != nil {
		return nil, err
	}

	out := &provider.Response{Content: content, Model: g.config.Model}
	if resp.UsageMetadata != nil {
		out.Usage = provider.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// textOf 串接第一個候選的文字內容
func textOf(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates returned from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("empty content returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("unexpected response format from Gemini")
	}
	return sb.String(), nil
}

// classify 將 gRPC 或 REST 錯誤對應到結構化錯誤
func classify(err error) error {
	wrapped := fmt.Errorf("failed to generate content: %w", err)

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return provider.StatusError(gErr.Code, wrapped)
	}

	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return errors.Join(provider.ErrUnauthorized, wrapped)
	case codes.ResourceExhausted:
		return errors.Join(provider.ErrQuotaExceeded, wrapped)
	case codes.InvalidArgument:
		// 無效的 key 以 INVALID_ARGUMENT 回報
		if strings.Contains(err.Error(), "API key") {
			return errors.Join(provider.ErrUnauthorized, wrapped)
		}
	}
	return wrapped
}

// GetModel 模型名稱
func (g *Gemini) GetModel() string { return g.config.Model }

// GetTimeout 請求超時
func (g *Gemini) GetTimeout() time.Duration { return g.config.Timeout }

// Close 無需釋放資源
func (g *Gemini) Close() error { return nil }
