// Package service 統一的視覺模型呼叫入口：圖片正規化、快取、提供者
package service

import (
	"context"
	"fmt"
	"strings"

	"menu-lens/internal/core/ai/cache"
	"menu-lens/internal/core/ai/provider"
	"menu-lens/internal/core/image"
	"menu-lens/internal/infrastructure/config"
	"menu-lens/internal/pkg/common"

	"go.uber.org/zap"
)

// Response AI 回應
type Response struct {
	Content  string
	CacheHit bool
}

// Service AI 服務
type Service struct {
	config       *config.Config
	provider     provider.Provider
	cacheManager *cache.CacheManager
	imageSvc     *image.Service
}

// NewService 創建 AI 服務；cacheManager 可為 nil
func NewService(cfg *config.Config, p provider.Provider, cacheManager *cache.CacheManager) *Service {
	return &Service{
		config:       cfg,
		provider:     p,
		cacheManager: cacheManager,
		imageSvc:     image.NewService(cfg.Image.MaxSizeBytes),
	}
}

// ProcessRequest 統一對外方法。apiKey 不為空時覆蓋設定的憑證，且不使用快取。
func (s *Service) ProcessRequest(ctx context.Context, prompt, imageData, apiKey string) (*Response, error) {
	prompt = strings.TrimSpace(prompt)

	var processed string
	if imageData != "" {
		var err error
		processed, err = s.imageSvc.ProcessImage(imageData)
		if err != nil {
			return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to process image: %w", err))
		}
	}

	// 快取只用於伺服器自己的憑證，避免用錯誤的 key 命中別人的結果
	useCache := s.cacheManager != nil && apiKey == ""
	if useCache {
		if val, err := s.cacheManager.Get(ctx, prompt, processed); err == nil && val != "" {
			return &Response{Content: val, CacheHit: true}, nil
		}
	}

	resp, err := s.provider.Generate(ctx, &provider.Request{
		Prompt:    prompt,
		ImageData: processed,
		APIKey:    apiKey,
		MaxTokens: s.config.Vision.MaxTokens,
		JSONMode:  true,
	})
	if err != nil {
		return nil, err
	}

	common.LogDebug("視覺模型回應",
		zap.String("model", resp.Model),
		zap.Int("content_length", len(resp.Content)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	if useCache {
		if err := s.cacheManager.Set(ctx, prompt, processed, resp.Content); err != nil {
			common.LogWarn("快取寫入失敗", zap.Error(err))
		}
	}

	return &Response{Content: resp.Content}, nil
}

// Provider 目前使用的提供者
func (s *Service) Provider() provider.Provider {
	return s.provider
}

// CacheStats 快取統計；未啟用時回傳 nil
func (s *Service) CacheStats() map[string]interface{} {
	if s.cacheManager == nil {
		return nil
	}
	return s.cacheManager.GetStats()
}
