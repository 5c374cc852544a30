// Package ai 依設定建立視覺模型提供者
package ai

import (
	"fmt"

	"menu-lens/internal/core/ai/gemini"
	"menu-lens/internal/core/ai/openai"
	"menu-lens/internal/core/ai/openrouter"
	"menu-lens/internal/core/ai/provider"
	"menu-lens/internal/infrastructure/config"
)

// NewProvider 依 cfg.Provider 建立提供者
func NewProvider(cfg config.VisionConfig) (provider.Provider, error) {
	pc := provider.Config{
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		Timeout:   cfg.Timeout,
		BaseURL:   cfg.BaseURL,
		MaxTokens: cfg.MaxTokens,
	}

	switch cfg.Provider {
	case "", "openrouter":
		return openrouter.NewClient(pc), nil
	case "openai":
		return openai.NewClient(pc), nil
	case "gemini":
		return gemini.New(pc), nil
	default:
		return nil, fmt.Errorf("unsupported vision provider %q", cfg.Provider)
	}
}
