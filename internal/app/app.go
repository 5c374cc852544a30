// Package app 組合根：依設定建立儲存、視覺模型、分析與目錄服務
package app

import (
	"context"
	"fmt"
	"io"

	"menu-lens/internal/core/ai"
	"menu-lens/internal/core/ai/cache"
	"menu-lens/internal/core/ai/service"
	"menu-lens/internal/core/analysis"
	"menu-lens/internal/core/menu"
	"menu-lens/internal/core/search"
	"menu-lens/internal/infrastructure/config"
	"menu-lens/internal/infrastructure/storage"
	"menu-lens/internal/pkg/common"

	"go.uber.org/zap"
)

// App 應用程式使用的服務
type App struct {
	Config   *config.Config
	Store    menu.Store
	Menu     *menu.Service
	AI       *service.Service
	Analysis *analysis.Service

	cache *cache.CacheManager
}

// Build 建立所有服務
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := storage.New(ctx, cfg.Store, cfg.Menu.Expiry)
	if err != nil {
		return nil, err
	}

	p, err := ai.NewProvider(cfg.Vision)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vision provider: %w", err)
	}

	cacheManager := cache.NewManager(cfg.Cache)
	aiService := service.NewService(cfg, p, cacheManager)

	searcher := search.NewGoogleClient(cfg.Search)
	if cfg.Search.APIKey == "" || cfg.Search.EngineID == "" {
		common.LogWarn("未設定 Google Custom Search，品項圖片將為空")
	}

	menuService := menu.NewService(store, searcher,
		menu.WithExpiry(cfg.Menu.Expiry),
		menu.WithImageCount(cfg.Search.ImageCount),
		menu.WithWorkers(cfg.Menu.Workers, cfg.Menu.QueueSize),
		menu.WithStorageKey(cfg.Menu.StorageKey),
	)

	common.LogInfo("服務初始化完成",
		zap.String("provider", cfg.Vision.Provider),
		zap.String("model", p.GetModel()),
		zap.String("variant", cfg.Vision.Variant),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Bool("cache_enabled", cacheManager != nil),
	)

	return &App{
		Config:   cfg,
		Store:    store,
		Menu:     menuService,
		AI:       aiService,
		Analysis: analysis.NewService(aiService, analysis.Variant(cfg.Vision.Variant)),
		cache:    cacheManager,
	}, nil
}

// CacheStats AI 回應快取統計
func (a *App) CacheStats() map[string]interface{} {
	return a.AI.CacheStats()
}

// Close 停止背景工作並關閉連線
func (a *App) Close() {
	a.Menu.Close()
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if err := a.AI.Provider().Close(); err != nil {
		common.LogWarn("關閉視覺模型提供者失敗", zap.Error(err))
	}
	if c, ok := a.Store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			common.LogWarn("關閉目錄儲存失敗", zap.Error(err))
		}
	}
}
