// Package storage 目錄持久化的各種後端
package storage

import (
	"context"
	"fmt"
	"time"

	"menu-lens/internal/core/menu"
	"menu-lens/internal/infrastructure/config"
	"menu-lens/internal/pkg/common"

	"go.uber.org/zap"
)

// New 依 cfg.Driver 建立儲存後端。ttl 只用於支援過期的後端（redis）。
func New(ctx context.Context, cfg config.StoreConfig, ttl time.Duration) (menu.Store, error) {
	var (
		store menu.Store
		err   error
	)

	switch cfg.Driver {
	case "memory":
		store = NewMemoryStore()
	case "", "file":
		store, err = NewFileStore(cfg.Dir)
	case "redis":
		store, err = NewRedisStore(ctx, cfg.Redis, ttl)
	case "minio":
		store, err = NewMinioStore(ctx, cfg.Minio)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
	}

	common.LogInfo("目錄儲存已就緒", zap.String("driver", cfg.Driver))
	return store, nil
}
