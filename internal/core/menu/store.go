package menu

import (
	"context"
	"errors"
	"io"
)

// StorageKey 目錄在持久化儲存中的固定位置
const StorageKey = "menu_data_cache"

// ErrNotFound 儲存中沒有資料
var ErrNotFound = errors.New("menu: no persisted catalog")

// Store 單一鍵值的持久化儲存
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// ImageSearcher 外部圖片搜尋
type ImageSearcher interface {
	SearchImages(ctx context.Context, query string, count int) ([]string, error)
}

// ImageEncoder 將上傳的原始圖片轉為 data URL
type ImageEncoder func(r io.Reader) (string, error)
