// Package menu 保存最近一次分析出的目錄，持久化並在背景補充品項圖片
package menu

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"menu-lens/internal/core/image"
	"menu-lens/internal/core/queue"
	"menu-lens/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	// DefaultExpiry 目錄新鮮期
	DefaultExpiry = 24 * time.Hour
	// DefaultImageCount 每個品項要取得的圖片數
	DefaultImageCount = 6
	// DefaultWorkers 同時進行的圖片搜尋數
	DefaultWorkers = 4

	defaultQueueSize    = 64
	defaultMaxImageSize = 10 << 20
)

// Stats 服務統計
type Stats struct {
	Generation       uint64 `json:"generation"`
	HasCatalog       bool   `json:"has_catalog"`
	Persisted        int64  `json:"persisted"`
	PersistFailures  int64  `json:"persist_failures"`
	Enriched         int64  `json:"enriched"`
	EnrichFailures   int64  `json:"enrich_failures"`
	StaleEnrichments int64  `json:"stale_enrichments"`
}

// Service 目錄快取與圖片補充服務。由組合根建立一次，再以指標傳給使用者。
type Service struct {
	store      Store
	searcher   ImageSearcher
	pool       *queue.Manager
	encode     ImageEncoder
	now        func() time.Time
	expiry     time.Duration
	imageCount int
	key        string

	loadMu sync.Mutex
	loaded bool

	// mu 保護 current、generation 與 cancel
	mu         sync.RWMutex
	current    *Catalog
	generation uint64
	cancel     context.CancelFunc

	// persistMu 讓持久化依序進行，後寫入的快照一定不比先前舊
	persistMu sync.Mutex
	pending   sync.WaitGroup

	persisted        int64
	persistFailures  int64
	enriched         int64
	enrichFailures   int64
	staleEnrichments int64
}

// Option 服務選項
type Option func(*Service)

// WithClock 替換時間來源
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithExpiry 設定新鮮期
func WithExpiry(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithImageCount 設定預設每個品項的圖片數
func WithImageCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.imageCount = n
		}
	}
}

// WithWorkers 建立專用的隊列管理器
func WithWorkers(workers, queueSize int) Option {
	return func(s *Service) {
		s.pool = queue.NewManager(workers, queueSize)
	}
}

// WithImageEncoder 替換原始圖片的編碼方式
func WithImageEncoder(enc ImageEncoder) Option {
	return func(s *Service) { s.encode = enc }
}

// WithStorageKey 替換持久化鍵，多個部署共用同一個儲存時使用
func WithStorageKey(key string) Option {
	return func(s *Service) {
		if key != "" {
			s.key = key
		}
	}
}

// NewService 創建目錄服務
func NewService(store Store, searcher ImageSearcher, opts ...Option) *Service {
	s := &Service{
		store:      store,
		searcher:   searcher,
		encode:     image.NewService(defaultMaxImageSize).EncodeDataURL,
		now:        time.Now,
		expiry:     DefaultExpiry,
		imageCount: DefaultImageCount,
		key:        StorageKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pool == nil {
		s.pool = queue.NewManager(DefaultWorkers, defaultQueueSize)
	}
	return s
}

// ensureLoaded 第一次存取時從儲存載入目錄。儲存暫時失敗時下次存取會再試。
func (s *Service) ensureLoaded(ctx context.Context) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.loaded {
		return
	}

	// 載入結果由之後所有請求共用，不受第一個請求取消影響
	ctx = context.WithoutCancel(ctx)

	data, err := s.store.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.loaded = true
			return
		}
		common.LogWarn("載入目錄失敗，稍後重試", zap.String("key", s.key), zap.Error(err))
		return
	}
	s.loaded = true

	var catalog Catalog
	if err := common.ParseJSONBytes(data, &catalog); err != nil {
		common.LogWarn("目錄資料損毀，已移除", zap.String("key", s.key), zap.Error(err))
		s.removePersisted(ctx)
		return
	}

	if s.expired(&catalog) {
		common.LogInfo("持久化目錄已過期，已移除",
			zap.Int64("timestamp", catalog.Timestamp),
			zap.Duration("expiry", s.expiry),
		)
		s.removePersisted(ctx)
		return
	}

	s.mu.Lock()
	if s.current != nil || s.generation != 0 {
		s.mu.Unlock()
		return
	}
	s.current = &catalog
	s.mu.Unlock()

	common.LogInfo("已載入持久化目錄",
		zap.Int("categories", len(catalog.Categories)),
		zap.Int("items", catalog.ItemCount()),
	)
}

// markLoaded 本地狀態已取代持久化資料，不再載入
func (s *Service) markLoaded() {
	s.loadMu.Lock()
	s.loaded = true
	s.loadMu.Unlock()
}

func (s *Service) expired(c *Catalog) bool {
	age := s.now().Sub(time.UnixMilli(c.Timestamp))
	return age > s.expiry
}

// SetMenuData 以分析結果建立新目錄、同步持久化，並在背景補充每個品項的圖片。
// original 為 nil 時不保存原始圖片；imageCount <= 0 時使用預設值。
func (s *Service) SetMenuData(ctx context.Context, raw AnalysisResult, original io.Reader, imageCount int) *Catalog {
	s.ensureLoaded(ctx)

	if imageCount <= 0 {
		imageCount = s.imageCount
	}

	var originalImage string
	if original != nil {
		encoded, err := s.encode(original)
		if err != nil {
			common.LogError("原始圖片轉換失敗", zap.Error(err))
		} else {
			originalImage = encoded
		}
	}

	catalog := &Catalog{
		Categories:    raw.normalize(),
		Timestamp:     s.now().UnixMilli(),
		OriginalImage: originalImage,
	}

	genCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	s.current = catalog
	s.cancel = cancel
	// 補充工作開始後 catalog 只能在 mu 之下讀取
	snapshot := catalog.Clone()
	s.mu.Unlock()
	s.markLoaded()

	common.LogInfo("已建立新目錄",
		zap.Uint64("generation", gen),
		zap.Int("categories", len(catalog.Categories)),
		zap.Int("items", catalog.ItemCount()),
		zap.Bool("has_original_image", originalImage != ""),
	)

	s.persist(ctx, gen)
	s.startEnrichment(genCtx, gen, catalog, imageCount)

	return snapshot
}

// GetMenuData 目前的目錄；沒有或已過期時回傳 false
func (s *Service) GetMenuData(ctx context.Context) (*Catalog, bool) {
	s.ensureLoaded(ctx)

	s.mu.RLock()
	current := s.current
	if current == nil {
		s.mu.RUnlock()
		return nil, false
	}
	if s.expired(current) {
		s.mu.RUnlock()
		s.evictExpired(ctx, current)
		return nil, false
	}
	out := current.Clone()
	s.mu.RUnlock()
	return out, true
}

// GetOriginalMenuImage 目前目錄的原始圖片 data URL
func (s *Service) GetOriginalMenuImage(ctx context.Context) (string, bool) {
	catalog, ok := s.GetMenuData(ctx)
	if !ok || catalog.OriginalImage == "" {
		return "", false
	}
	return catalog.OriginalImage, true
}

// GetMenuItem 依名稱不分大小寫查詢品項
func (s *Service) GetMenuItem(ctx context.Context, name string) (*Item, bool) {
	catalog, ok := s.GetMenuData(ctx)
	if !ok {
		return nil, false
	}
	return catalog.FindItem(name)
}

// ClearData 清除目錄與持久化資料，並停止進行中的圖片補充
func (s *Service) ClearData(ctx context.Context) {
	s.ensureLoaded(ctx)

	s.mu.Lock()
	s.dropLocked()
	s.mu.Unlock()
	s.markLoaded()

	s.removePersisted(ctx)
	common.LogInfo("目錄已清除")
}

// evictExpired 移除過期目錄；若期間已被替換則不動作
func (s *Service) evictExpired(ctx context.Context, stale *Catalog) {
	s.mu.Lock()
	if s.current != stale {
		s.mu.Unlock()
		return
	}
	s.dropLocked()
	s.mu.Unlock()

	s.removePersisted(ctx)
	common.LogInfo("目錄已過期，已移除", zap.Int64("timestamp", stale.Timestamp))
}

// dropLocked 需持有 mu
func (s *Service) dropLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.current = nil
}

// persist 將 generation 仍為 gen 的目錄寫入儲存。寫入失敗只記錄警告。
func (s *Service) persist(ctx context.Context, gen uint64) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.RLock()
	if s.generation != gen || s.current == nil {
		s.mu.RUnlock()
		return
	}
	data, err := json.Marshal(s.current)
	s.mu.RUnlock()
	if err != nil {
		atomic.AddInt64(&s.persistFailures, 1)
		common.LogWarn("目錄序列化失敗", zap.Error(err))
		return
	}

	if err := s.store.Save(ctx, s.key, data); err != nil {
		atomic.AddInt64(&s.persistFailures, 1)
		common.LogWarn("目錄持久化失敗",
			zap.Uint64("generation", gen),
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)
		return
	}
	atomic.AddInt64(&s.persisted, 1)
}

func (s *Service) removePersisted(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if err := s.store.Remove(ctx, s.key); err != nil && !errors.Is(err, ErrNotFound) {
		common.LogWarn("移除持久化目錄失敗", zap.String("key", s.key), zap.Error(err))
	}
}

// Wait 等待已排入的圖片補充全部結束
func (s *Service) Wait() {
	s.pending.Wait()
}

// Stats 取得服務統計
func (s *Service) Stats() Stats {
	s.mu.RLock()
	gen, has := s.generation, s.current != nil
	s.mu.RUnlock()

	return Stats{
		Generation:       gen,
		HasCatalog:       has,
		Persisted:        atomic.LoadInt64(&s.persisted),
		PersistFailures:  atomic.LoadInt64(&s.persistFailures),
		Enriched:         atomic.LoadInt64(&s.enriched),
		EnrichFailures:   atomic.LoadInt64(&s.enrichFailures),
		StaleEnrichments: atomic.LoadInt64(&s.staleEnrichments),
	}
}

// QueueStatus 圖片補充隊列狀態
func (s *Service) QueueStatus() *queue.Status {
	return s.pool.GetQueueStatus()
}

// Ping 檢查儲存是否可用
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close 停止背景補充並釋放隊列
func (s *Service) Close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.pool.Close()
}
