package menu

import (
	"context"
	"sync/atomic"

	"menu-lens/internal/pkg/common"

	"go.uber.org/zap"
)

// itemRef 品項在目錄中的位置
type itemRef struct {
	category int
	item     int
	name     string
}

// startEnrichment 為目錄中每個品項排入一個圖片搜尋工作，不等待完成
func (s *Service) startEnrichment(ctx context.Context, gen uint64, catalog *Catalog, count int) {
	refs := make([]itemRef, 0, catalog.ItemCount())
	for ci, cat := range catalog.Categories {
		for ii, item := range cat.Items {
			refs = append(refs, itemRef{category: ci, item: ii, name: item.Name})
		}
	}
	if len(refs) == 0 || s.searcher == nil {
		return
	}

	// 在返回前登記，Wait 才能涵蓋這一批
	s.pending.Add(len(refs))

	go func() {
		for i, ref := range refs {
			err := s.pool.Enqueue(ctx, func(jobCtx context.Context) {
				defer s.pending.Done()
				if jobCtx.Err() != nil {
					atomic.AddInt64(&s.staleEnrichments, 1)
					return
				}
				s.enrichItem(jobCtx, gen, ref, count)
			})
			if err != nil {
				// 剩下未排入的工作不會執行
				remaining := len(refs) - i
				atomic.AddInt64(&s.staleEnrichments, int64(remaining))
				s.pending.Add(-remaining)
				common.LogDebug("圖片補充排程中止",
					zap.Uint64("generation", gen),
					zap.Int("remaining", remaining),
					zap.Error(err),
				)
				return
			}
		}
	}()
}

// enrichItem 搜尋單一品項的圖片並寫回目錄。失敗時寫入空列表，不重試。
func (s *Service) enrichItem(ctx context.Context, gen uint64, ref itemRef, count int) {
	urls, err := s.searcher.SearchImages(ctx, ref.name+" photo", count)
	if err != nil {
		if ctx.Err() != nil {
			atomic.AddInt64(&s.staleEnrichments, 1)
			return
		}
		atomic.AddInt64(&s.enrichFailures, 1)
		common.LogWarn("品項圖片搜尋失敗",
			zap.String("item", ref.name),
			zap.Error(err),
		)
		urls = []string{}
	}
	if urls == nil {
		urls = []string{}
	}

	s.mu.Lock()
	if s.generation != gen || s.current == nil {
		s.mu.Unlock()
		atomic.AddInt64(&s.staleEnrichments, 1)
		common.LogDebug("略過過時的圖片補充結果",
			zap.String("item", ref.name),
			zap.Uint64("generation", gen),
		)
		return
	}
	s.current.Categories[ref.category].Items[ref.item].ImageURLs = urls
	s.mu.Unlock()

	if err == nil {
		atomic.AddInt64(&s.enriched, 1)
	}
	common.LogDebug("品項圖片已補充",
		zap.String("item", ref.name),
		zap.Int("images", len(urls)),
	)

	s.persist(ctx, gen)
}
