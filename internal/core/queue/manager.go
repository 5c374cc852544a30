package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"menu-lens/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrClosed 隊列已關閉
var ErrClosed = errors.New("queue manager is closed")

// Job 隊列工作，ctx 為加入隊列時傳入的上下文。
// ctx 已取消時工作仍會被呼叫一次，由工作自行收尾。
type Job func(ctx context.Context)

// request 隊列請求
type request struct {
	ctx context.Context
	job Job
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 固定 worker 數量的隊列管理器，同時執行的工作數不超過 workers
type Manager struct {
	workers   int
	maxSize   int
	queue     chan *request
	done      chan struct{}
	wg        sync.WaitGroup
	processed int64
	closeOnce sync.Once

	// mu 保護 closed；enqueuing 記錄尚在 Enqueue 中的呼叫者，Close 等它們離開後才清空隊列
	mu        sync.Mutex
	closed    bool
	enqueuing sync.WaitGroup
}

// NewManager 創建並啟動隊列管理器
func NewManager(workers, maxSize int) *Manager {
	if workers <= 0 {
		workers = 1
	}
	if maxSize <= 0 {
		maxSize = workers
	}

	m := &Manager{
		workers: workers,
		maxSize: maxSize,
		queue:   make(chan *request, maxSize),
		done:    make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}

	common.LogDebug("隊列管理員已啟動",
		zap.Int("workers", workers),
		zap.Int("max_queue_size", maxSize),
	)

	return m
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case req := <-m.queue:
			m.run(id, req)
		}
	}
}

func (m *Manager) run(id int, req *request) {
	defer atomic.AddInt64(&m.processed, 1)
	defer func() {
		if r := recover(); r != nil {
			common.LogError("Queue job panic recovered",
				zap.Int("worker", id),
				zap.Any("error", r),
			)
		}
	}()

	req.job(req.ctx)
}

// Enqueue 將工作加入隊列，隊列滿時會等待直到有空位、ctx 取消或隊列關閉
func (m *Manager) Enqueue(ctx context.Context, job Job) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.enqueuing.Add(1)
	m.mu.Unlock()
	defer m.enqueuing.Done()

	select {
	case m.queue <- &request{ctx: ctx, job: job}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrClosed
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		MaxQueueSize:   m.maxSize,
		Workers:        m.workers,
	}
}

// Close 停止所有 worker；尚未執行的工作以已取消的 ctx 呼叫後丟棄
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()

		close(m.done)
		m.enqueuing.Wait()
		m.wg.Wait()

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
	drain:
		for {
			select {
			case req := <-m.queue:
				m.run(-1, &request{ctx: cancelled, job: req.job})
			default:
				break drain
			}
		}

		common.LogDebug("隊列管理員已關閉",
			zap.Int64("processed_count", atomic.LoadInt64(&m.processed)),
		)
	})
}
