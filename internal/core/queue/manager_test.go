package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestManagerRunsAllJobs(t *testing.T) {
	m := NewManager(3, 4)
	defer m.Close()

	var wg sync.WaitGroup
	var count int64
	for i := 0; i < 20; i++ {
		wg.Add(1)
		err := m.Enqueue(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			atomic.AddInt64(&count, 1)
		})
		if err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}
	wg.Wait()

	if count != 20 {
		t.Fatalf("ran %d jobs, want 20", count)
	}
}

func TestManagerBoundsConcurrency(t *testing.T) {
	const workers = 2
	m := NewManager(workers, 8)
	defer m.Close()

	var running, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		if err := m.Enqueue(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			n := atomic.AddInt64(&running, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&running, -1)
		}); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}
	wg.Wait()

	if peak > workers {
		t.Fatalf("peak concurrency %d exceeds %d workers", peak, workers)
	}
}

func TestManagerPassesCancelledContext(t *testing.T) {
	m := NewManager(1, 4)
	defer m.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	if err := m.Enqueue(context.Background(), func(ctx context.Context) {
		close(started)
		<-block
	}); err != nil {
		t.Fatal(err)
	}
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	sawCancel := make(chan bool, 1)
	if err := m.Enqueue(ctx, func(ctx context.Context) { sawCancel <- ctx.Err() != nil }); err != nil {
		t.Fatal(err)
	}
	cancel()
	close(block)

	if !<-sawCancel {
		t.Fatal("job should observe the cancelled context")
	}
}

func TestManagerCloseDrainsPendingJobs(t *testing.T) {
	m := NewManager(1, 4)

	block := make(chan struct{})
	started := make(chan struct{})
	if err := m.Enqueue(context.Background(), func(ctx context.Context) {
		close(started)
		<-block
	}); err != nil {
		t.Fatal(err)
	}
	<-started

	var wg sync.WaitGroup
	var cancelled int64
	for i := 0; i < 3; i++ {
		wg.Add(1)
		if err := m.Enqueue(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			if ctx.Err() != nil {
				atomic.AddInt64(&cancelled, 1)
			}
		}); err != nil {
			t.Fatal(err)
		}
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(block)
	}()
	m.Close()
	wg.Wait()

	// 被 worker 接手的工作拿到原本的 ctx，其餘在 Close 時以已取消的 ctx 收尾
	if cancelled > 3 {
		t.Fatalf("cancelled = %d", cancelled)
	}
}

func TestManagerEnqueueAfterClose(t *testing.T) {
	m := NewManager(1, 1)
	m.Close()

	err := m.Enqueue(context.Background(), func(ctx context.Context) {})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("Enqueue() error = %v, want ErrClosed", err)
	}
}

func TestManagerStatus(t *testing.T) {
	m := NewManager(2, 5)
	defer m.Close()

	done := make(chan struct{})
	if err := m.Enqueue(context.Background(), func(ctx context.Context) { close(done) }); err != nil {
		t.Fatal(err)
	}
	<-done

	deadline := time.Now().Add(time.Second)
	for m.GetQueueStatus().ProcessedCount < 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	st := m.GetQueueStatus()
	if st.Workers != 2 || st.MaxQueueSize != 5 {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.ProcessedCount != 1 {
		t.Fatalf("processed = %d, want 1", st.ProcessedCount)
	}
}

func TestManagerCloseRunsEveryAcceptedJob(t *testing.T) {
	for round := 0; round < 50; round++ {
		m := NewManager(2, 2)

		var accepted, ran int64
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := m.Enqueue(context.Background(), func(ctx context.Context) {
					atomic.AddInt64(&ran, 1)
				})
				if err == nil {
					atomic.AddInt64(&accepted, 1)
				}
			}()
		}

		m.Close()
		wg.Wait()

		// Close 返回後，每個被接受的工作都已經執行過一次
		if a, r := atomic.LoadInt64(&accepted), atomic.LoadInt64(&ran); a != r {
			t.Fatalf("round %d: accepted %d jobs but ran %d", round, a, r)
		}
	}
}
