package taskcore_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tc "github.com/azargarov/taskcore"
)

func TestNewWorkerPool_RejectsNilHandler(t *testing.T) {
	q := tc.NewBoundedQueue[int](4)
	_, err := tc.NewWorkerPool[int](q, nil, tc.Options{})
	if !errors.Is(err, tc.ErrNilHandler) {
		t.Fatalf("NewWorkerPool with nil handler = %v, want ErrNilHandler", err)
	}
}

func TestNewWorkerPool_RejectsInvertedThresholds(t *testing.T) {
	q := tc.NewBoundedQueue[int](4)
	opts := tc.Options{SpawnThreshold: 0.5, ShrinkThreshold: 0.8}
	_, err := tc.NewWorkerPool[int](q, func(int) error { return nil }, opts)
	if !errors.Is(err, tc.ErrInvalidThresholds) {
		t.Fatalf("NewWorkerPool with inverted thresholds = %v, want ErrInvalidThresholds", err)
	}
}

func TestWorkerPool_ProcessesEveryItem(t *testing.T) {
	q := tc.NewBoundedQueue[int](64)
	var processed atomic.Int64
	var mu sync.Mutex
	seen := make(map[int]bool)

	p, err := tc.NewWorkerPool[int](q, func(item int) error {
		mu.Lock()
		seen[item] = true
		mu.Unlock()
		processed.Add(1)
		return nil
	}, tc.Options{MinThreads: 2, ReservedThreads: 2, MaxThreads: 4})
	if err != nil {
		t.Fatalf("NewWorkerPool: %v", err)
	}

	p.Start(context.Background())
	defer p.Stop()

	const n = 500
	for i := 0; i < n; i++ {
		for !q.Enqueue(i) {
			time.Sleep(time.Microsecond)
		}
	}

	waitUntil(t, func() bool { return processed.Load() == n })

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != n {
		t.Fatalf("saw %d distinct items, want %d", len(seen), n)
	}
}

func TestWorkerPool_StartStopIdempotent(t *testing.T) {
	q := tc.NewBoundedQueue[int](4)
	p, err := tc.NewWorkerPool[int](q, func(int) error { return nil }, tc.Options{})
	if err != nil {
		t.Fatalf("NewWorkerPool: %v", err)
	}

	if !p.Start(context.Background()) {
		t.Fatal("first Start() should return true")
	}
	if p.Start(context.Background()) {
		t.Fatal("second Start() on a running pool should return false")
	}
	if !p.Stop() {
		t.Fatal("first Stop() should return true")
	}
	if p.Stop() {
		t.Fatal("second Stop() on a stopped pool should return false")
	}
}

func TestWorkerPool_HandlerPanicIsSwallowed(t *testing.T) {
	q := tc.NewBoundedQueue[int](8)
	var processed atomic.Int64

	p, err := tc.NewWorkerPool[int](q, func(item int) error {
		defer processed.Add(1)
		if item == 1 {
			panic("boom")
		}
		return nil
	}, tc.Options{MinThreads: 1, ReservedThreads: 1})
	if err != nil {
		t.Fatalf("NewWorkerPool: %v", err)
	}

	p.Start(context.Background())
	defer p.Stop()

	q.Enqueue(1)
	q.Enqueue(2)
	q.Enqueue(3)

	waitUntil(t, func() bool { return processed.Load() == 3 })
}

func TestWorkerPool_ScalesUpUnderSustainedPressure(t *testing.T) {
	q := tc.NewBoundedQueue[int](256)
	block := make(chan struct{})

	p, err := tc.NewWorkerPool[int](q, func(int) error {
		<-block
		return nil
	}, tc.Options{
		MinThreads:       1,
		ReservedThreads:  1,
		MaxThreads:       4,
		SpawnThreshold:   1.1,
		ShrinkThreshold:  0.1,
		MonitorInterval:  10 * time.Millisecond,
		SpawnHysteresis:  1,
		ShrinkHysteresis: 1,
	})
	if err != nil {
		t.Fatalf("NewWorkerPool: %v", err)
	}

	p.Start(context.Background())
	defer func() {
		close(block)
		p.Stop()
	}()

	for i := 0; i < 200; i++ {
		q.Enqueue(i)
	}

	waitUntil(t, func() bool { return p.ActiveCount() >= 2 })
}

func TestWorkerPool_WaitBlocksUntilDrained(t *testing.T) {
	q := tc.NewBoundedQueue[int](32)
	var processed atomic.Int64

	p, err := tc.NewWorkerPool[int](q, func(int) error {
		time.Sleep(time.Millisecond)
		processed.Add(1)
		return nil
	}, tc.Options{MinThreads: 2, ReservedThreads: 2})
	if err != nil {
		t.Fatalf("NewWorkerPool: %v", err)
	}

	p.Start(context.Background())
	defer p.Stop()

	for i := 0; i < 20; i++ {
		q.Enqueue(i)
	}

	p.Wait()
	if processed.Load() != 20 {
		t.Fatalf("Wait() returned with %d/20 items processed", processed.Load())
	}
}

func TestNewCallablePool_InvokesClosures(t *testing.T) {
	q := tc.NewBoundedQueue[func() error](8)
	var ran atomic.Int64

	p, err := tc.NewCallablePool(q, tc.Options{MinThreads: 1, ReservedThreads: 1})
	if err != nil {
		t.Fatalf("NewCallablePool: %v", err)
	}

	p.Start(context.Background())
	defer p.Stop()

	for i := 0; i < 10; i++ {
		q.Enqueue(func() error {
			ran.Add(1)
			return nil
		})
	}

	waitUntil(t, func() bool { return ran.Load() == 10 })
}
