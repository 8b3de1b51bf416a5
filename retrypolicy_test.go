package taskcore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	tc "github.com/azargarov/taskcore"
)

func TestEnqueueWithBackoff_SucceedsOnceRoomFrees(t *testing.T) {
	q := tc.NewBoundedQueue[int](1)
	q.Enqueue(0) // fill the only slot

	go func() {
		time.Sleep(2 * time.Millisecond)
		q.Dequeue()
	}()

	policy := tc.RetryPolicy{Attempts: 10, Initial: time.Millisecond, Max: 5 * time.Millisecond}
	err := tc.EnqueueWithBackoff(context.Background(), q, 42, policy)
	if err != nil {
		t.Fatalf("EnqueueWithBackoff() = %v, want nil", err)
	}
}

func TestEnqueueWithBackoff_ExhaustsAttempts(t *testing.T) {
	q := tc.NewBoundedQueue[int](1)
	q.Enqueue(0)

	policy := tc.RetryPolicy{Attempts: 3, Initial: time.Microsecond, Max: time.Microsecond}
	err := tc.EnqueueWithBackoff(context.Background(), q, 42, policy)
	if !errors.Is(err, tc.ErrQueueFull) {
		t.Fatalf("EnqueueWithBackoff() = %v, want ErrQueueFull", err)
	}
}

func TestEnqueueWithBackoff_ReturnsPoolClosedOnShutdown(t *testing.T) {
	q := tc.NewBoundedQueue[int](1)
	q.Enqueue(0)
	q.SignalShutdown()

	policy := tc.RetryPolicy{Attempts: 10, Initial: time.Millisecond, Max: time.Millisecond}
	err := tc.EnqueueWithBackoff(context.Background(), q, 42, policy)
	if !errors.Is(err, tc.ErrPoolClosed) {
		t.Fatalf("EnqueueWithBackoff() = %v, want ErrPoolClosed", err)
	}
}

func TestEnqueueWithBackoff_RespectsContextCancellation(t *testing.T) {
	q := tc.NewBoundedQueue[int](1)
	q.Enqueue(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := tc.RetryPolicy{Attempts: 10, Initial: 50 * time.Millisecond, Max: time.Second}
	err := tc.EnqueueWithBackoff(ctx, q, 42, policy)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("EnqueueWithBackoff() = %v, want context.Canceled", err)
	}
}
