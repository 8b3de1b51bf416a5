package taskcore

import (
	"context"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
	lg "github.com/Andrej220/go-utils/zlog"
)

// RetryPolicy describes how many times, and how often, a producer
// should retry Enqueue against a full queue. Zero values are treated
// as "use the package defaults".
//
// The queue and pool themselves never retry anything — Enqueue fails
// fast and Dequeue/DequeueBatch return what they find — this policy
// only backs EnqueueWithBackoff, an optional producer-side convenience
// for callers who want backpressure instead of an immediate failure.
type RetryPolicy struct {
	// Attempts is the maximum number of Enqueue tries.
	Attempts int

	// Initial is the first backoff duration after a failed attempt.
	Initial time.Duration

	// Max is the cap for backoff duration.
	Max time.Duration
}

const (
	defaultAttempts     = 5
	defaultInitialRetry = 200 * time.Microsecond
	defaultMaxRetry     = 50 * time.Millisecond
)

// DefaultRetryPolicy returns the package's default producer backoff
// policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: defaultAttempts,
		Initial:  defaultInitialRetry,
		Max:      defaultMaxRetry,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = defaultAttempts
	}
	if p.Initial <= 0 {
		p.Initial = defaultInitialRetry
	}
	if p.Max <= 0 {
		p.Max = defaultMaxRetry
	}
	return p
}

// EnqueueWithBackoff retries q.Enqueue(item) with exponential backoff
// until it succeeds, the context is cancelled, the queue is shut down,
// or policy.Attempts is exhausted. It returns ErrQueueFull once
// attempts run out, ErrPoolClosed if the queue was shut down
// mid-retry, and ctx.Err() if the context is what ended the loop.
//
// This is sugar over Enqueue, not a new primitive: BoundedQueue's
// contract stays non-blocking; this only lives on the producer's side
// of the call.
func EnqueueWithBackoff[T any](ctx context.Context, q Queue[T], item T, policy RetryPolicy) error {
	policy = policy.withDefaults()
	bo := boff.New(policy.Initial, policy.Max, time.Now().UnixNano())

	logger := lg.FromContext(ctx)

	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		if q.Enqueue(item) {
			return nil
		}
		if q.IsShutdown() {
			logger.Warn("enqueue abandoned; queue is shut down", lg.Int("attempt", attempt))
			return ErrPoolClosed
		}
		if attempt == policy.Attempts {
			logger.Warn("enqueue exhausted retries; queue still full",
				lg.Int("attempts", attempt))
			return ErrQueueFull
		}

		delay := bo.Next()
		logger.Warn("queue full; backing off before retry",
			lg.Int("attempt", attempt),
			lg.String("sleep", delay.String()))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return ctx.Err()
		}
	}
	return ErrQueueFull
}
