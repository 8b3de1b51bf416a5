package taskcore

import (
	"errors"

	"go.uber.org/multierr"
)

var (
	// ErrQueueFull is returned when the underlying queue cannot accept
	// more items. It is never fatal: the caller owns backpressure.
	ErrQueueFull = errors.New("taskcore: queue is full")

	// ErrNilHandler is returned when a pool is constructed without a
	// handler.
	ErrNilHandler = errors.New("taskcore: handler is nil")

	// ErrInvalidThresholds is returned by Options.Validate when
	// SpawnThreshold <= ShrinkThreshold. It is the one configuration
	// mistake Validate refuses to paper over with a default or a clamp.
	ErrInvalidThresholds = errors.New("taskcore: spawn threshold must be greater than shrink threshold")

	// ErrPoolClosed is returned by EnqueueWithBackoff when the queue it
	// is retrying against has already been shut down — continuing to
	// retry against a pool that is draining for shutdown would just
	// burn attempts for nothing.
	ErrPoolClosed = errors.New("taskcore: queue is shut down")
)

// validationError accumulates every configuration problem found by
// Options.Validate instead of failing on the first one, so a caller
// fixing a misconfigured pool sees every violation in one pass.
type validationError struct {
	errs []error
}

func (v *validationError) add(err error) {
	if err != nil {
		v.errs = append(v.errs, err)
	}
}

func (v *validationError) errOrNil() error {
	if len(v.errs) == 0 {
		return nil
	}
	return multierr.Combine(v.errs...)
}
