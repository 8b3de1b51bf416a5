package taskcore

// Handler processes one item dequeued by a worker. It may return an
// error; like a panic, that error is caught by the worker loop,
// logged, and discarded — it never stops the pool and is never
// retried. The handler must not assume any ordering relative to other
// workers' invocations.
type Handler[T any] func(item T) error

// NewCallablePool builds a WorkerPool whose items are themselves the
// unit of work: Item is func() error, and the handler just invokes it.
// Use this when callers want to enqueue arbitrary closures instead of
// defining a separate Handler for a fixed item type.
func NewCallablePool(queue Queue[func() error], opts Options) (*WorkerPool[func() error], error) {
	return NewWorkerPool[func() error](queue, func(fn func() error) error {
		return fn()
	}, opts)
}
