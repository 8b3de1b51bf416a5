package taskcore

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"

	"github.com/azargarov/taskcore/internal/affinity"
)

// worker is one pool goroutine's shared state. active gates whether it
// pulls from the queue or idles on cond; exitRequested tells it to
// return instead of idling once woken. Both are atomics because the
// worker loop reads them outside the pool mutex on its hot path.
type worker struct {
	active        atomic.Bool
	exitRequested atomic.Bool
}

// WorkerPool runs a fixed handler over items pulled from a Queue,
// growing and shrinking its active worker count in response to the
// queue's throughput ratio. See NewWorkerPool.
//
// workers holds every worker goroutine's record, activeCount tracks
// how many are currently pulling from the queue rather than idling,
// and cond wakes idle workers back up when the monitor reactivates
// them.
type WorkerPool[T any] struct {
	queue   Queue[T]
	handler Handler[T]
	opts    Options

	mu          sync.Mutex
	cond        *sync.Cond
	workers     []*worker
	activeCount int

	spawnStreak  int
	shrinkStreak int

	running atomic.Bool
	busy    atomic.Int64

	stopCh      chan struct{}
	monitorDone chan struct{}
	wg          sync.WaitGroup
}

// NewWorkerPool constructs a pool bound to queue, dispatching every
// dequeued item to handler. opts is defaulted via FillDefaults and
// then checked with Validate; a non-nil error means opts was rejected
// outright, not silently repaired.
func NewWorkerPool[T any](queue Queue[T], handler Handler[T], opts Options) (*WorkerPool[T], error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	opts.FillDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	p := &WorkerPool[T]{
		queue:   queue,
		handler: handler,
		opts:    opts,
	}
	p.cond = sync.NewCond(&p.mu)
	return p, nil
}

// Start launches ReservedThreads worker goroutines (MinThreads of them
// immediately active) and the monitor goroutine. It is idempotent: a
// second call on an already-running pool is a no-op and returns false.
func (p *WorkerPool[T]) Start(ctx context.Context) bool {
	if !p.running.CompareAndSwap(false, true) {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}
	p.stopCh = make(chan struct{})
	p.monitorDone = make(chan struct{})

	p.mu.Lock()
	for i := 0; i < p.opts.ReservedThreads; i++ {
		p.spawnWorkerLocked(ctx)
	}
	for i := 0; i < p.opts.MinThreads && i < len(p.workers); i++ {
		p.workers[i].active.Store(true)
		p.activeCount++
	}
	p.mu.Unlock()

	lg.FromContext(ctx).Info("worker pool started",
		lg.Int("reserved", p.opts.ReservedThreads),
		lg.Int("active", p.activeCount),
		lg.Int("max", p.opts.MaxThreads))

	go p.monitorLoop(ctx)
	return true
}

// spawnWorkerLocked must be called with mu held. It appends a new,
// inactive worker record and launches its goroutine.
func (p *WorkerPool[T]) spawnWorkerLocked(ctx context.Context) {
	idx := len(p.workers)
	w := &worker{}
	p.workers = append(p.workers, w)
	p.wg.Add(1)
	go p.workerLoop(ctx, w, idx)
}

// Stop requests every worker to exit, signals the underlying queue's
// shutdown flag, stops the monitor, and blocks until every worker
// goroutine has returned. Idempotent: a second call on an
// already-stopped pool is a no-op and returns false.
func (p *WorkerPool[T]) Stop() bool {
	if !p.running.CompareAndSwap(true, false) {
		return false
	}

	p.mu.Lock()
	for _, w := range p.workers {
		w.exitRequested.Store(true)
	}
	p.queue.SignalShutdown()
	p.cond.Broadcast()
	p.mu.Unlock()

	close(p.stopCh)
	<-p.monitorDone

	p.wg.Wait()

	p.mu.Lock()
	p.workers = nil
	p.activeCount = 0
	p.spawnStreak = 0
	p.shrinkStreak = 0
	p.mu.Unlock()
	return true
}

// Wait blocks until the queue is empty and no worker is currently
// processing an item. It does not stop the pool or prevent new items
// from arriving concurrently — it is a drain barrier, not a lifecycle
// operation.
func (p *WorkerPool[T]) Wait() {
	for {
		if p.queue.Empty() && p.busy.Load() == 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

// ActiveCount returns the number of workers currently marked active.
func (p *WorkerPool[T]) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeCount
}

// TotalThreads returns the number of worker goroutines alive, active
// or idle.
func (p *WorkerPool[T]) TotalThreads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// activateLocked brings up to n idle workers into the active set,
// spawning new worker goroutines first if every existing one is
// already active. Must be called with mu held.
func (p *WorkerPool[T]) activateLocked(ctx context.Context, n int) int {
	activated := 0
	for activated < n && p.activeCount < p.opts.MaxThreads {
		if len(p.workers) <= p.activeCount {
			p.spawnWorkerLocked(ctx)
		}
		found := false
		for _, w := range p.workers {
			if !w.active.Load() {
				w.active.Store(true)
				p.activeCount++
				found = true
				break
			}
		}
		if !found {
			break
		}
		activated++
	}
	if activated > 0 {
		p.cond.Broadcast()
	}
	return activated
}

// deactivateLocked idles up to n active workers, never going below
// MinThreads. Must be called with mu held.
func (p *WorkerPool[T]) deactivateLocked(n int) int {
	deactivated := 0
	for deactivated < n && p.activeCount > p.opts.MinThreads {
		found := false
		for _, w := range p.workers {
			if w.active.Load() {
				w.active.Store(false)
				p.activeCount--
				found = true
				break
			}
		}
		if !found {
			break
		}
		deactivated++
	}
	return deactivated
}

// workerLoop is the body run by every worker goroutine. idx is this
// worker's slot index, used only for CPU affinity when PinWorkers is
// set.
func (p *WorkerPool[T]) workerLoop(ctx context.Context, w *worker, idx int) {
	defer p.wg.Done()

	if p.opts.PinWorkers && affinity.Supported {
		runtime.LockOSThread()
		if err := affinity.Pin(idx % runtime.NumCPU()); err != nil {
			lg.FromContext(ctx).Warn("failed to pin worker to cpu",
				lg.Int("worker", idx), lg.Any("error", err))
		}
	}

	batch := make([]T, p.opts.BatchMaxCount)
	lastBatchStart := time.Now()

	for {
		if w.exitRequested.Load() {
			return
		}
		if !w.active.Load() {
			p.mu.Lock()
			for !w.active.Load() && !w.exitRequested.Load() {
				p.cond.Wait()
			}
			p.mu.Unlock()
			continue
		}

		p.queue.WaitForItem(p.opts.SpinCount)
		if w.exitRequested.Load() {
			return
		}
		if p.queue.IsShutdown() && p.queue.Empty() {
			return
		}

		useBatch := p.opts.BatchScalingOn &&
			(p.queue.Size() >= p.opts.BatchMinSize ||
				(p.opts.BatchTimeout > 0 && time.Since(lastBatchStart) >= p.opts.BatchTimeout))

		// busy is raised before dequeuing so that Wait never sees an
		// empty queue while an item taken from it is still unprocessed.
		if useBatch {
			p.busy.Add(1)
			n := p.queue.DequeueBatch(batch)
			lastBatchStart = time.Now()
			for i := 0; i < n; i++ {
				p.invoke(ctx, batch[i])
			}
			p.busy.Add(-1)
			continue
		}

		p.busy.Add(1)
		if item, ok := p.queue.Dequeue(); ok {
			p.invoke(ctx, item)
		}
		p.busy.Add(-1)
	}
}

// invoke runs the handler on one item, recovering from panics and
// logging (rather than propagating) both panics and returned errors.
// Neither failure mode stops the pool or the worker; the item is just
// dropped.
func (p *WorkerPool[T]) invoke(ctx context.Context, item T) {
	p.busy.Add(1)
	defer p.busy.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			lg.FromContext(ctx).Error("handler panicked; item dropped", lg.Any("panic", r))
		}
	}()
	if err := p.handler(item); err != nil {
		lg.FromContext(ctx).Error("handler returned error", lg.Any("error", err))
	}
}
