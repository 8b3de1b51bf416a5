package taskcore

import (
	"runtime"
	"sync/atomic"
	"time"
)

// slotIdle and slotBusy-adjacent sequence states are implicit in the
// comparison arithmetic below (see slot); there is no separate enum.

// slot is one cell of a BoundedQueue's ring. seq publishes whether the
// slot is ready to be written (seq == index) or ready to be read
// (seq == index+1), Vyukov-style: a producer that reserves index i by
// winning the tail CAS writes data first, then releases seq = i+1; a
// consumer never observes data for a slot whose seq has not yet
// advanced past its own expected value.
type slot[T any] struct {
	seq  atomic.Uint64
	data T
	_    [64 - 8]byte // best-effort pad; data's own size dominates for large T
}

// BoundedQueue is a lock-free, fixed-capacity multi-producer
// multi-consumer FIFO. Capacity must be a power of two so that index
// masking replaces modulo.
//
// tail is the next slot a producer will reserve (advanced by
// Enqueue); head is the next slot a consumer will reserve (advanced
// by Dequeue/DequeueBatch). Both only ever increase, and tail >= head
// at any observable instant.
//
// head and tail are kept on separate cache lines from each other and
// from the throughput counters: producers hammer tail, consumers
// hammer head, and the monitor goroutine reads both cumulative
// counters from throughputCounters. Without padding, those three
// independent access patterns would thrash a single cache line.
type BoundedQueue[T any] struct {
	tail atomic.Uint64
	_    [64 - 8]byte

	head atomic.Uint64
	_    [64 - 8]byte

	count atomic.Int64 // best-effort wake hint, not authoritative for emptiness
	_     [64 - 8]byte

	shutdown atomic.Bool
	_        [64 - 1]byte

	counters throughputCounters

	buf  []slot[T]
	mask uint64
	cap  uint64
}

// NewBoundedQueue creates a queue with the given capacity, rounded up
// to the next power of two (minimum 2).
func NewBoundedQueue[T any](capacity int) *BoundedQueue[T] {
	n := nextPow2(capacity)
	q := &BoundedQueue[T]{
		buf:  make([]slot[T], n),
		mask: n - 1,
		cap:  n,
	}
	for i := range q.buf {
		q.buf[i].seq.Store(uint64(i))
	}
	return q
}

func nextPow2(n int) uint64 {
	if n < 2 {
		return 2
	}
	v := uint64(n)
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	v++
	return v
}

// Capacity returns N, the fixed slot count.
func (q *BoundedQueue[T]) Capacity() int { return int(q.cap) }

// Size returns a best-effort snapshot of tail-head: how many
// reserved-and-filled slots are waiting to be dequeued.
func (q *BoundedQueue[T]) Size() int {
	head := q.head.Load()
	tail := q.tail.Load()
	return int(tail - head)
}

// Empty reports whether head == tail at the instant of the call.
func (q *BoundedQueue[T]) Empty() bool {
	return q.head.Load() == q.tail.Load()
}

// Full reports whether tail-head == N at the instant of the call.
func (q *BoundedQueue[T]) Full() bool {
	return q.tail.Load()-q.head.Load() == q.cap
}

// Enqueue attempts to place item into the queue. It returns false iff
// the queue was full at the instant of the attempt; it never blocks
// and never fails for any other reason, including after shutdown has
// been signalled — ceasing production is the caller's job, not this
// queue's.
func (q *BoundedQueue[T]) Enqueue(item T) bool {
	for {
		tail := q.tail.Load()
		s := &q.buf[tail&q.mask]
		seq := s.seq.Load()

		diff := int64(seq) - int64(tail)
		switch {
		case diff == 0:
			if q.tail.CompareAndSwap(tail, tail+1) {
				s.data = item
				s.seq.Store(tail + 1)
				q.counters.recordPush()
				q.count.Add(1)
				return true
			}
		case diff < 0:
			// seq is still behind tail: the slot from the previous
			// lap hasn't been drained yet. The queue is full.
			return false
		}
		// diff > 0: another producer already advanced past this tail
		// value; reload and retry.
	}
}

// Dequeue attempts to remove the oldest item. It returns false iff the
// queue was empty at the instant of the attempt.
func (q *BoundedQueue[T]) Dequeue() (T, bool) {
	for {
		head := q.head.Load()
		s := &q.buf[head&q.mask]
		seq := s.seq.Load()

		diff := int64(seq) - int64(head+1)
		switch {
		case diff == 0:
			if q.head.CompareAndSwap(head, head+1) {
				item := s.data
				var zero T
				s.data = zero
				s.seq.Store(head + q.cap)
				q.counters.recordPop()
				q.count.Add(-1)
				return item, true
			}
		case diff < 0:
			var zero T
			return zero, false
		}
	}
}

// DequeueBatch performs a single reservation attempt: it observes
// available = tail-head, computes
// k = min(available, maxK), and tries to advance head by k with one
// CAS. On success it moves k items out in index order; on failure it
// retries from a fresh observation. It returns the count actually
// popped, which may be zero.
//
// Unlike Enqueue/Dequeue, this does not validate per-slot sequence
// numbers before reserving — it trusts the head/tail delta. A producer
// advances tail before it writes the slot's data (see Enqueue), so a
// slot inside the reserved range may not be published yet; after
// winning the CAS on head, DequeueBatch spins on each reserved slot's
// sequence number until the producer's write is visible, and only then
// reads it.
func (q *BoundedQueue[T]) DequeueBatch(out []T) int {
	maxK := len(out)
	if maxK == 0 {
		return 0
	}
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		available := tail - head
		if available == 0 {
			return 0
		}
		k := available
		if k > uint64(maxK) {
			k = uint64(maxK)
		}
		if q.head.CompareAndSwap(head, head+k) {
			for i := uint64(0); i < k; i++ {
				s := &q.buf[(head+i)&q.mask]
				// The slot's producer may have won its tail CAS but
				// not yet published its data: spin for the release
				// store rather than trust the head/tail delta alone.
				for s.seq.Load() != head+i+1 {
					runtime.Gosched()
				}
				out[i] = s.data
				var zero T
				s.data = zero
				s.seq.Store(head + i + q.cap)
			}
			q.counters.recordPopN(k)
			q.count.Add(-int64(k))
			return int(k)
		}
	}
}

// WaitForItem blocks the caller until the item-count hint shows at
// least one item, or shutdown is observed, whichever first. The
// contract is spin-then-yield-then-sleep: up to spinCount iterations
// of runtime.Gosched(), then short timed sleeps. It is a hint only — a
// true Dequeue immediately afterward may still fail because another
// consumer raced in first.
func (q *BoundedQueue[T]) WaitForItem(spinCount int) {
	for i := 0; i < spinCount; i++ {
		if q.count.Load() > 0 || q.shutdown.Load() {
			return
		}
		runtime.Gosched()
	}
	for {
		if q.count.Load() > 0 || q.shutdown.Load() {
			return
		}
		time.Sleep(10 * time.Microsecond)
	}
}

// SignalShutdown marks the queue as shut down. Idempotent and sticky:
// once set it is never cleared for the lifetime of the queue.
func (q *BoundedQueue[T]) SignalShutdown() {
	q.shutdown.Store(true)
}

// IsShutdown reports whether SignalShutdown has been called.
func (q *BoundedQueue[T]) IsShutdown() bool {
	return q.shutdown.Load()
}

// ThroughputRatio returns pushes-since-last-call / pops-since-last-call
// for this queue, and advances the observer snapshot. It is designed
// for exactly one caller (a pool's monitor goroutine); concurrent
// callers will interleave each other's deltas meaninglessly.
//
// Convention: zero pushes and zero pops in the interval yields 1.0
// (idle, neutral). Nonzero pushes with zero pops yields a large
// sentinel representing unbounded producer pressure.
func (q *BoundedQueue[T]) ThroughputRatio() float64 {
	return q.counters.ratio()
}

// Queue is the contract a WorkerPool requires from its bound queue.
// BoundedQueue satisfies it; a caller could supply any other
// implementation with the same behavior.
type Queue[T any] interface {
	Empty() bool
	Size() int
	Capacity() int
	Enqueue(item T) bool
	Dequeue() (T, bool)
	DequeueBatch(out []T) int
	WaitForItem(spinCount int)
	SignalShutdown()
	IsShutdown() bool
	ThroughputRatio() float64
}

var _ Queue[int] = (*BoundedQueue[int])(nil)
