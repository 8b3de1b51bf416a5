// Package taskcore provides a lock-free bounded MPMC queue and an
// elastic worker pool bound to it.
//
// Design goals
//
// The package is designed around the following principles:
//
//   - Non-blocking enqueue/dequeue with CAS retry loops, never a lock
//   - Predictable throughput under high contention rather than
//     minimal single-item latency
//   - A pool that tracks demand instead of running a fixed goroutine
//     count, without oscillating on noisy samples
//
// Architecture overview
//
// The package is composed of two cooperating layers plus one
// configuration helper:
//
//   1. BoundedQueue[T]
//      A fixed-capacity, power-of-two-sized ring buffer. Any number
//      of producers may Enqueue and any number of consumers may
//      Dequeue concurrently; no lock is taken on either path.
//
//   2. WorkerPool[T]
//      Owns a set of worker goroutines bound to one BoundedQueue and
//      a dedicated monitor goroutine. The monitor samples the queue's
//      push/pop throughput ratio every MonitorInterval (adjusted over
//      time when AdaptiveInterval is set) and activates or deactivates
//      workers through hysteresis-filtered control logic. Deactivated
//      worker goroutines idle rather than exit.
//
//   3. Options / ScenarioPresets
//      Options configures a WorkerPool; BatchPreset and RealtimePreset
//      return ready-made Options for two common workload shapes.
//
// Queue design
//
// BoundedQueue uses a Vyukov-style sequence-counter protocol: each
// slot carries its own sequence number, published with a release
// store only after the slot's data has been written. Consumers check a
// slot's sequence rather than relying on a coarse "item count" hint to
// decide whether a slot's write has landed: Dequeue treats a slot whose
// sequence is not yet published as empty, and DequeueBatch spins on
// each slot it has reserved until its sequence is published. This is the stricter of two protocols this design
// considered; see DESIGN.md for the alternative that was rejected.
//
// Scaling model
//
// The monitor loop reacts to a single sample only when the matching
// hysteresis is 1. A ratio above
// SpawnThreshold (or below ShrinkThreshold) must persist for
// SpawnHysteresis (ShrinkHysteresis) consecutive samples before the
// pool actually activates (deactivates) a worker. When BatchScalingOn
// is set, the number of workers adjusted per decision scales with how
// far the ratio has drifted past its threshold, instead of always
// moving by exactly one.
//
// Error handling
//
// No queue or pool operation on the hot path returns an error for a
// runtime condition (full queue, empty queue, a failing handler).
// Those are local: a bool/count return, or a value swallowed and
// logged. Only construction-time misconfiguration and OS-resource
// failures propagate as errors.
//
// Intended use cases
//
// taskcore is well suited for fan-in/fan-out pipelines and
// high-throughput task execution where the producer/consumer ratio
// varies over the program's lifetime. It is not a replacement for
// channels when ordering, backpressure-by-blocking, or a single fixed
// goroutine count is what's actually needed.
package taskcore
