package taskcore

import (
	"runtime"
	"time"
)

// Options configure a WorkerPool.
//
// All zero values are replaced with sensible defaults by FillDefaults,
// which also clamps the thread-count bounds. Call Validate after
// FillDefaults to have the misconfiguration clamping cannot fix (the
// threshold ordering) reported as a combined error; NewWorkerPool
// calls both for you.
type Options struct {
	// MinThreads is the minimum number of active workers whenever the
	// pool is running. Clamped up to at least 1.
	MinThreads int

	// ReservedThreads is how many worker goroutines are spawned at
	// start, whether or not they start active. Clamped up to at least
	// MinThreads: reserved workers beyond MinThreads sit idle until
	// the monitor activates them.
	ReservedThreads int

	// MaxThreads is the hard upper bound on worker goroutines. Clamped
	// up to at least ReservedThreads.
	MaxThreads int

	// SpawnThreshold and ShrinkThreshold bound the throughput ratio
	// that drives scaling. SpawnThreshold must be strictly greater
	// than ShrinkThreshold; violating this is the one misconfiguration
	// Validate refuses to clamp around.
	SpawnThreshold  float64
	ShrinkThreshold float64

	// MonitorInterval is the sleep between the monitor's throughput
	// samples.
	MonitorInterval time.Duration

	// SpawnHysteresis and ShrinkHysteresis are how many consecutive
	// samples past a threshold are required before the monitor acts,
	// filtering out single-sample noise.
	SpawnHysteresis  int
	ShrinkHysteresis int

	// SpinCount is how many Gosched iterations WaitForItem spins
	// before falling back to timed sleeps.
	SpinCount int

	// BatchScalingOn enables scaling by more than one worker per
	// decision, proportional to how far the ratio has drifted past its
	// threshold. It also enables the worker loop's DequeueBatch path.
	BatchScalingOn     bool
	BatchScalingFactor float64

	// Batch dequeue parameters. When BatchScalingOn is set,
	// BatchMinSize/BatchTimeout gate whether
	// a worker uses DequeueBatch instead of Dequeue on a given pass of
	// its loop; BatchMaxCount bounds how much a single DequeueBatch
	// call can take at once.
	BatchMinSize  int
	BatchMaxCount int
	BatchTimeout  time.Duration

	// AdaptiveInterval enables widening/narrowing MonitorInterval based
	// on how stable recent ratio samples have been. Off by default.
	AdaptiveInterval bool

	// PinWorkers opts each worker goroutine into CPU affinity on
	// Linux; a no-op elsewhere. Off by default.
	PinWorkers bool
}

const (
	defaultSpawnThreshold     = 1.2
	defaultShrinkThreshold    = 0.8
	defaultMonitorInterval    = 200 * time.Millisecond
	defaultSpinCount          = 100
	defaultSpawnHysteresis    = 2
	defaultShrinkHysteresis   = 2
	defaultBatchScalingFactor = 1.0
	defaultBatchMinSize       = 1
	defaultBatchMaxCount      = 256
	defaultBatchTimeout       = 0

	minAdaptiveInterval = 10 * time.Millisecond
	maxAdaptiveInterval = 1000 * time.Millisecond
	adaptiveStableDelta  = 0.1
	adaptiveStableCount  = 5
)

// DefaultOptions returns an Options with every field set to its
// default: reserved threads at half of hardware concurrency, max at
// full hardware concurrency.
func DefaultOptions() Options {
	var o Options
	o.FillDefaults()
	return o
}

// FillDefaults replaces every zero-value field with a sensible
// default, then reconciles the thread-count bounds: MinThreads >= 1,
// ReservedThreads >= MinThreads, MaxThreads >= ReservedThreads. It
// does not touch SpawnThreshold/ShrinkThreshold ordering — that is
// Validate's job, because clamping a threshold silently would change
// the caller's intended scaling behavior rather than merely reconcile
// bounds.
func (o *Options) FillDefaults() {
	if o.MinThreads <= 0 {
		o.MinThreads = 1
	}
	if o.ReservedThreads <= 0 {
		o.ReservedThreads = maxInt(1, runtime.GOMAXPROCS(0)/2)
	}
	if o.MaxThreads <= 0 {
		o.MaxThreads = maxInt(1, runtime.GOMAXPROCS(0))
	}
	if o.SpawnThreshold == 0 {
		o.SpawnThreshold = defaultSpawnThreshold
	}
	if o.ShrinkThreshold == 0 {
		o.ShrinkThreshold = defaultShrinkThreshold
	}
	if o.MonitorInterval <= 0 {
		o.MonitorInterval = defaultMonitorInterval
	}
	if o.SpinCount <= 0 {
		o.SpinCount = defaultSpinCount
	}
	if o.SpawnHysteresis <= 0 {
		o.SpawnHysteresis = defaultSpawnHysteresis
	}
	if o.ShrinkHysteresis <= 0 {
		o.ShrinkHysteresis = defaultShrinkHysteresis
	}
	if o.BatchScalingFactor <= 0 {
		o.BatchScalingFactor = defaultBatchScalingFactor
	}
	if o.BatchMinSize <= 0 {
		o.BatchMinSize = defaultBatchMinSize
	}
	if o.BatchMaxCount <= 0 {
		o.BatchMaxCount = defaultBatchMaxCount
	}

	if o.ReservedThreads < o.MinThreads {
		o.ReservedThreads = o.MinThreads
	}
	if o.MaxThreads < o.ReservedThreads {
		o.MaxThreads = o.ReservedThreads
	}
}

// Validate reports every configuration problem FillDefaults' clamping
// cannot paper over. Call it after FillDefaults.
func (o *Options) Validate() error {
	var ve validationError
	if o.SpawnThreshold <= o.ShrinkThreshold {
		ve.add(ErrInvalidThresholds)
	}
	return ve.errOrNil()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
