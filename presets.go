package taskcore

import (
	"runtime"
	"time"
)

// BatchPreset returns Options tuned for throughput over latency: a
// single reserved worker, aggressive batch dequeuing, and wide
// hysteresis so short bursts don't thrash the worker count. Requires
// a queue that implements DequeueBatch meaningfully (BoundedQueue
// does).
func BatchPreset() Options {
	return Options{
		ReservedThreads:    1,
		MinThreads:         1,
		MaxThreads:         runtime.GOMAXPROCS(0),
		SpawnThreshold:     1.8,
		ShrinkThreshold:    0.5,
		MonitorInterval:    500 * time.Millisecond,
		SpawnHysteresis:    3,
		ShrinkHysteresis:   2,
		BatchScalingOn:     true,
		BatchScalingFactor: 0.5,
		BatchMinSize:       10,
		BatchMaxCount:       200,
		BatchTimeout:       3000 * time.Millisecond,
	}
}

// RealtimePreset returns Options tuned for latency over throughput:
// more reserved workers held ready, tight thresholds so the pool
// reacts fast, no batching.
func RealtimePreset() Options {
	hw := runtime.GOMAXPROCS(0)
	reserved := hw / 2
	if reserved < 2 {
		reserved = 2
	}
	return Options{
		ReservedThreads:  reserved,
		MinThreads:       2,
		MaxThreads:       hw,
		SpawnThreshold:   1.05,
		ShrinkThreshold:  0.9,
		MonitorInterval:  100 * time.Millisecond,
		SpawnHysteresis:  1,
		ShrinkHysteresis: 1,
		BatchScalingOn:   false,
	}
}
