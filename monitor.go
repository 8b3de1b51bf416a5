package taskcore

import (
	"context"
	"math"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
)

// monitorLoop samples the queue's throughput ratio every
// MonitorInterval and drives activate/deactivate decisions through
// hysteresis streak counters, so a single noisy sample triggers a
// scaling action on its own only when the matching hysteresis is 1:
// sleep, sample, compare against both thresholds, require consecutive
// hits before acting.
func (p *WorkerPool[T]) monitorLoop(ctx context.Context) {
	defer close(p.monitorDone)

	interval := p.opts.MonitorInterval
	stableStreak := 0
	lastRatio := math.NaN()

	for {
		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
		case <-p.stopCh:
			timer.Stop()
			return
		}

		ratio := p.queue.ThroughputRatio()
		scaled := false

		p.mu.Lock()
		switch {
		case ratio > p.opts.SpawnThreshold && p.activeCount < p.opts.MaxThreads:
			p.spawnStreak++
			p.shrinkStreak = 0
			if p.spawnStreak >= p.opts.SpawnHysteresis {
				n := p.scaleDelta(ratio - p.opts.SpawnThreshold)
				if activated := p.activateLocked(ctx, n); activated > 0 {
					scaled = true
					lg.FromContext(ctx).Info("scaling up",
						lg.Int("by", activated), lg.Int("active", p.activeCount))
				}
				p.spawnStreak = 0
			}
		case ratio < p.opts.ShrinkThreshold && p.activeCount > p.opts.MinThreads:
			p.shrinkStreak++
			p.spawnStreak = 0
			if p.shrinkStreak >= p.opts.ShrinkHysteresis {
				n := p.scaleDelta(p.opts.ShrinkThreshold - ratio)
				if deactivated := p.deactivateLocked(n); deactivated > 0 {
					scaled = true
					lg.FromContext(ctx).Info("scaling down",
						lg.Int("by", deactivated), lg.Int("active", p.activeCount))
				}
				p.shrinkStreak = 0
			}
		default:
			p.spawnStreak = 0
			p.shrinkStreak = 0
		}
		p.mu.Unlock()

		if p.opts.AdaptiveInterval {
			interval, stableStreak, lastRatio = adaptInterval(interval, ratio, lastRatio, stableStreak, scaled)
		}
	}
}

// scaleDelta computes how many workers to add or remove for a given
// overshoot past threshold. With BatchScalingOn it is proportional to
// the overshoot, floored to at least 1; otherwise it is always 1.
func (p *WorkerPool[T]) scaleDelta(overshoot float64) int {
	if !p.opts.BatchScalingOn || overshoot <= 0 {
		return 1
	}
	n := int(math.Floor(overshoot / p.opts.BatchScalingFactor))
	if n < 1 {
		n = 1
	}
	return n
}

// adaptInterval implements the optional adaptive-interval refinement:
// MonitorInterval widens toward maxAdaptiveInterval when consecutive
// samples stay within adaptiveStableDelta of each other, halves (never
// below minAdaptiveInterval) after any scaling action (the pool just
// proved the workload is changing and wants tighter sampling), and
// otherwise holds steady.
func adaptInterval(current time.Duration, ratio, lastRatio float64, stableStreak int, scaled bool) (time.Duration, int, float64) {
	if scaled {
		next := current / 2
		if next < minAdaptiveInterval {
			next = minAdaptiveInterval
		}
		return next, 0, ratio
	}

	if math.IsNaN(lastRatio) {
		return current, 0, ratio
	}

	if math.Abs(ratio-lastRatio) <= adaptiveStableDelta {
		stableStreak++
	} else {
		stableStreak = 0
	}

	next := current
	if stableStreak >= adaptiveStableCount {
		next = current * 2
		if next > maxAdaptiveInterval {
			next = maxAdaptiveInterval
		}
	}
	return next, stableStreak, ratio
}
