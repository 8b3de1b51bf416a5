package taskcore

import "sync/atomic"

// idleRatio is the throughput ratio reported when a sampling window
// saw neither a push nor a pop. Treated as neutral, not as pressure.
const idleRatio = 1.0

// pressureRatio is the sentinel reported when a sampling window saw
// pushes but zero pops: producer pressure with no drain at all. A
// true +Inf would make the monitor's threshold comparisons awkward to
// reason about, so a large finite sentinel is used instead.
const pressureRatio = 9999.0

// throughputCounters tracks the queue's cumulative push/pop counts and
// the single monitor observer's last-seen snapshot of them.
//
// pushesTotal and popsTotal are written on every hot-path Enqueue and
// Dequeue/DequeueBatch; lastPush/lastPop are only ever touched by
// ThroughputRatio. The padding after popsTotal keeps them off the hot
// counters' cache lines; they share one line with each other, since a
// single observer calling a cold-path method does not contend with
// itself.
type throughputCounters struct {
	pushesTotal atomic.Uint64
	_           [56]byte // padding to avoid false sharing with popsTotal

	popsTotal atomic.Uint64
	_         [56]byte

	lastPush uint64
	lastPop  uint64
}

func (c *throughputCounters) recordPush() {
	c.pushesTotal.Add(1)
}

func (c *throughputCounters) recordPop() {
	c.popsTotal.Add(1)
}

func (c *throughputCounters) recordPopN(n uint64) {
	c.popsTotal.Add(n)
}

// ratio computes (pushes-since-last / pops-since-last) and advances
// the observer's snapshot. It is only meaningful when called from a
// single observer: concurrent callers would interleave each other's
// deltas into nonsense.
func (c *throughputCounters) ratio() float64 {
	pushes := c.pushesTotal.Load()
	pops := c.popsTotal.Load()

	dPush := pushes - c.lastPush
	dPop := pops - c.lastPop
	c.lastPush = pushes
	c.lastPop = pops

	switch {
	case dPush == 0 && dPop == 0:
		return idleRatio
	case dPush > 0 && dPop == 0:
		return pressureRatio
	default:
		return float64(dPush) / float64(dPop)
	}
}
