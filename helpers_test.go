package taskcore_test

import (
	"runtime"
	"testing"
	"time"
)

const waitTimeout = 5 * time.Second

// waitUntil polls cond until it's true or waitTimeout elapses, yielding
// between polls instead of busy-spinning a single core.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		runtime.Gosched()
	}
	t.Fatal("condition not satisfied before timeout")
}
