package globaltime

import (
	"sync"
	"time"
)

var (
	mu  sync.RWMutex
	now = time.Now
)

// UTC returns the current time in UTC. Ledger timestamps always store UTC.
func UTC() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return now().UTC()
}

// Freeze pins the clock to t and returns the function that restores it.
// Tests defer the restore (or hand it to t.Cleanup).
func Freeze(t time.Time) func() {
	mu.Lock()
	now = func() time.Time { return t }
	mu.Unlock()

	return func() {
		mu.Lock()
		now = time.Now
		mu.Unlock()
	}
}
