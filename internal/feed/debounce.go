package feed

import (
	"sync"
	"time"
)

// Debouncer coalesces a burst of calls into one trailing-edge invocation
// after a quiet period. The feed uses it for free-text search only; filter
// pills, navigation and inline edits are never debounced.
type Debouncer struct {
	mu    sync.Mutex
	quiet time.Duration
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(quiet time.Duration) *Debouncer {
	return &Debouncer{quiet: quiet}
}

// Call schedules fn after the quiet period, cancelling any pending call.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, fn)
}
