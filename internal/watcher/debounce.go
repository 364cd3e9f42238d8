package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid events per path: the callback runs once, delay
// after the last Add for that path.
type Debouncer struct {
	delay    time.Duration
	callback func(path string)

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
}

// NewDebouncer creates a Debouncer that calls callback on its own goroutine.
func NewDebouncer(delay time.Duration, callback func(path string)) *Debouncer {
	return &Debouncer{
		delay:    delay,
		callback: callback,
		pending:  make(map[string]*time.Timer),
	}
}

// Add schedules path, restarting its timer if already pending.
// After Stop, Add is a no-op.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.pending[path]; ok {
		t.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A newer Add replaced this timer.
		if d.pending[path] != t || d.stopped {
			d.mu.Unlock()
			return
		}
		delete(d.pending, path)
		d.mu.Unlock()

		d.callback(path)
	})
	d.pending[path] = t
}

// Stop cancels every pending path and rejects further Adds.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for path, t := range d.pending {
		t.Stop()
		delete(d.pending, path)
	}
}

// Pending returns the number of paths waiting for their timer.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
