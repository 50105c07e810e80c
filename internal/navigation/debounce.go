package navigation

import (
	"sync"
	"time"
)

const (
	// MinDebounce is the shortest delay accepted; anything lower is raised to it
	MinDebounce = 600 * time.Millisecond
	// DefaultDebounce is used when no delay is configured
	DefaultDebounce = 700 * time.Millisecond
)

// Debouncer coalesces bursts of triggers through a single timer. Only the
// last value passed to Trigger before the timer fires reaches fn.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(url string)
	timer   *time.Timer
	latest  string
	gen     uint64
	stopped bool
}

// NewDebouncer creates a debouncer. A zero delay selects DefaultDebounce.
func NewDebouncer(delay time.Duration, fn func(url string)) *Debouncer {
	if delay == 0 {
		delay = DefaultDebounce
	}
	if delay < MinDebounce {
		delay = MinDebounce
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Delay returns the effective debounce delay
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger records url and restarts the timer
func (d *Debouncer) Trigger(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.latest = url
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// fire delivers the latest value unless a newer trigger superseded gen
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	url := d.latest
	d.timer = nil
	d.mu.Unlock()

	d.fn(url)
}

// Stop cancels any pending trigger. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
