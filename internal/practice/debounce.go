package practice

import (
	"sync"
	"time"
)

// Timer is a scheduled call that can be stopped.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed calls.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// pendingWrite is a write waiting for its quiet period to elapse.
type pendingWrite struct {
	timer Timer
	write func()
}

// Debouncer coalesces rapid writes per key into one write after a quiet period.
// Scheduling a key cancels its pending write and starts the wait again.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	clock   Clock
	pending map[string]*pendingWrite
}

// NewDebouncer creates a Debouncer. A nil clock uses the system timer.
func NewDebouncer(delay time.Duration, clock Clock) *Debouncer {
	if clock == nil {
		clock = realClock{}
	}
	return &Debouncer{
		delay:   delay,
		clock:   clock,
		pending: make(map[string]*pendingWrite),
	}
}

// Schedule replaces the pending write for key with write.
func (d *Debouncer) Schedule(key string, write func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}

	p := &pendingWrite{write: write}
	p.timer = d.clock.AfterFunc(d.delay, func() { d.fire(key, p) })
	d.pending[key] = p
}

// Cancel drops the pending write for key. It reports whether one was pending.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(d.pending, key)
	return true
}

// Pending reports whether a write is waiting for key.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// FlushKey runs the pending write for key now, if any.
func (d *Debouncer) FlushKey(key string) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if ok {
		p.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()

	if ok {
		p.write()
	}
}

// Flush runs every pending write now.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	writes := make([]func(), 0, len(d.pending))
	for key, p := range d.pending {
		p.timer.Stop()
		writes = append(writes, p.write)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	for _, w := range writes {
		w()
	}
}

func (d *Debouncer) fire(key string, p *pendingWrite) {
	d.mu.Lock()
	if d.pending[key] != p {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	p.write()
}
