package practice

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

// elapse fires every timer that is still armed.
func (c *fakeClock) elapse() {
	c.mu.Lock()
	armed := make([]*fakeTimer, 0, len(c.timers))
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			armed = append(armed, t)
		}
	}
	c.mu.Unlock()

	for _, t := range armed {
		t.f()
	}
}

func TestDebouncer_CoalescesWrites(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(300*time.Millisecond, clock)

	var writes []string
	d.Schedule("s1", func() { writes = append(writes, "first") })
	d.Schedule("s1", func() { writes = append(writes, "second") })
	d.Schedule("s1", func() { writes = append(writes, "third") })
	assert.True(t, d.Pending("s1"))
	assert.Empty(t, writes)

	clock.elapse()
	assert.Equal(t, []string{"third"}, writes)
	assert.False(t, d.Pending("s1"))
}

func TestDebouncer_KeysAreIndependent(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(time.Second, clock)

	got := map[string]int{}
	d.Schedule("a", func() { got["a"]++ })
	d.Schedule("b", func() { got["b"]++ })

	clock.elapse()
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, got)
}

func TestDebouncer_Cancel(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(time.Second, clock)

	ran := false
	d.Schedule("s1", func() { ran = true })
	assert.True(t, d.Cancel("s1"))
	assert.False(t, d.Cancel("s1"))

	clock.elapse()
	assert.False(t, ran)
	assert.False(t, d.Pending("s1"))
}

func TestDebouncer_Flush(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(time.Second, clock)

	count := 0
	d.Schedule("a", func() { count++ })
	d.Schedule("b", func() { count++ })

	d.Flush()
	assert.Equal(t, 2, count)
	assert.False(t, d.Pending("a"))

	clock.elapse()
	assert.Equal(t, 2, count)
}

func TestDebouncer_FlushKey(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(time.Second, clock)

	var order []string
	d.Schedule("a", func() { order = append(order, "a") })
	d.Schedule("b", func() { order = append(order, "b") })

	d.FlushKey("a")
	d.FlushKey("missing")
	assert.Equal(t, []string{"a"}, order)
	assert.True(t, d.Pending("b"))
}

func TestDebouncer_StaleTimerIsIgnored(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(time.Second, clock)

	var got []string
	d.Schedule("s1", func() { got = append(got, "old") })
	d.Schedule("s1", func() { got = append(got, "new") })

	// the replaced timer's callback may still run if it raced with Stop
	clock.timers[0].f()
	assert.Empty(t, got)
	assert.True(t, d.Pending("s1"))
}

func TestDebouncer_RealClock(t *testing.T) {
	d := NewDebouncer(10*time.Millisecond, nil)

	var n atomic.Int32
	d.Schedule("s1", func() { n.Add(1) })
	d.Schedule("s1", func() { n.Add(1) })

	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, d.Pending("s1"))
}
