/*
Package game
File: clock.go
Description:
    The scheduling primitives the rules engine depends on.
    The engine never calls time.AfterFunc directly: every countdown, ring
    timeout and speed-modifier expiry goes through a Clock so that a session
    can be driven by real time (session.LoopClock) or by a simulated clock in
    tests (ManualClock).
*/

package game

import (
	"sort"
	"sync"
	"time"
)

// Task is a handle to a scheduled callback.
type Task interface {
	// Stop cancels the task. It reports true only for the call that actually
	// cancelled a pending task; stopping a fired or stopped task returns false.
	Stop() bool
}

// Clock schedules callbacks. Callbacks must run on the session's logical thread.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Task
	Every(d time.Duration, fn func()) Task
}

// ManualClock is a simulated clock. Time only moves when Advance is called and
// due callbacks run synchronously on the caller's goroutine, in due order.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*manualTask
}

type manualTask struct {
	clock  *ManualClock
	due    time.Time
	every  time.Duration
	seq    uint64
	fn     func()
	queued bool
}

// NewManualClock creates a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) AfterFunc(d time.Duration, fn func()) Task {
	return c.schedule(d, 0, fn)
}

func (c *ManualClock) Every(d time.Duration, fn func()) Task {
	if d <= 0 {
		panic("game: ManualClock.Every requires a positive interval")
	}
	return c.schedule(d, d, fn)
}

func (c *ManualClock) schedule(d, every time.Duration, fn func()) Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTask{clock: c, due: c.now.Add(d), every: every, seq: c.seq, fn: fn}
	c.insertLocked(t)
	return t
}

func (c *ManualClock) insertLocked(t *manualTask) {
	t.queued = true
	c.pending = append(c.pending, t)
	sort.SliceStable(c.pending, func(i, j int) bool {
		a, b := c.pending[i], c.pending[j]
		if a.due.Equal(b.due) {
			return a.seq < b.seq
		}
		return a.due.Before(b.due)
	})
}

func (c *ManualClock) removeLocked(t *manualTask) {
	for i, p := range c.pending {
		if p == t {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			break
		}
	}
	t.queued = false
}

func (t *manualTask) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()
	if !t.queued {
		return false
	}
	c.removeLocked(t)
	return true
}

// Advance moves time forward by d, firing every callback that falls due.
// Callbacks scheduled by callbacks are honoured if they fall inside the window.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		if len(c.pending) == 0 || c.pending[0].due.After(target) {
			c.now = target
			c.mu.Unlock()
			return
		}
		t := c.pending[0]
		c.now = t.due
		c.removeLocked(t)
		if t.every > 0 {
			t.due = t.due.Add(t.every)
			c.insertLocked(t)
		}
		fn := t.fn
		c.mu.Unlock()

		fn()
	}
}

// Pending returns the number of scheduled, not yet fired or stopped tasks.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
