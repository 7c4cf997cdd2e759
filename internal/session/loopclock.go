/*
Package session
File: loopclock.go
Description:
    LoopClock is the real-time game.Clock. Timers fire on runtime goroutines
    but never touch the game: each fire is posted as a closure onto Calls(),
    which the owning goroutine drains. A task stopped after its closure was
    queued is skipped when the closure runs, so Stop is final.
*/

package session

import (
	"sync"
	"time"

	"github.com/everforgeworks/pizza-copter/internal/game"
)

// LoopClock delivers timer callbacks to a single consumer goroutine.
type LoopClock struct {
	calls chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoopClock creates a clock whose Calls channel holds up to buffer pending fires.
func NewLoopClock(buffer int) *LoopClock {
	return &LoopClock{
		calls: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Calls is drained by the owner; every received closure must be invoked.
func (c *LoopClock) Calls() <-chan func() { return c.calls }

// Close releases timer goroutines blocked on a full Calls channel.
// Pending tasks keep their handles but will never run.
func (c *LoopClock) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *LoopClock) Now() time.Time { return time.Now() }

func (c *LoopClock) AfterFunc(d time.Duration, fn func()) game.Task {
	t := &loopTask{}
	t.timer = time.AfterFunc(d, func() {
		c.post(func() {
			if t.claim() {
				fn()
			}
		})
	})
	return t
}

func (c *LoopClock) Every(d time.Duration, fn func()) game.Task {
	if d <= 0 {
		panic("session: LoopClock.Every requires a positive interval")
	}
	t := &loopTask{periodic: true, stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.post(func() {
					if t.live() {
						fn()
					}
				})
			case <-t.stop:
				return
			case <-c.done:
				return
			}
		}
	}()
	return t
}

func (c *LoopClock) post(call func()) {
	select {
	case c.calls <- call:
	case <-c.done:
	}
}

type taskState int

const (
	taskPending taskState = iota
	taskFired
	taskStopped
)

type loopTask struct {
	mu       sync.Mutex
	state    taskState
	periodic bool
	timer    *time.Timer
	stop     chan struct{}
}

// claim marks a one-shot task as fired; false if it was stopped first.
func (t *loopTask) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != taskPending {
		return false
	}
	t.state = taskFired
	return true
}

func (t *loopTask) live() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == taskPending
}

func (t *loopTask) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != taskPending {
		return false
	}
	t.state = taskStopped
	if t.periodic {
		close(t.stop)
	} else {
		t.timer.Stop()
	}
	return true
}
