/*
Package game
File: scheduler.go
Description:
    The order scheduler decides when the next call comes in, turns the
    ringing call into an active order with its own countdown and keeps the
    set of active orders. Calls keep coming on a fixed cadence whether or not
    earlier orders have been delivered, so several countdowns can overlap.
*/

package game

import "time"

// schedulerHooks is how the scheduler reports back to its owning session.
type schedulerHooks interface {
	live() bool
	orderRinging(index int, def OrderDefinition)
	orderAccepted(o *ActiveOrder)
	orderTicked(o *ActiveOrder)
	orderExpired(o *ActiveOrder)
}

// SchedulerTiming is the subset of Tuning the scheduler needs.
type SchedulerTiming struct {
	RingTimeout time.Duration
	RingCadence time.Duration
}

// Scheduler tracks ringing and active orders for one session.
type Scheduler struct {
	catalog []OrderDefinition
	clock   Clock
	timing  SchedulerTiming
	hooks   schedulerHooks

	next      int // Next catalog index to ring; never reused
	ringing   int // Catalog index currently ringing, -1 when silent
	active    []*ActiveOrder
	delivered int
	seq       int

	ringTask Task // Auto-answer of the ringing call
	nextRing Task // Pending call after the cadence
	stopped  bool
}

func newScheduler(catalog []OrderDefinition, clock Clock, timing SchedulerTiming, hooks schedulerHooks) *Scheduler {
	return &Scheduler{
		catalog: catalog,
		clock:   clock,
		timing:  timing,
		hooks:   hooks,
		ringing: -1,
	}
}

// Ringing returns the catalog index of the ringing call.
func (s *Scheduler) Ringing() (int, bool) {
	return s.ringing, s.ringing >= 0
}

// Delivered returns how many orders have been completed.
func (s *Scheduler) Delivered() int { return s.delivered }

// Total returns the catalog size.
func (s *Scheduler) Total() int { return len(s.catalog) }

// Next returns the catalog index that will ring next.
func (s *Scheduler) Next() int { return s.next }

// Active returns the active orders in acceptance order. The slice is a copy.
func (s *Scheduler) Active() []*ActiveOrder {
	out := make([]*ActiveOrder, len(s.active))
	copy(out, s.active)
	return out
}

// ScheduleNextRing starts ringing the next catalog order.
// It reports false when there is nothing to ring or a call is already waiting.
func (s *Scheduler) ScheduleNextRing() bool {
	if s.stopped || !s.hooks.live() {
		return false
	}
	if s.next >= len(s.catalog) || s.ringing >= 0 {
		return false
	}

	idx := s.next
	s.ringing = idx
	s.ringTask = s.clock.AfterFunc(s.timing.RingTimeout, func() {
		// The player may have answered in the meantime.
		if s.ringing == idx {
			s.Accept(idx)
		}
	})
	s.hooks.orderRinging(idx, s.catalog[idx])
	return true
}

// scheduleRingAfter queues ScheduleNextRing after d, replacing any pending call.
func (s *Scheduler) scheduleRingAfter(d time.Duration) {
	if s.stopped {
		return
	}
	if s.nextRing != nil {
		s.nextRing.Stop()
	}
	s.nextRing = s.clock.AfterFunc(d, func() {
		s.nextRing = nil
		s.ScheduleNextRing()
	})
}

// Accept answers the ringing call at index and starts its countdown.
func (s *Scheduler) Accept(index int) (*ActiveOrder, bool) {
	if s.stopped || !s.hooks.live() {
		return nil, false
	}
	if s.ringing < 0 || s.ringing != index {
		return nil, false
	}

	if s.ringTask != nil {
		s.ringTask.Stop()
		s.ringTask = nil
	}
	s.ringing = -1

	s.seq++
	def := s.catalog[index]
	order := &ActiveOrder{
		ID:         s.seq,
		Index:      index,
		Def:        def,
		Remaining:  def.TimeLimit,
		AcceptedAt: s.clock.Now(),
		active:     true,
	}
	order.countdown = s.clock.Every(time.Second, func() { s.tick(order) })
	s.active = append(s.active, order)
	s.next = index + 1

	s.hooks.orderAccepted(order)

	// The next call comes after the cadence even if this order is still running.
	s.scheduleRingAfter(s.timing.RingCadence)
	return order, true
}

func (s *Scheduler) tick(o *ActiveOrder) {
	if s.stopped || !o.active || !s.hooks.live() {
		return
	}
	o.Remaining--
	if o.Remaining <= 0 {
		o.Remaining = 0
		s.hooks.orderTicked(o)
		s.hooks.orderExpired(o)
		return
	}
	s.hooks.orderTicked(o)
}

// Complete removes a delivered order and stops its timers.
// It reports false if the order was not active.
func (s *Scheduler) Complete(o *ActiveOrder) bool {
	if !o.active {
		return false
	}
	for i, a := range s.active {
		if a == o {
			s.active = append(s.active[:i], s.active[i+1:]...)
			break
		}
	}
	s.retire(o)
	s.delivered++
	return true
}

func (s *Scheduler) retire(o *ActiveOrder) int {
	stopped := 0
	o.active = false
	if o.countdown != nil && o.countdown.Stop() {
		stopped++
	}
	if o.reminder != nil && o.reminder.Stop() {
		stopped++
	}
	return stopped
}

// Stop tears down every scheduled task. It returns how many pending tasks it
// cancelled; a second call finds nothing left and returns 0.
func (s *Scheduler) Stop() int {
	if s.stopped {
		return 0
	}
	s.stopped = true

	stopped := 0
	if s.ringTask != nil && s.ringTask.Stop() {
		stopped++
	}
	if s.nextRing != nil && s.nextRing.Stop() {
		stopped++
	}
	s.ringTask, s.nextRing = nil, nil
	s.ringing = -1

	for _, o := range s.active {
		stopped += s.retire(o)
	}
	return stopped
}
