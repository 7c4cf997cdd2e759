/*
Package game
File: session.go
Description:
    The Session aggregate owns every piece of per-game state: the scheduler,
    cargo and tail, the power-up field, the speed modifier and the carrier
    position. All methods and all clock callbacks are expected to run on one
    logical thread; the server runs each Session inside its own goroutine.
*/

package game

import (
	"fmt"
	"math/rand"
	"time"
)

// Deps are the collaborators a Session talks to.
type Deps struct {
	World     WorldView
	Clock     Clock
	Presenter Presenter  // Optional
	Rand      *rand.Rand // Optional; used for power-up jitter
}

// Session is one game from the first call to the last delivery (or the first
// missed one).
type Session struct {
	cfg     Config
	tuning  Tuning
	catalog []OrderDefinition

	world     WorldView
	clock     Clock
	presenter Presenter

	state  SessionState
	paused bool
	score  int

	carrier       Coordinate
	carrierMarker MarkerID
	shopMarker    MarkerID

	cargo    *Cargo
	tail     *Tail
	field    *Field
	speed    *SpeedModifier
	sched    *Scheduler
	resolver *Resolver
	move     Integrator
}

// NewSession validates cfg and places the helicopter and the shop on the map.
func NewSession(cfg Config, deps Deps) (*Session, error) {
	if deps.World == nil || deps.Clock == nil {
		return nil, fmt.Errorf("new session: world and clock are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	t := cfg.Tuning
	rnd := deps.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(deps.Clock.Now().UnixNano()))
	}

	s := &Session{
		cfg:       cfg,
		tuning:    t,
		catalog:   cfg.Catalog(),
		world:     deps.World,
		clock:     deps.Clock,
		presenter: deps.Presenter,
		state:     StateNotStarted,
		carrier:   cfg.Map.Start,
		cargo:     NewCargo(t.Capacity, t.PickupPolicy),
		tail:      NewTail(deps.World, t.TailSpacing),
		move:      Integrator{BaseSpeed: t.BaseSpeed},
	}
	s.field = NewField(deps.World, FieldLayout{
		BoostFractions:    t.BoostFractions,
		SlowdownFractions: t.SlowdownFractions,
		Jitter:            t.PowerUpJitter,
	}, rnd)
	s.speed = NewSpeedModifier(deps.Clock, s.speedReset)
	s.resolver = NewResolver(deps.World, cfg.Map.Shop, t.PickupRadius, t.DeliveryRadius)
	s.sched = newScheduler(s.catalog, deps.Clock, SchedulerTiming{
		RingTimeout: t.RingTimeout,
		RingCadence: t.RingCadence,
	}, s)

	s.shopMarker = s.world.PlaceMarker(MarkerPickup, cfg.Map.Shop)
	s.carrierMarker = s.world.PlaceMarker(MarkerCarrier, s.carrier)
	s.world.Recenter(s.carrier)
	return s, nil
}

// Start enters Running and queues the first call. In restock start mode the
// session waits for the first pickup instead and Start returns false.
func (s *Session) Start() bool {
	if s.state != StateNotStarted || s.tuning.StartMode == StartOnRestock {
		return false
	}
	s.begin()
	return true
}

func (s *Session) begin() {
	s.state = StateRunning
	s.sched.scheduleRingAfter(s.tuning.FirstRingDelay)
	s.present()
}

// Frame advances the helicopter one display frame and resolves power-up
// collisions. It does nothing once the game is over or while paused.
// Frames do not publish snapshots; callers pull Snapshot at their own rate.
func (s *Session) Frame(in Intent) {
	if s.paused || s.state.Terminal() {
		return
	}
	// The restock tutorial lets the player fly to the shop before the clock starts.
	if s.state == StateNotStarted && s.tuning.StartMode != StartOnRestock {
		return
	}

	if next, moved := s.move.Step(s.carrier, in, s.speed.Multiplier()); moved {
		s.carrier = next
		s.world.MoveMarker(s.carrierMarker, next)
		s.world.Recenter(next)
		s.tail.Follow(next)
	}

	if s.state != StateRunning {
		return
	}
	hits := s.field.Collide(s.carrier, s.tuning.PowerUpRadius)
	for _, p := range hits {
		s.applyPowerUp(p)
	}
	if len(hits) > 0 {
		s.present()
	}
}

func (s *Session) applyPowerUp(p *PowerUp) {
	d := s.tuning.ModifierDuration
	switch p.Kind {
	case PowerUpBoost:
		s.speed.Apply(s.tuning.BoostMultiplier, d)
		s.notify(NoticeBoost, p.OrderID, "Battery! Speed x%g for %s.", s.tuning.BoostMultiplier, d)
	case PowerUpSlowdown:
		s.speed.Apply(s.tuning.SlowdownMultiplier, d)
		s.notify(NoticeSlowdown, p.OrderID, "Turtle! Speed x%g for %s.", s.tuning.SlowdownMultiplier, d)
	}
}

func (s *Session) speedReset() {
	if !s.live() {
		return
	}
	s.notify(NoticeSpeedReset, 0, "Speed back to normal.")
	s.present()
}

// Tap is a pickup or delivery attempt. Zones are checked at the helicopter;
// p is where the player tapped and must fall in the same zone. Tapping the
// helicopter itself always does.
func (s *Session) Tap(p Coordinate) TapResult {
	if s.paused || s.state.Terminal() {
		return TapIgnored
	}
	if s.state == StateNotStarted && s.tuning.StartMode != StartOnRestock {
		return TapIgnored
	}

	if s.resolver.InPickupZone(s.carrier, p) {
		gained := s.cargo.Pickup()
		if gained == 0 {
			return TapFull
		}
		s.tail.Grow(gained, s.carrier)
		s.notify(NoticePickup, 0, "Picked up %d %s. Carrying %d/%d.",
			gained, pizzaWord(gained), s.cargo.Carried(), s.cargo.Capacity())
		if s.state == StateNotStarted {
			s.begin()
		} else {
			s.present()
		}
		return TapPickedUp
	}

	if s.state != StateRunning {
		return TapNothing
	}

	m := s.resolver.MatchDelivery(s.carrier, p, s.sched.active, s.cargo.Carried())
	switch {
	case m.Order != nil:
		s.deliver(m.Order)
		return TapDelivered
	case m.InZone:
		s.notify(NoticeShortfall, m.Blocked.ID, "Need %d more %s for %s.",
			m.Shortfall, pizzaWord(m.Shortfall), m.Blocked.Def.Address)
		return TapShortfall
	}
	return TapNothing
}

// TapCarrier taps at the helicopter's own position.
func (s *Session) TapCarrier() TapResult { return s.Tap(s.carrier) }

func (s *Session) deliver(o *ActiveOrder) {
	n := o.Def.Pizzas
	if !s.cargo.Unload(n) {
		return
	}
	s.tail.Shrink(n)

	tip := 0
	if s.tuning.Tips {
		tip = o.Remaining
		s.score += tip
	}
	s.sched.Complete(o)
	s.world.RemoveMarker(o.House)

	if tip > 0 {
		s.notify(NoticeDelivered, o.ID, "Delivered %d %s to %s. Tip +%d.", n, pizzaWord(n), o.Def.Address, tip)
	} else {
		s.notify(NoticeDelivered, o.ID, "Delivered %d %s to %s.", n, pizzaWord(n), o.Def.Address)
	}

	if s.sched.Delivered() == s.sched.Total() {
		s.end(StateWon)
		return
	}
	s.present()
}

// Accept answers the ringing phone. It reports false when nothing is ringing.
func (s *Session) Accept() bool {
	idx, ok := s.sched.Ringing()
	if !ok {
		return false
	}
	_, ok = s.sched.Accept(idx)
	return ok
}

// Pause freezes or resumes the frame loop. Order countdowns keep running.
func (s *Session) Pause(paused bool) bool {
	if s.state.Terminal() || s.paused == paused {
		return false
	}
	s.paused = paused
	s.present()
	return true
}

// Abandon ends a live game as lost. It reports whether this call ended it.
func (s *Session) Abandon() bool {
	if s.state.Terminal() {
		return false
	}
	return s.end(StateLost)
}

func (s *Session) State() SessionState  { return s.state }
func (s *Session) Paused() bool         { return s.paused }
func (s *Session) Score() int           { return s.score }
func (s *Session) Carrier() Coordinate  { return s.carrier }
func (s *Session) Carried() int         { return s.cargo.Carried() }
func (s *Session) Delivered() int       { return s.sched.Delivered() }
func (s *Session) Multiplier() float64  { return s.speed.Multiplier() }
func (s *Session) Config() Config       { return s.cfg }

// ActiveOrders returns the orders awaiting delivery in acceptance order.
func (s *Session) ActiveOrders() []*ActiveOrder { return s.sched.Active() }

// Snapshot builds the read-only HUD view.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:      s.state,
		Paused:     s.paused,
		Delivered:  s.sched.Delivered(),
		Total:      s.sched.Total(),
		Carried:    s.cargo.Carried(),
		Capacity:   s.cargo.Capacity(),
		Score:      s.score,
		Multiplier: s.speed.Multiplier(),
		Carrier:    s.carrier,
		Shop:       s.cfg.Map.Shop,
		Orders:     []OrderSnapshot{},
		PowerUps:   []PowerUpSnapshot{},
	}
	if idx, ok := s.sched.Ringing(); ok {
		def := s.catalog[idx]
		snap.Ringing = &RingingSnapshot{Index: idx, Address: def.Address, Caller: def.Caller}
	}
	for _, o := range s.sched.active {
		if !o.active {
			continue
		}
		b := Bearing(s.carrier, o.Def.Location)
		snap.Orders = append(snap.Orders, OrderSnapshot{
			ID:          o.ID,
			Address:     o.Def.Address,
			Pizzas:      o.Def.Pizzas,
			Remaining:   o.Remaining,
			Destination: o.Def.Location,
			Distance:    s.world.Distance(s.carrier, o.Def.Location),
			Bearing:     b,
			Compass:     CompassPoint(b),
		})
	}
	for _, p := range s.field.Live() {
		snap.PowerUps = append(snap.PowerUps, PowerUpSnapshot{ID: p.ID, Kind: p.Kind, Position: p.Position})
	}
	return snap
}

// end moves into a terminal state and tears everything down. Only the first
// call has any effect.
func (s *Session) end(state SessionState) bool {
	if s.state.Terminal() {
		return false
	}
	s.state = state

	s.sched.Stop()
	s.speed.Stop()
	s.field.Clear()
	for _, o := range s.sched.Active() {
		s.world.RemoveMarker(o.House)
	}
	s.tail.Clear()

	total := s.sched.Total()
	if state == StateWon {
		s.notify(NoticeWon, 0, "Delivered all %d orders. Great job.", total)
	} else {
		s.notify(NoticeLost, 0, "Time up. You delivered %d of %d.", s.sched.Delivered(), total)
	}
	s.present()
	return true
}

// Scheduler hooks.

func (s *Session) live() bool { return s.state == StateRunning }

func (s *Session) orderRinging(index int, def OrderDefinition) {
	s.notify(NoticeRing, 0, "Phone ringing: %s calling about %s.", def.Caller, def.Address)
	s.present()
}

func (s *Session) orderAccepted(o *ActiveOrder) {
	def := o.Def
	o.House = s.world.PlaceMarker(MarkerDelivery, def.Location)
	s.field.Spawn(o.ID, s.cfg.Map.Shop, def.Location)

	if def.Message != "" {
		s.notify(NoticeAccepted, o.ID, "%s: %s", def.Caller, def.Message)
	} else {
		s.notify(NoticeAccepted, o.ID, "%s: I need %d %s at %s now!", def.Caller, def.Pizzas, pizzaWord(def.Pizzas), def.Address)
	}

	if f := s.tuning.ReminderFraction; f > 0 {
		d := time.Duration(float64(def.TimeLimit) * f * float64(time.Second))
		o.reminder = s.clock.AfterFunc(d, func() {
			if !o.active || !s.live() {
				return
			}
			s.notify(NoticeReminder, o.ID, "%s: Where's my pizza? %ds left for %s.", def.Caller, o.Remaining, def.Address)
		})
	}
	s.present()
}

func (s *Session) orderTicked(o *ActiveOrder) { s.present() }

func (s *Session) orderExpired(o *ActiveOrder) { s.end(StateLost) }

func (s *Session) notify(kind NoticeKind, orderID int, format string, args ...any) {
	if s.presenter == nil {
		return
	}
	s.presenter.Notify(Notice{Kind: kind, Message: fmt.Sprintf(format, args...), OrderID: orderID})
}

func (s *Session) present() {
	if s.presenter == nil {
		return
	}
	s.presenter.Present(s.Snapshot())
}

func pizzaWord(n int) string {
	if n == 1 {
		return "pizza"
	}
	return "pizzas"
}
