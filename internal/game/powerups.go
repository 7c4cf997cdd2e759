/*
Package game
File: powerups.go
Description:
    Batteries (boost) and turtles (slowdown) are dropped along the route of
    every accepted order. Flying through one changes the helicopter's speed
    multiplier for a fixed window; the newest pickup always wins.
*/

package game

import (
	"math/rand"
	"sort"
	"time"
)

// PowerUpKind is the tag of a power-up.
type PowerUpKind string

const (
	PowerUpBoost    PowerUpKind = "boost"
	PowerUpSlowdown PowerUpKind = "slowdown"
)

func (k PowerUpKind) marker() MarkerKind {
	if k == PowerUpBoost {
		return MarkerBoost
	}
	return MarkerSlowdown
}

// PowerUp is a one-shot map pickup.
type PowerUp struct {
	ID       int
	Kind     PowerUpKind
	Position Coordinate
	OrderID  int // Order whose route spawned it
	Alive    bool

	marker MarkerID
}

// FieldLayout is the subset of Tuning that shapes a spawn batch.
type FieldLayout struct {
	BoostFractions    []float64
	SlowdownFractions []float64
	Jitter            float64 // degrees
}

// Field holds the live power-ups of a session, keyed by id.
type Field struct {
	world  WorldView
	layout FieldLayout
	rnd    *rand.Rand
	seq    int
	live   map[int]*PowerUp
}

func NewField(world WorldView, layout FieldLayout, rnd *rand.Rand) *Field {
	return &Field{
		world:  world,
		layout: layout,
		rnd:    rnd,
		live:   make(map[int]*PowerUp),
	}
}

// Spawn drops the batch for one order between the shop and its destination.
func (f *Field) Spawn(orderID int, from, to Coordinate) []*PowerUp {
	var batch []*PowerUp
	add := func(kind PowerUpKind, frac float64) {
		pos := Lerp(from, to, frac)
		if f.layout.Jitter > 0 && f.rnd != nil {
			pos.Lat += (f.rnd.Float64()*2 - 1) * f.layout.Jitter
			pos.Lng += (f.rnd.Float64()*2 - 1) * f.layout.Jitter
		}
		f.seq++
		p := &PowerUp{ID: f.seq, Kind: kind, Position: pos, OrderID: orderID, Alive: true}
		p.marker = f.world.PlaceMarker(kind.marker(), pos)
		f.live[p.ID] = p
		batch = append(batch, p)
	}
	for _, fr := range f.layout.BoostFractions {
		add(PowerUpBoost, fr)
	}
	for _, fr := range f.layout.SlowdownFractions {
		add(PowerUpSlowdown, fr)
	}
	return batch
}

// Collide consumes every live power-up within radius of pos and returns them
// in id order. Consumed power-ups never come back.
func (f *Field) Collide(pos Coordinate, radius float64) []*PowerUp {
	var hits []*PowerUp
	for _, p := range f.live {
		if f.world.Distance(pos, p.Position) < radius {
			hits = append(hits, p)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
	for _, p := range hits {
		f.remove(p)
	}
	return hits
}

func (f *Field) remove(p *PowerUp) {
	p.Alive = false
	f.world.RemoveMarker(p.marker)
	delete(f.live, p.ID)
}

// Live returns the live power-ups in id order.
func (f *Field) Live() []*PowerUp {
	out := make([]*PowerUp, 0, len(f.live))
	for _, p := range f.live {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of live power-ups.
func (f *Field) Len() int { return len(f.live) }

// Clear removes every live power-up and returns how many were removed.
func (f *Field) Clear() int {
	n := 0
	for _, p := range f.Live() {
		f.remove(p)
		n++
	}
	return n
}

// SpeedModifier is the single speed effect in force.
type SpeedModifier struct {
	clock      Clock
	multiplier float64
	until      time.Time
	expiry     Task
	gen        int
	onReset    func()
}

func NewSpeedModifier(clock Clock, onReset func()) *SpeedModifier {
	return &SpeedModifier{clock: clock, multiplier: 1, onReset: onReset}
}

// Multiplier returns the current speed factor.
func (m *SpeedModifier) Multiplier() float64 { return m.multiplier }

// Until returns when the current effect ends; zero when none is active.
func (m *SpeedModifier) Until() time.Time { return m.until }

// Apply replaces whatever effect is in force and restarts the window.
func (m *SpeedModifier) Apply(multiplier float64, d time.Duration) {
	if m.expiry != nil {
		m.expiry.Stop()
	}
	m.gen++
	gen := m.gen
	m.multiplier = multiplier
	m.until = m.clock.Now().Add(d)
	m.expiry = m.clock.AfterFunc(d, func() {
		if gen != m.gen {
			return
		}
		m.expiry = nil
		m.reset()
		if m.onReset != nil {
			m.onReset()
		}
	})
}

func (m *SpeedModifier) reset() {
	m.multiplier = 1
	m.until = time.Time{}
}

// Stop cancels a pending expiry and restores 1x. It reports whether a pending
// expiry was cancelled.
func (m *SpeedModifier) Stop() bool {
	m.gen++
	stopped := false
	if m.expiry != nil {
		stopped = m.expiry.Stop()
		m.expiry = nil
	}
	m.reset()
	return stopped
}
