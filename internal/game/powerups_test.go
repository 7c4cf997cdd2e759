package game

import (
	"math/rand"
	"testing"
	"time"
)

func TestSpeedModifierOverrideNoStacking(t *testing.T) {
	clock := NewManualClock(testEpoch)
	resets := 0
	m := NewSpeedModifier(clock, func() { resets++ })

	m.Apply(2, 5*time.Second)
	clock.Advance(2 * time.Second)
	m.Apply(0.5, 5*time.Second)
	if m.Multiplier() != 0.5 {
		t.Fatalf("multiplier = %v after override, want 0.5", m.Multiplier())
	}

	// The boost window would have ended here; the slowdown keeps going.
	clock.Advance(4900 * time.Millisecond)
	if m.Multiplier() != 0.5 || resets != 0 {
		t.Fatalf("multiplier = %v resets = %d before window end", m.Multiplier(), resets)
	}
	clock.Advance(100 * time.Millisecond)
	if m.Multiplier() != 1 || resets != 1 {
		t.Fatalf("multiplier = %v resets = %d at window end, want 1/1", m.Multiplier(), resets)
	}
	clock.Advance(time.Minute)
	if resets != 1 {
		t.Fatalf("resets = %d, want exactly 1", resets)
	}
	if !m.Until().IsZero() {
		t.Fatalf("Until not cleared after expiry")
	}
}

func TestSpeedModifierStop(t *testing.T) {
	clock := NewManualClock(testEpoch)
	resets := 0
	m := NewSpeedModifier(clock, func() { resets++ })
	m.Apply(2, 5*time.Second)
	if !m.Stop() {
		t.Fatalf("Stop did not cancel the pending expiry")
	}
	if m.Stop() {
		t.Fatalf("second Stop reported a cancellation")
	}
	clock.Advance(10 * time.Second)
	if resets != 0 || m.Multiplier() != 1 {
		t.Fatalf("stopped modifier fired: resets=%d multiplier=%v", resets, m.Multiplier())
	}
}

func TestFieldSpawnAndCollide(t *testing.T) {
	w := newFakeWorld()
	f := NewField(w, FieldLayout{
		BoostFractions:    []float64{0.25, 0.5, 0.75},
		SlowdownFractions: []float64{0.6, 0.8, 0.95},
	}, nil)
	shop := Coordinate{Lat: 36.9737, Lng: -122.0263}
	house := Coordinate{Lat: 36.975, Lng: -122.032}

	batch := f.Spawn(1, shop, house)
	if len(batch) != 6 || f.Len() != 6 {
		t.Fatalf("spawned %d live %d, want 6", len(batch), f.Len())
	}
	if w.count(MarkerBoost) != 3 || w.count(MarkerSlowdown) != 3 {
		t.Fatalf("markers boost=%d slowdown=%d", w.count(MarkerBoost), w.count(MarkerSlowdown))
	}

	hits := f.Collide(Lerp(shop, house, 0.5), 40)
	if len(hits) != 1 || hits[0].Kind != PowerUpBoost || hits[0].Alive {
		t.Fatalf("hits = %+v", hits)
	}
	if again := f.Collide(Lerp(shop, house, 0.5), 40); len(again) != 0 {
		t.Fatalf("consumed power-up collided again")
	}
	if f.Len() != 5 || w.count(MarkerBoost) != 2 {
		t.Fatalf("live=%d boosts=%d after collision", f.Len(), w.count(MarkerBoost))
	}

	// A second order's batch gets fresh ids.
	more := f.Spawn(2, shop, house)
	if more[0].ID <= batch[len(batch)-1].ID {
		t.Fatalf("ids reused: %d after %d", more[0].ID, batch[len(batch)-1].ID)
	}

	if n := f.Clear(); n != 11 {
		t.Fatalf("Clear removed %d, want 11", n)
	}
	if w.count(MarkerBoost)+w.count(MarkerSlowdown) != 0 {
		t.Fatalf("markers left after Clear")
	}
}

func TestFieldCollideOrder(t *testing.T) {
	w := newFakeWorld()
	f := NewField(w, FieldLayout{
		BoostFractions:    []float64{0.5},
		SlowdownFractions: []float64{0.5},
	}, nil)
	a := Coordinate{Lat: 0, Lng: 0}
	b := Coordinate{Lat: 0.001, Lng: 0}
	f.Spawn(1, a, b)

	hits := f.Collide(Lerp(a, b, 0.5), 50)
	if len(hits) != 2 || hits[0].Kind != PowerUpBoost || hits[1].Kind != PowerUpSlowdown {
		t.Fatalf("hits out of id order: %+v", hits)
	}
}

func TestFieldJitterStaysBounded(t *testing.T) {
	w := newFakeWorld()
	f := NewField(w, FieldLayout{BoostFractions: []float64{0.5}, Jitter: 0.0001}, rand.New(rand.NewSource(3)))
	a := Coordinate{Lat: 36.97, Lng: -122.03}
	b := Coordinate{Lat: 36.98, Lng: -122.03}
	for i := 0; i < 50; i++ {
		p := f.Spawn(i, a, b)[0]
		mid := Lerp(a, b, 0.5)
		if dLat, dLng := p.Position.Lat-mid.Lat, p.Position.Lng-mid.Lng; dLat > 0.0001 || dLat < -0.0001 || dLng > 0.0001 || dLng < -0.0001 {
			t.Fatalf("jitter out of bounds: %v", p.Position)
		}
	}
}
