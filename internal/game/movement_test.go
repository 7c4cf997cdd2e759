package game

import (
	"math"
	"testing"
)

func TestIntegratorStep(t *testing.T) {
	g := Integrator{BaseSpeed: 0.0001}
	pos := Coordinate{Lat: 60, Lng: 10}

	if _, moved := g.Step(pos, Intent{}, 1); moved {
		t.Fatalf("zero intent moved the carrier")
	}

	next, moved := g.Step(pos, Intent{Lat: 1}, 1)
	if !moved || math.Abs(next.Lat-60.0001) > 1e-12 || next.Lng != 10 {
		t.Fatalf("north step = %v", next)
	}

	// At 60° a degree of longitude is half as long, so the delta doubles.
	next, _ = g.Step(pos, Intent{Lng: 1}, 1)
	if math.Abs((next.Lng-10)-0.0002) > 1e-9 {
		t.Fatalf("east delta = %v, want ~0.0002", next.Lng-10)
	}

	next, _ = g.Step(pos, Intent{Lat: 1}, 2)
	if math.Abs(next.Lat-60.0002) > 1e-12 {
		t.Fatalf("boosted step = %v", next.Lat)
	}
}

func TestIntegratorClampsIntent(t *testing.T) {
	g := Integrator{BaseSpeed: 0.0001}
	pos := Coordinate{}
	a, _ := g.Step(pos, Intent{Lat: 5}, 1)
	b, _ := g.Step(pos, Intent{Lat: 1}, 1)
	if a != b {
		t.Fatalf("intent not clamped: %v vs %v", a, b)
	}
}

func TestIntegratorPoleGuard(t *testing.T) {
	g := Integrator{BaseSpeed: 0}
	next, _ := Integrator{BaseSpeed: 0.0001}.Step(Coordinate{Lat: 89.9999, Lng: 0}, Intent{Lat: 1, Lng: 1}, 1)
	if math.IsInf(next.Lng, 0) || math.IsNaN(next.Lng) {
		t.Fatalf("longitude blew up at the pole: %v", next.Lng)
	}
	if _, moved := g.Step(Coordinate{}, Intent{Lat: 1}, 1); moved {
		t.Fatalf("zero speed moved the carrier")
	}
}

func TestIntentAdd(t *testing.T) {
	got := Intent{Lat: 0.8, Lng: -0.5}.Add(Intent{Lat: 0.5, Lng: -0.7})
	if got != (Intent{Lat: 1, Lng: -1}) {
		t.Fatalf("Add = %v, want clamped {1 -1}", got)
	}
	if !(Intent{}).Zero() {
		t.Fatalf("zero intent not Zero")
	}
}
