package main

import (
	"testing"
	"time"

	"github.com/everforgeworks/pizza-copter/internal/input"
)

func TestProject(t *testing.T) {
	x, y, ok := project(0, 0, 80, 20)
	if !ok || x != 40 || y != 10 {
		t.Fatalf("centre = %d,%d,%v", x, y, ok)
	}
	x, y, ok = project(3*metresPerCol, 2*metresPerRow, 80, 20)
	if !ok || x != 43 || y != 8 {
		t.Fatalf("north-east = %d,%d,%v", x, y, ok)
	}
	if _, _, ok := project(1000, 0, 80, 20); ok {
		t.Fatal("far point reported on screen")
	}
	x, y = clampToEdge(200, -5, 80, 20)
	if x != 79 || y != 0 {
		t.Fatalf("clamped = %d,%d", x, y)
	}
}

func TestHeldKeysExpire(t *testing.T) {
	h := heldKeys{window: holdWindow}
	now := time.Now()
	var k input.Keys

	h.press(input.Up, now)
	h.press(input.Left, now)
	h.apply(&k, now.Add(holdWindow/2))
	if !k.Up || !k.Left || k.Down || k.Right {
		t.Fatalf("keys = %+v", k)
	}

	h.press(input.Left, now.Add(holdWindow/2))
	h.apply(&k, now.Add(holdWindow))
	if k.Up || !k.Left {
		t.Fatalf("after window keys = %+v", k)
	}

	h.release()
	h.apply(&k, now)
	if k != (input.Keys{}) {
		t.Fatalf("after release keys = %+v", k)
	}
}

func TestPosMod(t *testing.T) {
	if got := posMod(-10, 60); got != 50 {
		t.Fatalf("posMod(-10, 60) = %v", got)
	}
	if got := posMod(130, 60); got != 10 {
		t.Fatalf("posMod(130, 60) = %v", got)
	}
}
