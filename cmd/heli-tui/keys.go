/*
Package main
File: keys.go
Description:
    Key-hold emulation for terminals that report presses only.
*/

package main

import (
	"time"

	"github.com/everforgeworks/pizza-copter/internal/input"
)

// holdWindow is how long one key event keeps a direction held. Terminals
// report presses only, so auto-repeat has to refresh it.
const holdWindow = 180 * time.Millisecond

// heldKeys emulates key-up events from a stream of presses.
type heldKeys struct {
	until  [4]time.Time
	window time.Duration
}

func (h *heldKeys) press(d input.Direction, now time.Time) {
	h.until[d] = now.Add(h.window)
}

func (h *heldKeys) release() { h.until = [4]time.Time{} }

// apply writes the current hold state into k.
func (h *heldKeys) apply(k *input.Keys, now time.Time) {
	for d := input.Up; d <= input.Right; d++ {
		k.Set(d, now.Before(h.until[d]))
	}
}
