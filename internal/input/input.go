/*
Package input
File: input.go
Description:
    Turns raw device readings into the directional intent the movement
    integrator consumes. Every source owns its own calibration; the rules
    engine only ever sees a game.Intent.

    - Keys:  arrow keys held down, combinable diagonally.
    - Touch: drag from the touch-down point, with a dead zone.
    - Tilt:  device orientation relative to the first reading, smoothed.
*/

package input

import (
	"math"

	"github.com/everforgeworks/pizza-copter/internal/game"
)

// Source produces the intent for the current frame.
type Source interface {
	Intent() game.Intent
}

// Combine sums the intents of all sources.
func Combine(sources ...Source) game.Intent {
	var out game.Intent
	for _, s := range sources {
		if s == nil {
			continue
		}
		out = out.Add(s.Intent())
	}
	return out
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// Direction is one arrow key.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Keys is the hold state of the four arrow keys.
type Keys struct {
	Up, Down, Left, Right bool
}

// Set records a key press or release.
func (k *Keys) Set(d Direction, held bool) {
	switch d {
	case Up:
		k.Up = held
	case Down:
		k.Down = held
	case Left:
		k.Left = held
	case Right:
		k.Right = held
	}
}

// Release lets go of every key.
func (k *Keys) Release() { *k = Keys{} }

func (k Keys) Intent() game.Intent {
	var in game.Intent
	if k.Up {
		in.Lat++
	}
	if k.Down {
		in.Lat--
	}
	if k.Right {
		in.Lng++
	}
	if k.Left {
		in.Lng--
	}
	return in
}

// Touch defaults, in screen pixels.
const (
	DefaultDeadZone  = 10
	DefaultFullScale = 80
)

// Touch is a virtual joystick anchored where the finger went down.
type Touch struct {
	DeadZone  float64 // Drag below this is ignored
	FullScale float64 // Drag that maps to full deflection

	active         bool
	startX, startY float64
	dx, dy         float64
}

func NewTouch() *Touch {
	return &Touch{DeadZone: DefaultDeadZone, FullScale: DefaultFullScale}
}

// Begin anchors the joystick at a touch-down point.
func (t *Touch) Begin(x, y float64) {
	t.active = true
	t.startX, t.startY = x, y
	t.dx, t.dy = 0, 0
}

// Move updates the drag position. Moves without a Begin anchor on the first point.
func (t *Touch) Move(x, y float64) {
	if !t.active {
		t.Begin(x, y)
		return
	}
	t.dx, t.dy = x-t.startX, y-t.startY
}

// End lifts the finger.
func (t *Touch) End() {
	t.active = false
	t.dx, t.dy = 0, 0
}

func (t *Touch) axis(v float64) float64 {
	if math.Abs(v) <= t.DeadZone {
		return 0
	}
	scale := t.FullScale
	if scale <= 0 {
		scale = DefaultFullScale
	}
	return clamp(v / scale)
}

// Intent maps the drag to intent. Screen y grows downwards, latitude grows north.
func (t *Touch) Intent() game.Intent {
	if !t.active {
		return game.Intent{}
	}
	return game.Intent{Lat: t.axis(-t.dy), Lng: t.axis(t.dx)}
}

// Tilt defaults, in degrees.
const (
	DefaultTiltThreshold = 15
	DefaultTiltRange     = 45
	DefaultTiltSmoothing = 0.2
)

// Tilt reads device orientation. beta is front-back tilt, gamma left-right.
type Tilt struct {
	Threshold float64 // Smoothed angle below this is ignored
	Range     float64 // Angle that maps to full deflection
	Smoothing float64 // Weight of the newest reading

	calibrated          bool
	baseBeta, baseGamma float64
	beta, gamma         float64 // Smoothed, relative to the baseline
}

func NewTilt() *Tilt {
	return &Tilt{
		Threshold: DefaultTiltThreshold,
		Range:     DefaultTiltRange,
		Smoothing: DefaultTiltSmoothing,
	}
}

// Read feeds one orientation event. The first reading becomes the baseline.
func (t *Tilt) Read(beta, gamma float64) {
	if !t.calibrated {
		t.calibrated = true
		t.baseBeta, t.baseGamma = beta, gamma
	}
	a := t.Smoothing
	t.beta = t.beta*(1-a) + (beta-t.baseBeta)*a
	t.gamma = t.gamma*(1-a) + (gamma-t.baseGamma)*a
}

// Recalibrate drops the baseline; the next reading becomes the new one.
func (t *Tilt) Recalibrate() {
	t.calibrated = false
	t.beta, t.gamma = 0, 0
}

// Calibrated reports whether a baseline has been captured.
func (t *Tilt) Calibrated() bool { return t.calibrated }

func (t *Tilt) axis(v float64) float64 {
	if math.Abs(v) <= t.Threshold {
		return 0
	}
	return clamp(v / t.Range)
}

func (t *Tilt) Intent() game.Intent {
	return game.Intent{Lat: t.axis(t.beta), Lng: t.axis(t.gamma)}
}
