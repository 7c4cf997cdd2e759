/*
Package game
File: movement.go
Description:
    Per-frame position integration for the helicopter.
*/

package game

import "math"

// Intent is a directional request with both axes in [-1, 1].
// Lat > 0 is north, Lng > 0 is east.
type Intent struct {
	Lat float64 `json:"lat" msgpack:"lat"`
	Lng float64 `json:"lng" msgpack:"lng"`
}

// Add sums two intents and clamps the result to [-1, 1] per axis.
func (i Intent) Add(o Intent) Intent {
	return Intent{Lat: clampUnit(i.Lat + o.Lat), Lng: clampUnit(i.Lng + o.Lng)}
}

// Zero reports whether the intent requests no movement.
func (i Intent) Zero() bool { return i.Lat == 0 && i.Lng == 0 }

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// Integrator turns intent into a position delta.
type Integrator struct {
	BaseSpeed float64 // Degrees per frame at multiplier 1
}

// Step returns the next position and whether it moved.
// The longitude delta is stretched by 1/cos(lat) so that east-west speed
// matches north-south speed on the ground.
func (g Integrator) Step(pos Coordinate, in Intent, multiplier float64) (Coordinate, bool) {
	in = Intent{Lat: clampUnit(in.Lat), Lng: clampUnit(in.Lng)}
	step := g.BaseSpeed * multiplier
	dLat := step * in.Lat
	dLng := step * in.Lng
	if dLat == 0 && dLng == 0 {
		return pos, false
	}

	next := pos
	next.Lat += dLat
	cos := math.Cos(radians(next.Lat))
	if math.Abs(cos) < 1e-9 {
		cos = 1
	}
	next.Lng += dLng / cos
	return next, true
}
