/*
Package world
File: map.go
Description:
    A headless map surface. It keeps the markers the game places, the
    current view centre and a metre-based projection used by the terminal
    renderer. Browser clients draw the same markers from snapshot frames.

    Map is not safe for concurrent use; it lives on the goroutine that owns
    the session.
*/

package world

import (
	"math"
	"sort"

	"github.com/everforgeworks/pizza-copter/internal/game"
)

// Marker is one point on the map.
type Marker struct {
	ID       game.MarkerID   `json:"id" msgpack:"id"`
	Kind     game.MarkerKind `json:"kind" msgpack:"kind"`
	Position game.Coordinate `json:"position" msgpack:"position"`
}

// Map implements game.WorldView.
type Map struct {
	next    game.MarkerID
	markers map[game.MarkerID]*Marker
	center  game.Coordinate
	zoom    int
}

// New creates an empty map centred on center.
func New(center game.Coordinate, zoom int) *Map {
	return &Map{
		markers: make(map[game.MarkerID]*Marker),
		center:  center,
		zoom:    zoom,
	}
}

func (m *Map) PlaceMarker(kind game.MarkerKind, at game.Coordinate) game.MarkerID {
	m.next++
	m.markers[m.next] = &Marker{ID: m.next, Kind: kind, Position: at}
	return m.next
}

// MoveMarker ignores unknown ids so that late moves after a removal are harmless.
func (m *Map) MoveMarker(id game.MarkerID, at game.Coordinate) {
	if mk, ok := m.markers[id]; ok {
		mk.Position = at
	}
}

func (m *Map) RemoveMarker(id game.MarkerID) {
	delete(m.markers, id)
}

// Distance is the haversine distance in metres.
func (m *Map) Distance(a, b game.Coordinate) float64 {
	return game.Distance(a, b)
}

func (m *Map) Recenter(at game.Coordinate) {
	m.center = at
}

func (m *Map) Center() game.Coordinate { return m.center }
func (m *Map) Zoom() int               { return m.zoom }
func (m *Map) Len() int                { return len(m.markers) }

// Marker returns a copy of one marker.
func (m *Map) Marker(id game.MarkerID) (Marker, bool) {
	mk, ok := m.markers[id]
	if !ok {
		return Marker{}, false
	}
	return *mk, true
}

// Markers returns every marker in placement order.
func (m *Map) Markers() []Marker {
	out := make([]Marker, 0, len(m.markers))
	for _, mk := range m.markers {
		out = append(out, *mk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Offset projects p onto a local plane around the view centre and returns
// metres east and north of it. Accurate to well under a metre over a few km.
func (m *Map) Offset(p game.Coordinate) (east, north float64) {
	lat0 := m.center.Lat * math.Pi / 180
	north = (p.Lat - m.center.Lat) * math.Pi / 180 * game.EarthRadius
	east = (p.Lng - m.center.Lng) * math.Pi / 180 * game.EarthRadius * math.Cos(lat0)
	return east, north
}
