/*
Package game
File: world.go
Description:
    The port to the map surface. The engine places and moves point markers
    and asks for distances; how those markers are drawn (browser tiles,
    terminal cells, nothing at all) is the adapter's business.
*/

package game

// MarkerID identifies a marker placed on a WorldView.
type MarkerID int64

// MarkerKind is the tagged kind of a map marker.
type MarkerKind string

const (
	MarkerCarrier  MarkerKind = "carrier"  // The helicopter
	MarkerPickup   MarkerKind = "pickup"   // The pizza shop
	MarkerDelivery MarkerKind = "delivery" // A house waiting for pizza
	MarkerBoost    MarkerKind = "boost"    // Battery power-up
	MarkerSlowdown MarkerKind = "slowdown" // Turtle power-up
	MarkerCargo    MarkerKind = "cargo"    // A pizza trailing the helicopter
)

// WorldView is the black-box map surface.
type WorldView interface {
	PlaceMarker(kind MarkerKind, at Coordinate) MarkerID
	MoveMarker(id MarkerID, at Coordinate)
	RemoveMarker(id MarkerID)
	Distance(a, b Coordinate) float64 // metres
	Recenter(at Coordinate)
}
