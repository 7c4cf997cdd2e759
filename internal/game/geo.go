/*
Package game
File: geo.go
Description:
    Pure geographic helpers used by the rules engine: great-circle distance,
    initial bearing, linear interpolation along a route and compass labels.
    Nothing in here touches session state.
*/

package game

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// EarthRadius matches the spherical radius used by the browser map library,
// so server-side distances agree with what the player sees.
const EarthRadius = 6371000.0

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" msgpack:"lat"`
	Lng float64 `json:"lng" msgpack:"lng"`
}

// UnmarshalYAML accepts the compact `[lat, lng]` form used in game.yaml
// as well as the `{lat: .., lng: ..}` mapping form.
func (c *Coordinate) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var pair []float64
		if err := value.Decode(&pair); err != nil {
			return fmt.Errorf("coordinate: decode pair: %w", err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("coordinate: want [lat, lng], got %d values (line %d)", len(pair), value.Line)
		}
		c.Lat, c.Lng = pair[0], pair[1]
		return nil
	case yaml.MappingNode:
		var m struct {
			Lat float64 `yaml:"lat"`
			Lng float64 `yaml:"lng"`
		}
		if err := value.Decode(&m); err != nil {
			return fmt.Errorf("coordinate: decode mapping: %w", err)
		}
		c.Lat, c.Lng = m.Lat, m.Lng
		return nil
	default:
		return fmt.Errorf("coordinate: unsupported yaml node at line %d", value.Line)
	}
}

// MarshalYAML writes the compact pair form.
func (c Coordinate) MarshalYAML() (interface{}, error) {
	return []float64{c.Lat, c.Lng}, nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Distance returns the haversine distance between two coordinates in metres.
func Distance(a, b Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	return 2 * EarthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Bearing returns the initial great-circle bearing from a to b in degrees,
// normalised to [0, 360). North is 0, east is 90.
func Bearing(a, b Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLng := radians(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// Lerp interpolates linearly between a and b in degree space.
// t=0 returns a, t=1 returns b. Good enough over the few hundred metres of a delivery run.
func Lerp(a, b Coordinate, t float64) Coordinate {
	return Coordinate{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lng: a.Lng + (b.Lng-a.Lng)*t,
	}
}

var compassPoints = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// CompassPoint maps a bearing in degrees to one of eight compass labels.
func CompassPoint(bearing float64) string {
	b := math.Mod(bearing, 360)
	if b < 0 {
		b += 360
	}
	idx := int(math.Floor((b+22.5)/45)) % len(compassPoints)
	return compassPoints[idx]
}
