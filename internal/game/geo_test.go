package game

import (
	"math"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDistanceOneDegreeLatitude(t *testing.T) {
	d := Distance(Coordinate{Lat: 0, Lng: 0}, Coordinate{Lat: 1, Lng: 0})
	if math.Abs(d-111195) > 1 {
		t.Fatalf("Distance = %.1f, want ~111195", d)
	}
	if Distance(Coordinate{Lat: 36.97, Lng: -122.03}, Coordinate{Lat: 36.97, Lng: -122.03}) != 0 {
		t.Fatalf("distance to self is not zero")
	}
}

func TestBearingAndCompass(t *testing.T) {
	origin := Coordinate{Lat: 36.97, Lng: -122.03}
	cases := []struct {
		to   Coordinate
		want string
	}{
		{Coordinate{Lat: 36.98, Lng: -122.03}, "N"},
		{Coordinate{Lat: 36.97, Lng: -122.02}, "E"},
		{Coordinate{Lat: 36.96, Lng: -122.03}, "S"},
		{Coordinate{Lat: 36.97, Lng: -122.04}, "W"},
		{Coordinate{Lat: 36.98, Lng: -122.0175}, "NE"},
	}
	for _, c := range cases {
		if got := CompassPoint(Bearing(origin, c.to)); got != c.want {
			t.Errorf("compass to %v = %s (%.1f°), want %s", c.to, got, Bearing(origin, c.to), c.want)
		}
	}
	if CompassPoint(-90) != "W" || CompassPoint(359) != "N" || CompassPoint(720+45) != "NE" {
		t.Fatalf("CompassPoint does not normalise")
	}
}

func TestLerp(t *testing.T) {
	a := Coordinate{Lat: 0, Lng: 0}
	b := Coordinate{Lat: 10, Lng: -20}
	if got := Lerp(a, b, 0.25); got != (Coordinate{Lat: 2.5, Lng: -5}) {
		t.Fatalf("Lerp = %v", got)
	}
}

func TestCoordinateYAMLForms(t *testing.T) {
	var v struct {
		Pair    Coordinate `yaml:"pair"`
		Mapping Coordinate `yaml:"mapping"`
	}
	src := "pair: [36.975, -122.032]\nmapping: {lat: 1.5, lng: 2.5}\n"
	if err := yaml.Unmarshal([]byte(src), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Pair != (Coordinate{Lat: 36.975, Lng: -122.032}) || v.Mapping != (Coordinate{Lat: 1.5, Lng: 2.5}) {
		t.Fatalf("decoded %+v", v)
	}

	if err := yaml.Unmarshal([]byte("pair: [1, 2, 3]\n"), &v); err == nil {
		t.Fatalf("expected error for a three-element pair")
	}
}
