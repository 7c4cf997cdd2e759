/*
Package game
File: config.go
Description:
    Loads 'game.yaml' into a Config, fills unset fields from the built-in
    defaults and validates the result. ConfigStore keeps the current
    configuration for the server so that a SIGHUP can swap it for new
    sessions while running sessions keep their own copy.
*/

package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTuning returns the canonical gameplay constants.
func DefaultTuning() Tuning {
	return Tuning{
		Capacity:     5,
		PickupPolicy: PickupBulk,
		StartMode:    StartImmediate,

		BaseSpeed:   0.000046,
		FrameRate:   60,
		BroadcastHz: 20,
		TailSpacing: 8,

		FirstRingDelay:   1 * time.Second,
		RingTimeout:      1250 * time.Millisecond,
		RingCadence:      15 * time.Second,
		ReminderFraction: 0.5,
		Tips:             true,

		PickupRadius:   50,
		DeliveryRadius: 50,
		PowerUpRadius:  50,

		BoostFractions:     []float64{0.25, 0.5, 0.75},
		SlowdownFractions:  []float64{0.6, 0.8, 0.95},
		PowerUpJitter:      0,
		BoostMultiplier:    2,
		SlowdownMultiplier: 0.5,
		ModifierDuration:   5 * time.Second,
	}
}

// DefaultConfig returns the Santa Cruz map and its five-order catalog.
func DefaultConfig() Config {
	return Config{
		Tuning: DefaultTuning(),
		Map: MapConfig{
			Start: Coordinate{Lat: 36.974, Lng: -122.030},
			Shop:  Coordinate{Lat: 36.9737, Lng: -122.0263},
			Zoom:  18,
		},
		Caller: "Fido",
		Orders: []OrderDefinition{
			{Address: "121 Waugh Ave", Pizzas: 2, TimeLimit: 45, Location: Coordinate{Lat: 36.975, Lng: -122.032}},
			{Address: "55 Front St", Pizzas: 1, TimeLimit: 30, Location: Coordinate{Lat: 36.971, Lng: -122.026}},
			{Address: "300 Bay St", Pizzas: 3, TimeLimit: 60, Location: Coordinate{Lat: 36.972, Lng: -122.045}},
			{Address: "45 Mission St", Pizzas: 2, TimeLimit: 50, Location: Coordinate{Lat: 36.977, Lng: -122.039}},
			{Address: "10 Ocean St", Pizzas: 4, TimeLimit: 60, Location: Coordinate{Lat: 36.970, Lng: -122.022}},
		},
	}
}

// LoadConfig reads a YAML file and returns a validated configuration.
func LoadConfig(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: read %q: %w", path, err)
	}
	return ParseConfig(f)
}

// ParseConfig decodes YAML bytes on top of DefaultConfig and validates the result.
// Keys missing from the file keep their default; a present 'orders' list replaces
// the default catalog entirely.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the invariants the engine relies on.
func (c Config) Validate() error {
	t := c.Tuning
	var errs []error

	if t.Capacity < 1 {
		errs = append(errs, fmt.Errorf("capacity must be positive, got %d", t.Capacity))
	}
	switch t.PickupPolicy {
	case PickupIncremental, PickupBulk:
	default:
		errs = append(errs, fmt.Errorf("unknown pickup_policy %q", t.PickupPolicy))
	}
	switch t.StartMode {
	case StartImmediate, StartOnRestock:
	default:
		errs = append(errs, fmt.Errorf("unknown start_mode %q", t.StartMode))
	}
	if t.BaseSpeed <= 0 {
		errs = append(errs, errors.New("base_speed must be positive"))
	}
	if t.FrameRate < 1 || t.BroadcastHz < 1 {
		errs = append(errs, errors.New("frame_rate and broadcast_hz must be positive"))
	}
	if t.RingTimeout <= 0 || t.RingCadence <= 0 || t.FirstRingDelay < 0 || t.ModifierDuration <= 0 {
		errs = append(errs, errors.New("ring and modifier durations must be positive"))
	}
	if t.ReminderFraction < 0 || t.ReminderFraction >= 1 {
		errs = append(errs, fmt.Errorf("reminder_fraction must be in [0,1), got %v", t.ReminderFraction))
	}
	if t.BoostMultiplier <= 0 || t.SlowdownMultiplier <= 0 {
		errs = append(errs, errors.New("speed multipliers must be positive"))
	}
	for _, f := range append(append([]float64{}, t.BoostFractions...), t.SlowdownFractions...) {
		if f < 0 || f > 1 {
			errs = append(errs, fmt.Errorf("power-up fraction %v outside [0,1]", f))
		}
	}
	if len(c.Orders) == 0 {
		errs = append(errs, errors.New("catalog has no orders"))
	}
	for i, o := range c.Orders {
		if o.Pizzas < 1 {
			errs = append(errs, fmt.Errorf("order %d (%s): pizzas must be positive", i, o.Address))
		}
		if o.Pizzas > t.Capacity {
			errs = append(errs, fmt.Errorf("order %d (%s): needs %d pizzas but capacity is %d", i, o.Address, o.Pizzas, t.Capacity))
		}
		if o.TimeLimit < 1 {
			errs = append(errs, fmt.Errorf("order %d (%s): time must be positive", i, o.Address))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Catalog returns a private copy of the order list.
func (c Config) Catalog() []OrderDefinition {
	out := make([]OrderDefinition, len(c.Orders))
	copy(out, c.Orders)
	for i := range out {
		if out[i].Caller == "" {
			out[i].Caller = c.Caller
		}
	}
	return out
}

// ConfigStore guards the server-wide configuration.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	cfg  Config
}

// NewConfigStore seeds a store with an already loaded config.
// path is where Reload reads from; it may be empty for fixed configs.
func NewConfigStore(path string, cfg Config) *ConfigStore {
	return &ConfigStore{path: path, cfg: cfg}
}

// Current returns the configuration new sessions should use.
func (s *ConfigStore) Current() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Reload re-reads the file. On failure the previous configuration stays in place.
func (s *ConfigStore) Reload() error {
	if s.path == "" {
		return errors.New("reload config: store has no path")
	}
	cfg, err := LoadConfig(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

type tuningFields Tuning

// tuningJSON shadows the duration fields so JSON carries "15s" like game.yaml.
type tuningJSON struct {
	tuningFields
	FirstRingDelay   string `json:"first_ring_delay"`
	RingTimeout      string `json:"ring_timeout"`
	RingCadence      string `json:"ring_cadence"`
	ModifierDuration string `json:"modifier_duration"`
}

// MarshalJSON writes durations as Go duration strings.
func (t Tuning) MarshalJSON() ([]byte, error) {
	return json.Marshal(tuningJSON{
		tuningFields:     tuningFields(t),
		FirstRingDelay:   t.FirstRingDelay.String(),
		RingTimeout:      t.RingTimeout.String(),
		RingCadence:      t.RingCadence.String(),
		ModifierDuration: t.ModifierDuration.String(),
	})
}

// UnmarshalJSON reads durations written by MarshalJSON. Missing fields keep
// their current value.
func (t *Tuning) UnmarshalJSON(b []byte) error {
	j := tuningJSON{tuningFields: tuningFields(*t)}
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	next := Tuning(j.tuningFields)
	for _, f := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"first_ring_delay", j.FirstRingDelay, &next.FirstRingDelay},
		{"ring_timeout", j.RingTimeout, &next.RingTimeout},
		{"ring_cadence", j.RingCadence, &next.RingCadence},
		{"modifier_duration", j.ModifierDuration, &next.ModifierDuration},
	} {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("tuning %s: %w", f.name, err)
		}
		*f.dst = d
	}
	*t = next
	return nil
}
