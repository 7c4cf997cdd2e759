/*
Package game
File: models.go
Description:
    Defines the data structures used throughout the delivery game.
    Catalog and tuning types map directly to 'game.yaml'; snapshot and
    notice types map directly to the JSON/msgpack frames sent to clients.

    No logic is performed here; this file is strictly for type definitions.
*/

package game

import "time"

// PickupPolicy decides how a single interaction at the shop fills the carrier.
type PickupPolicy string

const (
	PickupIncremental PickupPolicy = "incremental" // +1 pizza per interaction, capped at capacity
	PickupBulk        PickupPolicy = "bulk"        // restock straight to capacity
)

// StartMode decides when a session leaves NotStarted.
type StartMode string

const (
	StartImmediate StartMode = "immediate" // Start() enters Running
	StartOnRestock StartMode = "restock"   // the first successful pickup enters Running (tutorial flow)
)

// Tuning stores the gameplay constants loaded from 'game.yaml'.
type Tuning struct {
	Capacity     int          `yaml:"capacity" json:"capacity"`           // Max pizzas carried at once
	PickupPolicy PickupPolicy `yaml:"pickup_policy" json:"pickup_policy"` // incremental | bulk
	StartMode    StartMode    `yaml:"start_mode" json:"start_mode"`       // immediate | restock

	// Movement
	BaseSpeed   float64 `yaml:"base_speed" json:"base_speed"`     // Degrees per frame at multiplier 1.0
	FrameRate   int     `yaml:"frame_rate" json:"frame_rate"`     // Frames per second of the movement loop
	BroadcastHz int     `yaml:"broadcast_hz" json:"broadcast_hz"` // Snapshot pushes per second
	TailSpacing int     `yaml:"tail_spacing" json:"tail_spacing"` // Path samples between trailing pizzas

	// Order cadence
	FirstRingDelay   time.Duration `yaml:"first_ring_delay" json:"first_ring_delay"`   // Delay before the first call
	RingTimeout      time.Duration `yaml:"ring_timeout" json:"ring_timeout"`           // Auto-answer delay
	RingCadence      time.Duration `yaml:"ring_cadence" json:"ring_cadence"`           // Gap between an accept and the next call
	ReminderFraction float64       `yaml:"reminder_fraction" json:"reminder_fraction"` // Fraction of the time limit before the caller nags (0 disables)
	Tips             bool          `yaml:"tips" json:"tips"`                           // Award remaining seconds as score on delivery

	// Hot-zones, metres
	PickupRadius   float64 `yaml:"pickup_radius" json:"pickup_radius"`
	DeliveryRadius float64 `yaml:"delivery_radius" json:"delivery_radius"`
	PowerUpRadius  float64 `yaml:"powerup_radius" json:"powerup_radius"`

	// Power-ups
	BoostFractions     []float64     `yaml:"boost_fractions" json:"boost_fractions"`         // Positions along shop->house
	SlowdownFractions  []float64     `yaml:"slowdown_fractions" json:"slowdown_fractions"`   // Positions along shop->house
	PowerUpJitter      float64       `yaml:"powerup_jitter" json:"powerup_jitter"`           // Max random offset, degrees
	BoostMultiplier    float64       `yaml:"boost_multiplier" json:"boost_multiplier"`       // Speed while boosted
	SlowdownMultiplier float64       `yaml:"slowdown_multiplier" json:"slowdown_multiplier"` // Speed while slowed
	ModifierDuration   time.Duration `yaml:"modifier_duration" json:"modifier_duration"`     // Window of a speed modifier
}

// MapConfig holds the fixed points of the playfield.
type MapConfig struct {
	Start Coordinate `yaml:"start" json:"start"` // Where the helicopter spawns
	Shop  Coordinate `yaml:"shop" json:"shop"`   // The pizza shop (pickup zone centre)
	Zoom  int        `yaml:"zoom" json:"zoom"`   // Fixed zoom level for browser clients
}

// OrderDefinition is an immutable catalog entry.
type OrderDefinition struct {
	Address   string     `yaml:"address" json:"address" msgpack:"address"`          // Street label shown in the HUD
	Pizzas    int        `yaml:"pizzas" json:"pizzas" msgpack:"pizzas"`             // Required cargo units
	TimeLimit int        `yaml:"time" json:"time_limit" msgpack:"time_limit"`       // Seconds once accepted
	Location  Coordinate `yaml:"location" json:"location" msgpack:"location"`      // Destination
	Caller    string     `yaml:"caller" json:"caller,omitempty" msgpack:"caller"`   // Who phoned it in
	Message   string     `yaml:"message" json:"message,omitempty" msgpack:"message"` // Optional custom flavor line
}

// Config is the root configuration struct, mapping to the entire 'game.yaml' file.
type Config struct {
	Tuning Tuning            `yaml:"tuning" json:"tuning"`
	Map    MapConfig         `yaml:"map" json:"map"`
	Caller string            `yaml:"caller" json:"caller"` // Default caller name
	Orders []OrderDefinition `yaml:"orders" json:"orders"`
}

// SessionState is the lifecycle of a single game.
type SessionState string

const (
	StateNotStarted SessionState = "not-started"
	StateRunning    SessionState = "running"
	StateWon        SessionState = "won"
	StateLost       SessionState = "lost"
)

// Terminal reports whether no further transitions are possible.
func (s SessionState) Terminal() bool {
	return s == StateWon || s == StateLost
}

// ActiveOrder is an accepted order whose countdown is running.
type ActiveOrder struct {
	ID         int             // Session-unique, increases with acceptance order
	Index      int             // Position in the catalog
	Def        OrderDefinition // Copy of the catalog entry
	Remaining  int             // Seconds left
	AcceptedAt time.Time
	House      MarkerID

	countdown Task
	reminder  Task
	active    bool
}

// Active reports whether the order is still awaiting delivery.
func (o *ActiveOrder) Active() bool { return o.active }

// TapResult is the outcome of a pickup/delivery interaction.
type TapResult string

const (
	TapIgnored   TapResult = "ignored"   // Session not accepting interactions
	TapPickedUp  TapResult = "picked-up" // Cargo increased
	TapFull      TapResult = "full"      // In pickup zone at capacity, nothing changed
	TapDelivered TapResult = "delivered" // One order completed
	TapShortfall TapResult = "shortfall" // In a delivery zone without enough cargo
	TapNothing   TapResult = "nothing"   // Not in any zone
)

// NoticeKind tags a presentation message.
type NoticeKind string

const (
	NoticeRing       NoticeKind = "ring"
	NoticeAccepted   NoticeKind = "accepted"
	NoticeReminder   NoticeKind = "reminder"
	NoticePickup     NoticeKind = "pickup"
	NoticeDelivered  NoticeKind = "delivered"
	NoticeShortfall  NoticeKind = "shortfall"
	NoticeBoost      NoticeKind = "boost"
	NoticeSlowdown   NoticeKind = "slowdown"
	NoticeSpeedReset NoticeKind = "speed-reset"
	NoticeWon        NoticeKind = "won"
	NoticeLost       NoticeKind = "lost"
)

// Notice is flavor text or a hint for the HUD.
type Notice struct {
	Kind    NoticeKind `json:"kind" msgpack:"kind"`
	Message string     `json:"message" msgpack:"message"`
	OrderID int        `json:"order_id,omitempty" msgpack:"order_id,omitempty"`
}

// OrderSnapshot is the HUD view of one active order.
type OrderSnapshot struct {
	ID          int        `json:"id" msgpack:"id"`
	Address     string     `json:"address" msgpack:"address"`
	Pizzas      int        `json:"pizzas" msgpack:"pizzas"`
	Remaining   int        `json:"remaining" msgpack:"remaining"`
	Destination Coordinate `json:"destination" msgpack:"destination"`
	Distance    float64    `json:"distance" msgpack:"distance"` // Metres from the carrier
	Bearing     float64    `json:"bearing" msgpack:"bearing"`   // Degrees from the carrier
	Compass     string     `json:"compass" msgpack:"compass"`
}

// RingingSnapshot describes the call waiting to be answered.
type RingingSnapshot struct {
	Index   int    `json:"index" msgpack:"index"`
	Address string `json:"address" msgpack:"address"`
	Caller  string `json:"caller" msgpack:"caller"`
}

// PowerUpSnapshot is the client view of a live power-up.
type PowerUpSnapshot struct {
	ID       int         `json:"id" msgpack:"id"`
	Kind     PowerUpKind `json:"kind" msgpack:"kind"`
	Position Coordinate  `json:"position" msgpack:"position"`
}

// Snapshot is the read-only view handed to the presentation layer.
type Snapshot struct {
	State      SessionState      `json:"state" msgpack:"state"`
	Paused     bool              `json:"paused" msgpack:"paused"`
	Delivered  int               `json:"delivered" msgpack:"delivered"`
	Total      int               `json:"total" msgpack:"total"`
	Carried    int               `json:"carried" msgpack:"carried"`
	Capacity   int               `json:"capacity" msgpack:"capacity"`
	Score      int               `json:"score" msgpack:"score"`
	Multiplier float64           `json:"multiplier" msgpack:"multiplier"`
	Carrier    Coordinate        `json:"carrier" msgpack:"carrier"`
	Shop       Coordinate        `json:"shop" msgpack:"shop"`
	Ringing    *RingingSnapshot  `json:"ringing,omitempty" msgpack:"ringing,omitempty"`
	Orders     []OrderSnapshot   `json:"orders" msgpack:"orders"`
	PowerUps   []PowerUpSnapshot `json:"powerups" msgpack:"powerups"`
}

// Presenter receives state changes. Implementations must not call back into the session.
type Presenter interface {
	Present(Snapshot)
	Notify(Notice)
}
