/*
Package session
File: messages.go
Description:
    Commands posted to a runner inbox and the Conn interface
    sockets implement.
*/

package session

import (
	"time"

	"github.com/everforgeworks/pizza-copter/internal/game"
	"github.com/everforgeworks/pizza-copter/internal/protocol"
	"github.com/everforgeworks/pizza-copter/internal/world"
)

// Conn is one socket attached to a session.
type Conn interface {
	Codec() protocol.Codec
	Send([]byte) error
	Close() error
}

// Join attaches a socket. The reply carries the welcome frame payload.
type Join struct {
	Conn  Conn
	Reply chan<- JoinResult
}

type JoinResult struct {
	ClientID string
	Welcome  protocol.Welcome
}

// Leave is issued when a socket goes away.
type Leave struct {
	ClientID string
}

// KeysInput replaces the arrow-key hold state.
type KeysInput struct {
	Keys protocol.Keys
}

// TouchInput feeds one touch event to the virtual joystick.
type TouchInput struct {
	Touch protocol.Touch
}

// TiltInput feeds one orientation reading.
type TiltInput struct {
	Tilt protocol.Tilt
}

// Tap attempts a pickup or delivery. A nil At taps at the helicopter.
type Tap struct {
	At    *game.Coordinate
	Reply chan<- game.TapResult
}

// Accept answers the ringing phone.
type Accept struct {
	Reply chan<- bool
}

// Pause toggles the frame loop.
type Pause struct {
	Paused bool
	Reply  chan<- bool
}

// Query asks for the full status.
type Query struct {
	Reply chan<- Status
}

// Abandon ends the game as lost.
type Abandon struct {
	Reply chan<- bool
}

// Status is a point-in-time view of a runner.
type Status struct {
	ID          string         `json:"id"`
	Connections int            `json:"connections"`
	CreatedAt   time.Time      `json:"created_at"`
	Snapshot    game.Snapshot  `json:"snapshot"`
	Markers     []world.Marker `json:"markers"`
}
