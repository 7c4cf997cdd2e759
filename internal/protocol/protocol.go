/*
Package protocol
File: protocol.go
Description:
    Wire messages exchanged over the session and lobby sockets.
    Every frame is an envelope {t, p}: t names the message, p carries the
    payload. Browsers use JSON text frames; clients that ask for
    ?codec=msgpack get the same envelope as binary MessagePack frames.
*/

package protocol

import (
	"time"

	"github.com/everforgeworks/pizza-copter/internal/game"
	"github.com/everforgeworks/pizza-copter/internal/world"
)

// Client -> server.
const (
	MsgKeys   = "keys"
	MsgTouch  = "touch"
	MsgTilt   = "tilt"
	MsgTap    = "tap"
	MsgAccept = "accept"
	MsgPause  = "pause"
)

// Server -> client.
const (
	MsgWelcome  = "welcome"
	MsgSnapshot = "snapshot"
	MsgNotice   = "notice"
	MsgLobby    = "lobby"
	MsgError    = "error"
)

// Welcome is the first frame on a session socket.
type Welcome struct {
	SessionID   string                 `json:"session_id"`
	ClientID    string                 `json:"client_id"`
	Codec       string                 `json:"codec"`
	FrameRate   int                    `json:"frame_rate"`
	BroadcastHz int                    `json:"broadcast_hz"`
	Map         game.MapConfig         `json:"map"`
	Catalog     []game.OrderDefinition `json:"catalog"`
}

// State is a snapshot frame: the HUD view plus every marker on the map.
type State struct {
	Seq      int64          `json:"seq"`
	Snapshot game.Snapshot  `json:"snapshot"`
	Markers  []world.Marker `json:"markers"`
}

// Keys is the full hold state of the arrow keys.
type Keys struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Touch phases.
const (
	TouchStart = "start"
	TouchMove  = "move"
	TouchEnd   = "end"
)

// Touch is one touch event in screen pixels.
type Touch struct {
	Phase string  `json:"phase"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Tilt is one device-orientation event in degrees.
type Tilt struct {
	Beta        float64 `json:"beta"`
	Gamma       float64 `json:"gamma"`
	Recalibrate bool    `json:"recalibrate,omitempty"`
}

// Tap is a pickup/delivery attempt. Without At the server taps at the helicopter.
type Tap struct {
	At *game.Coordinate `json:"at,omitempty"`
}

// TapResult answers a tap. On a session socket it comes back as a "tap" frame.
type TapResult struct {
	Result game.TapResult `json:"result"`
}

// Pause toggles the frame loop.
type Pause struct {
	Paused bool `json:"paused"`
}

// SessionInfo is the lobby/list view of a session.
type SessionInfo struct {
	ID          string            `json:"id"`
	State       game.SessionState `json:"state"`
	Connections int               `json:"connections"`
	Delivered   int               `json:"delivered"`
	Total       int               `json:"total"`
	Score       int               `json:"score"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Lobby is the periodic pulse sent to lobby sockets.
type Lobby struct {
	Sessions []SessionInfo `json:"sessions"`
	Reaped   []string      `json:"reaped,omitempty"`
}

// Error reports a rejected client frame.
type Error struct {
	Message string `json:"message"`
}
