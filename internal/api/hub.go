/*
Package api
File: hub.go
Description:
    The lobby Hub pushes the session list to every lobby socket.

    It maintains a registry of connected lobby clients and a broadcast
    channel. The reaper heartbeat in main.go and the create/delete handlers
    publish 'lobby' frames; the Hub writes them to every socket.

    Architecture:
    - Hub: The singleton registry, run as a goroutine.
    - lobbyClient: One browser tab watching the lobby.
    - ServeLobby: Upgrades GET /ws/lobby and sends the current list at once.
*/

package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/everforgeworks/pizza-copter/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 1 << 16
)

// upgrader allows any origin; browser clients may be served from elsewhere.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// lobbyClient is a middleman between one lobby socket and the Hub.
type lobbyClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of lobby clients and broadcasts frames to them.
type Hub struct {
	clients map[*lobbyClient]bool

	// Encoded frames for every client. Publish is the usual way in.
	Broadcast chan []byte

	register   chan *lobbyClient
	unregister chan *lobbyClient
	quit       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte, 16),
		register:   make(chan *lobbyClient),
		unregister: make(chan *lobbyClient),
		clients:    make(map[*lobbyClient]bool),
		quit:       make(chan struct{}),
	}
}

// Run is the Hub event loop. It blocks until Stop: `go hub.Run()`
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("WS: lobby client registered clients=%d", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Send buffer full: the client hung or went away.
					close(client.send)
					delete(h.clients, client)
				}
			}

		case <-h.quit:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		}
	}
}

// Stop ends Run and closes every lobby socket. Call once.
func (h *Hub) Stop() { close(h.quit) }

// Publish encodes a lobby pulse and queues it for broadcast. Pulses are
// dropped rather than blocking the caller when the queue is full.
func (h *Hub) Publish(l protocol.Lobby) {
	b, err := protocol.JSON.Encode(protocol.MsgLobby, l)
	if err != nil {
		log.Printf("WS: encode lobby pulse failed: %v", err)
		return
	}
	select {
	case h.Broadcast <- b:
	default:
		log.Printf("WS: lobby queue full, pulse dropped")
	}
}

// ServeLobby upgrades the request and registers a lobby client.
func (h *Handler) ServeLobby(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WS Upgrade Error:", err)
		return
	}

	client := &lobbyClient{hub: h.Lobby, conn: conn, send: make(chan []byte, 64)}
	if b, err := protocol.JSON.Encode(protocol.MsgLobby, protocol.Lobby{Sessions: h.Sessions.List()}); err == nil {
		client.send <- b
	}

	select {
	case client.hub.register <- client:
	case <-client.hub.quit:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only exists to notice disconnects and answer pings; the lobby is
// read-only for clients.
func (c *lobbyClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS Error: %v", err)
			}
			return
		}
	}
}

// writePump exits when the Hub closes c.send.
func (c *lobbyClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
