/*
Package api
File: client.go
Description:
    One browser (or terminal) socket attached to a game session.

    The client implements session.Conn: the runner hands it encoded frames
    through Send, which only enqueues. writePump owns all writes to the
    socket; readPump decodes input frames and posts them to the runner.
*/

package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/everforgeworks/pizza-copter/internal/protocol"
	"github.com/everforgeworks/pizza-copter/internal/session"
)

var (
	errClientClosed = errors.New("api: client closed")
	errSendFull     = errors.New("api: client send buffer full")
)

type sessionClient struct {
	id     string
	runner *session.Runner
	conn   *websocket.Conn
	codec  protocol.Codec
	send   chan []byte
	closed chan struct{}
	once   sync.Once
}

func (c *sessionClient) Codec() protocol.Codec { return c.codec }

// Send queues a frame. A client that cannot keep up is reported to the
// runner, which drops it.
func (c *sessionClient) Send(b []byte) error {
	select {
	case <-c.closed:
		return errClientClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	default:
		return errSendFull
	}
}

// Close stops writePump, which closes the socket.
func (c *sessionClient) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// ServeSession upgrades GET /ws/sessions/{id}?codec=json|msgpack.
func (h *Handler) ServeSession(w http.ResponseWriter, r *http.Request) {
	sr, ok := h.runner(w, r)
	if !ok {
		return
	}
	codec, err := protocol.CodecByName(r.URL.Query().Get("codec"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WS Upgrade Error:", err)
		return
	}

	client := &sessionClient{
		runner: sr,
		conn:   conn,
		codec:  codec,
		send:   make(chan []byte, 256),
		closed: make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	res, err := sr.Join(ctx, client)
	cancel()
	if err != nil {
		log.Printf("WS: join session=%s failed: %v", sr.ID, err)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "session unavailable"))
		conn.Close()
		return
	}
	client.id = res.ClientID

	go client.writePump()
	go client.readPump()
}

func (c *sessionClient) messageType() int {
	if c.codec.Binary() {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// reply encodes a frame for this client only.
func (c *sessionClient) reply(t string, payload any) {
	b, err := c.codec.Encode(t, payload)
	if err != nil {
		log.Printf("WS: encode %s failed: %v", t, err)
		return
	}
	_ = c.Send(b)
}

func (c *sessionClient) readPump() {
	defer func() {
		c.runner.Post(session.Leave{ClientID: c.id})
		c.Close()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS Error: session=%s client=%s %v", c.runner.ID, c.id, err)
			}
			return
		}
		env, err := c.codec.DecodeEnvelope(message)
		if err != nil {
			c.reply(protocol.MsgError, protocol.Error{Message: err.Error()})
			continue
		}
		if err := c.dispatch(env); err != nil {
			if errors.Is(err, session.ErrStopped) {
				return
			}
			c.reply(protocol.MsgError, protocol.Error{Message: err.Error()})
		}
	}
}

// dispatch turns one client frame into a runner command.
func (c *sessionClient) dispatch(env protocol.Envelope) error {
	var cmd any
	switch env.T {
	case protocol.MsgKeys:
		k, err := protocol.DecodePayload[protocol.Keys](env)
		if err != nil {
			return err
		}
		cmd = session.KeysInput{Keys: k}
	case protocol.MsgTouch:
		t, err := protocol.DecodePayload[protocol.Touch](env)
		if err != nil {
			return err
		}
		cmd = session.TouchInput{Touch: t}
	case protocol.MsgTilt:
		t, err := protocol.DecodePayload[protocol.Tilt](env)
		if err != nil {
			return err
		}
		cmd = session.TiltInput{Tilt: t}
	case protocol.MsgTap:
		var tap protocol.Tap
		if len(env.P) > 0 {
			var err error
			if tap, err = protocol.DecodePayload[protocol.Tap](env); err != nil {
				return err
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := c.runner.Tap(ctx, tap.At)
		if err != nil {
			return err
		}
		c.reply(protocol.MsgTap, protocol.TapResult{Result: res})
		return nil
	case protocol.MsgAccept:
		cmd = session.Accept{}
	case protocol.MsgPause:
		p, err := protocol.DecodePayload[protocol.Pause](env)
		if err != nil {
			return err
		}
		cmd = session.Pause{Paused: p.Paused}
	default:
		return errors.New("unknown message type " + env.T)
	}
	if !c.runner.Post(cmd) {
		return session.ErrStopped
	}
	return nil
}

func (c *sessionClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(c.messageType(), message); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.closed:
			c.flush()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// flush writes frames queued before Close, such as the final notice of a game.
func (c *sessionClient) flush() {
	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(c.messageType(), message); err != nil {
				return
			}
		default:
			return
		}
	}
}

var _ session.Conn = (*sessionClient)(nil)
