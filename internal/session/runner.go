/*
Package session
File: runner.go
Description:
    A Runner is the goroutine that owns one game. Sockets and HTTP handlers
    never touch the game.Session directly: they post commands to the Inbox
    and the runner applies them between frames, timer callbacks and
    broadcasts. That keeps the rules engine single-threaded.

    Loop sources:
    - Inbox:        joins, leaves, input, taps, accept, pause, queries.
    - Clock calls:  countdown ticks, ring timeouts, reminders, speed expiry.
    - Frame ticker: movement and power-up collisions at FrameRate.
    - Quit:         manager shutdown or reaping.
*/

package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/everforgeworks/pizza-copter/internal/game"
	"github.com/everforgeworks/pizza-copter/internal/input"
	"github.com/everforgeworks/pizza-copter/internal/protocol"
	"github.com/everforgeworks/pizza-copter/internal/world"
)

// ErrStopped is returned by requests to a runner that has exited.
var ErrStopped = errors.New("session: runner stopped")

// Runner drives one game.Session in its own goroutine.
type Runner struct {
	ID    string
	Inbox chan any

	cfg       game.Config
	clock     *LoopClock
	world     *world.Map
	session   *game.Session
	conns     map[string]Conn
	createdAt time.Time

	keys  input.Keys
	touch *input.Touch
	tilt  *input.Tilt

	frameEvery     time.Duration
	broadcastEvery int
	frame          int
	seq            int64
	dirty          bool

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// Read by the manager without a round trip through the inbox.
	info      atomic.Pointer[protocol.SessionInfo]
	idleSince atomic.Int64 // Unix nanos of the last disconnect; 0 while attached
}

// NewRunner builds the session but does not start it; call Run in a goroutine.
func NewRunner(id string, cfg game.Config) (*Runner, error) {
	t := cfg.Tuning
	broadcastEvery := t.FrameRate / t.BroadcastHz
	if broadcastEvery <= 0 {
		broadcastEvery = 1
	}

	r := &Runner{
		ID:             id,
		Inbox:          make(chan any, 256),
		cfg:            cfg,
		clock:          NewLoopClock(64),
		world:          world.New(cfg.Map.Start, cfg.Map.Zoom),
		conns:          make(map[string]Conn),
		createdAt:      time.Now(),
		touch:          input.NewTouch(),
		tilt:           input.NewTilt(),
		frameEvery:     time.Second / time.Duration(t.FrameRate),
		broadcastEvery: broadcastEvery,
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
	}

	s, err := game.NewSession(cfg, game.Deps{World: r.world, Clock: r.clock, Presenter: r})
	if err != nil {
		return nil, fmt.Errorf("new runner %s: %w", id, err)
	}
	r.session = s
	r.idleSince.Store(r.createdAt.UnixNano())
	r.publish()
	return r, nil
}

// Stop asks the runner to end the game and exit. Safe to call more than once.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Done is closed once Run has returned.
func (r *Runner) Done() <-chan struct{} { return r.done }

func (r *Runner) Run() {
	defer close(r.done)
	defer r.clock.Close()

	ticker := time.NewTicker(r.frameEvery)
	defer ticker.Stop()

	r.session.Start()
	r.flush()
	r.publish()

	for {
		select {
		case <-r.quit:
			r.session.Abandon()
			r.flush()
			r.closeAll()
			r.publish()
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		case call := <-r.clock.Calls():
			call()
		case <-ticker.C:
			r.step()
		}
		r.flush()
		r.publish()
	}
}

func (r *Runner) step() {
	r.frame++
	if r.session.State().Terminal() {
		return
	}
	r.session.Frame(input.Combine(r.keys, r.touch, r.tilt))
	if r.frame%r.broadcastEvery == 0 && !r.session.Paused() {
		r.dirty = true
	}
}

func (r *Runner) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		clientID := uuid.NewString()
		codec := c.Conn.Codec()
		welcome := r.welcome(clientID, codec.Name())
		if b, err := codec.Encode(protocol.MsgWelcome, welcome); err == nil {
			_ = c.Conn.Send(b)
		}
		r.conns[clientID] = c.Conn
		r.idleSince.Store(0)
		r.dirty = true
		log.Printf("session=%s client=%s joined codec=%s conns=%d", r.ID, clientID, codec.Name(), len(r.conns))
		reply(c.Reply, JoinResult{ClientID: clientID, Welcome: welcome})
	case Leave:
		r.drop(c.ClientID)
	case KeysInput:
		r.keys = input.Keys{Up: c.Keys.Up, Down: c.Keys.Down, Left: c.Keys.Left, Right: c.Keys.Right}
	case TouchInput:
		switch c.Touch.Phase {
		case protocol.TouchStart:
			r.touch.Begin(c.Touch.X, c.Touch.Y)
		case protocol.TouchMove:
			r.touch.Move(c.Touch.X, c.Touch.Y)
		default:
			r.touch.End()
		}
	case TiltInput:
		if c.Tilt.Recalibrate {
			r.tilt.Recalibrate()
		}
		r.tilt.Read(c.Tilt.Beta, c.Tilt.Gamma)
	case Tap:
		var res game.TapResult
		if c.At != nil {
			res = r.session.Tap(*c.At)
		} else {
			res = r.session.TapCarrier()
		}
		reply(c.Reply, res)
	case Accept:
		reply(c.Reply, r.session.Accept())
	case Pause:
		ok := r.session.Pause(c.Paused)
		if ok && c.Paused {
			r.keys.Release()
			r.touch.End()
		}
		reply(c.Reply, ok)
	case Query:
		reply(c.Reply, r.status())
	case Abandon:
		reply(c.Reply, r.session.Abandon())
	default:
		log.Printf("session=%s unknown command %T", r.ID, cmd)
	}
}

func reply[T any](ch chan<- T, v T) {
	if ch != nil {
		ch <- v
	}
}

// Present implements game.Presenter. Snapshots are coalesced and sent once
// the current event has been handled.
func (r *Runner) Present(game.Snapshot) { r.dirty = true }

// Notify implements game.Presenter.
func (r *Runner) Notify(n game.Notice) {
	switch n.Kind {
	case game.NoticeWon, game.NoticeLost:
		log.Printf("session=%s ended state=%s delivered=%d score=%d", r.ID, n.Kind, r.session.Delivered(), r.session.Score())
	}
	r.broadcast(protocol.MsgNotice, n)
}

func (r *Runner) flush() {
	if !r.dirty {
		return
	}
	r.dirty = false
	if len(r.conns) == 0 {
		return
	}
	r.seq++
	r.broadcast(protocol.MsgSnapshot, protocol.State{
		Seq:      r.seq,
		Snapshot: r.session.Snapshot(),
		Markers:  r.world.Markers(),
	})
}

// broadcast encodes once per codec and drops sockets that cannot keep up.
func (r *Runner) broadcast(t string, payload any) {
	if len(r.conns) == 0 {
		return
	}
	frames := make(map[string][]byte, 2)
	var failed []string
	for id, c := range r.conns {
		codec := c.Codec()
		b, ok := frames[codec.Name()]
		if !ok {
			var err error
			if b, err = codec.Encode(t, payload); err != nil {
				log.Printf("session=%s encode %s failed: %v", r.ID, t, err)
				continue
			}
			frames[codec.Name()] = b
		}
		if err := c.Send(b); err != nil {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		r.drop(id)
	}
}

func (r *Runner) drop(clientID string) {
	c, ok := r.conns[clientID]
	if !ok {
		return
	}
	_ = c.Close()
	delete(r.conns, clientID)
	if len(r.conns) == 0 {
		r.idleSince.Store(time.Now().UnixNano())
	}
	log.Printf("session=%s client=%s left conns=%d", r.ID, clientID, len(r.conns))
}

func (r *Runner) closeAll() {
	for id := range r.conns {
		r.drop(id)
	}
}

func (r *Runner) welcome(clientID, codec string) protocol.Welcome {
	return protocol.Welcome{
		SessionID:   r.ID,
		ClientID:    clientID,
		Codec:       codec,
		FrameRate:   r.cfg.Tuning.FrameRate,
		BroadcastHz: r.cfg.Tuning.BroadcastHz,
		Map:         r.cfg.Map,
		Catalog:     r.cfg.Catalog(),
	}
}

func (r *Runner) status() Status {
	return Status{
		ID:          r.ID,
		Connections: len(r.conns),
		CreatedAt:   r.createdAt,
		Snapshot:    r.session.Snapshot(),
		Markers:     r.world.Markers(),
	}
}

// publish refreshes the lock-free summary when it changed.
func (r *Runner) publish() {
	next := protocol.SessionInfo{
		ID:          r.ID,
		State:       r.session.State(),
		Connections: len(r.conns),
		Delivered:   r.session.Delivered(),
		Total:       len(r.cfg.Orders),
		Score:       r.session.Score(),
		CreatedAt:   r.createdAt,
	}
	if cur := r.info.Load(); cur != nil && *cur == next {
		return
	}
	r.info.Store(&next)
}

// Info returns the latest published summary.
func (r *Runner) Info() protocol.SessionInfo { return *r.info.Load() }

// Idle reports how long the runner has had no socket attached.
func (r *Runner) Idle(now time.Time) time.Duration {
	since := r.idleSince.Load()
	if since == 0 {
		return 0
	}
	return now.Sub(time.Unix(0, since))
}

// Post queues a command without waiting for a reply. It reports false once
// the runner has exited.
func (r *Runner) Post(cmd any) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.Inbox <- cmd:
		return true
	case <-r.done:
		return false
	}
}

func request[T any](ctx context.Context, r *Runner, build func(chan<- T) any) (T, error) {
	var zero T
	ch := make(chan T, 1)
	select {
	case r.Inbox <- build(ch):
	case <-r.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case v := <-ch:
		return v, nil
	case <-r.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Join attaches a socket and waits for its client id.
func (r *Runner) Join(ctx context.Context, c Conn) (JoinResult, error) {
	return request(ctx, r, func(ch chan<- JoinResult) any { return Join{Conn: c, Reply: ch} })
}

// Tap attempts a pickup or delivery; nil at taps where the helicopter is.
func (r *Runner) Tap(ctx context.Context, at *game.Coordinate) (game.TapResult, error) {
	return request(ctx, r, func(ch chan<- game.TapResult) any { return Tap{At: at, Reply: ch} })
}

func (r *Runner) Accept(ctx context.Context) (bool, error) {
	return request(ctx, r, func(ch chan<- bool) any { return Accept{Reply: ch} })
}

func (r *Runner) SetPaused(ctx context.Context, paused bool) (bool, error) {
	return request(ctx, r, func(ch chan<- bool) any { return Pause{Paused: paused, Reply: ch} })
}

func (r *Runner) Status(ctx context.Context) (Status, error) {
	return request(ctx, r, func(ch chan<- Status) any { return Query{Reply: ch} })
}

func (r *Runner) Abandon(ctx context.Context) (bool, error) {
	return request(ctx, r, func(ch chan<- bool) any { return Abandon{Reply: ch} })
}
