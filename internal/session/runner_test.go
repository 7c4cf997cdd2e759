package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/everforgeworks/pizza-copter/internal/game"
	"github.com/everforgeworks/pizza-copter/internal/protocol"
)

type fakeConn struct {
	codec  protocol.Codec
	frames chan []byte
	fail   atomic.Bool
	closed atomic.Bool
}

func newFakeConn(codec protocol.Codec) *fakeConn {
	return &fakeConn{codec: codec, frames: make(chan []byte, 512)}
}

func (c *fakeConn) Codec() protocol.Codec { return c.codec }

func (c *fakeConn) Send(b []byte) error {
	if c.fail.Load() {
		return errors.New("send failed")
	}
	select {
	case c.frames <- b:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

// next returns the next frame of type t, skipping others.
func (c *fakeConn) next(t *testing.T, typ string) protocol.Envelope {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case b := <-c.frames:
			env, err := c.codec.DecodeEnvelope(b)
			if err != nil {
				t.Fatalf("decode frame: %v", err)
			}
			if env.T == typ {
				return env
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q frame", typ)
			return protocol.Envelope{}
		}
	}
}

func quietConfig() game.Config {
	cfg := game.DefaultConfig()
	cfg.Tuning.FirstRingDelay = time.Hour
	return cfg
}

func startRunner(t *testing.T, cfg game.Config) *Runner {
	t.Helper()
	r, err := NewRunner("test", cfg)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	go r.Run()
	t.Cleanup(func() {
		r.Stop()
		<-r.Done()
	})
	return r
}

func ctxTimeout(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRunnerJoinSendsWelcomeFirst(t *testing.T) {
	r := startRunner(t, quietConfig())
	conn := newFakeConn(protocol.JSON)

	res, err := r.Join(ctxTimeout(t), conn)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if res.ClientID == "" || res.Welcome.SessionID != "test" || len(res.Welcome.Catalog) != 5 {
		t.Fatalf("join result = %+v", res)
	}
	if res.Welcome.Catalog[0].Caller != "Fido" {
		t.Fatalf("catalog caller = %q", res.Welcome.Catalog[0].Caller)
	}

	select {
	case b := <-conn.frames:
		env, err := protocol.JSON.DecodeEnvelope(b)
		if err != nil || env.T != protocol.MsgWelcome {
			t.Fatalf("first frame = %q, %v", env.T, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no welcome frame")
	}

	env := conn.next(t, protocol.MsgSnapshot)
	state, err := protocol.DecodePayload[protocol.State](env)
	if err != nil {
		t.Fatal(err)
	}
	if state.Snapshot.State != game.StateRunning || state.Snapshot.Total != 5 || len(state.Markers) != 2 {
		t.Fatalf("snapshot = %+v", state)
	}
}

func TestRunnerTapAtShop(t *testing.T) {
	cfg := quietConfig()
	cfg.Map.Start = cfg.Map.Shop
	r := startRunner(t, cfg)
	ctx := ctxTimeout(t)

	res, err := r.Tap(ctx, nil)
	if err != nil || res != game.TapPickedUp {
		t.Fatalf("tap at carrier = %q, %v", res, err)
	}
	if res, _ := r.Tap(ctx, &cfg.Map.Shop); res != game.TapFull {
		t.Fatalf("tap at shop = %q", res)
	}

	st, err := r.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Snapshot.Carried != cfg.Tuning.Capacity {
		t.Fatalf("carried = %d", st.Snapshot.Carried)
	}
	if ok, _ := r.Accept(ctx); ok {
		t.Fatalf("accept with nothing ringing")
	}
}

func TestRunnerTapAwayFromCarrier(t *testing.T) {
	cfg := quietConfig()
	r := startRunner(t, cfg)
	ctx := ctxTimeout(t)

	// The helicopter starts well away from the shop.
	if res, err := r.Tap(ctx, &cfg.Map.Shop); err != nil || res != game.TapNothing {
		t.Fatalf("tap at shop = %q, %v", res, err)
	}
	st, err := r.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Snapshot.Carried != 0 {
		t.Fatalf("carried = %d after a remote tap", st.Snapshot.Carried)
	}
}

func TestRunnerPauseReleasesInput(t *testing.T) {
	r := startRunner(t, quietConfig())
	ctx := ctxTimeout(t)

	if !r.Post(KeysInput{Keys: protocol.Keys{Up: true}}) {
		t.Fatal("post failed")
	}
	if ok, err := r.SetPaused(ctx, true); err != nil || !ok {
		t.Fatalf("pause = %v, %v", ok, err)
	}
	if ok, _ := r.SetPaused(ctx, true); ok {
		t.Fatalf("pausing twice should report false")
	}
	st, _ := r.Status(ctx)
	held := st.Snapshot.Carrier

	if ok, _ := r.SetPaused(ctx, false); !ok {
		t.Fatalf("resume failed")
	}
	time.Sleep(100 * time.Millisecond)
	st, _ = r.Status(ctx)
	if st.Snapshot.Carrier != held {
		t.Fatalf("helicopter moved after pause released the keys")
	}
}

func TestRunnerRingAndAccept(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.Tuning.FirstRingDelay = 10 * time.Millisecond
	cfg.Tuning.RingTimeout = time.Hour
	r := startRunner(t, cfg)
	conn := newFakeConn(protocol.Msgpack)
	ctx := ctxTimeout(t)

	if _, err := r.Join(ctx, conn); err != nil {
		t.Fatal(err)
	}
	env := conn.next(t, protocol.MsgNotice)
	n, err := protocol.DecodePayload[game.Notice](env)
	if err != nil || n.Kind != game.NoticeRing {
		t.Fatalf("notice = %+v, %v", n, err)
	}

	if ok, err := r.Accept(ctx); err != nil || !ok {
		t.Fatalf("accept = %v, %v", ok, err)
	}
	st, _ := r.Status(ctx)
	if len(st.Snapshot.Orders) != 1 || st.Snapshot.Orders[0].Address != "121 Waugh Ave" {
		t.Fatalf("orders = %+v", st.Snapshot.Orders)
	}
}

func TestRunnerDropsFailingConn(t *testing.T) {
	r := startRunner(t, quietConfig())
	ctx := ctxTimeout(t)
	conn := newFakeConn(protocol.JSON)

	if _, err := r.Join(ctx, conn); err != nil {
		t.Fatal(err)
	}
	if r.Idle(time.Now()) != 0 {
		t.Fatalf("idle while attached")
	}
	conn.fail.Store(true)

	deadline := time.Now().Add(2 * time.Second)
	for {
		st, err := r.Status(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if st.Connections == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("failing conn was never dropped")
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !conn.closed.Load() {
		t.Fatal("dropped conn not closed")
	}
	if r.Idle(time.Now().Add(time.Second)) <= 0 {
		t.Fatal("runner should be idle once the last socket left")
	}
}

func TestRunnerStop(t *testing.T) {
	r, err := NewRunner("stop", quietConfig())
	if err != nil {
		t.Fatal(err)
	}
	go r.Run()
	conn := newFakeConn(protocol.JSON)
	if _, err := r.Join(ctxTimeout(t), conn); err != nil {
		t.Fatal(err)
	}

	r.Stop()
	r.Stop()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not exit")
	}

	if !conn.closed.Load() {
		t.Fatal("conn left open")
	}
	if got := r.Info().State; got != game.StateLost {
		t.Fatalf("state after stop = %q", got)
	}
	if _, err := r.Tap(context.Background(), nil); !errors.Is(err, ErrStopped) {
		t.Fatalf("tap after stop err = %v", err)
	}
	if r.Post(Leave{ClientID: "x"}) {
		t.Fatal("post after stop should fail")
	}
}

func TestNewRunnerRejectsBadConfig(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.Orders = nil
	if _, err := NewRunner("bad", cfg); err == nil {
		t.Fatal("expected error")
	}
}
