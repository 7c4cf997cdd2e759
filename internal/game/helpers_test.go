package game

import (
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"
)

var testEpoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeMarker struct {
	kind MarkerKind
	at   Coordinate
}

type fakeWorld struct {
	next    MarkerID
	markers map[MarkerID]fakeMarker
	centre  Coordinate
	removed int
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{markers: make(map[MarkerID]fakeMarker)}
}

func (w *fakeWorld) PlaceMarker(kind MarkerKind, at Coordinate) MarkerID {
	w.next++
	w.markers[w.next] = fakeMarker{kind: kind, at: at}
	return w.next
}

func (w *fakeWorld) MoveMarker(id MarkerID, at Coordinate) {
	if m, ok := w.markers[id]; ok {
		m.at = at
		w.markers[id] = m
	}
}

func (w *fakeWorld) RemoveMarker(id MarkerID) {
	if _, ok := w.markers[id]; ok {
		delete(w.markers, id)
		w.removed++
	}
}

func (w *fakeWorld) Distance(a, b Coordinate) float64 { return Distance(a, b) }

func (w *fakeWorld) Recenter(at Coordinate) { w.centre = at }

func (w *fakeWorld) count(kind MarkerKind) int {
	n := 0
	for _, m := range w.markers {
		if m.kind == kind {
			n++
		}
	}
	return n
}

type recorder struct {
	snaps   []Snapshot
	notices []Notice
}

func (r *recorder) Present(s Snapshot) { r.snaps = append(r.snaps, s) }
func (r *recorder) Notify(n Notice)    { r.notices = append(r.notices, n) }

func (r *recorder) count(kind NoticeKind) int {
	n := 0
	for _, no := range r.notices {
		if no.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) last(kind NoticeKind) (Notice, bool) {
	for i := len(r.notices) - 1; i >= 0; i-- {
		if r.notices[i].Kind == kind {
			return r.notices[i], true
		}
	}
	return Notice{}, false
}

type harness struct {
	s     *Session
	world *fakeWorld
	clock *ManualClock
	rec   *recorder
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	h := &harness{world: newFakeWorld(), clock: NewManualClock(testEpoch), rec: &recorder{}}
	s, err := NewSession(cfg, Deps{
		World:     h.world,
		Clock:     h.clock,
		Presenter: h.rec,
		Rand:      rand.New(rand.NewSource(1)),
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	h.s = s
	return h
}

// ringAndAccept waits for the next call and answers it immediately.
func (h *harness) ringAndAccept(t *testing.T, wait time.Duration) *ActiveOrder {
	t.Helper()
	h.clock.Advance(wait)
	if _, ok := h.s.sched.Ringing(); !ok {
		t.Fatalf("no call ringing after %s", wait)
	}
	before := len(h.s.ActiveOrders())
	if !h.s.Accept() {
		t.Fatalf("Accept returned false")
	}
	active := h.s.ActiveOrders()
	if len(active) != before+1 {
		t.Fatalf("active orders = %d, want %d", len(active), before+1)
	}
	return active[len(active)-1]
}

// park puts the helicopter at p without flying, so nothing is collected on the way.
func (h *harness) park(p Coordinate) {
	h.s.carrier = p
	h.world.MoveMarker(h.s.carrierMarker, p)
	h.s.tail.Follow(p)
}

// flyTo steps frames toward target until the helicopter is within radius.
// It returns the number of frames flown.
func (h *harness) flyTo(t *testing.T, target Coordinate, radius float64) int {
	t.Helper()
	for frames := 0; frames < 5000; frames++ {
		at := h.s.Carrier()
		if Distance(at, target) < radius {
			return frames
		}
		dLat := target.Lat - at.Lat
		dLng := (target.Lng - at.Lng) * math.Cos(radians(at.Lat))
		scale := math.Max(math.Abs(dLat), math.Abs(dLng))
		h.s.Frame(Intent{Lat: dLat / scale, Lng: dLng / scale})
		if h.s.State().Terminal() {
			t.Fatalf("game ended in flight: %s", h.s.State())
		}
	}
	t.Fatalf("never reached %v, stuck at %v", target, h.s.Carrier())
	return 0
}

func mustContain(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Fatalf("%q does not contain %q", got, want)
	}
}
