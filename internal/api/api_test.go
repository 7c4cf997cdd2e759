package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/everforgeworks/pizza-copter/internal/game"
	"github.com/everforgeworks/pizza-copter/internal/protocol"
	"github.com/everforgeworks/pizza-copter/internal/session"
)

func newTestServer(t *testing.T) (*httptest.Server, *Handler) {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.Tuning.FirstRingDelay = time.Hour
	store := game.NewConfigStore("", cfg)

	hub := NewHub()
	go hub.Run()
	h := &Handler{
		Sessions: session.NewManager(store),
		Configs:  store,
		Lobby:    hub,
	}
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(func() {
		srv.Close()
		h.Sessions.StopAll(time.Second)
		hub.Stop()
	})
	return srv, h
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, url, err)
		}
	}
	return res.StatusCode
}

func createSession(t *testing.T, srv *httptest.Server) protocol.SessionInfo {
	t.Helper()
	var info protocol.SessionInfo
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/sessions", nil, &info); code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}
	if info.ID == "" || info.Total != 5 {
		t.Fatalf("created = %+v", info)
	}
	return info
}

func TestHealthAndCatalog(t *testing.T) {
	srv, _ := newTestServer(t)

	var health map[string]any
	if code := doJSON(t, http.MethodGet, srv.URL+"/health", nil, &health); code != http.StatusOK || health["status"] != "ok" {
		t.Fatalf("health = %d %v", code, health)
	}

	var catalog []game.OrderDefinition
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/catalog", nil, &catalog); code != http.StatusOK {
		t.Fatalf("catalog status = %d", code)
	}
	if len(catalog) != 5 || catalog[0].Address != "121 Waugh Ave" || catalog[0].Caller != "Fido" {
		t.Fatalf("catalog = %+v", catalog)
	}

	var tuning TuningResponse
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/tuning", nil, &tuning); code != http.StatusOK || tuning.Tuning.Capacity != 5 || tuning.Tuning.RingCadence != 15*time.Second {
		t.Fatalf("tuning = %d %+v", code, tuning)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/sessions", nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK || res.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight = %d %v", res.StatusCode, res.Header)
	}
}

func TestSessionLifecycleOverREST(t *testing.T) {
	srv, _ := newTestServer(t)
	info := createSession(t, srv)
	base := srv.URL + "/api/sessions/" + info.ID

	var list []protocol.SessionInfo
	if doJSON(t, http.MethodGet, srv.URL+"/api/sessions", nil, &list); len(list) != 1 || list[0].ID != info.ID {
		t.Fatalf("list = %+v", list)
	}

	shop := game.DefaultConfig().Map.Shop
	var tap protocol.TapResult
	// The helicopter is parked away from the shop, so the tap point alone does nothing.
	if code := doJSON(t, http.MethodPost, base+"/tap", shop, &tap); code != http.StatusOK || tap.Result != game.TapNothing {
		t.Fatalf("tap at shop = %d %q", code, tap.Result)
	}
	if doJSON(t, http.MethodPost, base+"/tap", nil, &tap); tap.Result != game.TapNothing {
		t.Fatalf("tap at helicopter = %q", tap.Result)
	}

	var acc AcceptResponse
	if code := doJSON(t, http.MethodPost, base+"/accept", nil, &acc); code != http.StatusOK || acc.Accepted {
		t.Fatalf("accept = %d %+v", code, acc)
	}

	var pause PauseResponse
	if code := doJSON(t, http.MethodPost, base+"/pause", protocol.Pause{Paused: true}, &pause); code != http.StatusOK || !pause.Changed {
		t.Fatalf("pause = %d %+v", code, pause)
	}

	var st session.Status
	if code := doJSON(t, http.MethodGet, base, nil, &st); code != http.StatusOK {
		t.Fatalf("get status = %d", code)
	}
	if !st.Snapshot.Paused || st.Snapshot.Carried != 0 || len(st.Markers) == 0 {
		t.Fatalf("status = %+v", st)
	}

	if code := doJSON(t, http.MethodDelete, base, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete status = %d", code)
	}
	var errBody map[string]string
	if code := doJSON(t, http.MethodGet, base, nil, &errBody); code != http.StatusNotFound || errBody["error"] == "" {
		t.Fatalf("get after delete = %d %v", code, errBody)
	}
}

func TestBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	info := createSession(t, srv)
	base := srv.URL + "/api/sessions/" + info.ID

	res, err := http.Post(base+"/pause", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad pause body status = %d", res.StatusCode)
	}

	if code := doJSON(t, http.MethodPost, srv.URL+"/api/sessions/nope/accept", nil, nil); code != http.StatusNotFound {
		t.Fatalf("unknown session status = %d", code)
	}
	res, err = http.Get(srv.URL + "/ws/sessions/" + info.ID + "?codec=xml")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown codec status = %d", res.StatusCode)
	}
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

// readUntil reads frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, codec protocol.Codec, typ string) protocol.Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q: %v", typ, err)
		}
		env, err := codec.DecodeEnvelope(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.T == typ {
			return env
		}
	}
}

func TestSessionSocket(t *testing.T) {
	srv, _ := newTestServer(t)
	info := createSession(t, srv)

	for _, codec := range []protocol.Codec{protocol.JSON, protocol.Msgpack} {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/sessions/"+info.ID+"?codec="+codec.Name()), nil)
		if err != nil {
			t.Fatalf("%s dial: %v", codec.Name(), err)
		}

		welcome, err := protocol.DecodePayload[protocol.Welcome](readUntil(t, conn, codec, protocol.MsgWelcome))
		if err != nil || welcome.SessionID != info.ID || welcome.Codec != codec.Name() || welcome.ClientID == "" {
			t.Fatalf("%s welcome = %+v, %v", codec.Name(), welcome, err)
		}
		if _, err := protocol.DecodePayload[protocol.State](readUntil(t, conn, codec, protocol.MsgSnapshot)); err != nil {
			t.Fatalf("%s snapshot: %v", codec.Name(), err)
		}

		frame, _ := codec.Encode(protocol.MsgTap, nil)
		msgType := websocket.TextMessage
		if codec.Binary() {
			msgType = websocket.BinaryMessage
		}
		if err := conn.WriteMessage(msgType, frame); err != nil {
			t.Fatal(err)
		}
		res, err := protocol.DecodePayload[protocol.TapResult](readUntil(t, conn, codec, protocol.MsgTap))
		if err != nil || res.Result != game.TapNothing {
			t.Fatalf("%s tap = %+v, %v", codec.Name(), res, err)
		}

		bogus, _ := codec.Encode("warp", protocol.Pause{})
		if err := conn.WriteMessage(msgType, bogus); err != nil {
			t.Fatal(err)
		}
		if _, err := protocol.DecodePayload[protocol.Error](readUntil(t, conn, codec, protocol.MsgError)); err != nil {
			t.Fatalf("%s error frame: %v", codec.Name(), err)
		}
		conn.Close()
	}
}

func TestLobbySocket(t *testing.T) {
	srv, h := newTestServer(t)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/lobby"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	first, err := protocol.DecodePayload[protocol.Lobby](readUntil(t, conn, protocol.JSON, protocol.MsgLobby))
	if err != nil || len(first.Sessions) != 0 {
		t.Fatalf("first pulse = %+v, %v", first, err)
	}

	info := createSession(t, srv)
	next, err := protocol.DecodePayload[protocol.Lobby](readUntil(t, conn, protocol.JSON, protocol.MsgLobby))
	if err != nil || len(next.Sessions) != 1 || next.Sessions[0].ID != info.ID {
		t.Fatalf("pulse after create = %+v, %v", next, err)
	}

	h.Lobby.Publish(protocol.Lobby{Sessions: h.Sessions.List(), Reaped: []string{"gone"}})
	reaped, err := protocol.DecodePayload[protocol.Lobby](readUntil(t, conn, protocol.JSON, protocol.MsgLobby))
	if err != nil || len(reaped.Reaped) != 1 {
		t.Fatalf("reap pulse = %+v, %v", reaped, err)
	}
}
