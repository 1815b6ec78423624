package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Seednode/matchwheel/roster"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

type fakeInsight struct {
	calls atomic.Int32
}

func (f *fakeInsight) Generate(ctx context.Context, a, b roster.Member) string {
	f.calls.Add(1)
	return "<p>" + a.Name + " meets " + b.Name + "</p>"
}

var testMembers = []roster.Member{
	{ID: "1", Name: "Ada", Category: "Engineer", Company: "Engines", Phone: "9822044556"},
	{ID: "2", Name: "Grace", Category: "Admiral", Company: "Navy", Phone: "+1 (555) 010-2030"},
	{ID: "3", Name: "Hedy", Category: "Inventor", Company: "MGM", Phone: "09822044557"},
}

func testConfig() *Config {
	return &Config{
		bind:           "127.0.0.1",
		port:           8080,
		title:          "Test Connector",
		countryCode:    "91",
		insightTimeout: time.Second,
		spinDuration:   60 * time.Millisecond,
		minTurns:       5,
		maxTurns:       8,
		easing:         "quart",
		frameRate:      100,
	}
}

func mustStore(t *testing.T) *roster.Store {
	t.Helper()

	store, err := roster.New(testMembers)
	if err != nil {
		t.Fatalf("roster.New failed: %v", err)
	}
	return store
}

type testServer struct {
	srv   *httptest.Server
	sm    *SessionManager
	store *roster.Store
	gen   *fakeInsight
}

func newTestServer(t *testing.T, cfg *Config) *testServer {
	t.Helper()

	store := mustStore(t)

	gen := &fakeInsight{}
	sm := newSessionManager(cfg, store, gen)

	mux := httprouter.New()
	errs := make(chan error, 64)
	registerRoutes(cfg, mux, sm, errs)

	srv := httptest.NewServer(newHandler(cfg, mux))

	t.Cleanup(func() {
		srv.Close()
		sm.Close()
	})

	return &testServer{srv: srv, sm: sm, store: store, gen: gen}
}

func (ts *testServer) dial(t *testing.T, sessionID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/wheel/" + sessionID + "/ws"

	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })

	return ws
}

// readUntil skips messages until one of type typ arrives.
func readUntil(t *testing.T, ws *websocket.Conn, typ string) map[string]any {
	t.Helper()

	for {
		_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))

		var msg map[string]any
		if err := ws.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %q: %v", typ, err)
		}
		if msg["type"] == typ {
			return msg
		}
	}
}

func send(t *testing.T, ws *websocket.Conn, msg ClientMessage) {
	t.Helper()

	if err := ws.WriteJSON(msg); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestSession_FullRound(t *testing.T) {
	ts := newTestServer(t, testConfig())
	ws := ts.dial(t, "round1")

	info := readUntil(t, ws, "session_info")
	if info["title"] != "Test Connector" || info["session_id"] != "round1" {
		t.Errorf("unexpected session info: %v", info)
	}
	if info["insights_enabled"] != true {
		t.Error("insights should be enabled with a generator")
	}

	state := readUntil(t, ws, "state")
	if state["state"] != "selecting_self" {
		t.Fatalf("expected selecting_self, got %v", state["state"])
	}
	for _, m := range state["members"].([]any) {
		if _, ok := m.(map[string]any)["phone"]; ok {
			t.Fatal("phone numbers must not be broadcast")
		}
	}

	send(t, ws, ClientMessage{Type: "select_self", MemberID: "1"})

	state = readUntil(t, ws, "state")
	if state["state"] != "ready_to_spin" {
		t.Fatalf("expected ready_to_spin, got %v", state["state"])
	}
	if n := len(state["candidates"].([]any)); n != 2 {
		t.Fatalf("expected 2 candidates, got %d", n)
	}

	send(t, ws, ClientMessage{Type: "spin"})

	spin := readUntil(t, ws, "spin")
	if spin["target_rotation"].(float64) <= spin["start_rotation"].(float64) {
		t.Errorf("spin does not move forward: %v", spin)
	}

	result := readUntil(t, ws, "result")
	match := result["match"].(map[string]any)
	matchID := match["member"].(map[string]any)["id"]
	if matchID == "1" {
		t.Fatal("matched with self")
	}

	state = readUntil(t, ws, "state")
	if state["state"] != "result_shown" {
		t.Fatalf("expected result_shown, got %v", state["state"])
	}

	link, _ := state["match"].(map[string]any)["whatsapp_url"].(string)
	if !strings.HasPrefix(link, "https://api.whatsapp.com/send?phone=") {
		t.Errorf("unexpected link %q", link)
	}
	if !strings.Contains(link, "Test%20Connector%20wheel") {
		t.Errorf("greeting missing from link %q", link)
	}

	resp, err := http.Get(ts.srv.URL + "/wheel/round1/contact.png")
	if err != nil {
		t.Fatalf("contact qr request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("contact qr: status %d, type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	send(t, ws, ClientMessage{Type: "insight"})

	pending := readUntil(t, ws, "insight")
	if pending["pending"] != true {
		t.Errorf("expected a pending insight, got %v", pending)
	}
	done := readUntil(t, ws, "insight")
	if html, _ := done["html"].(string); !strings.Contains(html, "Ada meets") {
		t.Errorf("unexpected insight %v", done)
	}

	send(t, ws, ClientMessage{Type: "reset"})

	state = readUntil(t, ws, "state")
	if state["state"] != "ready_to_spin" {
		t.Fatalf("expected ready_to_spin after reset, got %v", state["state"])
	}
	if state["self"].(map[string]any)["id"] != "1" {
		t.Error("spin again should keep the user")
	}

	resp, err = http.Get(ts.srv.URL + "/wheel/round1/contact.png")
	if err != nil {
		t.Fatalf("contact qr request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("contact qr after reset: expected 404, got %d", resp.StatusCode)
	}
}

func TestSession_OutOfOrderCommandResyncs(t *testing.T) {
	ts := newTestServer(t, testConfig())
	ws := ts.dial(t, "order1")

	readUntil(t, ws, "state")

	send(t, ws, ClientMessage{Type: "spin"})

	state := readUntil(t, ws, "state")
	if state["state"] != "selecting_self" {
		t.Errorf("spin before choosing self changed state to %v", state["state"])
	}

	send(t, ws, ClientMessage{Type: "select_self", MemberID: "nobody"})

	msg := readUntil(t, ws, "error")
	if !strings.Contains(msg["message"].(string), "no longer on the roster") {
		t.Errorf("unexpected error %v", msg)
	}
}

func TestSession_SharedBetweenViewers(t *testing.T) {
	ts := newTestServer(t, testConfig())

	a := ts.dial(t, "shared1")
	readUntil(t, a, "state")

	b := ts.dial(t, "shared1")
	readUntil(t, b, "state")

	send(t, a, ClientMessage{Type: "select_self", MemberID: "2"})

	state := readUntil(t, b, "state")
	if state["state"] != "ready_to_spin" {
		t.Errorf("second viewer did not see the selection: %v", state["state"])
	}
}

func TestSession_JoinDuringRevealDelay(t *testing.T) {
	cfg := testConfig()
	cfg.revealDelay = time.Minute

	ts := newTestServer(t, cfg)

	a := ts.dial(t, "reveal1")
	readUntil(t, a, "state")
	send(t, a, ClientMessage{Type: "select_self", MemberID: "1"})
	readUntil(t, a, "state")
	send(t, a, ClientMessage{Type: "spin"})
	first := readUntil(t, a, "result")

	b := ts.dial(t, "reveal1")

	state := readUntil(t, b, "state")
	if state["state"] != "spinning" {
		t.Fatalf("expected spinning during the reveal delay, got %v", state["state"])
	}

	result := readUntil(t, b, "result")
	if result["rotation"] != first["rotation"] {
		t.Errorf("late viewer got rotation %v, want %v", result["rotation"], first["rotation"])
	}
	if result["match"].(map[string]any)["member"].(map[string]any)["id"] == "1" {
		t.Error("matched with self")
	}
}

func TestSession_RosterReloadDropsSelf(t *testing.T) {
	ts := newTestServer(t, testConfig())
	ws := ts.dial(t, "reload1")

	readUntil(t, ws, "state")
	send(t, ws, ClientMessage{Type: "select_self", MemberID: "3"})
	readUntil(t, ws, "state")

	if err := ts.store.Replace(testMembers[:2]); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	state := readUntil(t, ws, "state")
	if state["state"] != "selecting_self" {
		t.Errorf("expected selecting_self after removal, got %v", state["state"])
	}
	if n := len(state["members"].([]any)); n != 2 {
		t.Errorf("expected 2 members, got %d", n)
	}
}

func TestSessionManager_Reap(t *testing.T) {
	ts := newTestServer(t, testConfig())

	if _, err := ts.sm.getHub("idle1"); err != nil {
		t.Fatalf("getHub failed: %v", err)
	}
	hub, _ := ts.sm.getHub("idle1")

	ts.sm.reap(time.Now().Add(-time.Hour))
	if ts.sm.Len() != 1 {
		t.Fatalf("active session was reaped")
	}

	ts.sm.reap(time.Now().Add(time.Hour))
	if ts.sm.Len() != 0 {
		t.Fatalf("idle session survived")
	}

	select {
	case <-hub.done:
	default:
		t.Error("reaped hub was not stopped")
	}
}

func TestSessionManager_NewSessionID(t *testing.T) {
	ts := newTestServer(t, testConfig())

	seen := make(map[string]bool)
	for range 100 {
		id := ts.sm.newSessionID()
		if len(id) != sessionIDLength || !validSessionID(id) {
			t.Fatalf("bad session id %q", id)
		}
		seen[id] = true
	}

	if len(seen) < 99 {
		t.Errorf("session ids repeat too often: %d unique of 100", len(seen))
	}
}

func TestValidSessionID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"abc123XY", true},
		{"", false},
		{"has space", false},
		{"../etc", false},
		{strings.Repeat("a", 33), false},
	}

	for _, tt := range tests {
		if got := validSessionID(tt.id); got != tt.want {
			t.Errorf("validSessionID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
