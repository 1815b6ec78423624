/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Matchwheel Connector
//
// Every session is one wheel, shared by every browser tab that opens it.
// The server owns the wheel: it draws the spin, ticks the animation clock,
// resolves the match, and tells the browsers what to draw.
//
// Features:
// - WebSockets per session ID: /wheel/:sessionid and /wheel/:sessionid/ws
// - Viewers identified by cookie (viewerID)
// - One goroutine per session; commands, ticks, insight results, and roster
//   reloads all arrive over channels
// - Frame ticker runs only while a spin is in flight
// - Late joiners get the spin in progress and pick up the animation mid-way
// - Sessions auto-reaped after configurable idle timeout
// - Random 8-char session IDs via crypto/rand, with server-side collision check
// - QR codes for the session URL and for the match's WhatsApp link

package main

import (
	"context"
	"crypto/rand"
	"errors"
	mrand "math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/matchwheel/contact"
	"github.com/Seednode/matchwheel/flow"
	"github.com/Seednode/matchwheel/insight"
	"github.com/Seednode/matchwheel/roster"
	"github.com/Seednode/matchwheel/wheel"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Messages coming from clients
type ClientMessage struct {
	Type     string `json:"type"`                // "select_self", "spin", "reset", "change_self", "insight"
	MemberID string `json:"member_id,omitempty"` // select_self
}

// SessionInfoMessage is sent immediately on connect.
type SessionInfoMessage struct {
	Type            string  `json:"type"` // "session_info"
	SessionID       string  `json:"session_id"`
	ViewerID        string  `json:"viewer_id"`
	Title           string  `json:"title"`
	PointerAngle    float64 `json:"pointer_angle"`
	Easing          string  `json:"easing"`
	InsightsEnabled bool    `json:"insights_enabled"`
}

// MatchView is the result card.
type MatchView struct {
	Member      roster.Member `json:"member"`
	Greeting    string        `json:"greeting"`
	WhatsAppURL string        `json:"whatsapp_url,omitempty"`
	ContactQR   string        `json:"contact_qr,omitempty"`
}

// StateMessage is broadcast after every change to the flow.
type StateMessage struct {
	Type       string            `json:"type"` // "state"
	State      flow.State        `json:"state"`
	Members    []roster.Member   `json:"members"`
	Self       *roster.Member    `json:"self,omitempty"`
	Candidates []wheel.Candidate `json:"candidates"`
	Rotation   float64           `json:"rotation"`
	Match      *MatchView        `json:"match,omitempty"`
}

// SpinMessage starts the animation in every browser. Elapsed is nonzero for
// viewers who join mid-spin.
type SpinMessage struct {
	Type           string            `json:"type"` // "spin"
	Candidates     []wheel.Candidate `json:"candidates"`
	StartRotation  float64           `json:"start_rotation"`
	TargetRotation float64           `json:"target_rotation"`
	DurationMS     int64             `json:"duration_ms"`
	ElapsedMS      int64             `json:"elapsed_ms"`
}

// ResultMessage is sent the moment the wheel stops, before the reveal delay.
type ResultMessage struct {
	Type     string    `json:"type"` // "result"
	Rotation float64   `json:"rotation"`
	Match    MatchView `json:"match"`
}

// InsightMessage carries icebreakers for the current match.
type InsightMessage struct {
	Type    string `json:"type"` // "insight"
	Pending bool   `json:"pending"`
	HTML    string `json:"html,omitempty"`
}

// ErrorMessage is sent to a single client whose command failed.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	viewerID string
}

type command struct {
	client *Client
	msg    ClientMessage
}

type insightResult struct {
	seq  int
	html string
}

type Hub struct {
	id    string
	store *roster.Store
	gen   insight.Generator
	flow  *flow.Controller

	clients map[*Client]bool

	register      chan *Client
	unreg         chan *Client
	commands      chan command
	insights      chan insightResult
	rosterChanged chan struct{}
	done          chan struct{}
	stopOnce      sync.Once

	// guards fields read by the reaper and HTTP handlers
	mu         sync.RWMutex
	createdAt  time.Time
	lastActive time.Time
	contactURL string

	// owned by run
	spinCandidates []wheel.Candidate
	resultSent     bool
	insightSeq     int
	insight        *InsightMessage
}

func newHub(cfg *Config, sessionID string, store *roster.Store, gen insight.Generator) (*Hub, error) {
	engine, err := wheel.New(cfg.wheelConfig(), mrand.New(mrand.NewPCG(mrand.Uint64(), mrand.Uint64())))
	if err != nil {
		return nil, err
	}

	controller := flow.New(engine, store.Members(), cfg.revealDelay)
	controller.Begin()

	now := time.Now()
	return &Hub{
		id:            sessionID,
		store:         store,
		gen:           gen,
		flow:          controller,
		clients:       make(map[*Client]bool),
		register:      make(chan *Client),
		unreg:         make(chan *Client),
		commands:      make(chan command),
		insights:      make(chan insightResult),
		rosterChanged: make(chan struct{}, 1),
		done:          make(chan struct{}),
		createdAt:     now,
		lastActive:    now,
	}, nil
}

func (h *Hub) run(cfg *Config) {
	var ticker *time.Ticker

	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
		h.closeClients()
	}()

	for {
		var tick <-chan time.Time
		if ticker != nil {
			tick = ticker.C
		}

		select {
		case <-h.done:
			return

		case c := <-h.register:
			h.touch()
			h.clients[c] = true
			h.welcome(cfg, c)

		case c := <-h.unreg:
			h.touch()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case cmd := <-h.commands:
			h.touch()
			h.handleCommand(cfg, cmd)

		case res := <-h.insights:
			h.handleInsight(cfg, res)

		case <-h.rosterChanged:
			h.flow.SetRoster(h.store.Members())
			if _, ok := h.flow.Match(); !ok {
				h.clearResult()
			}
			h.broadcast(h.stateMessage(cfg))

		case now := <-tick:
			h.handleTick(cfg, now)
		}

		switch {
		case h.flow.Active() && ticker == nil:
			ticker = time.NewTicker(cfg.frameInterval())
		case !h.flow.Active() && ticker != nil:
			ticker.Stop()
			ticker = nil
		}
	}
}

// welcome brings a new client up to date.
func (h *Hub) welcome(cfg *Config, c *Client) {
	_, disabled := h.gen.(insight.Disabled)

	h.send(c, SessionInfoMessage{
		Type:            "session_info",
		SessionID:       h.id,
		ViewerID:        c.viewerID,
		Title:           cfg.title,
		PointerAngle:    wheel.PointerAngle,
		Easing:          cfg.easing,
		InsightsEnabled: !disabled,
	})

	h.send(c, h.stateMessage(cfg))

	if msg, ok := h.spinMessage(time.Now()); ok {
		h.send(c, msg)
	}

	// Inside the reveal delay the wheel has stopped but the state still
	// says spinning.
	if h.resultSent && h.flow.State() == flow.Spinning {
		if msg, ok := h.resultMessage(cfg); ok {
			h.send(c, msg)
		}
	}

	if h.insight != nil {
		h.send(c, *h.insight)
	}
}

func (h *Hub) handleCommand(cfg *Config, cmd command) {
	var err error

	switch cmd.msg.Type {
	case "select_self":
		err = h.flow.SelectSelf(cmd.msg.MemberID)
		if err == nil {
			self, _ := h.flow.Self()
			logf(cfg, "WHEEL: Session %s is now %s (%s)", h.id, self.Name, self.ID)
		}

	case "spin":
		now := time.Now()
		candidates := flow.WheelCandidates(h.flow.Candidates())

		err = h.flow.StartSpin(now)
		if err == nil {
			h.spinCandidates = candidates
			h.resultSent = false
			h.clearResult()

			if msg, ok := h.spinMessage(now); ok {
				h.broadcast(msg)
			}

			logf(cfg, "WHEEL: Session %s spinning across %d candidates", h.id, len(candidates))
		}

	case "reset":
		err = h.flow.SpinAgain()
		if err == nil {
			h.clearResult()
		}

	case "change_self":
		err = h.flow.ChangeSelf()
		if err == nil {
			h.clearResult()
		}

	case "insight":
		err = h.requestInsight(cfg)

	default:
		return
	}

	if err != nil {
		h.reject(cfg, cmd.client, err)

		return
	}

	h.broadcast(h.stateMessage(cfg))
}

// reject answers a failed command. Commands that arrive in the wrong state
// are stale clicks: the sender is resynced and nothing else happens.
func (h *Hub) reject(cfg *Config, c *Client, err error) {
	logf(cfg, "WHEEL: Session %s ignored command: %v", h.id, err)

	switch {
	case errors.Is(err, flow.ErrInvalidState), errors.Is(err, wheel.ErrSpinInProgress):
		h.send(c, h.stateMessage(cfg))
	case errors.Is(err, wheel.ErrNoCandidates):
		h.send(c, ErrorMessage{Type: "error", Message: "There is nobody else on the wheel yet."})
	case errors.Is(err, flow.ErrUnknownMember):
		h.send(c, ErrorMessage{Type: "error", Message: "That member is no longer on the roster."})
		h.send(c, h.stateMessage(cfg))
	default:
		h.send(c, ErrorMessage{Type: "error", Message: "Something went wrong. Please try again."})
	}
}

func (h *Hub) handleTick(cfg *Config, now time.Time) {
	switch h.flow.Tick(now) {
	case flow.Resolved:
		h.sendResult(cfg)

	case flow.Revealed:
		h.sendResult(cfg)
		h.resultSent = false
		h.spinCandidates = nil

		if view, ok := h.matchView(cfg); ok {
			h.setContact(view.WhatsAppURL)

			self, _ := h.flow.Self()
			logf(cfg, "WHEEL: Session %s matched %s with %s", h.id, self.Name, view.Member.Name)
		}

		h.broadcast(h.stateMessage(cfg))
	}
}

func (h *Hub) sendResult(cfg *Config) {
	if h.resultSent {
		return
	}

	msg, ok := h.resultMessage(cfg)
	if !ok {
		return
	}

	h.resultSent = true
	h.broadcast(msg)
}

func (h *Hub) resultMessage(cfg *Config) (ResultMessage, bool) {
	view, ok := h.matchView(cfg)
	if !ok {
		return ResultMessage{}, false
	}

	return ResultMessage{
		Type:     "result",
		Rotation: h.flow.Rotation(),
		Match:    view,
	}, true
}

func (h *Hub) requestInsight(cfg *Config) error {
	self, okSelf := h.flow.Self()
	match, okMatch := h.flow.Match()
	if h.flow.State() != flow.ResultShown || !okSelf || !okMatch {
		return flow.ErrInvalidState
	}

	if h.insight != nil && h.insight.Pending {
		return nil
	}

	h.insightSeq++
	seq := h.insightSeq

	h.insight = &InsightMessage{Type: "insight", Pending: true}
	h.broadcast(*h.insight)

	logf(cfg, "INSIGHT: Session %s requested icebreakers for %s and %s", h.id, self.Name, match.Name)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.insightTimeout)
		defer cancel()

		html := h.gen.Generate(ctx, self, match)

		select {
		case h.insights <- insightResult{seq: seq, html: html}:
		case <-h.done:
		}
	}()

	return nil
}

func (h *Hub) handleInsight(cfg *Config, res insightResult) {
	if res.seq != h.insightSeq {
		logf(cfg, "INSIGHT: Session %s dropped a stale result", h.id)

		return
	}

	h.insight = &InsightMessage{Type: "insight", HTML: res.html}
	h.broadcast(*h.insight)
}

// clearResult forgets the match, its contact link, and any insight,
// including one still being generated.
func (h *Hub) clearResult() {
	h.insightSeq++
	h.insight = nil
	h.setContact("")
}

func (h *Hub) matchView(cfg *Config) (MatchView, bool) {
	self, okSelf := h.flow.Self()
	match, okMatch := h.flow.Match()
	if !okSelf || !okMatch {
		return MatchView{}, false
	}

	greeting := contact.Greeting(cfg.title, self.Name, self.Company, match.Name)

	view := MatchView{
		Member:   withoutPhone(match),
		Greeting: greeting,
	}

	if link, ok := contact.WhatsAppURL(match.Phone, greeting, cfg.countryCode); ok {
		view.WhatsAppURL = link
		view.ContactQR = cfg.prefix + "/wheel/" + h.id + "/contact.png"
	}

	return view, true
}

func (h *Hub) stateMessage(cfg *Config) StateMessage {
	members := h.flow.Members()
	for i := range members {
		members[i] = withoutPhone(members[i])
	}

	msg := StateMessage{
		Type:       "state",
		State:      h.flow.State(),
		Members:    members,
		Candidates: flow.WheelCandidates(h.flow.Candidates()),
		Rotation:   h.flow.Rotation(),
	}

	if self, ok := h.flow.Self(); ok {
		self = withoutPhone(self)
		msg.Self = &self
	}

	if msg.State == flow.ResultShown {
		if view, ok := h.matchView(cfg); ok {
			msg.Match = &view
		}
	}

	return msg
}

func (h *Hub) spinMessage(now time.Time) (SpinMessage, bool) {
	spin, ok := h.flow.Spin()
	if !ok {
		return SpinMessage{}, false
	}

	elapsed := max(now.Sub(spin.StartTime), 0)

	return SpinMessage{
		Type:           "spin",
		Candidates:     h.spinCandidates,
		StartRotation:  spin.StartRotation,
		TargetRotation: spin.TargetRotation,
		DurationMS:     spin.Duration.Milliseconds(),
		ElapsedMS:      elapsed.Milliseconds(),
	}, true
}

func withoutPhone(m roster.Member) roster.Member {
	m.Phone = ""
	return m
}

func (h *Hub) send(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(msg any) {
	for c := range h.clients {
		h.send(c, msg)
	}
}

func (h *Hub) touch() {
	h.mu.Lock()
	h.lastActive = time.Now()
	h.mu.Unlock()
}

func (h *Hub) idleSince() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastActive
}

func (h *Hub) setContact(link string) {
	h.mu.Lock()
	h.contactURL = link
	h.mu.Unlock()
}

func (h *Hub) contactLink() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.contactURL
}

// notifyRoster asks the hub to pick up the store's current roster. Several
// reloads in a row collapse into one.
func (h *Hub) notifyRoster() {
	select {
	case h.rosterChanged <- struct{}{}:
	default:
	}
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

func (h *Hub) closeClients() {
	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	viewerCookieName = "matchwheel_viewer"
	sessionIDLength  = 8
	maxMessageBytes  = 4096
)

func getOrSetViewerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(viewerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     viewerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// SessionManager holds a set of hubs keyed by session ID, so each
// /wheel/:sessionid is its own isolated wheel.
type SessionManager struct {
	cfg   *Config
	store *roster.Store
	gen   insight.Generator

	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration

	quit      chan struct{}
	closeOnce sync.Once
}

func newSessionManager(cfg *Config, store *roster.Store, gen insight.Generator) *SessionManager {
	sm := &SessionManager{
		cfg:         cfg,
		store:       store,
		gen:         gen,
		hubs:        make(map[string]*Hub),
		idleTimeout: cfg.sessionTimeout,
		quit:        make(chan struct{}),
	}

	store.OnChange(func([]roster.Member) {
		sm.mu.Lock()
		defer sm.mu.Unlock()

		for _, hub := range sm.hubs {
			hub.notifyRoster()
		}
	})

	if sm.idleTimeout > 0 {
		go sm.reaperLoop()
	}

	return sm
}

func (sm *SessionManager) getHub(sessionID string) (*Hub, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if hub, ok := sm.hubs[sessionID]; ok {
		return hub, nil
	}

	hub, err := newHub(sm.cfg, sessionID, sm.store, sm.gen)
	if err != nil {
		return nil, err
	}

	sm.hubs[sessionID] = hub
	go hub.run(sm.cfg)

	logf(sm.cfg, "WHEEL: Opened session %s", sessionID)

	return hub, nil
}

func (sm *SessionManager) lookup(sessionID string) (*Hub, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	hub, ok := sm.hubs[sessionID]
	return hub, ok
}

func (sm *SessionManager) Len() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return len(sm.hubs)
}

func (sm *SessionManager) newSessionID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, sessionIDLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, sessionIDLength)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		sm.mu.Lock()
		_, exists := sm.hubs[id]
		sm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

func (sm *SessionManager) reaperLoop() {
	ticker := time.NewTicker(sm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-sm.quit:
			return
		case <-ticker.C:
			sm.reap(time.Now().Add(-sm.idleTimeout))
		}
	}
}

// reap ends every session idle since before cutoff.
func (sm *SessionManager) reap(cutoff time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for id, hub := range sm.hubs {
		if hub.idleSince().Before(cutoff) {
			delete(sm.hubs, id)
			hub.stop()

			logf(sm.cfg, "WHEEL: Reaped idle session %s", id)
		}
	}
}

// Close ends every session.
func (sm *SessionManager) Close() {
	sm.closeOnce.Do(func() {
		close(sm.quit)

		sm.mu.Lock()
		defer sm.mu.Unlock()

		for id, hub := range sm.hubs {
			delete(sm.hubs, id)
			hub.stop()
		}
	})
}

func validSessionID(id string) bool {
	if id == "" || len(id) > 32 {
		return false
	}
	return strings.Trim(id, "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789") == ""
}

func serveWS(cfg *Config, sm *SessionManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		sessionID := ps.ByName("sessionid")
		if !validSessionID(sessionID) {
			http.Error(w, "invalid session id", http.StatusBadRequest)
			return
		}

		viewerID := uuid.NewString()
		if c, err := r.Cookie(viewerCookieName); err == nil && c.Value != "" {
			viewerID = c.Value
		}

		hub, err := sm.getHub(sessionID)
		if err != nil {
			http.Error(w, "unable to open session", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "WHEEL: Upgrade failed for %s: %v", realIP(r), err)
			return
		}
		conn.SetReadLimit(maxMessageBytes)

		client := &Client{
			conn:     conn,
			send:     make(chan any, 16),
			viewerID: viewerID,
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		logf(cfg, "WHEEL: Viewer %s joined session %s from %s", viewerID, sessionID, realIP(r))

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "select_self", "spin", "reset", "change_self", "insight":
			select {
			case h.commands <- command{client: c, msg: msg}:
			case <-h.done:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func requestScheme(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme
}

func writePNG(w http.ResponseWriter, content string, size int) {
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// qrHandler encodes the session URL, so another device can join the wheel.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !validSessionID(ps.ByName("sessionid")) {
			http.Error(w, "invalid session id", http.StatusBadRequest)
			return
		}

		securityHeaders(cfg, w)

		// We are at /.../:sessionid/qr; strip trailing "/qr" to get the session URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")

		writePNG(w, requestScheme(r)+"://"+r.Host+path, 320)
	}
}

// contactQRHandler encodes the match's WhatsApp link, so the chat can be
// opened on a phone while the wheel runs on a big screen.
func contactQRHandler(cfg *Config, sm *SessionManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		hub, ok := sm.lookup(ps.ByName("sessionid"))
		if !ok {
			http.NotFound(w, r)
			return
		}

		link := hub.contactLink()
		if link == "" {
			http.NotFound(w, r)
			return
		}

		securityHeaders(cfg, w)

		writePNG(w, link, 256)
	}
}

func serveSessionPage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !validSessionID(ps.ByName("sessionid")) {
			http.NotFound(w, r)
			return
		}

		data, err := assets.ReadFile("assets/index.html")
		if err != nil {
			http.Error(w, "missing page", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		_ = getOrSetViewerID(w, r)

		_, _ = w.Write(data)
	}
}

// redirectNewSession handles GET /wheel by generating a new random session
// ID and redirecting to /wheel/:sessionid.
func redirectNewSession(cfg *Config, path string, sm *SessionManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		sessionID := sm.newSessionID()

		if _, err := sm.getHub(sessionID); err != nil {
			http.Error(w, "unable to open session", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, cfg.prefix+path+"/"+sessionID, http.StatusTemporaryRedirect)
	}
}

// registerWheel sets up routes so that:
//   - $path                       → redirects to a new random session
//   - $path/:sessionid            → HTML client
//   - $path/:sessionid/ws         → WebSocket for that session
//   - $path/:sessionid/qr         → PNG QR code for the session URL
//   - $path/:sessionid/contact.png → PNG QR code for the match's chat link
func registerWheel(cfg *Config, path string, mux *httprouter.Router, sm *SessionManager) {
	mux.GET(cfg.prefix+path, redirectNewSession(cfg, path, sm))
	mux.GET(cfg.prefix+path+"/:sessionid", serveSessionPage(cfg))
	mux.GET(cfg.prefix+path+"/:sessionid/ws", serveWS(cfg, sm))
	mux.GET(cfg.prefix+path+"/:sessionid/qr", qrHandler(cfg))
	mux.GET(cfg.prefix+path+"/:sessionid/contact.png", contactQRHandler(cfg, sm))
}
