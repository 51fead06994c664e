// Package bridge connects the trigger engine to the external action layer
// (panel, AI shortcuts) over a local websocket.
package bridge

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"trigger-engine/src/chord"
	"trigger-engine/src/engine"
)

// Event types pushed to clients.
const (
	TypePanel    = "panel"
	TypeShortcut = "shortcut"
	TypeClick    = "click"
	TypeResponse = "response"
)

// Ops accepted from clients.
const (
	OpTake               = "take"
	OpPeek               = "peek"
	OpStatus             = "status"
	OpRegisterTrigger    = "register_trigger"
	OpUnregisterTrigger  = "unregister_trigger"
	OpRegisterShortcut   = "register_shortcut"
	OpUnregisterShortcut = "unregister_shortcut"
	OpPanelVisible       = "panel_visible"
)

var ErrNoEngine = errors.New("engine not attached")

// Engine is the part of engine.Engine the bridge drives.
type Engine interface {
	GetCapturedText() string
	PeekCapturedText() string
	RegisterTrigger(descriptor string) bool
	UnregisterTrigger(descriptor string) bool
	RegisterShortcutHotkey(id, descriptor, name, icon, prompt string, model *string, temperature *float64) bool
	UnregisterShortcutHotkey(id string)
	SetPanelVisible(visible bool)
	Status() engine.Status
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Event is pushed to every client when a trigger fires.
type Event struct {
	Type     string             `json:"type"`
	Panel    *engine.PanelEvent `json:"panel,omitempty"`
	Shortcut *chord.Shortcut    `json:"shortcut,omitempty"`
	Click    *Point             `json:"click,omitempty"`
}

// Request is a client call.
type Request struct {
	ID         string          `json:"id"`
	Op         string          `json:"op"`
	Descriptor string          `json:"descriptor,omitempty"`
	Shortcut   *chord.Shortcut `json:"shortcut,omitempty"`
	ShortcutID string          `json:"shortcut_id,omitempty"`
	Visible    bool            `json:"visible,omitempty"`
}

// Response answers one Request.
type Response struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	OK     bool           `json:"ok"`
	Text   string         `json:"text,omitempty"`
	Status *engine.Status `json:"status,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// TokenHeader carries the session token when one is configured. Browsers
// cannot set it on a websocket handshake, so a "token" query parameter is
// accepted too.
const TokenHeader = "X-Bridge-Token"

// allowedOrigin admits the action layer (no Origin, "null" or file://) and
// pages served from loopback. Any other web page is refused so it cannot read
// captured text or change triggers.
func allowedOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "null" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "file":
		return true
	case "http", "https":
		switch strings.ToLower(u.Hostname()) {
		case "127.0.0.1", "localhost", "::1":
			return true
		}
	}
	return false
}

// Server serves /ws and /healthz. It implements engine.Dispatcher and
// engine.ClickObserver.
type Server struct {
	addr     string
	hub      *Hub
	upgrader websocket.Upgrader
	token    string

	mu  sync.RWMutex
	eng Engine
	srv *http.Server
	lis net.Listener
}

func NewServer(addr string) *Server {
	return &Server{
		addr: addr,
		hub:  NewHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     allowedOrigin,
		},
	}
}

// SetToken requires every websocket client to present token. Call before Start.
func (s *Server) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *Server) authorized(r *http.Request) bool {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token == "" {
		return true
	}
	got := r.Header.Get(TokenHeader)
	if got == "" {
		got = r.URL.Query().Get("token")
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}

// Attach sets the engine requests are served from.
func (s *Server) Attach(eng Engine) {
	s.mu.Lock()
	s.eng = eng
	s.mu.Unlock()
}

func (s *Server) attached() Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eng
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("bridge listen %s: %w", s.addr, err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	s.mu.Lock()
	s.lis = lis
	s.srv = srv
	s.mu.Unlock()

	log.WithField("addr", lis.Addr().String()).Info("Starting bridge server")
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("bridge: serve: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lis != nil {
		return s.lis.Addr().String()
	}
	return s.addr
}

// Close stops serving and disconnects every client.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()

	s.hub.closeAll()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) OnPanelTrigger(ev engine.PanelEvent) {
	s.hub.Broadcast(Event{Type: TypePanel, Panel: &ev})
}

func (s *Server) OnShortcutTrigger(sc chord.Shortcut) {
	s.hub.Broadcast(Event{Type: TypeShortcut, Shortcut: &sc})
}

func (s *Server) OnOutsideClick(x, y int) {
	s.hub.Broadcast(Event{Type: TypeClick, Click: &Point{X: x, Y: y}})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !allowedOrigin(r) {
		log.Warnf("bridge: refusing websocket from origin %q", r.Header.Get("Origin"))
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}
	if !s.authorized(r) {
		log.Warnf("bridge: refusing websocket without a valid token from %s", r.RemoteAddr)
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("bridge: websocket upgrade: %v", err)
		return
	}
	c := s.hub.add(conn)
	go c.writePump()
	go c.readPump(s.handleMessage)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	eng := s.attached()
	w.Header().Set("Content-Type", "application/json")
	if eng == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": ErrNoEngine.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(eng.Status())
}

func (s *Server) handleMessage(c *client, data []byte) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		s.hub.reply(c, Response{Type: TypeResponse, Error: "malformed request: " + err.Error()})
		return
	}
	s.hub.reply(c, s.Handle(req))
}

// Handle executes one request against the attached engine.
func (s *Server) Handle(req Request) Response {
	resp := Response{Type: TypeResponse, ID: req.ID}
	eng := s.attached()
	if eng == nil {
		resp.Error = ErrNoEngine.Error()
		return resp
	}

	switch req.Op {
	case OpTake:
		resp.Text = eng.GetCapturedText()
		resp.OK = true
	case OpPeek:
		resp.Text = eng.PeekCapturedText()
		resp.OK = true
	case OpStatus:
		st := eng.Status()
		resp.Status = &st
		resp.OK = true
	case OpRegisterTrigger:
		resp.OK = eng.RegisterTrigger(req.Descriptor)
		if !resp.OK {
			resp.Error = fmt.Sprintf("trigger %q rejected", req.Descriptor)
		}
	case OpUnregisterTrigger:
		resp.OK = eng.UnregisterTrigger(req.Descriptor)
		if !resp.OK {
			resp.Error = fmt.Sprintf("trigger %q is not the panel trigger", req.Descriptor)
		}
	case OpRegisterShortcut:
		sc := req.Shortcut
		if sc == nil {
			resp.Error = "shortcut is required"
			break
		}
		resp.OK = eng.RegisterShortcutHotkey(sc.ID, sc.Hotkey, sc.Name, sc.Icon, sc.Prompt, sc.Model, sc.Temperature)
		if !resp.OK {
			resp.Error = fmt.Sprintf("hotkey %q for shortcut %q rejected", sc.Hotkey, sc.ID)
		}
	case OpUnregisterShortcut:
		id := req.ShortcutID
		if id == "" && req.Shortcut != nil {
			id = req.Shortcut.ID
		}
		if id == "" {
			resp.Error = "shortcut_id is required"
			break
		}
		eng.UnregisterShortcutHotkey(id)
		resp.OK = true
	case OpPanelVisible:
		eng.SetPanelVisible(req.Visible)
		resp.OK = true
	default:
		resp.Error = fmt.Sprintf("unknown op %q", req.Op)
	}
	return resp
}
