package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/r3d91ll/attngraph/pkg/view"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // must be below pongWait

	// maxEventSize bounds one client message; events and restored states
	// are small.
	maxEventSize = 8192

	outboxSize = 256
)

// Message types of the live view protocol.
const (
	MessageTypeEvent   = "event"
	MessageTypeRender  = "render"
	MessageTypePatch   = "patch"
	MessageTypeState   = "state"
	MessageTypeRestore = "restore"
	MessageTypePing    = "ping"
	MessageTypePong    = "pong"
	MessageTypeError   = "error"
)

// WSMessage is the server to client envelope. Data holds a view.Patch for
// render and patch messages and a view.State for state messages.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Code      string      `json:"code,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// ClientMessage is the client to server envelope. Event is set for
// "event" messages, State for "restore".
type ClientMessage struct {
	Type  string      `json:"type"`
	Event *view.Event `json:"event,omitempty"`
	State *view.State `json:"state,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// SetUpgraderCheckOrigin replaces the origin check of session upgrades.
func SetUpgraderCheckOrigin(fn func(*http.Request) bool) {
	upgrader.CheckOrigin = fn
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// -----------------------------------------------------------------------------
// Session
// -----------------------------------------------------------------------------

// Session is one WebSocket connection driving a view. Its read loop is the
// only goroutine that dispatches events to the view. The outbox is never
// closed; done tells the write loop to finish.
type Session struct {
	hub    *Hub
	conn   *websocket.Conn
	view   *View
	outbox chan []byte

	done chan struct{}
	once sync.Once
}

func newSession(hub *Hub, conn *websocket.Conn, v *View) *Session {
	return &Session{
		hub:    hub,
		conn:   conn,
		view:   v,
		outbox: make(chan []byte, outboxSize),
		done:   make(chan struct{}),
	}
}

// end stops the write loop. It is safe to call more than once.
func (s *Session) end() {
	s.once.Do(func() { close(s.done) })
}

// readLoop sends the full scene, then applies client messages until the
// connection drops.
func (s *Session) readLoop() {
	defer func() {
		s.view.detach()
		s.hub.leave(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxEventSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	var scene view.Patch
	s.view.Do(func(e *view.Engine) { scene = e.Render() })
	s.sendPatch(MessageTypeRender, scene)

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[ws] view %s: read error: %v", s.view.ID, err)
			}
			return
		}
		s.handle(raw)
	}
}

func (s *Session) handle(raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.sendError("invalid_json", "Failed to parse message")
		return
	}

	switch msg.Type {
	case MessageTypeEvent:
		if msg.Event == nil {
			s.sendError("invalid_event", "Event message without event")
			return
		}
		start := time.Now()
		var p view.Patch
		s.view.Do(func(e *view.Engine) { p = e.Dispatch(*msg.Event) })
		observeDispatch(string(msg.Event.Kind), start)
		if !p.Empty() {
			s.sendPatch(MessageTypePatch, p)
		}

	case MessageTypeState:
		var st view.State
		s.view.Do(func(e *view.Engine) { st = e.State() })
		s.send(&WSMessage{Type: MessageTypeState, Data: st})

	case MessageTypeRestore:
		if msg.State == nil {
			s.sendError("invalid_restore", "Restore message without state")
			return
		}
		var p view.Patch
		s.view.Do(func(e *view.Engine) { p = e.Restore(*msg.State) })
		s.sendPatch(MessageTypePatch, p)

	case MessageTypePing:
		s.send(&WSMessage{Type: MessageTypePong, Timestamp: now()})

	default:
		log.Printf("[ws] view %s: unknown message type %q", s.view.ID, msg.Type)
	}
}

func (s *Session) sendPatch(typ string, p view.Patch) {
	for _, k := range []view.OpKind{view.OpAdd, view.OpRemove, view.OpUpdate} {
		if n := p.Count(k); n > 0 {
			patchOpsTotal.WithLabelValues(string(k)).Add(float64(n))
		}
	}
	s.send(&WSMessage{Type: typ, Data: p})
}

func (s *Session) sendError(code, message string) {
	s.send(&WSMessage{Type: MessageTypeError, Code: code, Message: message, Timestamp: now()})
}

// send queues msg. A full outbox drops the message rather than stalling
// the read loop, and an ended session drops everything.
func (s *Session) send(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[ws] encode %s: %v", msg.Type, err)
		return
	}
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case <-s.done:
	case s.outbox <- data:
	default:
		log.Printf("[ws] view %s: outbox full, dropping %s", s.view.ID, msg.Type)
	}
}

// writeLoop writes each queued message as its own text frame and pings
// the peer. It ends when the session ends or a write fails.
func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-s.outbox:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Hub
// -----------------------------------------------------------------------------

// Hub owns the set of live sessions and ends them on leave or Stop.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}

	register   chan *Session
	unregister chan *Session

	done chan struct{}
	once sync.Once
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[*Session]struct{}),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		done:       make(chan struct{}),
	}
}

// Run processes joins and leaves until Stop, then closes every remaining
// session.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for s := range h.sessions {
				s.end()
				delete(h.sessions, s)
			}
			h.mu.Unlock()
			liveViews.Set(0)
			return

		case s := <-h.register:
			h.mu.Lock()
			h.sessions[s] = struct{}{}
			h.mu.Unlock()
			liveViews.Inc()
			log.Printf("[ws] view %s attached (live: %d)", s.view.ID, h.Count())

		case s := <-h.unregister:
			h.mu.Lock()
			_, ok := h.sessions[s]
			if ok {
				delete(h.sessions, s)
				s.end()
			}
			h.mu.Unlock()
			if ok {
				liveViews.Dec()
				log.Printf("[ws] view %s detached (live: %d)", s.view.ID, h.Count())
			}
		}
	}
}

// join registers s. It reports false once the hub has stopped.
func (h *Hub) join(s *Session) bool {
	select {
	case h.register <- s:
		return true
	case <-h.done:
		return false
	}
}

// leave unregisters s. After Stop the hub has already closed it.
func (h *Hub) leave(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Stop ends Run. It is safe to call more than once.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

// Count returns the number of live sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// -----------------------------------------------------------------------------
// HTTP Handler
// -----------------------------------------------------------------------------

// WebSocketHandler upgrades /ws/:instance requests and attaches the
// connection to the named view. A view accepts one session at a time.
type WebSocketHandler struct {
	hub   *Hub
	views *ViewRegistry
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(hub *Hub, views *ViewRegistry) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, views: views}
}

// RegisterRoutes registers the socket route on the router.
func (h *WebSocketHandler) RegisterRoutes(router *Router) {
	router.GET("/ws/:instance", h.ServeHTTP)
}

// ServeHTTP attaches the request to its view and starts the session.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	v, err := h.views.Get(PathParam(r, "instance"))
	if err != nil {
		WriteGraphError(w, err)
		return
	}
	if !v.attach() {
		WriteError(w, http.StatusConflict, "VIEW_ATTACHED", "Another client is driving this view")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		v.detach()
		log.Printf("[ws] view %s: upgrade error: %v", v.ID, err)
		return
	}

	s := newSession(h.hub, conn, v)
	if !h.hub.join(s) {
		v.detach()
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}
	go s.writeLoop()
	go s.readLoop()
}
