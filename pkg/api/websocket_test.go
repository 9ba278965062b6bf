package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/r3d91ll/attngraph/pkg/view"
)

// createView requests the HTML artifact and returns the new view id.
func createView(t *testing.T, base string) string {
	t.Helper()
	resp := get(t, base+"/view/mem")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /view/mem: status %d", resp.StatusCode)
	}
	id := resp.Header.Get("X-View-ID")
	if id == "" {
		t.Fatal("missing X-View-ID header")
	}
	return id
}

func dial(t *testing.T, base, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(base, "http") + "/ws/" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type serverMessage struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

func readMessage(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg serverMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return msg
}

func readPatch(t *testing.T, conn *websocket.Conn, wantType string) view.Patch {
	t.Helper()
	msg := readMessage(t, conn)
	if msg.Type != wantType {
		t.Fatalf("message type = %q, want %q (%s)", msg.Type, wantType, msg.Message)
	}
	var p view.Patch
	if err := json.Unmarshal(msg.Data, &p); err != nil {
		t.Fatalf("decode patch: %v", err)
	}
	return p
}

func sendEvent(t *testing.T, conn *websocket.Conn, ev view.Event) {
	t.Helper()
	if err := conn.WriteJSON(ClientMessage{Type: MessageTypeEvent, Event: &ev}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
}

// -----------------------------------------------------------------------------
// Hub Tests
// -----------------------------------------------------------------------------

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub.sessions == nil {
		t.Error("Expected sessions map to be initialized")
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("Expected register channels to be initialized")
	}
}

func TestHub_RunAndStop(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	hub.Stop()
	// A second Stop must not panic.
	hub.Stop()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Error("Hub.Run did not stop after Stop was called")
	}
	if hub.Count() != 0 {
		t.Errorf("Count = %d after stop", hub.Count())
	}
}

func TestHub_StopEndsSessions(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	s := newSession(hub, nil, &View{ID: "v1"})
	if !hub.join(s) {
		t.Fatal("join on a running hub failed")
	}
	hub.Stop()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("session not ended by Stop")
	}

	// The read loop may still be answering a message when the hub stops.
	s.sendError("invalid_event", "late")
	s.send(&WSMessage{Type: MessageTypePong})
	if len(s.outbox) != 0 {
		t.Errorf("ended session queued %d messages", len(s.outbox))
	}

	left := make(chan struct{})
	go func() {
		hub.leave(s)
		close(left)
	}()
	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("leave blocked on a stopped hub")
	}
	if hub.join(newSession(hub, nil, &View{ID: "v2"})) {
		t.Error("join succeeded after Stop")
	}
}

func TestHub_LeaveEndsSession(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	s := newSession(hub, nil, &View{ID: "v1"})
	hub.join(s)
	hub.leave(s)

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("session not ended by leave")
	}
	s.sendError("invalid_json", "after leave")
	if hub.Count() != 0 {
		t.Errorf("Count = %d after leave", hub.Count())
	}
}

// -----------------------------------------------------------------------------
// View Artifact Tests
// -----------------------------------------------------------------------------

func TestCreateView_HTML(t *testing.T) {
	s, ts := newTestServer(t)
	resp := get(t, ts.URL+"/view/mem")
	body, _ := io.ReadAll(resp.Body)
	id := resp.Header.Get("X-View-ID")

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	for _, want := range []string{
		"<title>mem</title>",
		`id="` + id + `-svg"`,
		`/ws/` + id,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("page missing %q", want)
		}
	}
	if s.Views().Len() != 1 {
		t.Errorf("views = %d, want 1", s.Views().Len())
	}
}

func TestCreateView_SVGSnapshot(t *testing.T) {
	s, ts := newTestServer(t)
	resp := get(t, ts.URL+"/view/disk?format=svg")
	body, _ := io.ReadAll(resp.Body)

	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(string(body), "<?xml") || !strings.Contains(string(body), "</svg>") {
		t.Error("expected a complete SVG document")
	}
	if s.Views().Len() != 0 {
		t.Error("snapshot should not register a view")
	}
}

func TestCreateView_UnknownDataset(t *testing.T) {
	_, ts := newTestServer(t)
	if resp := get(t, ts.URL+"/view/nope"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestListAndDeleteViews(t *testing.T) {
	s, ts := newTestServer(t)
	id := createView(t, ts.URL)

	var body struct {
		Views []ViewInfo `json:"views"`
	}
	decodeEnvelope(t, get(t, ts.URL+"/api/views"), &body)
	if len(body.Views) != 1 || body.Views[0].ID != id || body.Views[0].Dataset != "mem" {
		t.Fatalf("views = %+v", body.Views)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/views/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || s.Views().Len() != 0 {
		t.Errorf("delete: status %d, views %d", resp.StatusCode, s.Views().Len())
	}

	resp2, _ := http.DefaultClient.Do(req)
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp2.StatusCode)
	}
}

// -----------------------------------------------------------------------------
// Live Session Tests
// -----------------------------------------------------------------------------

func TestSession_RenderThenPatch(t *testing.T) {
	_, ts := newTestServer(t)
	id := createView(t, ts.URL)
	conn := dial(t, ts.URL, id)

	initial := readPatch(t, conn, MessageTypeRender)
	if initial.Count(view.OpAdd) == 0 || initial.Count(view.OpAdd) != len(initial.Ops) {
		t.Errorf("render should be all adds, got %d of %d", initial.Count(view.OpAdd), len(initial.Ops))
	}

	sendEvent(t, conn, view.NameBarClicked(2))
	if p := readPatch(t, conn, MessageTypePatch); p.Empty() {
		t.Error("pinning a row should change the scene")
	}

	var st view.State
	decodeEnvelope(t, get(t, ts.URL+"/api/views/"+id+"/state"), &st)
	if st.Pinned != 2 {
		t.Errorf("Pinned = %d, want 2", st.Pinned)
	}
}

func TestSession_NoOpEventSendsNothing(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts.URL, createView(t, ts.URL))
	readPatch(t, conn, MessageTypeRender)

	// Batch 0 is already selected; the ping that follows must be the next
	// message.
	sendEvent(t, conn, view.BatchChanged(0))
	conn.WriteJSON(ClientMessage{Type: MessageTypePing})
	if msg := readMessage(t, conn); msg.Type != MessageTypePong {
		t.Errorf("message type = %q, want pong", msg.Type)
	}
}

func TestSession_StateAndRestore(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts.URL, createView(t, ts.URL))
	readPatch(t, conn, MessageTypeRender)

	sendEvent(t, conn, view.BatchChanged(2))
	readPatch(t, conn, MessageTypePatch)

	conn.WriteJSON(ClientMessage{Type: MessageTypeState})
	msg := readMessage(t, conn)
	var st view.State
	if err := json.Unmarshal(msg.Data, &st); err != nil || msg.Type != MessageTypeState {
		t.Fatalf("state message %q: %v", msg.Type, err)
	}
	if st.Batch != 2 {
		t.Errorf("Batch = %d, want 2", st.Batch)
	}

	st.Batch = 1
	conn.WriteJSON(ClientMessage{Type: MessageTypeRestore, State: &st})
	readPatch(t, conn, MessageTypePatch)

	conn.WriteJSON(ClientMessage{Type: MessageTypeState})
	msg = readMessage(t, conn)
	json.Unmarshal(msg.Data, &st)
	if st.Batch != 1 {
		t.Errorf("restored Batch = %d, want 1", st.Batch)
	}
}

func TestSession_BadMessages(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts.URL, createView(t, ts.URL))
	readPatch(t, conn, MessageTypeRender)

	tests := []struct {
		name string
		raw  string
		code string
	}{
		{"invalid json", `{`, "invalid_json"},
		{"event without body", `{"type":"event"}`, "invalid_event"},
		{"restore without state", `{"type":"restore"}`, "invalid_restore"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn.WriteMessage(websocket.TextMessage, []byte(tt.raw))
			msg := readMessage(t, conn)
			if msg.Type != MessageTypeError || msg.Code != tt.code {
				t.Errorf("got %q/%q, want error/%q", msg.Type, msg.Code, tt.code)
			}
		})
	}
}

func TestSession_SingleAttachment(t *testing.T) {
	_, ts := newTestServer(t)
	id := createView(t, ts.URL)
	conn := dial(t, ts.URL, id)
	readPatch(t, conn, MessageTypeRender)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + id
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("second connection should be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusConflict {
		t.Errorf("second connection response = %v, want 409", resp)
	}
}

func TestSession_UnknownView(t *testing.T) {
	_, ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v, want 404", resp)
	}
}
