package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// MockBackend is an in-process stand-in for a backend server. REST routes
// are stubbed with static JSON; the chat stream endpoint replays a scripted
// frame sequence to every connecting client. It deliberately knows nothing
// about the client's types so it can mis-shape responses on purpose.
type MockBackend struct {
	t      *testing.T
	mux    *http.ServeMux
	server *httptest.Server

	mu           sync.Mutex
	streamFrames [][]byte
	requests     []string
}

// NewMockBackend starts a mock backend. It is shut down automatically when
// the test finishes.
func NewMockBackend(t *testing.T) *MockBackend {
	t.Helper()
	m := &MockBackend{t: t, mux: http.NewServeMux()}
	m.mux.HandleFunc("/ws/chat", m.serveStream)
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requests = append(m.requests, r.Method+" "+r.URL.Path)
		m.mu.Unlock()
		m.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(m.server.Close)
	return m
}

// URL returns the backend's http base URL.
func (m *MockBackend) URL() string {
	return m.server.URL
}

// Handle stubs a REST route with a status code and raw JSON body.
func (m *MockBackend) Handle(pattern string, status int, body string) {
	m.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

// HandleFunc stubs a REST route with an arbitrary handler.
func (m *MockBackend) HandleFunc(pattern string, fn http.HandlerFunc) {
	m.mux.HandleFunc(pattern, fn)
}

// Script sets the frame sequence replayed to each chat stream client. The
// connection is closed normally after the last frame.
func (m *MockBackend) Script(frames ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamFrames = nil
	for _, f := range frames {
		m.streamFrames = append(m.streamFrames, []byte(f))
	}
}

// Requests returns the "METHOD /path" list of requests seen so far.
func (m *MockBackend) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (m *MockBackend) serveStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	m.mu.Lock()
	frames := append([][]byte(nil), m.streamFrames...)
	m.mu.Unlock()

	for _, frame := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
