package internal

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultBaseDelay   = 1 * time.Second
	defaultMaxDelay    = 30 * time.Second
	defaultMaxAttempts = 50
)

// streamConn is the subset of *websocket.Conn the transport uses; tests
// substitute their own implementation.
type streamConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// TransportConfig configures a Transport. Zero values fall back to the
// production defaults.
type TransportConfig struct {
	ServerURL string // http(s) base URL of the backend
	Token     string // bearer token, sent as a connection query parameter

	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int

	// Dial opens one connection attempt. Defaults to a gorilla dialer.
	Dial func(wsURL string) (streamConn, error)
}

// Transport maintains a best-effort live connection to the backend's chat
// stream, reconnecting with exponential backoff on unexpected close. It owns
// the socket handle and the ConnectionStatus; consumers observe both through
// Status/OnStatusChange and never touch the socket directly.
type Transport struct {
	mu            sync.Mutex
	cfg           TransportConfig
	conn          streamConn
	status        ConnectionStatus
	listeners     map[int]func(ConnectionStatus)
	nextListener  int
	failures      int
	gen           int
	active        bool
	terminalFired bool
	retry         *time.Timer

	onEvent         func(Event)
	onTerminalClose func()
}

// NewTransport creates a disconnected Transport.
func NewTransport(cfg TransportConfig) *Transport {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultMaxDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Dial == nil {
		cfg.Dial = dialWebSocket
	}
	return &Transport{
		cfg:       cfg,
		status:    StatusDisconnected,
		listeners: make(map[int]func(ConnectionStatus)),
	}
}

func dialWebSocket(wsURL string) (streamConn, error) {
	d := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := d.Dial(wsURL, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// chatStreamURL derives the websocket endpoint from the configured server
// URL: wss iff the server speaks https, token as a query parameter.
func chatStreamURL(serverURL, token string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", serverURL, err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/chat"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// backoffDelay returns the delay before retry attempt k (1-based).
func backoffDelay(base, cap time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	if d > cap {
		return cap
	}
	return d
}

// Connect starts connecting and keeps the connection alive until Disconnect.
// Calling Connect again supersedes any previous connection. Inbound events
// are delivered to onEvent in arrival order; onTerminalClose fires once if
// automatic retry is exhausted.
func (t *Transport) Connect(onEvent func(Event), onTerminalClose func()) {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.active = true
	t.terminalFired = false
	t.failures = 0
	t.onEvent = onEvent
	t.onTerminalClose = onTerminalClose
	if t.retry != nil {
		t.retry.Stop()
		t.retry = nil
	}
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
	t.mu.Unlock()

	t.setStatus(StatusConnecting)
	go t.dial(gen)
}

// Disconnect closes the connection and suppresses further reconnection.
// Idempotent.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	t.active = false
	t.gen++
	if t.retry != nil {
		t.retry.Stop()
		t.retry = nil
	}
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	t.setStatus(StatusDisconnected)
}

// Send enqueues an outbound chat message for the given session. When no
// connection is open the message is dropped with a warning; callers gate
// sending on Status() == StatusConnected.
func (t *Transport) Send(text, sessionID string) {
	t.mu.Lock()
	conn := t.conn
	status := t.status
	t.mu.Unlock()

	if conn == nil || status != StatusConnected {
		LogWarn("dropping outbound message: chat stream not connected")
		return
	}
	if err := conn.WriteJSON(outboundFrame{Message: text, SessionID: sessionID}); err != nil {
		LogWarn("failed to write chat frame: %v", err)
	}
}

// Status returns the current connection status.
func (t *Transport) Status() ConnectionStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// OnStatusChange registers a listener invoked on every status transition.
// The returned function unsubscribes it.
func (t *Transport) OnStatusChange(fn func(ConnectionStatus)) func() {
	t.mu.Lock()
	id := t.nextListener
	t.nextListener++
	t.listeners[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

func (t *Transport) setStatus(s ConnectionStatus) {
	t.mu.Lock()
	if t.status == s {
		t.mu.Unlock()
		return
	}
	t.status = s
	fns := make([]func(ConnectionStatus), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (t *Transport) dial(gen int) {
	t.mu.Lock()
	wsURL, err := chatStreamURL(t.cfg.ServerURL, t.cfg.Token)
	dialFn := t.cfg.Dial
	t.mu.Unlock()
	if err != nil {
		LogError("cannot derive chat stream URL: %v", err)
		t.handleFailure(gen)
		return
	}

	conn, err := dialFn(wsURL)

	t.mu.Lock()
	if gen != t.gen || !t.active {
		t.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		t.mu.Unlock()
		LogDebug("chat stream dial failed: %v", err)
		t.handleFailure(gen)
		return
	}
	t.conn = conn
	t.failures = 0
	t.mu.Unlock()

	t.setStatus(StatusConnected)
	go t.readLoop(gen, conn)
}

func (t *Transport) readLoop(gen int, conn streamConn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		ev, derr := DecodeEvent(data)
		if derr != nil {
			LogWarn("dropping inbound frame: %v", derr)
			continue
		}

		t.mu.Lock()
		stale := gen != t.gen
		onEvent := t.onEvent
		t.mu.Unlock()
		if stale {
			return
		}
		if onEvent != nil {
			onEvent(ev)
		}
	}
	_ = conn.Close()

	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.conn = nil
	active := t.active
	t.mu.Unlock()

	if !active {
		t.setStatus(StatusDisconnected)
		return
	}
	t.handleFailure(gen)
}

// handleFailure runs the backoff path shared by dial errors and unexpected
// closes; the two are deliberately not distinguished.
func (t *Transport) handleFailure(gen int) {
	t.mu.Lock()
	if gen != t.gen || !t.active {
		t.mu.Unlock()
		return
	}
	if t.failures >= t.cfg.MaxAttempts {
		fire := !t.terminalFired
		t.terminalFired = true
		t.active = false
		onTerminal := t.onTerminalClose
		t.mu.Unlock()

		t.setStatus(StatusDisconnected)
		if fire && onTerminal != nil {
			onTerminal()
		}
		return
	}
	t.failures++
	attempt := t.failures
	delay := backoffDelay(t.cfg.BaseDelay, t.cfg.MaxDelay, attempt)
	t.retry = time.AfterFunc(delay, func() {
		t.mu.Lock()
		ok := gen == t.gen && t.active
		t.mu.Unlock()
		if ok {
			t.dial(gen)
		}
	})
	t.mu.Unlock()

	LogDebug("scheduling chat stream reconnect attempt %d in %s", attempt, delay)
	t.setStatus(StatusConnecting)
}
