package chatui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hermes-agent/hermesctl/internal"
)

// stubAPI serves a single session so the coordinator can activate it.
type stubAPI struct{}

func (stubAPI) ListSessions(ctx context.Context) ([]internal.Session, error) {
	return []internal.Session{{ID: "s1", Title: "only"}}, nil
}

func (stubAPI) GetSession(ctx context.Context, id string) (*internal.SessionDetail, error) {
	if id != "s1" {
		return nil, errors.New("not found")
	}
	return &internal.SessionDetail{Session: internal.Session{ID: "s1", Title: "only"}}, nil
}

func (stubAPI) CreateSession(ctx context.Context) (*internal.Session, error) {
	return nil, errors.New("not implemented")
}

func (stubAPI) DeleteSession(ctx context.Context, id string) error {
	return errors.New("not implemented")
}

func newTestModel(t *testing.T) (Model, *internal.Coordinator, *internal.Assembler) {
	t.Helper()
	coord := internal.NewCoordinator(stubAPI{})
	asm := internal.NewAssembler(coord, nil)
	coord.SetAborter(asm)
	transport := internal.NewTransport(internal.TransportConfig{ServerURL: "http://localhost:8000"})
	events := make(chan tea.Msg, 8)
	return New(coord, asm, transport, events), coord, asm
}

func TestCanSendRequiresSessionStreamAndConnection(t *testing.T) {
	m, coord, asm := newTestModel(t)

	// No active session, disconnected: everything blocks sending.
	if m.canSend() {
		t.Error("canSend() = true with no session and no connection")
	}

	if err := coord.SelectSession(context.Background(), "s1"); err != nil {
		t.Fatalf("SelectSession error = %v", err)
	}
	if m.canSend() {
		t.Error("canSend() = true while disconnected")
	}

	m.status = internal.StatusConnected
	if !m.canSend() {
		t.Error("canSend() = false with session active and stream connected")
	}

	asm.Begin("s1")
	if m.canSend() {
		t.Error("canSend() = true while a turn is streaming")
	}
	asm.Abort()
	if !m.canSend() {
		t.Error("canSend() = false after the turn was aborted")
	}
}

func TestStatusLossAbortsStreamingTurn(t *testing.T) {
	m, coord, asm := newTestModel(t)
	if err := coord.SelectSession(context.Background(), "s1"); err != nil {
		t.Fatalf("SelectSession error = %v", err)
	}
	m.status = internal.StatusConnected

	asm.Begin("s1")
	asm.Handle(internal.TokenEvent{Content: "half an ans"})

	next, _ := m.Update(statusChangedMsg{status: internal.StatusConnecting})
	m = next.(Model)

	if asm.Streaming() {
		t.Error("turn still streaming after connection loss")
	}
	if got := len(coord.Messages()); got != 0 {
		t.Errorf("Messages() len = %d, partial output must be discarded", got)
	}
	if m.status != internal.StatusConnecting {
		t.Errorf("model status = %v, want connecting", m.status)
	}
}

func TestStreamEventsUpdatePreview(t *testing.T) {
	m, coord, asm := newTestModel(t)
	if err := coord.SelectSession(context.Background(), "s1"); err != nil {
		t.Fatalf("SelectSession error = %v", err)
	}
	m.status = internal.StatusConnected

	asm.Begin("s1")
	next, _ := m.Update(streamEventMsg{ev: internal.TokenEvent{Content: "hello"}})
	m = next.(Model)
	next, _ = m.Update(streamEventMsg{ev: internal.TokenEvent{Content: " world"}})
	m = next.(Model)

	if got := asm.Preview(); got != "hello world" {
		t.Errorf("Preview() = %q, want %q", got, "hello world")
	}

	next, _ = m.Update(streamEventMsg{ev: internal.DoneEvent{SessionID: "s1"}})
	m = next.(Model)

	messages := coord.Messages()
	if len(messages) != 1 {
		t.Fatalf("Messages() len = %d after done, want 1", len(messages))
	}
	if messages[0].Content != "hello world" || messages[0].Role != internal.RoleAssistant {
		t.Errorf("finalized message = %+v", messages[0])
	}
}
