package internal

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeSessionAPI is an in-memory SessionAPI with per-call failure switches.
type fakeSessionAPI struct {
	sessions map[string]*SessionDetail
	order    []string

	listErr error
	getErr  error

	nextID int
}

func newFakeSessionAPI() *fakeSessionAPI {
	return &fakeSessionAPI{sessions: make(map[string]*SessionDetail)}
}

func (f *fakeSessionAPI) add(id string, messages ...Message) {
	f.sessions[id] = &SessionDetail{
		Session:  Session{ID: id, Title: "session " + id, MessageCount: len(messages)},
		Messages: messages,
	}
	f.order = append(f.order, id)
}

func (f *fakeSessionAPI) ListSessions(ctx context.Context) ([]Session, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Session, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.sessions[id].Session)
	}
	return out, nil
}

func (f *fakeSessionAPI) GetSession(ctx context.Context, id string) (*SessionDetail, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	detail, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return detail, nil
}

func (f *fakeSessionAPI) CreateSession(ctx context.Context) (*Session, error) {
	f.nextID++
	id := "new-" + string(rune('0'+f.nextID))
	f.add(id)
	return &f.sessions[id].Session, nil
}

func (f *fakeSessionAPI) DeleteSession(ctx context.Context, id string) error {
	if _, ok := f.sessions[id]; !ok {
		return errors.New("not found")
	}
	delete(f.sessions, id)
	kept := f.order[:0]
	for _, existing := range f.order {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	f.order = kept
	return nil
}

// countingAborter counts Abort calls.
type countingAborter struct{ aborts int }

func (a *countingAborter) Abort() { a.aborts++ }

func TestSelectSessionSwapsHistory(t *testing.T) {
	api := newFakeSessionAPI()
	api.add("s1", Message{ID: 1, SessionID: "s1", Role: RoleUser, Content: "hi", CreatedAt: time.Now()})
	api.add("s2",
		Message{ID: 2, SessionID: "s2", Role: RoleUser, Content: "other", CreatedAt: time.Now()},
		Message{ID: 3, SessionID: "s2", Role: RoleAssistant, Content: "reply", CreatedAt: time.Now()})

	coord := NewCoordinator(api)
	aborter := &countingAborter{}
	coord.SetAborter(aborter)

	if err := coord.SelectSession(context.Background(), "s1"); err != nil {
		t.Fatalf("SelectSession(s1) error = %v", err)
	}
	if got := coord.ActiveSession(); got != "s1" {
		t.Errorf("ActiveSession() = %q, want s1", got)
	}
	if got := len(coord.Messages()); got != 1 {
		t.Errorf("Messages() len = %d, want 1", got)
	}

	if err := coord.SelectSession(context.Background(), "s2"); err != nil {
		t.Fatalf("SelectSession(s2) error = %v", err)
	}
	if got := len(coord.Messages()); got != 2 {
		t.Errorf("Messages() len = %d after switch, want 2", got)
	}
	if aborter.aborts != 2 {
		t.Errorf("aborts = %d, want 2", aborter.aborts)
	}
}

func TestSelectSessionSameIDIsNoOp(t *testing.T) {
	api := newFakeSessionAPI()
	api.add("s1")

	coord := NewCoordinator(api)
	aborter := &countingAborter{}
	coord.SetAborter(aborter)

	if err := coord.SelectSession(context.Background(), "s1"); err != nil {
		t.Fatalf("SelectSession error = %v", err)
	}
	before := aborter.aborts

	coord.AddMessage(Message{ID: 9, SessionID: "s1", Role: RoleUser, Content: "kept"})
	if err := coord.SelectSession(context.Background(), "s1"); err != nil {
		t.Fatalf("SelectSession error = %v", err)
	}

	if aborter.aborts != before {
		t.Error("re-selecting the active session aborted the turn")
	}
	if got := len(coord.Messages()); got != 1 {
		t.Errorf("Messages() len = %d, want 1 (history must not reload)", got)
	}
}

func TestSelectSessionFailureKeepsState(t *testing.T) {
	api := newFakeSessionAPI()
	api.add("s1", Message{ID: 1, SessionID: "s1", Role: RoleUser, Content: "hi"})

	coord := NewCoordinator(api)
	if err := coord.SelectSession(context.Background(), "s1"); err != nil {
		t.Fatalf("SelectSession error = %v", err)
	}

	api.getErr = errors.New("backend down")
	if err := coord.SelectSession(context.Background(), "s2"); err == nil {
		t.Fatal("SelectSession(s2) succeeded, want error")
	}

	if got := coord.ActiveSession(); got != "s1" {
		t.Errorf("ActiveSession() = %q after failed switch, want s1", got)
	}
	if got := len(coord.Messages()); got != 1 {
		t.Errorf("Messages() len = %d after failed switch, want 1", got)
	}
}

func TestCreateSessionActivatesEmpty(t *testing.T) {
	api := newFakeSessionAPI()
	api.add("s1", Message{ID: 1, SessionID: "s1", Role: RoleUser, Content: "hi"})

	coord := NewCoordinator(api)
	if err := coord.SelectSession(context.Background(), "s1"); err != nil {
		t.Fatalf("SelectSession error = %v", err)
	}

	id, err := coord.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession error = %v", err)
	}
	if coord.ActiveSession() != id {
		t.Errorf("ActiveSession() = %q, want %q", coord.ActiveSession(), id)
	}
	if got := len(coord.Messages()); got != 0 {
		t.Errorf("Messages() len = %d for fresh session, want 0", got)
	}
	if got := len(coord.Sessions()); got != 2 {
		t.Errorf("Sessions() len = %d after create, want 2", got)
	}
}

func TestDeleteActiveSessionClearsState(t *testing.T) {
	api := newFakeSessionAPI()
	api.add("s1")
	api.add("s2")

	coord := NewCoordinator(api)
	if _, err := coord.LoadSessions(context.Background()); err != nil {
		t.Fatalf("LoadSessions error = %v", err)
	}
	if err := coord.SelectSession(context.Background(), "s1"); err != nil {
		t.Fatalf("SelectSession error = %v", err)
	}
	coord.AddMessage(Message{ID: 1, SessionID: "s1", Role: RoleUser, Content: "hi"})

	if err := coord.DeleteSession(context.Background(), "s1"); err != nil {
		t.Fatalf("DeleteSession error = %v", err)
	}
	if got := coord.ActiveSession(); got != "" {
		t.Errorf("ActiveSession() = %q after deleting active, want empty", got)
	}
	if got := len(coord.Messages()); got != 0 {
		t.Errorf("Messages() len = %d after deleting active, want 0", got)
	}
	if got := coord.Sessions(); len(got) != 1 || got[0].ID != "s2" {
		t.Errorf("Sessions() = %+v, want [s2]", got)
	}
}

func TestDeleteInactiveSessionKeepsActive(t *testing.T) {
	api := newFakeSessionAPI()
	api.add("s1")
	api.add("s2")

	coord := NewCoordinator(api)
	if _, err := coord.LoadSessions(context.Background()); err != nil {
		t.Fatalf("LoadSessions error = %v", err)
	}
	if err := coord.SelectSession(context.Background(), "s1"); err != nil {
		t.Fatalf("SelectSession error = %v", err)
	}

	if err := coord.DeleteSession(context.Background(), "s2"); err != nil {
		t.Fatalf("DeleteSession error = %v", err)
	}
	if got := coord.ActiveSession(); got != "s1" {
		t.Errorf("ActiveSession() = %q, want s1", got)
	}
}

func TestLoadSessionsFailureKeepsCache(t *testing.T) {
	api := newFakeSessionAPI()
	api.add("s1")

	coord := NewCoordinator(api)
	if _, err := coord.LoadSessions(context.Background()); err != nil {
		t.Fatalf("LoadSessions error = %v", err)
	}

	api.listErr = errors.New("backend down")
	if _, err := coord.LoadSessions(context.Background()); err == nil {
		t.Fatal("LoadSessions succeeded, want error")
	}

	if got := len(coord.Sessions()); got != 1 {
		t.Errorf("Sessions() len = %d after failed refresh, want 1", got)
	}
}

func TestAddMessageDoesNotValidateSession(t *testing.T) {
	coord := NewCoordinator(newFakeSessionAPI())

	// Optimistic echo happens before the backend assigns anything; the
	// coordinator takes the message as-is.
	coord.AddMessage(Message{ID: LocalMessageID(), SessionID: "anything", Role: RoleUser, Content: "hi"})
	if got := len(coord.Messages()); got != 1 {
		t.Errorf("Messages() len = %d, want 1", got)
	}
}
