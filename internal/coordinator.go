package internal

import (
	"context"
	"fmt"
	"sync"
)

// SessionAPI is the slice of the REST client the coordinator depends on.
type SessionAPI interface {
	ListSessions(ctx context.Context) ([]Session, error)
	GetSession(ctx context.Context, id string) (*SessionDetail, error)
	CreateSession(ctx context.Context) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// TurnAborter abandons an in-flight streamed turn. Implemented by Assembler.
type TurnAborter interface {
	Abort()
}

// Coordinator is the authoritative client-side view of which session is
// active and what it has said. It exclusively owns the cached session list
// and the active session's message history; the assembler only delivers
// finalized messages through AddMessage.
type Coordinator struct {
	api     SessionAPI
	aborter TurnAborter

	mu       sync.Mutex
	sessions []Session
	activeID string
	messages []Message
}

// NewCoordinator creates a coordinator with no active session.
func NewCoordinator(api SessionAPI) *Coordinator {
	return &Coordinator{api: api}
}

// SetAborter wires the in-flight-turn abort signal. Set after the assembler
// is constructed (the two reference each other).
func (c *Coordinator) SetAborter(a TurnAborter) {
	c.aborter = a
}

// LoadSessions fetches and replaces the cached session list. The active
// session is untouched; on failure the prior cache is left intact.
func (c *Coordinator) LoadSessions(ctx context.Context) ([]Session, error) {
	sessions, err := c.api.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	c.mu.Lock()
	c.sessions = sessions
	c.mu.Unlock()
	return c.Sessions(), nil
}

// SelectSession makes id the active session, fetching its full history
// before swapping the message list. A no-op when id is already active. Any
// in-flight turn is abandoned first, so a stream started under the previous
// session can never leak into the new one.
func (c *Coordinator) SelectSession(ctx context.Context, id string) error {
	c.mu.Lock()
	same := id == c.activeID
	c.mu.Unlock()
	if same {
		return nil
	}
	if c.aborter != nil {
		c.aborter.Abort()
	}

	detail, err := c.api.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", id, err)
	}

	c.mu.Lock()
	c.activeID = id
	c.messages = append([]Message(nil), detail.Messages...)
	c.mu.Unlock()
	return nil
}

// CreateSession asks the backend for a new session, refreshes the cached
// list and activates the new session with an empty history. Returns the new
// session id.
func (c *Coordinator) CreateSession(ctx context.Context) (string, error) {
	if c.aborter != nil {
		c.aborter.Abort()
	}

	s, err := c.api.CreateSession(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	if _, err := c.LoadSessions(ctx); err != nil {
		LogWarn("session created but list refresh failed: %v", err)
	}

	c.mu.Lock()
	c.activeID = s.ID
	c.messages = nil
	c.mu.Unlock()
	return s.ID, nil
}

// DeleteSession deletes id on the backend and drops it from the cache. When
// the active session is deleted the active id and message list are cleared;
// the caller decides where to navigate next.
func (c *Coordinator) DeleteSession(ctx context.Context, id string) error {
	if err := c.api.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}

	c.mu.Lock()
	kept := c.sessions[:0]
	for _, s := range c.sessions {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	c.sessions = kept
	wasActive := c.activeID == id
	if wasActive {
		c.activeID = ""
		c.messages = nil
	}
	c.mu.Unlock()

	if wasActive && c.aborter != nil {
		c.aborter.Abort()
	}
	return nil
}

// AddMessage appends to the active session's message list. Used for the
// optimistic local echo of user input and for assembler-finalized assistant
// messages. The message's session id is not validated here; stale-stream
// protection lives in the assembler's commit path.
func (c *Coordinator) AddMessage(m Message) {
	c.mu.Lock()
	c.messages = append(c.messages, m)
	c.mu.Unlock()
}

// ActiveSession returns the active session id, or "" when none is active.
func (c *Coordinator) ActiveSession() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// Sessions returns a copy of the cached session list.
func (c *Coordinator) Sessions() []Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Session(nil), c.sessions...)
}

// Messages returns a copy of the active session's message list.
func (c *Coordinator) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}
