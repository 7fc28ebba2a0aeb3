package internal

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MessageSink receives finalized messages. The Coordinator implements it;
// the assembler never reaches into session state beyond these two calls.
type MessageSink interface {
	AddMessage(Message)
	ActiveSession() string
}

// Assembler folds the inbound event sequence of one in-flight response into
// a live preview buffer, then delivers exactly one finalized assistant
// message to its sink when the turn completes. At most one turn streams at a
// time (single socket, single logical conversation).
type Assembler struct {
	sink          MessageSink
	onStreamError func(message string)

	mu          sync.Mutex
	buf         strings.Builder
	streaming   bool
	turnSession string
	toolCalls   []ToolCall
}

// NewAssembler creates an idle assembler. onStreamError is invoked when a
// turn is aborted by an error event; it may be nil.
func NewAssembler(sink MessageSink, onStreamError func(message string)) *Assembler {
	return &Assembler{sink: sink, onStreamError: onStreamError}
}

// Begin marks the start of a turn for the given session. Late completions
// whose tagged session no longer matches the sink's active session are
// discarded rather than committed.
func (a *Assembler) Begin(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
	a.streaming = true
	a.turnSession = sessionID
}

// Streaming reports whether a turn is currently in flight.
func (a *Assembler) Streaming() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.streaming
}

// Preview returns the accumulated text of the in-flight turn.
func (a *Assembler) Preview() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buf.String()
}

// Abort discards the in-flight turn, if any. Called on session switch and on
// abrupt transport loss, so a half-formed response can never appear to
// complete later.
func (a *Assembler) Abort() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.streaming || a.buf.Len() > 0 {
		LogDebug("aborting in-flight turn for session %q", a.turnSession)
	}
	a.reset()
}

// Handle applies one inbound event to the turn state machine.
func (a *Assembler) Handle(ev Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch e := ev.(type) {
	case TokenEvent:
		if !a.streaming {
			// Should not happen if done/error always close the prior
			// turn; recover by starting an untagged turn.
			a.streaming = true
		}
		a.buf.WriteString(e.Content)

	case ToolCallEvent:
		if !a.streaming {
			a.streaming = true
		}
		a.buf.WriteString("\n\n[Tool Call: " + e.Name + "]\n")
		a.toolCalls = append(a.toolCalls, ToolCall{
			ID:        uuid.New().String(),
			Name:      e.Name,
			Arguments: e.Arguments,
		})

	case ToolResultEvent:
		if !a.streaming {
			a.streaming = true
		}
		a.buf.WriteString("\n[Result: " + e.Result + "]\n\n")
		if n := len(a.toolCalls); n > 0 {
			a.toolCalls[n-1].Result = e.Result
		}

	case DoneEvent:
		a.commit(e.SessionID)

	case ErrorEvent:
		LogWarn("chat stream error: %s", e.Message)
		a.reset()
		if a.onStreamError != nil {
			a.onStreamError(e.Message)
		}

	case SessionCreatedEvent:
		// Session bookkeeping, not turn state; handled by the chat surface.
	}
}

func (a *Assembler) commit(sessionID string) {
	content := strings.TrimSpace(a.buf.String())
	toolCalls := a.toolCalls
	tagged := a.turnSession
	a.reset()

	if content == "" || sessionID == "" {
		return
	}
	if tagged != "" && tagged != a.sink.ActiveSession() {
		LogDebug("discarding completion for stale session %q", tagged)
		return
	}

	a.sink.AddMessage(Message{
		ID:        LocalMessageID(),
		SessionID: sessionID,
		Role:      RoleAssistant,
		Content:   content,
		ToolCalls: toolCalls,
		CreatedAt: time.Now(),
	})
}

func (a *Assembler) reset() {
	a.buf.Reset()
	a.streaming = false
	a.turnSession = ""
	a.toolCalls = nil
}
