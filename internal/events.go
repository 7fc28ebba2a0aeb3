package internal

import (
	"encoding/json"
	"fmt"
)

// ConnectionStatus is the transport's connection state, owned by the
// Transport and observed by everyone else.
type ConnectionStatus int

const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusConnecting:
		return "connecting"
	default:
		return "disconnected"
	}
}

// Event is one inbound frame on the chat stream, decoded into a closed set
// of concrete types so that consumers can type-switch exhaustively.
type Event interface {
	eventType() string
}

// TokenEvent carries one streamed text fragment.
type TokenEvent struct {
	Content string
}

// ToolCallEvent announces a tool invocation mid-stream.
type ToolCallEvent struct {
	Name      string
	Arguments string
}

// ToolResultEvent carries the result of the preceding tool call.
type ToolResultEvent struct {
	Result string
}

// DoneEvent terminates the current turn; the accumulated content belongs to
// the given session.
type DoneEvent struct {
	SessionID string
}

// ErrorEvent aborts the current turn.
type ErrorEvent struct {
	Message string
}

// SessionCreatedEvent reports a session created server-side (for example by
// a gateway message); consumers should refresh their session list.
type SessionCreatedEvent struct {
	SessionID string
}

func (TokenEvent) eventType() string          { return "token" }
func (ToolCallEvent) eventType() string       { return "tool_call" }
func (ToolResultEvent) eventType() string     { return "tool_result" }
func (DoneEvent) eventType() string           { return "done" }
func (ErrorEvent) eventType() string          { return "error" }
func (SessionCreatedEvent) eventType() string { return "session_created" }

// wireEvent is the superset JSON shape of all inbound frames.
type wireEvent struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Result    string `json:"result,omitempty"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// DecodeEvent parses one inbound frame. Unknown or malformed frames yield a
// ProtocolError; callers log and drop them without touching connection state.
func DecodeEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &ProtocolError{Frame: string(data), Err: err}
	}

	switch w.Type {
	case "token":
		return TokenEvent{Content: w.Content}, nil
	case "tool_call":
		return ToolCallEvent{Name: w.Name, Arguments: w.Arguments}, nil
	case "tool_result":
		return ToolResultEvent{Result: w.Result}, nil
	case "done":
		return DoneEvent{SessionID: w.SessionID}, nil
	case "error":
		return ErrorEvent{Message: w.Message}, nil
	case "session_created":
		return SessionCreatedEvent{SessionID: w.SessionID}, nil
	default:
		return nil, &ProtocolError{Frame: string(data), Err: fmt.Errorf("unknown event type %q", w.Type)}
	}
}

// outboundFrame is the only frame the client sends on the chat stream.
type outboundFrame struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}
