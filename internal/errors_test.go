package internal

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "request error with status",
			err:  &RequestError{Method: "GET", Path: "/sessions", Status: 500, Detail: "database locked"},
			want: []string{"GET", "/sessions", "500", "database locked"},
		},
		{
			name: "request error without status",
			err:  &RequestError{Method: "POST", Path: "/sessions", Err: errors.New("connection refused")},
			want: []string{"POST", "/sessions", "connection refused"},
		},
		{
			name: "timeout error",
			err:  &TimeoutError{Method: "GET", Path: "/logs", Err: errors.New("deadline exceeded")},
			want: []string{"timeout", "GET", "/logs"},
		},
		{
			name: "auth error",
			err:  &AuthError{Path: "/config"},
			want: []string{"/config", "token"},
		},
		{
			name: "protocol error",
			err:  &ProtocolError{Frame: `{"type":"??"}`, Err: errors.New("unknown event type")},
			want: []string{"protocol", "unknown event type"},
		},
		{
			name: "config error",
			err:  &ConfigError{Path: "/home/u/.config/hermesctl/config.yaml", Err: errors.New("yaml: bad")},
			want: []string{"config.yaml", "yaml: bad"},
		},
		{
			name: "archive error",
			err:  &ArchiveError{Path: "archive.db", Op: "write", Err: errors.New("disk full")},
			want: []string{"archive", "write", "disk full"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.want {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, missing %q", msg, want)
				}
			}
		})
	}
}

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New("root cause")

	wrapped := fmt.Errorf("doing a thing: %w", &RequestError{Method: "GET", Path: "/x", Err: cause})
	if !errors.Is(wrapped, cause) {
		t.Error("RequestError does not unwrap to its cause")
	}

	var terr *TimeoutError
	chain := fmt.Errorf("outer: %w", &TimeoutError{Method: "GET", Path: "/x", Err: cause})
	if !errors.As(chain, &terr) {
		t.Error("TimeoutError not found in wrapped chain")
	}

	var authErr *AuthError
	authChain := fmt.Errorf("failed to list: %w", &AuthError{Path: "/sessions"})
	if !errors.As(authChain, &authErr) {
		t.Error("AuthError not found in wrapped chain")
	}
}
