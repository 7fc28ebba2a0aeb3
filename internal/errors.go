package internal

import "fmt"

// RequestError represents a failed REST call (non-2xx response or transport
// failure other than a timeout).
type RequestError struct {
	Method string
	Path   string
	Status int // 0 when the request never reached the server
	Detail string
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("request error: %s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("request error: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// TimeoutError represents a REST call that exceeded the client's bounded
// request timeout.
type TimeoutError struct {
	Method string
	Path   string
	Err    error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// AuthError represents a 401 response. The stored token is no longer valid
// and the caller must log in again.
type AuthError struct {
	Path string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s: token rejected", e.Path)
}

// ProtocolError represents a malformed or unrecognized inbound stream frame.
type ProtocolError struct {
	Frame string
	Err   error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %q: %v", e.Frame, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ConfigError represents errors loading or writing local client config.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ArchiveError represents errors accessing the local session archive.
type ArchiveError struct {
	Path string
	Op   string // "open", "write", "read"
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}
