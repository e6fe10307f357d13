package api

import (
	"fmt"
	"net/http"
)

// TransportError reports a request that never produced a usable response:
// the connection failed or the server answered with a non-2xx status.
type TransportError struct {
	StatusCode int    // zero when no response was received
	Message    string // server "error" field or body snippet
	Suggestion string // server "suggestion" field, if any
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		if e.Message != "" {
			return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
		}
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Err != nil {
		return fmt.Sprintf("request failed: %v", e.Err)
	}
	return "request failed"
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NoBodyError reports a success status without a readable body. The chat
// endpoint must stream, so this is a protocol violation.
type NoBodyError struct {
	StatusCode int
}

func (e *NoBodyError) Error() string {
	if e.StatusCode == 0 {
		return "no response body"
	}
	return fmt.Sprintf("server returned %d with no response body", e.StatusCode)
}

// Is makes every *NoBodyError match ErrNoBody.
func (e *NoBodyError) Is(target error) bool {
	_, ok := target.(*NoBodyError)
	return ok
}

// ErrNoBody matches any *NoBodyError via errors.Is.
var ErrNoBody error = &NoBodyError{}

// StreamReadError reports a failure while pulling chunks after streaming
// began. Fragments already delivered stay delivered.
type StreamReadError struct {
	Delivered int
	Err       error
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf("stream interrupted after %d fragments: %v", e.Delivered, e.Err)
}

func (e *StreamReadError) Unwrap() error {
	return e.Err
}
