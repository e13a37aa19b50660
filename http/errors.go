package http

import (
	"encoding/json"
	"errors"
	"fmt"
)

// APIError indicates the server responded with a non-2xx status.
type APIError struct {
	// StatusCode is the HTTP status code
	StatusCode int
	// Body is the response body
	Body []byte
}

// Error returns a string representation of the API error.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d", e.StatusCode)
}

// Message extracts a human-readable message from the response body.
// The backend responds either with {"message": ...}, {"error": ...},
// or a bare string; all three are handled.
func (e *APIError) Message() string {
	if len(e.Body) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Err     string `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Err != "" {
			return payload.Err
		}
	}
	var s string
	if err := json.Unmarshal(e.Body, &s); err == nil {
		return s
	}
	return string(e.Body)
}

// Sentinel errors for client operations.
var (
	// ErrNoResponse indicates the request was sent but no response arrived
	// (network unreachable, timeout).
	ErrNoResponse = errors.New("no response received")

	// ErrBadRequestConfig indicates the request could never be dispatched.
	ErrBadRequestConfig = errors.New("request could not be built")

	// ErrSessionExpired indicates the session is no longer valid and a new
	// login is required.
	ErrSessionExpired = errors.New("session expired")

	// ErrAuthRequired indicates an action that needs a session was attempted
	// without one.
	ErrAuthRequired = errors.New("login required")
)

// User-facing messages produced by the classifier.
const (
	msgSessionExpired = "Your session has expired. Please log in again."
	msgNetwork        = "Network error. Could not reach the server."
)

// UserMessage is the single error-formatting path all actions funnel
// through. It distinguishes server error responses (401/403 mapped to a
// fixed session-expired message), requests that got no response, and
// requests that were never dispatched.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 401 || apiErr.StatusCode == 403 {
			return msgSessionExpired
		}
		if msg := apiErr.Message(); msg != "" {
			return fmt.Sprintf("Error %d: %s", apiErr.StatusCode, msg)
		}
		return fmt.Sprintf("Error %d", apiErr.StatusCode)
	}

	switch {
	case errors.Is(err, ErrSessionExpired):
		return msgSessionExpired
	case errors.Is(err, ErrAuthRequired):
		return "Please log in to use this feature."
	case errors.Is(err, ErrNoResponse):
		return msgNetwork
	case errors.Is(err, ErrBadRequestConfig):
		return fmt.Sprintf("Request error: %v", err)
	}

	if fallback != "" {
		return fallback
	}
	return err.Error()
}
