package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error classes. Use errors.Is against these; the concrete types carry detail.
var (
	ErrConnectivity   = errors.New("no response from server")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("invalid request data")
	ErrServer         = errors.New("server error")
	ErrSessionExpired = errors.New("session expired, sign in again")
	ErrNoRefreshToken = errors.New("no refresh token stored")
)

// ConnectivityError is returned when no HTTP response was received: DNS
// failure, refused connection, timeout or cancellation.
type ConnectivityError struct {
	Method string
	Path   string
	Err    error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Method, e.Path, ErrConnectivity, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

func (e *ConnectivityError) Is(target error) bool { return target == ErrConnectivity }

// StatusError is a non-2xx response passed through to the caller.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	// Message is the server's "error" (or "message") field, when the body carries one.
	Message string
	Body    []byte
}

func newStatusError(method, path string, status int, body []byte) *StatusError {
	return &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Message:    errorMessage(body),
		Body:       body,
	}
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case ErrServer:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// RefreshError is the terminal failure of a token refresh. Every request that
// was waiting on the refresh receives the same RefreshError.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%v: %v", ErrSessionExpired, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

func (e *RefreshError) Is(target error) bool { return target == ErrSessionExpired }

func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
