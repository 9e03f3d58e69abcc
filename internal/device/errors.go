package device

import (
	"errors"
	"fmt"
)

// ErrRateLimited marks a request refused because the re-login throttle was
// exhausted. It arrives wrapped in a *TransportError; callers detect it with
// errors.Is and should retry later rather than treat the device as down.
var ErrRateLimited = errors.New("re-login rate exceeded")

// AuthError reports a failed login: rejected credentials or an unreachable
// login endpoint.
type AuthError struct {
	Host   string
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth %s: %s: %v", e.Host, e.Reason, e.Err)
	}
	return fmt.Sprintf("auth %s: %s", e.Host, e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError reports a failed device request: unreachable host, timeout,
// malformed response, or a session that could not be renewed.
type TransportError struct {
	Host     string
	Endpoint string
	Reason   string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("device %s%s: %s: %v", e.Host, e.Endpoint, e.Reason, e.Err)
	}
	return fmt.Sprintf("device %s%s: %s", e.Host, e.Endpoint, e.Reason)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError rejects a write request before any device call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
