// ABOUTME: Error taxonomy for backend calls: transport, authorization and server rejection
// ABOUTME: MessageOf extracts the operator-facing text with a generic fallback

package gateway

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is
var (
	ErrTransport    = errors.New("backend unreachable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRejected     = errors.New("request rejected")
)

// TransportError wraps a network-level failure (DNS, refused, timeout, canceled)
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is matches ErrTransport
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// AuthError is an authorization failure. By the time a caller sees it the
// credential has already been invalidated.
type AuthError struct {
	Op     string
	Status int   // 0 when the credential could not be acquired locally
	Err    error // underlying credential error, if any
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, ErrUnauthorized, e.Err)
	}
	return fmt.Sprintf("%s: %v (status %d)", e.Op, ErrUnauthorized, e.Status)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches ErrUnauthorized
func (e *AuthError) Is(target error) bool { return target == ErrUnauthorized }

// Rejection is an application-level error returned by the backend.
// Message is the server's message field verbatim, empty if it sent none.
type Rejection struct {
	Op      string
	Status  int
	Message string
}

func (e *Rejection) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %v (status %d)", e.Op, ErrRejected, e.Status)
}

// Is matches ErrRejected
func (e *Rejection) Is(target error) bool { return target == ErrRejected }

// MessageOf returns the server's message for a Rejection, or fallback otherwise
func MessageOf(err error, fallback string) string {
	var rej *Rejection
	if errors.As(err, &rej) && rej.Message != "" {
		return rej.Message
	}
	return fallback
}

// IsAuth reports whether err is an authorization failure
func IsAuth(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// StatusOf returns the HTTP status of a Rejection, or 0
func StatusOf(err error) int {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Status
	}
	return 0
}
