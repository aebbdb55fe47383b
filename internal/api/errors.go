package api

import (
	"errors"
	"fmt"
)

// Sentinel errors callers branch on.
var (
	// ErrNotAuthenticated means no bearer token is stored; the user must
	// log in before issuing buyer calls.
	ErrNotAuthenticated = errors.New("not authenticated: login first")

	// ErrStaleTransaction means the caller referenced a pending transaction
	// that is no longer present in the pending set.
	ErrStaleTransaction = errors.New("transaction is no longer pending")
)

// ServerRejection is a non-2xx (or non-success envelope) response. Message
// carries the server-provided text verbatim for display.
type ServerRejection struct {
	StatusCode int
	Message    string
}

func (e *ServerRejection) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server rejected request (HTTP %d)", e.StatusCode)
}

// NetworkFailure is a request that never produced a usable response:
// transport error, timeout, or an unparseable body. Users see a generic
// connectivity message rather than the underlying error text.
type NetworkFailure struct {
	Op  string
	Err error
}

func (e *NetworkFailure) Error() string {
	return fmt.Sprintf("network failure during %s: %v", e.Op, e.Err)
}

func (e *NetworkFailure) Unwrap() error { return e.Err }

// IsServerRejection reports whether err is a structured rejection from the
// marketplace, as opposed to a connectivity problem.
func IsServerRejection(err error) bool {
	var rejection *ServerRejection
	return errors.As(err, &rejection)
}

// UserMessage converts any client error into the text shown to the user:
// server messages verbatim, everything network-shaped as a generic
// connectivity notice.
func UserMessage(err error) string {
	var rejection *ServerRejection
	if errors.As(err, &rejection) {
		return rejection.Error()
	}
	var failure *NetworkFailure
	if errors.As(err, &failure) {
		return "could not reach the marketplace, please check your connection"
	}
	return err.Error()
}
