package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSession  = errors.New("invalid session descriptor")

	ErrAlreadyConnected   = errors.New("session already connected")
	ErrOffline            = errors.New("offline mode enabled")
	ErrAuthFailure        = errors.New("authentication rejected")
	ErrTimeout            = errors.New("connection timed out")
	ErrNetworkUnreachable = errors.New("network unreachable")
	ErrProtocol           = errors.New("unexpected remote behavior")
	ErrConnectionClosed   = errors.New("connection closed")
	ErrCommandTooLong     = errors.New("command too long")
	ErrEmptyCommand       = errors.New("empty command")

	// ErrCacheMiss and ErrUnavailable are expected control-flow outcomes,
	// not faults: a miss means "go compute it", unavailable means "offline
	// and not cached".
	ErrCacheMiss   = errors.New("cache miss")
	ErrUnavailable = errors.New("unavailable in offline mode")

	ErrCorruptData = errors.New("corrupt persisted data")
)

// PersistenceError wraps a storage failure with the path it concerns. Reads
// that fail this way degrade the affected store to empty; they never abort
// startup.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure at %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Transient reports whether a connection error is worth a manual retry.
// Nothing in this subsystem retries automatically.
func Transient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrNetworkUnreachable)
}
