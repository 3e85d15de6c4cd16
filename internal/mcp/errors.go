package mcp

// Sentinel and typed errors for the client and its transports. Each
// distinct failure mode gets its own value so callers can branch with
// errors.Is/errors.As instead of string matching.

import (
	"errors"
	"fmt"
)

var (
	// ErrTransportClosed is returned when a message is written after the
	// transport has been closed or the peer has gone away.
	ErrTransportClosed = errors.New("transport closed")

	// ErrNoResponse is returned when the stream ends before a reply to
	// an outstanding request arrives.
	ErrNoResponse = errors.New("no response received")

	// ErrMaxAttempts is returned when too many unparseable or unmatched
	// lines were skipped while waiting for a reply. The ceiling protects
	// against a misbehaving server that emits noise forever.
	ErrMaxAttempts = errors.New("too many unparseable lines skipped")

	// ErrNotConnected is returned by Client.Call before a successful
	// Connect. This is a caller bug, distinct from protocol failures.
	ErrNotConnected = errors.New("client not connected")

	// ErrHandshakeRejected is returned when the server answers the
	// initialize request with a JSON-RPC error.
	ErrHandshakeRejected = errors.New("server rejected initialize")
)

// SpawnError is returned when the server subprocess cannot be started.
type SpawnError struct {
	Command string
	Err     error
}

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %q: %v", e.Command, e.Err)
}

// Unwrap returns the underlying exec error.
func (e *SpawnError) Unwrap() error {
	return e.Err
}
