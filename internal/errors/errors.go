package errors

import (
	"errors"
	"fmt"
)

// FediChessError is the base interface for all SDK errors.
type FediChessError interface {
	error
	IsFediChessError() bool
}

// Compile-time verification that all error types implement FediChessError.
var (
	_ FediChessError = (*BridgeNotFoundError)(nil)
	_ FediChessError = (*SpawnError)(nil)
	_ FediChessError = (*WriteError)(nil)
	_ FediChessError = (*DecodeError)(nil)
	_ FediChessError = (*ClosedError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrClientNotStarted indicates a command was issued before Start.
	ErrClientNotStarted = errors.New("client not started")

	// ErrClientAlreadyStarted indicates Start was called twice.
	ErrClientAlreadyStarted = errors.New("client already started")

	// ErrClientClosed indicates the client has been closed and cannot be reused.
	ErrClientClosed = errors.New("client closed: clients are single-use, create a new one with NewClient()")

	// ErrTransportNotStarted indicates the transport has no running process.
	ErrTransportNotStarted = errors.New("transport not started")

	// ErrStdinClosed indicates the bridge input pipe is no longer writable.
	ErrStdinClosed = errors.New("stdin closed")

	// ErrConnectionClosed indicates the bridge output stream ended.
	ErrConnectionClosed = errors.New("connection closed")
)

// BridgeNotFoundError indicates no bridge executable could be located.
type BridgeNotFoundError struct {
	SearchedPaths []string
}

func (e *BridgeNotFoundError) Error() string {
	return fmt.Sprintf("fedichess bridge not found in: %v", e.SearchedPaths)
}

// IsFediChessError implements FediChessError.
func (e *BridgeNotFoundError) IsFediChessError() bool { return true }

// SpawnError indicates the bridge process failed to start or its pipes
// could not be created.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn bridge %q: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsFediChessError implements FediChessError.
func (e *SpawnError) IsFediChessError() bool { return true }

// WriteError indicates a command could not be written to the bridge stdin.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write to bridge: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// IsFediChessError implements FediChessError.
func (e *WriteError) IsFediChessError() bool { return true }

// DecodeError indicates a correlated reply could not be interpreted as a Reply.
// RawData preserves the offending JSON.
type DecodeError struct {
	RawData string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode reply: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsFediChessError implements FediChessError.
func (e *DecodeError) IsFediChessError() bool { return true }

// ClosedError indicates the bridge output stream ended while a reply was
// awaited. Err holds the read error that ended the stream, if any.
type ClosedError struct {
	Err error
}

func (e *ClosedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection closed: %v", e.Err)
	}

	return "connection closed"
}

func (e *ClosedError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConnectionClosed.
func (e *ClosedError) Is(target error) bool {
	return target == ErrConnectionClosed
}

// IsFediChessError implements FediChessError.
func (e *ClosedError) IsFediChessError() bool { return true }
