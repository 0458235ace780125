package fedichess

import (
	"github.com/fedichess/fedichess-go/internal/errors"
)

// Re-export sentinel errors from internal package.
var (
	// ErrClientNotStarted is returned when a command is issued before Start.
	ErrClientNotStarted = errors.ErrClientNotStarted
	// ErrClientAlreadyStarted is returned when Start is called twice.
	ErrClientAlreadyStarted = errors.ErrClientAlreadyStarted
	// ErrClientClosed is returned when Start is called after Close.
	ErrClientClosed = errors.ErrClientClosed
	// ErrTransportNotStarted is returned when the transport is used before Start.
	ErrTransportNotStarted = errors.ErrTransportNotStarted
	// ErrStdinClosed is wrapped by WriteError when the bridge input is closed.
	ErrStdinClosed = errors.ErrStdinClosed
	// ErrConnectionClosed matches every ClosedError.
	ErrConnectionClosed = errors.ErrConnectionClosed
)

// FediChessError is the base interface for all SDK errors.
type FediChessError = errors.FediChessError

// BridgeNotFoundError indicates no bridge could be located.
type BridgeNotFoundError = errors.BridgeNotFoundError

// SpawnError indicates the bridge process could not be started.
type SpawnError = errors.SpawnError

// WriteError indicates a command could not be written to the bridge.
type WriteError = errors.WriteError

// DecodeError indicates a reply could not be decoded.
type DecodeError = errors.DecodeError

// ClosedError indicates the bridge output ended while a command was waiting
// for its reply.
type ClosedError = errors.ClosedError
