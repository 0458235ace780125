// Package config provides configuration types for the FediChess SDK.
package config

import (
	"context"

	"github.com/fedichess/fedichess-go/internal/message"
)

// Transport defines the interface for bridge communication.
// Implement this to provide custom transports for testing, mocking,
// or alternative launch methods (e.g., a bridge inside a container).
//
// The default implementation is BridgeTransport which spawns a subprocess.
// Custom transports can be injected via Options.Transport.
type Transport interface {
	// Start launches the bridge and prepares it for communication.
	Start(ctx context.Context) error

	// ReadMessages starts the line reader and returns its channels.
	// The message channel yields every well-formed JSON object line and is
	// closed when the bridge output ends. The error channel yields at most
	// one read error and is closed together with the message channel.
	// It must be called at most once.
	ReadMessages() (<-chan message.Raw, <-chan error)

	// SendMessage writes one JSON line to the bridge.
	// A newline is appended if missing. This method must be safe for
	// concurrent use and must fail once the transport is closed.
	SendMessage(ctx context.Context, data []byte) error

	// Close kills the bridge, waits for it to exit and releases its pipes.
	// It's safe to call Close multiple times.
	Close() error

	// IsReady returns true if the transport is ready for communication.
	IsReady() bool
}
