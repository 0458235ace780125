package config

import (
	"log/slog"
)

// RequestIDGenerator returns a fresh correlation id on every call.
// Implementations must never repeat an id within one client's lifetime and
// must be safe for concurrent use.
type RequestIDGenerator func() string

// Options configures the FediChess client.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// BridgePath is the resolved path of the bridge entry point, either a
	// script (run through its interpreter) or a native executable.
	// If empty, Start locates it with bridge discovery.
	BridgePath string

	// Cwd sets the working directory for the bridge process.
	// If empty, the bridge inherits the caller's working directory.
	Cwd string

	// Env provides additional environment variables for the bridge process,
	// e.g. P2P_TRACKERS. They are appended to the parent environment.
	Env map[string]string

	// Interpreters maps script extensions (with the dot) to the interpreter
	// used to run them. Entries override the defaults; an empty value
	// removes a default mapping.
	Interpreters map[string]string

	// MaxLineSize is the maximum length in bytes of one line of bridge output.
	// If zero, 1MB is used.
	MaxLineSize int

	// RequestIDs generates correlation ids. If nil, a per-client counter
	// producing "req-1", "req-2", ... is used.
	RequestIDs RequestIDGenerator

	// Transport allows injecting a custom transport implementation.
	// If nil, the default BridgeTransport is created automatically.
	Transport Transport `json:"-"`
}
