package fedichess

import (
	"log/slog"
	"maps"
	"strings"

	"github.com/fedichess/fedichess-go/internal/bridge"
	"github.com/fedichess/fedichess-go/internal/protocol"
)

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to a new Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// WithLogger sets the logger for debug output.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithBridgePath sets the bridge entry point and skips discovery.
func WithBridgePath(path string) Option {
	return func(o *Options) {
		o.BridgePath = path
	}
}

// WithCwd sets the working directory for the bridge process.
func WithCwd(cwd string) Option {
	return func(o *Options) {
		o.Cwd = cwd
	}
}

// WithEnv adds environment variables for the bridge process.
// Repeated calls merge; later values win.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}

		maps.Copy(o.Env, env)
	}
}

// WithTrackers sets the WebSocket trackers the bridge announces to.
func WithTrackers(urls ...string) Option {
	return WithEnv(map[string]string{bridge.EnvTrackers: strings.Join(urls, ",")})
}

// WithInterpreter runs scripts with extension ext (e.g. ".js") through
// interpreter. An empty interpreter makes such files run directly.
func WithInterpreter(ext, interpreter string) Option {
	return func(o *Options) {
		if o.Interpreters == nil {
			o.Interpreters = make(map[string]string, 1)
		}

		o.Interpreters[ext] = interpreter
	}
}

// WithMaxLineSize sets the largest accepted line of bridge output in bytes.
func WithMaxLineSize(size int) Option {
	return func(o *Options) {
		o.MaxLineSize = size
	}
}

// WithRequestIDGenerator sets the source of command correlation ids.
func WithRequestIDGenerator(gen RequestIDGenerator) Option {
	return func(o *Options) {
		o.RequestIDs = gen
	}
}

// WithULIDRequestIDs correlates commands with ULIDs instead of "req-N".
func WithULIDRequestIDs() Option {
	return WithRequestIDGenerator(protocol.NewULIDIDs())
}

// WithTransport injects a custom transport implementation.
// The transport must implement the Transport interface.
func WithTransport(transport Transport) Option {
	return func(o *Options) {
		o.Transport = transport
	}
}
