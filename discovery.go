package fedichess

import (
	"context"

	"github.com/fedichess/fedichess-go/internal/bridge"
)

// BridgeLocation is a discovered bridge entry point.
type BridgeLocation = bridge.Location

// DiscoverBridge locates the bridge the way Start does when no path is given.
//
// The search order is: WithBridgePath, the FEDICHESS_BRIDGE environment
// variable, bridge/dist/index.js in the current directory and its parents,
// the XDG data directories, and finally fedichess-bridge on PATH.
// Returns BridgeNotFoundError listing every searched path.
func DiscoverBridge(ctx context.Context, opts ...Option) (*BridgeLocation, error) {
	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	return bridge.NewDiscoverer(&bridge.Config{
		BridgePath:   options.BridgePath,
		SearchDir:    options.Cwd,
		Interpreters: options.Interpreters,
		Logger:       log,
	}).Discover(ctx)
}
