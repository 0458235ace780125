// Package bridge provides bridge discovery and command building for the
// FediChess stdio bridge.
//
// # Bridge Discovery
//
// The Discoverer locates the bridge entry point:
//
//	discoverer := bridge.NewDiscoverer(&bridge.Config{
//	    BridgePath: "",           // Optional explicit path
//	    Logger:     slog.Default(),
//	})
//	loc, err := discoverer.Discover(ctx)
//
// Discovery searches in the following order:
//  1. Explicit path in Config.BridgePath (if provided)
//  2. The FEDICHESS_BRIDGE environment variable (file path or command name)
//  3. bridge/dist/index.js and sdks/bridge/dist/index.js in the working
//     directory and its parents
//  4. fedichess/bridge/dist/index.js in the XDG data directories
//  5. A fedichess-bridge executable on PATH
//
// # Command Building
//
// BuildCommand turns options into the program, arguments and environment
// used to spawn the bridge. Script entry points are run through their
// interpreter (node for .js) instead of being executed directly.
package bridge
