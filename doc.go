// Package fedichess provides a Go client for the FediChess peer-to-peer bridge.
//
// The bridge is a separate process that joins WebRTC rooms (the global lobby
// and one room per game) and speaks newline-delimited JSON on its standard
// streams. This package spawns it, correlates each command with its reply,
// and queues the events other peers send in between.
//
// # Basic Usage
//
// Use the WithClient helper for automatic lifecycle management:
//
//	err := fedichess.WithClient(ctx, func(c fedichess.Client) error {
//	    reply, err := c.JoinLobby(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    if !reply.OK {
//	        return fmt.Errorf("join lobby: %s", reply.Error)
//	    }
//
//	    for ev := range c.PollEvents(ctx, 100*time.Millisecond) {
//	        fmt.Println(ev.Name, ev.PeerID)
//	    }
//	    return nil
//	},
//	    fedichess.WithLogger(slog.Default()),
//	)
//
//	// Or using NewClient directly for more control
//	client := fedichess.NewClient()
//	defer client.Close()
//
//	err := client.Start(ctx,
//	    fedichess.WithBridgePath("./bridge/dist/index.js"),
//	    fedichess.WithTrackers("wss://tracker.example.org"),
//	)
//
// # Commands and Events
//
// Commands (JoinLobby, JoinGame, Send, SendTo, GetPeers, ...) block until the
// bridge answers. A Reply with OK false is a normal result, not an error.
// Events are never returned as replies: drain them with PollEvent or iterate
// with PollEvents.
//
// # Logging
//
// For detailed operation tracking, use WithLogger:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	client := fedichess.NewClient()
//	err := client.Start(ctx, fedichess.WithLogger(logger))
//
// # Error Handling
//
// The SDK provides typed errors for different failure scenarios:
//
//	if err := client.Start(ctx); err != nil {
//	    if nf, ok := errors.AsType[*fedichess.BridgeNotFoundError](err); ok {
//	        log.Fatalf("bridge not installed, searched: %v", nf.SearchedPaths)
//	    }
//	    log.Fatal(err)
//	}
//
//	reply, err := client.JoinGame(ctx, gameID)
//	if errors.Is(err, fedichess.ErrConnectionClosed) {
//	    // the bridge exited while the command was waiting
//	}
//
// # Requirements
//
// The bridge must be available: set FEDICHESS_BRIDGE, pass WithBridgePath,
// keep a checkout with bridge/dist/index.js nearby, or install
// fedichess-bridge on PATH. Script entry points need Node.js.
package fedichess
