package fedichess

import (
	"context"
	"iter"
	"time"
)

// Client drives one FediChess bridge process.
//
// Every command blocks until the bridge answers that command. Events the
// bridge emits in the meantime (challenges, moves, chat, peer changes) are
// queued and read with PollEvent or PollEvents; they are never returned as
// a command reply.
//
// Lifecycle: Clients are single-use. After Close(), create a new client with NewClient().
//
// Example usage:
//
//	client := fedichess.NewClient()
//	defer client.Close()
//
//	if err := client.Start(ctx, fedichess.WithLogger(slog.Default())); err != nil {
//	    log.Fatal(err)
//	}
//
//	reply, err := client.JoinLobby(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !reply.OK {
//	    log.Printf("bridge refused: %s", reply.Error)
//	}
//
//	for ev := range client.PollEvents(ctx, 100*time.Millisecond) {
//	    switch ev.Name {
//	    case fedichess.EventChallenge:
//	        // answer with client.SendTo(ctx, ev.PeerID, "challResp", ...)
//	    case fedichess.EventMove:
//	        // apply the move...
//	    }
//	}
type Client interface {
	// Start spawns the bridge. Must be called before any other methods.
	// Returns BridgeNotFoundError if no bridge could be located and
	// SpawnError if the process failed to start.
	Start(ctx context.Context, opts ...Option) error

	// JoinLobby joins the global lobby room.
	JoinLobby(ctx context.Context) (*Reply, error)

	// LeaveLobby leaves the lobby room.
	LeaveLobby(ctx context.Context) (*Reply, error)

	// JoinGame joins the room of gameID.
	JoinGame(ctx context.Context, gameID string) (*Reply, error)

	// LeaveGame leaves the current game room.
	LeaveGame(ctx context.Context) (*Reply, error)

	// Send broadcasts action with payload to the current room.
	// A nil payload is sent as an empty object.
	Send(ctx context.Context, action string, payload any) (*Reply, error)

	// SendTo sends action with payload to a single peer.
	SendTo(ctx context.Context, peerID string, action string, payload any) (*Reply, error)

	// GetPeers lists the peers of the current room. A malformed or failed
	// reply yields an empty list.
	GetPeers(ctx context.Context) ([]string, error)

	// PollEvent returns the oldest queued event without blocking.
	PollEvent() (*Event, bool)

	// PollEvents yields events as they arrive, sleeping interval between
	// empty polls. It stops when ctx is done or the bridge output has ended.
	PollEvents(ctx context.Context, interval time.Duration) iter.Seq[*Event]

	// Done is closed when the bridge output has ended.
	Done() <-chan struct{}

	// Err returns the ClosedError outstanding commands fail with once Done
	// is closed, and nil before.
	Err() error

	// Close kills the bridge and releases its resources.
	// After Close(), the client cannot be reused. Safe to call multiple times.
	Close() error
}

// NewClient creates a new client.
//
// Call Start() with options to spawn the bridge:
//
//	client := fedichess.NewClient()
//	err := client.Start(ctx,
//	    fedichess.WithBridgePath("./bridge/dist/index.js"),
//	    fedichess.WithTrackers("wss://tracker.example.org"),
//	)
func NewClient() Client {
	return newClientImpl()
}
