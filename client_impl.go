package fedichess

import (
	"context"
	"iter"
	"runtime"
	"time"

	"github.com/fedichess/fedichess-go/internal/client"
)

// clientWrapper wraps the internal client to adapt it to the public interface.
type clientWrapper struct {
	impl *client.Client
}

// Compile-time check that *clientWrapper implements the Client interface.
var _ Client = (*clientWrapper)(nil)

// newClientImpl creates the internal client implementation.
//
// A client dropped without Close still kills its bridge once the wrapper is
// garbage collected.
func newClientImpl() Client {
	w := &clientWrapper{impl: client.New()}

	runtime.AddCleanup(w, func(impl *client.Client) {
		_ = impl.Close()
	}, w.impl)

	return w
}

// Start spawns the bridge.
func (c *clientWrapper) Start(ctx context.Context, opts ...Option) error {
	return c.impl.Start(ctx, applyOptions(opts))
}

// JoinLobby joins the global lobby room.
func (c *clientWrapper) JoinLobby(ctx context.Context) (*Reply, error) {
	return c.impl.JoinLobby(ctx)
}

// LeaveLobby leaves the lobby room.
func (c *clientWrapper) LeaveLobby(ctx context.Context) (*Reply, error) {
	return c.impl.LeaveLobby(ctx)
}

// JoinGame joins the room of gameID.
func (c *clientWrapper) JoinGame(ctx context.Context, gameID string) (*Reply, error) {
	return c.impl.JoinGame(ctx, gameID)
}

// LeaveGame leaves the current game room.
func (c *clientWrapper) LeaveGame(ctx context.Context) (*Reply, error) {
	return c.impl.LeaveGame(ctx)
}

// Send broadcasts action to the current room.
func (c *clientWrapper) Send(ctx context.Context, action string, payload any) (*Reply, error) {
	return c.impl.Send(ctx, action, payload)
}

// SendTo sends action to one peer.
func (c *clientWrapper) SendTo(ctx context.Context, peerID string, action string, payload any) (*Reply, error) {
	return c.impl.SendTo(ctx, peerID, action, payload)
}

// GetPeers lists the peers of the current room.
func (c *clientWrapper) GetPeers(ctx context.Context) ([]string, error) {
	return c.impl.GetPeers(ctx)
}

// PollEvent returns the oldest queued event without blocking.
func (c *clientWrapper) PollEvent() (*Event, bool) {
	return c.impl.PollEvent()
}

// PollEvents yields events as they arrive.
func (c *clientWrapper) PollEvents(ctx context.Context, interval time.Duration) iter.Seq[*Event] {
	return c.impl.PollEvents(ctx, interval)
}

// Done is closed when the bridge output has ended.
func (c *clientWrapper) Done() <-chan struct{} {
	return c.impl.Done()
}

// Err returns the error outstanding commands fail with after Done.
func (c *clientWrapper) Err() error {
	return c.impl.Err()
}

// Close kills the bridge and releases its resources.
func (c *clientWrapper) Close() error {
	return c.impl.Close()
}
