package client

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fedichess/fedichess-go/internal/bridge"
	"github.com/fedichess/fedichess-go/internal/config"
	"github.com/fedichess/fedichess-go/internal/errors"
	"github.com/fedichess/fedichess-go/internal/message"
	"github.com/fedichess/fedichess-go/internal/protocol"
	"github.com/fedichess/fedichess-go/internal/subprocess"
)

// DefaultPollInterval is how long PollEvents sleeps when the queue is empty.
const DefaultPollInterval = 50 * time.Millisecond

// Client implements the FediChess client interface.
type Client struct {
	log        *slog.Logger
	transport  config.Transport
	dispatcher *protocol.Dispatcher
	options    *config.Options

	// Errgroup for goroutine management
	eg *errgroup.Group

	// Lifecycle management
	mu        sync.Mutex
	done      chan struct{}
	doneOnce  sync.Once
	started   bool
	closed    bool      // Tracks if Close() has been called
	closeOnce sync.Once // Ensures Close() only runs once
}

// New creates a new client.
//
// The bridge is not spawned after creation. Call Start() with options to
// launch it.
func New() *Client {
	return &Client{
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		done: make(chan struct{}),
	}
}

// Start launches the bridge and begins dispatching its output.
//
// When neither a transport nor a bridge path is configured, the bridge is
// located with the default discovery order. The returned client stays usable
// after ctx is done; only Close stops it.
//
// Returns BridgeNotFoundError if discovery fails and SpawnError if the
// process cannot be started.
func (c *Client) Start(ctx context.Context, options *config.Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.ErrClientClosed
	}

	if c.started {
		return errors.ErrClientAlreadyStarted
	}

	// Default to empty options if nil
	if options == nil {
		options = &config.Options{}
	}

	opts := *options

	// Extract logger from options, defaulting to a no-op logger
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c.log = log.With("component", "client")

	// Create or use injected transport
	var transport config.Transport

	if opts.Transport != nil {
		transport = opts.Transport

		c.log.Debug("Using injected custom transport")
	} else {
		if opts.BridgePath == "" {
			loc, err := bridge.NewDiscoverer(&bridge.Config{
				Interpreters: opts.Interpreters,
				Logger:       c.log,
			}).Discover(ctx)
			if err != nil {
				return err
			}

			opts.BridgePath = loc.Path

			if opts.Cwd == "" {
				opts.Cwd = loc.Cwd
			}
		}

		transport = subprocess.NewBridgeTransport(c.log, &opts)
	}

	if err := transport.Start(ctx); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}

	c.options = &opts
	c.transport = transport
	c.dispatcher = protocol.NewDispatcher(c.log, transport, opts.RequestIDs)

	// The dispatcher runs on a background context: the caller's ctx may only
	// bound startup, while the client lives until Close.
	var egCtx context.Context

	c.eg, egCtx = errgroup.WithContext(context.Background())

	c.eg.Go(func() error {
		defer c.closeDone()

		return c.dispatcher.Run(egCtx)
	})

	c.started = true
	c.log.Info("Client started successfully")

	return nil
}

func (c *Client) closeDone() {
	c.doneOnce.Do(func() {
		close(c.done)
	})
}

// getDispatcher returns the dispatcher once the client has been started.
func (c *Client) getDispatcher() (*protocol.Dispatcher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil, errors.ErrClientNotStarted
	}

	return c.dispatcher, nil
}

// request sends cmd and decodes the correlated reply.
func (c *Client) request(ctx context.Context, cmd message.Command) (*message.Reply, error) {
	raw, err := c.roundTrip(ctx, cmd)
	if err != nil {
		return nil, err
	}

	reply, err := message.DecodeReply(raw)
	if err != nil {
		c.log.Warn("Failed to decode reply", "cmd", cmd.Cmd, "error", err)

		return nil, &errors.DecodeError{RawData: raw.String(), Err: err}
	}

	return reply, nil
}

func (c *Client) roundTrip(ctx context.Context, cmd message.Command) (message.Raw, error) {
	dispatcher, err := c.getDispatcher()
	if err != nil {
		return nil, err
	}

	return dispatcher.Request(ctx, cmd)
}

// JoinLobby joins the global lobby room.
func (c *Client) JoinLobby(ctx context.Context) (*message.Reply, error) {
	c.log.Info("Joining lobby")

	return c.request(ctx, message.JoinLobby())
}

// LeaveLobby leaves the lobby room.
func (c *Client) LeaveLobby(ctx context.Context) (*message.Reply, error) {
	c.log.Info("Leaving lobby")

	return c.request(ctx, message.LeaveLobby())
}

// JoinGame joins the room of gameID.
func (c *Client) JoinGame(ctx context.Context, gameID string) (*message.Reply, error) {
	c.log.Info("Joining game", "game_id", gameID)

	return c.request(ctx, message.JoinGame(gameID))
}

// LeaveGame leaves the current game room.
func (c *Client) LeaveGame(ctx context.Context) (*message.Reply, error) {
	c.log.Info("Leaving game")

	return c.request(ctx, message.LeaveGame())
}

// Send broadcasts action with payload to the current room.
func (c *Client) Send(ctx context.Context, action string, payload any) (*message.Reply, error) {
	return c.SendTo(ctx, "", action, payload)
}

// SendTo sends action with payload to one peer. An empty peerID broadcasts.
func (c *Client) SendTo(ctx context.Context, peerID string, action string, payload any) (*message.Reply, error) {
	cmd, err := message.Send(action, payload, peerID)
	if err != nil {
		return nil, err
	}

	c.log.Debug("Sending action", "action", action, "peer_id", peerID)

	return c.request(ctx, cmd)
}

// GetPeers lists the peers of the current room.
//
// Extraction is lenient: a failed or malformed reply yields an empty list and
// non-string entries are skipped.
func (c *Client) GetPeers(ctx context.Context) ([]string, error) {
	raw, err := c.roundTrip(ctx, message.GetPeers())
	if err != nil {
		return nil, err
	}

	return message.PeersOf(raw), nil
}

// PollEvent removes and returns the oldest queued event without blocking.
// It reports false when the queue is empty or the client was never started.
func (c *Client) PollEvent() (*message.Event, bool) {
	dispatcher, err := c.getDispatcher()
	if err != nil {
		return nil, false
	}

	return dispatcher.Events().Pop()
}

// PollEvents returns an iterator over events as they arrive.
//
// Queued events are yielded immediately; when the queue is empty the
// iterator sleeps for interval (DefaultPollInterval if not positive). It
// stops when ctx is done, or when the bridge output has ended and every
// queued event was yielded.
func (c *Client) PollEvents(ctx context.Context, interval time.Duration) iter.Seq[*message.Event] {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return func(yield func(*message.Event) bool) {
		dispatcher, err := c.getDispatcher()
		if err != nil {
			return
		}

		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			if ev, ok := dispatcher.Events().Pop(); ok {
				if !yield(ev) {
					return
				}

				continue
			}

			select {
			case <-dispatcher.Done():
				// Drain anything routed before the stream ended.
				for ev, ok := dispatcher.Events().Pop(); ok; ev, ok = dispatcher.Events().Pop() {
					if !yield(ev) {
						return
					}
				}

				return
			default:
			}

			timer.Reset(interval)

			select {
			case <-ctx.Done():
				return
			case <-dispatcher.Done():
			case <-timer.C:
			}
		}
	}
}

// Done returns a channel that is closed when the bridge output has ended,
// either because the process exited or because Close was called.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the ClosedError pending requests fail with once the bridge
// output has ended, or nil while it is open.
func (c *Client) Err() error {
	dispatcher, err := c.getDispatcher()
	if err != nil {
		return nil
	}

	return dispatcher.Err()
}

// Pid returns the bridge process id when the default transport is in use.
func (c *Client) Pid() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if bt, ok := c.transport.(*subprocess.BridgeTransport); ok {
		return bt.Pid()
	}

	return 0
}

// Close kills the bridge and waits for the dispatcher to stop.
//
// Requests blocked on a reply fail with ClosedError; later requests fail
// with WriteError. After Close(), the client cannot be restarted. This
// method is safe to call multiple times.
func (c *Client) Close() error {
	var closeErr error

	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		wasStarted := c.started
		c.mu.Unlock()

		if !wasStarted {
			c.closeDone()

			return
		}

		c.log.Info("Closing client")

		// Close transport and capture error
		if c.transport != nil {
			closeErr = c.transport.Close()
		}

		// Wait for the dispatcher; a read error during shutdown is expected.
		if c.eg != nil {
			if err := c.eg.Wait(); err != nil && !stderrors.Is(err, context.Canceled) {
				c.log.Debug("Dispatcher stopped with error during shutdown", "error", err)
			}
		}

		c.log.Info("Client closed")
	})

	return closeErr
}
