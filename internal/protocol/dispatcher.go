package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fedichess/fedichess-go/internal/config"
	"github.com/fedichess/fedichess-go/internal/errors"
	"github.com/fedichess/fedichess-go/internal/message"
)

// Transport defines the minimal interface needed for dispatching.
//
// This interface is satisfied by the BridgeTransport but allows for testing
// with mock transports.
type Transport interface {
	ReadMessages() (<-chan message.Raw, <-chan error)
	SendMessage(ctx context.Context, data []byte) error
}

// Dispatcher routes bridge output to waiting requests and the event queue.
//
// The Dispatcher handles:
//   - Allocating request ids and registering a waiter before each write
//   - Routing replies by id to exactly one waiter
//   - Queueing events in arrival order
//   - Failing every pending and later wait once the bridge output ends
//
// Run must be called once, on its own goroutine, before Request can receive
// replies.
type Dispatcher struct {
	log       *slog.Logger
	transport Transport
	ids       config.RequestIDGenerator
	events    *EventQueue

	// Request tracking
	pendingMu sync.Mutex
	pending   map[string]chan message.Raw

	// Set once when the output stream ends
	errMu     sync.RWMutex
	closedErr error

	closeOnce sync.Once
	done      chan struct{}
}

// NewDispatcher creates a dispatcher reading from and writing to transport.
//
// If ids is nil a counter generator is used.
func NewDispatcher(log *slog.Logger, transport Transport, ids config.RequestIDGenerator) *Dispatcher {
	if ids == nil {
		ids = NewCounterIDs()
	}

	return &Dispatcher{
		log:       log.With("component", "dispatcher"),
		transport: transport,
		ids:       ids,
		events:    NewEventQueue(),
		pending:   make(map[string]chan message.Raw, 4),
		done:      make(chan struct{}),
	}
}

// Events returns the queue that receives every valid event.
func (d *Dispatcher) Events() *EventQueue {
	return d.events
}

// Done returns a channel that is closed when the bridge output has ended.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Err returns the ClosedError that pending and later requests fail with, or
// nil while the output stream is still open.
func (d *Dispatcher) Err() error {
	d.errMu.RLock()
	defer d.errMu.RUnlock()

	return d.closedErr
}

// Pending returns the number of requests waiting for a reply.
func (d *Dispatcher) Pending() int {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()

	return len(d.pending)
}

// Run consumes the transport's output until the stream ends or ctx is done.
//
// A read error reported by the transport does not stop the loop; it becomes
// the cause carried by the ClosedError once the stream closes. Run returns
// that cause.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Debug("Starting dispatcher")

	messages, errs := d.transport.ReadMessages()

	var readErr error

	defer func() {
		d.shutdown(readErr)
	}()

	for {
		select {
		case raw, ok := <-messages:
			if !ok {
				// The reader closes errs before messages; pick up a late error.
				select {
				case err, ok := <-errs:
					if ok && err != nil && readErr == nil {
						readErr = err
					}
				default:
				}

				d.log.Debug("Bridge output ended")

				return readErr
			}

			d.route(raw)

		case err, ok := <-errs:
			if !ok {
				errs = nil

				continue
			}

			if err != nil && readErr == nil {
				d.log.Debug("Transport read error", "error", err)
				readErr = err
			}

		case <-ctx.Done():
			d.log.Debug("Context cancelled in dispatcher")

			readErr = ctx.Err()

			return readErr
		}
	}
}

// Request sends cmd under a fresh id and waits for its reply.
//
// The waiter is registered before the line is written so a fast reply is
// never missed. Returns the write error from the transport, a ClosedError if
// the bridge output ends first, or ctx.Err() on cancellation. A reply that
// reports ok:false is still a reply, not an error.
func (d *Dispatcher) Request(ctx context.Context, cmd message.Command) (message.Raw, error) {
	id := d.ids()

	data, err := message.Encode(cmd, id)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.Cmd, err)
	}

	reply := make(chan message.Raw, 1)

	d.pendingMu.Lock()

	if _, exists := d.pending[id]; exists {
		d.pendingMu.Unlock()

		return nil, fmt.Errorf("request id %q is already pending", id)
	}

	d.pending[id] = reply
	d.pendingMu.Unlock()

	d.log.Debug("Sending command", "cmd", cmd.Cmd, "request_id", id)

	if err := d.transport.SendMessage(ctx, data); err != nil {
		d.forget(id)

		return nil, fmt.Errorf("send %s: %w", cmd.Cmd, err)
	}

	select {
	case raw := <-reply:
		d.log.Debug("Received reply", "cmd", cmd.Cmd, "request_id", id)

		return raw, nil

	case <-d.done:
		// A reply routed just before shutdown still wins.
		select {
		case raw := <-reply:
			return raw, nil
		default:
		}

		d.forget(id)
		d.log.Debug("Bridge output ended while waiting for reply", "request_id", id)

		return nil, d.Err()

	case <-ctx.Done():
		d.forget(id)
		d.log.Debug("Request cancelled", "request_id", id)

		return nil, ctx.Err()
	}
}

// route classifies one parsed line.
func (d *Dispatcher) route(raw message.Raw) {
	if raw.IsEvent() {
		ev, err := message.DecodeEvent(raw)
		if err != nil {
			d.log.Debug("Dropping malformed event", "error", err, "line", raw.String())

			return
		}

		d.events.Push(ev)

		return
	}

	id, ok := raw.RequestID()
	if !ok {
		d.log.Warn("Dropping reply without request id", "line", raw.String())

		return
	}

	// Find and claim the waiter atomically
	d.pendingMu.Lock()

	reply, exists := d.pending[id]
	if exists {
		delete(d.pending, id)
	}

	d.pendingMu.Unlock()

	if !exists {
		d.log.Warn("No pending request for reply", "request_id", id)

		return
	}

	// Buffered with capacity one and claimed above, so this never blocks.
	reply <- raw
}

func (d *Dispatcher) forget(id string) {
	d.pendingMu.Lock()
	delete(d.pending, id)
	d.pendingMu.Unlock()
}

// shutdown records the closure cause and wakes every waiter.
func (d *Dispatcher) shutdown(cause error) {
	d.closeOnce.Do(func() {
		d.errMu.Lock()
		d.closedErr = &errors.ClosedError{Err: cause}
		d.errMu.Unlock()

		d.pendingMu.Lock()
		abandoned := len(d.pending)
		clear(d.pending)
		d.pendingMu.Unlock()

		close(d.done)

		d.log.Info("Dispatcher stopped", "abandoned_requests", abandoned)
	})
}
