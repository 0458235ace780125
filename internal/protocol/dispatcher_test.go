package protocol

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedichess/fedichess-go/internal/errors"
	"github.com/fedichess/fedichess-go/internal/message"
)

// mockTransport implements Transport for testing.
type mockTransport struct {
	mu       sync.Mutex
	sent     [][]byte
	msgChan  chan message.Raw
	errChan  chan error
	respond  func(id string) []string
	sendErr  error
	finished bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		sent:    make([][]byte, 0, 10),
		msgChan: make(chan message.Raw, 100),
		errChan: make(chan error, 1),
	}
}

// withEcho makes the transport answer every command with lines built from its id.
func (m *mockTransport) withEcho(respond func(id string) []string) *mockTransport {
	m.respond = respond

	return m
}

func (m *mockTransport) ReadMessages() (<-chan message.Raw, <-chan error) {
	return m.msgChan, m.errChan
}

func (m *mockTransport) SendMessage(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendErr != nil {
		return m.sendErr
	}

	m.sent = append(m.sent, data)

	if m.respond != nil {
		var cmd struct {
			ID string `json:"id"`
		}

		if err := json.Unmarshal(data, &cmd); err == nil {
			for _, line := range m.respond(cmd.ID) {
				m.pushLocked(line)
			}
		}
	}

	return nil
}

func (m *mockTransport) push(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pushLocked(line)
}

func (m *mockTransport) pushLocked(line string) {
	if m.finished {
		return
	}

	raw, err := message.ParseLine([]byte(line))
	if err != nil {
		panic(fmt.Sprintf("bad test line %q: %v", line, err))
	}

	m.msgChan <- raw
}

// finish ends the output stream the way the bridge reader does.
func (m *mockTransport) finish(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finished {
		return
	}

	m.finished = true

	if err != nil {
		m.errChan <- err
	}

	close(m.errChan)
	close(m.msgChan)
}

func (m *mockTransport) sentLines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines := make([]string, len(m.sent))
	for i, data := range m.sent {
		lines[i] = string(data)
	}

	return lines
}

func okReply(id string) []string {
	return []string{fmt.Sprintf(`{"ok":true,"id":%q}`, id)}
}

func startDispatcher(t *testing.T, transport *mockTransport) *Dispatcher {
	t.Helper()

	d := NewDispatcher(slog.Default(), transport, nil)

	runErr := make(chan error, 1)

	go func() {
		runErr <- d.Run(context.Background())
	}()

	t.Cleanup(func() {
		transport.finish(nil)

		select {
		case <-runErr:
		case <-time.After(5 * time.Second):
			t.Error("dispatcher did not stop")
		}
	})

	return d
}

func replyID(t *testing.T, raw message.Raw) string {
	t.Helper()

	id, ok := raw.RequestID()
	require.True(t, ok)

	return id
}

func TestDispatcher_SerialRequests(t *testing.T) {
	transport := newMockTransport().withEcho(okReply)
	d := startDispatcher(t, transport)

	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		raw, err := d.Request(ctx, message.JoinLobby())
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("req-%d", i), replyID(t, raw))
	}

	lines := transport.sentLines()
	require.Len(t, lines, 3)
	require.JSONEq(t, `{"cmd":"joinLobby","id":"req-1"}`, lines[0])
	require.Zero(t, d.Pending())
}

func TestDispatcher_ConcurrentRequestsGetOwnReplies(t *testing.T) {
	transport := newMockTransport().withEcho(func(id string) []string {
		return []string{fmt.Sprintf(`{"ok":true,"peers":[%q],"id":%q}`, id, id)}
	})
	d := startDispatcher(t, transport)

	var wg sync.WaitGroup

	for range 50 {
		wg.Go(func() {
			raw, err := d.Request(context.Background(), message.GetPeers())
			if !assert.NoError(t, err) {
				return
			}

			id, _ := raw.RequestID()
			assert.Equal(t, []string{id}, message.PeersOf(raw))
		})
	}

	wg.Wait()
	require.Zero(t, d.Pending())
}

func TestDispatcher_ReplyWithoutIDNeverSatisfiesWait(t *testing.T) {
	transport := newMockTransport().withEcho(func(id string) []string {
		return []string{
			`{"ok":false,"error":"Invalid JSON"}`,
			`{"ok":false,"id":42}`,
			`{"ok":false,"id":"req-999"}`,
			fmt.Sprintf(`{"ok":true,"id":%q}`, id),
		}
	})
	d := startDispatcher(t, transport)

	raw, err := d.Request(context.Background(), message.LeaveLobby())
	require.NoError(t, err)

	reply, err := message.DecodeReply(raw)
	require.NoError(t, err)
	require.True(t, reply.OK)
	require.Equal(t, "req-1", reply.ID)
}

func TestDispatcher_EventsAreQueuedNotReplies(t *testing.T) {
	transport := newMockTransport().withEcho(func(id string) []string {
		return []string{
			`{"event":"challResp","peerId":"p2","payload":{"accepted":true},"id":"` + id + `"}`,
			`{"event":42}`,
			`{"event":"heartbeat"}`,
			fmt.Sprintf(`{"ok":true,"id":%q}`, id),
		}
	})
	d := startDispatcher(t, transport)

	send, err := message.Send("challenge", map[string]any{"gameId": "g1"}, "p2")
	require.NoError(t, err)

	raw, err := d.Request(context.Background(), send)
	require.NoError(t, err)
	require.False(t, raw.IsEvent())

	require.Eventually(t, func() bool { return d.Events().Len() == 2 }, time.Second, time.Millisecond)

	first, ok := d.Events().Pop()
	require.True(t, ok)
	require.Equal(t, message.EventChallResp, first.Name)
	require.Equal(t, "p2", first.PeerID)

	second, ok := d.Events().Pop()
	require.True(t, ok)
	require.Equal(t, message.EventHeartbeat, second.Name)
	require.Nil(t, second.Payload)
}

func TestDispatcher_StreamEndFailsPendingAndLaterRequests(t *testing.T) {
	transport := newMockTransport()
	d := startDispatcher(t, transport)

	result := make(chan error, 1)

	go func() {
		_, err := d.Request(context.Background(), message.GetPeers())
		result <- err
	}()

	require.Eventually(t, func() bool { return d.Pending() == 1 }, time.Second, time.Millisecond)

	transport.finish(nil)

	select {
	case err := <-result:
		var closedErr *errors.ClosedError
		require.ErrorAs(t, err, &closedErr)
		require.ErrorIs(t, err, errors.ErrConnectionClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("pending request was not failed")
	}

	<-d.Done()
	require.Zero(t, d.Pending())

	_, err := d.Request(context.Background(), message.JoinLobby())
	require.ErrorIs(t, err, errors.ErrConnectionClosed)
}

func TestDispatcher_ReadErrorBecomesClosureCause(t *testing.T) {
	transport := newMockTransport()
	d := NewDispatcher(slog.Default(), transport, nil)

	readErr := stderrors.New("bufio.Scanner: token too long")
	transport.finish(readErr)

	err := d.Run(context.Background())
	require.ErrorIs(t, err, readErr)

	require.ErrorIs(t, d.Err(), errors.ErrConnectionClosed)
	require.ErrorIs(t, d.Err(), readErr)
}

func TestDispatcher_ContextCancellation(t *testing.T) {
	transport := newMockTransport()
	d := startDispatcher(t, transport)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.Request(ctx, message.LeaveGame())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Zero(t, d.Pending())

	// A late reply for the abandoned id is dropped without blocking the loop.
	transport.push(`{"ok":true,"id":"req-1"}`)
	transport.push(`{"event":"sync"}`)
	require.Eventually(t, func() bool { return d.Events().Len() == 1 }, time.Second, time.Millisecond)
}

func TestDispatcher_WriteError(t *testing.T) {
	transport := newMockTransport()
	transport.sendErr = &errors.WriteError{Err: errors.ErrStdinClosed}
	d := startDispatcher(t, transport)

	_, err := d.Request(context.Background(), message.JoinGame("g1"))

	var writeErr *errors.WriteError
	require.ErrorAs(t, err, &writeErr)
	require.ErrorIs(t, err, errors.ErrStdinClosed)
	require.Zero(t, d.Pending())
}

func TestDispatcher_CustomIDs(t *testing.T) {
	transport := newMockTransport().withEcho(okReply)
	d := NewDispatcher(slog.Default(), transport, func() string { return "fixed" })

	go func() { _ = d.Run(context.Background()) }()

	defer transport.finish(nil)

	raw, err := d.Request(context.Background(), message.JoinLobby())
	require.NoError(t, err)
	require.Equal(t, "fixed", replyID(t, raw))
}

func TestDispatcher_RunStopsOnContext(t *testing.T) {
	transport := newMockTransport()
	d := NewDispatcher(slog.Default(), transport, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	select {
	case <-d.Done():
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestDispatcher_ShutdownRacesWithReplies(t *testing.T) {
	// Run with: go test -race -count=10 -run TestDispatcher_ShutdownRacesWithReplies
	for range 100 {
		transport := newMockTransport().withEcho(okReply)
		d := NewDispatcher(slog.Default(), transport, nil)

		go func() { _ = d.Run(context.Background()) }()

		var wg sync.WaitGroup

		wg.Go(func() {
			_, err := d.Request(context.Background(), message.GetPeers())
			if err != nil {
				assert.ErrorIs(t, err, errors.ErrConnectionClosed)
			}
		})

		wg.Go(func() {
			transport.finish(nil)
		})

		wg.Wait()
		<-d.Done()
	}
}
