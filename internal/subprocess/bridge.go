package subprocess

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/fedichess/fedichess-go/internal/bridge"
	"github.com/fedichess/fedichess-go/internal/config"
	"github.com/fedichess/fedichess-go/internal/errors"
	"github.com/fedichess/fedichess-go/internal/message"
)

const (
	// defaultMaxLineSize is the maximum buffer size for reading bridge output lines.
	defaultMaxLineSize = 1024 * 1024 // 1MB

	// initialBufferSize is the reader buffer; longer lines are assembled
	// from several reads.
	initialBufferSize = 64 * 1024

	// writeAbandonTimeout bounds the wait for a write goroutine after stdin
	// was closed under it.
	writeAbandonTimeout = 1 * time.Second

	// readerDrainTimeout bounds how long Close lets the line reader reach EOF
	// after the kill before reaping the process itself.
	readerDrainTimeout = 2 * time.Second
)

// BridgeTransport implements Transport by spawning the bridge as a subprocess.
type BridgeTransport struct {
	log         *slog.Logger
	options     *config.Options
	cmd         *exec.Cmd
	stdin       io.WriteCloser
	stdout      io.ReadCloser
	writeMu     sync.Mutex // Serializes stdin writes
	mu          sync.Mutex // Protects lifecycle fields
	readOnce    sync.Once
	readerDone  chan struct{} // Closed when the line reader exits; nil until ReadMessages
	exited      chan struct{} // Closed once cmd.Wait has returned
	waiting     bool          // Whether some goroutine is inside cmd.Wait
	closing     bool          // Whether Close() has been called (intentional shutdown)
	stdinClosed bool
}

// Compile-time verification that BridgeTransport implements the Transport interface.
var _ config.Transport = (*BridgeTransport)(nil)

// NewBridgeTransport creates a new bridge transport with the given options.
//
// The logger is used for operation tracking and debugging. The bridge is
// not spawned until Start.
func NewBridgeTransport(log *slog.Logger, options *config.Options) *BridgeTransport {
	return &BridgeTransport{
		log:     log.With("component", "bridge_transport"),
		options: options,
	}
}

// Start spawns the bridge subprocess.
//
// Script entry points are launched through their interpreter. Stdin and
// stdout are piped; stderr is attached to the null device and never read.
//
// Returns SpawnError if the pipes cannot be created or the process fails
// to start.
func (t *BridgeTransport) Start(_ context.Context) error {
	t.log.Info("Starting FediChess bridge subprocess", "bridge_path", t.options.BridgePath)

	command, err := bridge.BuildCommand(t.options)
	if err != nil {
		return &errors.SpawnError{Path: t.options.BridgePath, Err: err}
	}

	t.log.Debug("Built bridge command", "name", command.Name, "args", command.Args, "cwd", command.Dir)

	// The process outlives the start context; Close owns its termination.
	//nolint:gosec // G204: Subprocess launching with a caller-provided path is expected
	cmd := exec.Command(command.Name, command.Args...)
	cmd.Dir = command.Dir
	cmd.Env = command.Env
	cmd.Stderr = nil

	stdin, err := cmd.StdinPipe()
	if err != nil {
		t.log.Error("Failed to create stdin pipe", "error", err)

		return &errors.SpawnError{Path: t.options.BridgePath, Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.log.Error("Failed to create stdout pipe", "error", err)

		return &errors.SpawnError{Path: t.options.BridgePath, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		t.log.Error("Failed to start bridge process", "error", err)

		return &errors.SpawnError{Path: t.options.BridgePath, Err: fmt.Errorf("start process: %w", err)}
	}

	t.mu.Lock()
	t.cmd = cmd
	t.stdin = stdin
	t.stdout = stdout
	t.exited = make(chan struct{})
	t.mu.Unlock()

	t.log.Info("FediChess bridge started", "pid", cmd.Process.Pid)

	return nil
}

// ReadMessages starts the line reader goroutine.
//
// Each non-empty line of stdout is trimmed and parsed as a JSON object.
// Lines that fail to parse are logged at debug level and dropped; garbled
// bridge output never stops the loop. The goroutine exits only when stdout
// reaches EOF (normally because the process exited or was killed) or a read
// fails, and closes both channels on exit. Lines longer than MaxLineSize are
// skipped up to the next newline. The process is reaped only after the
// channels are closed, so a bridge that closes stdout but keeps running still
// ends the stream.
func (t *BridgeTransport) ReadMessages() (<-chan message.Raw, <-chan error) {
	messages := make(chan message.Raw)
	errs := make(chan error, 1)

	t.mu.Lock()
	stdout := t.stdout
	t.mu.Unlock()

	if stdout == nil {
		errs <- errors.ErrTransportNotStarted

		close(messages)
		close(errs)

		return messages, errs
	}

	started := false

	t.readOnce.Do(func() {
		started = true
		readerDone := make(chan struct{})

		t.mu.Lock()
		t.readerDone = readerDone
		t.mu.Unlock()

		go func() {
			t.readLoop(stdout, messages, errs)
			close(readerDone)

			// Consumers already saw the stream end. A bridge that closed stdout
			// but keeps running is waited on here until Close kills it.
			t.reap()
		}()
	})

	if !started {
		errs <- fmt.Errorf("read messages: reader already started")

		close(messages)
		close(errs)
	}

	return messages, errs
}

func (t *BridgeTransport) readLoop(stdout io.Reader, messages chan<- message.Raw, errs chan<- error) {
	defer close(messages)
	defer close(errs)
	defer t.log.Debug("Line reader stopped")

	maxLine := t.options.MaxLineSize
	if maxLine <= 0 {
		maxLine = defaultMaxLineSize
	}

	reader := bufio.NewReaderSize(stdout, min(initialBufferSize, maxLine))

	var (
		line      []byte
		oversized bool
		lineCount int
	)

	for {
		chunk, err := reader.ReadSlice('\n')

		if !oversized && len(chunk) > 0 {
			line = append(line, chunk...)

			if len(bytes.TrimRight(line, "\r\n")) > maxLine {
				oversized = true
				line = line[:0]
			}
		}

		switch {
		case err == nil:
			if oversized {
				t.log.Warn("Dropping oversized bridge line", "max_line_size", maxLine)
			} else {
				t.emitLine(line, messages, &lineCount)
			}

			line = line[:0]
			oversized = false

		case stderrors.Is(err, bufio.ErrBufferFull):
			continue

		default:
			// A final line without a newline still counts.
			if oversized {
				t.log.Warn("Dropping oversized bridge line", "max_line_size", maxLine)
			} else {
				t.emitLine(line, messages, &lineCount)
			}

			if !stderrors.Is(err, io.EOF) {
				t.log.Error("Failed to read bridge output", "error", err)

				errs <- fmt.Errorf("read bridge output: %w", err)
			}

			return
		}
	}
}

// emitLine parses one line and forwards it; blank and malformed lines are dropped.
func (t *BridgeTransport) emitLine(line []byte, messages chan<- message.Raw, lineCount *int) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	raw, err := message.ParseLine(line)
	if err != nil {
		t.log.Debug("Dropping malformed bridge line", "error", err, "line", string(line))

		return
	}

	*lineCount++
	t.log.Debug("Received line from bridge", "line_count", *lineCount)

	messages <- raw
}

// reap waits for the process after stdout has ended and the channels are closed.
func (t *BridgeTransport) reap() {
	t.mu.Lock()
	cmd := t.cmd
	exited := t.exited
	t.mu.Unlock()

	if cmd == nil {
		return
	}

	t.waitOnce(cmd, exited)
}

// waitOnce calls cmd.Wait exactly once across the reader and Close; later
// callers block until the first one returns.
func (t *BridgeTransport) waitOnce(cmd *exec.Cmd, exited chan struct{}) {
	t.mu.Lock()

	if t.waiting {
		t.mu.Unlock()
		<-exited

		return
	}

	t.waiting = true
	t.mu.Unlock()

	err := cmd.Wait()

	t.mu.Lock()
	closing := t.closing
	t.mu.Unlock()

	close(exited)

	switch {
	case closing:
		t.log.Debug("Bridge process terminated during shutdown")
	case err != nil:
		exitCode := -1
		if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
			exitCode = exitErr.ExitCode()
		}

		t.log.Warn("Bridge process exited with error", "exit_code", exitCode, "error", err)
	default:
		t.log.Info("Bridge process exited")
	}
}

// SendMessage writes one JSON line to the bridge stdin.
//
// A newline is appended when missing. Writes are serialized. If ctx is
// cancelled while a write is blocked on a full pipe, stdin is closed to
// unblock it and the transport stops accepting writes. Once Close has been
// called every write fails with a WriteError wrapping ErrStdinClosed.
func (t *BridgeTransport) SendMessage(ctx context.Context, data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	stdin := t.stdin
	stdinClosed := t.stdinClosed
	t.mu.Unlock()

	if stdinClosed {
		return &errors.WriteError{Err: errors.ErrStdinClosed}
	}

	if stdin == nil {
		return &errors.WriteError{Err: errors.ErrTransportNotStarted}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Use explicit copy to avoid mutating caller's backing array if slice has spare capacity
	if len(data) == 0 || data[len(data)-1] != '\n' {
		line := make([]byte, len(data)+1)
		copy(line, data)
		line[len(data)] = '\n'
		data = line
	}

	t.log.Debug("Sending line to bridge", "data_len", len(data))

	// Write in goroutine to respect context cancellation
	done := make(chan error, 1)

	go func() {
		_, err := stdin.Write(data)
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			return nil
		}

		t.mu.Lock()
		closed := t.stdinClosed
		t.mu.Unlock()

		if closed {
			return &errors.WriteError{Err: errors.ErrStdinClosed}
		}

		t.log.Error("Failed to write line to bridge", "error", err)

		return &errors.WriteError{Err: err}

	case <-ctx.Done():
		t.log.Debug("Context cancelled during write, closing stdin")

		t.mu.Lock()
		t.stdinClosed = true
		t.mu.Unlock()

		// Close stdin to unblock the blocked Write
		_ = stdin.Close()

		select {
		case <-done:
		case <-time.After(writeAbandonTimeout):
			t.log.Warn("Write goroutine did not exit after stdin close, potential leak")
		}

		return ctx.Err()
	}
}

// IsReady checks if the transport is ready for communication.
//
// Returns true if the bridge process is running and stdin is open.
func (t *BridgeTransport) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.cmd != nil && t.stdin != nil && !t.stdinClosed && !isClosed(t.exited)
}

// Pid returns the bridge process id, or 0 before Start.
func (t *BridgeTransport) Pid() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cmd == nil || t.cmd.Process == nil {
		return 0
	}

	return t.cmd.Process.Pid
}

// Close terminates the bridge process.
//
// This forcefully kills the process using SIGKILL, waits for it to exit and
// releases the pipes. It's safe to call Close multiple times, concurrently
// with SendMessage, or on a process that already exited.
func (t *BridgeTransport) Close() error {
	t.mu.Lock()

	if t.closing {
		t.mu.Unlock()

		return nil
	}

	t.closing = true
	t.stdinClosed = true
	cmd := t.cmd
	exited := t.exited
	stdin := t.stdin
	readerDone := t.readerDone
	t.mu.Unlock()

	if cmd == nil {
		return nil
	}

	if stdin != nil {
		_ = stdin.Close()
	}

	var killErr error

	if !isClosed(exited) {
		t.log.Debug("Killing bridge process", "pid", cmd.Process.Pid)

		if err := cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
			killErr = fmt.Errorf("kill bridge process (pid %d): %w", cmd.Process.Pid, err)
		}
	}

	// Let the reader drain to EOF and reap the process; cmd.Wait closes
	// stdout, so reaping first would cut the reader off mid-read.
	if readerDone != nil {
		select {
		case <-readerDone:
		case <-time.After(readerDrainTimeout):
			t.log.Warn("Line reader still running after kill, reaping bridge process")
		}
	}

	t.waitOnce(cmd, exited)

	t.log.Info("FediChess bridge stopped", "pid", cmd.Process.Pid)

	return killErr
}

func isClosed(ch chan struct{}) bool {
	if ch == nil {
		return false
	}

	select {
	case <-ch:
		return true
	default:
		return false
	}
}
