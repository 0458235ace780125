package subprocess

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fedichess/fedichess-go/internal/config"
	"github.com/fedichess/fedichess-go/internal/message"
)

// mockChunkReader delivers data in controlled chunks to simulate various buffering scenarios.
type mockChunkReader struct {
	chunks [][]byte
	index  int
}

func newMockChunkReader(chunks ...string) *mockChunkReader {
	byteChunks := make([][]byte, len(chunks))
	for i, chunk := range chunks {
		byteChunks[i] = []byte(chunk)
	}

	return &mockChunkReader{chunks: byteChunks}
}

func (r *mockChunkReader) Read(p []byte) (int, error) {
	if r.index >= len(r.chunks) {
		return 0, io.EOF
	}

	chunk := r.chunks[r.index]

	n := copy(p, chunk)
	if n < len(chunk) {
		// Keep the remainder for the next read when p is smaller than the chunk.
		r.chunks[r.index] = chunk[n:]
	} else {
		r.index++
	}

	return n, nil
}

// readAll runs the line reader over r and collects everything it emits.
func readAll(t *testing.T, r io.Reader, options *config.Options) ([]message.Raw, []error) {
	t.Helper()

	if options == nil {
		options = &config.Options{}
	}

	transport := NewBridgeTransport(slog.Default(), options)
	messages := make(chan message.Raw)
	errs := make(chan error, 1)

	go transport.readLoop(r, messages, errs)

	var got []message.Raw
	for msg := range messages {
		got = append(got, msg)
	}

	var gotErrs []error
	for err := range errs {
		gotErrs = append(gotErrs, err)
	}

	return got, gotErrs
}

func field(t *testing.T, raw message.Raw, key string) string {
	t.Helper()

	var v string
	require.NoError(t, json.Unmarshal(raw[key], &v))

	return v
}

// TestMultipleJSONObjectsInOneRead tests parsing when several lines arrive in a single read.
func TestMultipleJSONObjectsInOneRead(t *testing.T) {
	reader := newMockChunkReader(
		`{"ok":true,"id":"req-1"}` + "\n" + `{"event":"heartbeat","peerId":"p1"}` + "\n",
	)

	messages, errs := readAll(t, reader, nil)

	require.Empty(t, errs)
	require.Len(t, messages, 2)
	require.Equal(t, "req-1", field(t, messages[0], "id"))
	require.Equal(t, "heartbeat", field(t, messages[1], "event"))
}

// TestJSONWithEmbeddedNewlines tests that escaped newlines inside strings do not split lines.
func TestJSONWithEmbeddedNewlines(t *testing.T) {
	line, err := json.Marshal(map[string]any{
		"event":   "chat",
		"payload": map[string]any{"text": "Line 1\nLine 2\nLine 3"},
	})
	require.NoError(t, err)

	messages, errs := readAll(t, newMockChunkReader(string(line)+"\n"), nil)

	require.Empty(t, errs)
	require.Len(t, messages, 1)

	var payload struct {
		Text string `json:"text"`
	}

	require.NoError(t, json.Unmarshal(messages[0]["payload"], &payload))
	require.Equal(t, "Line 1\nLine 2\nLine 3", payload.Text)
}

// TestBlankAndWhitespaceLinesSkipped tests that empty lines and surrounding whitespace are ignored.
func TestBlankAndWhitespaceLinesSkipped(t *testing.T) {
	reader := newMockChunkReader(
		"\n\n   \t\n" + `   {"ok":true,"id":"req-1"}   ` + "\r\n\n" + `{"ok":false,"id":"req-2"}`,
	)

	messages, errs := readAll(t, reader, nil)

	require.Empty(t, errs)
	require.Len(t, messages, 2)
	require.Equal(t, "req-1", field(t, messages[0], "id"))
	require.Equal(t, "req-2", field(t, messages[1], "id"), "final line without newline is still read")
}

// TestMalformedLinesDropped tests that garbage between valid lines never stops the reader.
func TestMalformedLinesDropped(t *testing.T) {
	reader := newMockChunkReader(
		"wrtc not available; WebRTC may not work in Node\n",
		`{"ok":true,`+"\n",
		`["not","an","object"]`+"\n",
		"null\n",
		`{"event":"peerJoin","peerId":"p9","payload":null}`+"\n",
	)

	messages, errs := readAll(t, reader, nil)

	require.Empty(t, errs)
	require.Len(t, messages, 1)
	require.Equal(t, "peerJoin", field(t, messages[0], "event"))
}

// TestSplitJSONAcrossMultipleReads tests a single line split across reads.
func TestSplitJSONAcrossMultipleReads(t *testing.T) {
	line, err := json.Marshal(map[string]any{
		"event":   "history",
		"peerId":  "p3",
		"payload": map[string]any{"moves": strings.Repeat("e4 e5 ", 200)},
	})
	require.NoError(t, err)

	line = append(line, '\n')

	reader := newMockChunkReader(string(line[:100]), string(line[100:250]), string(line[250:]))
	messages, errs := readAll(t, reader, nil)

	require.Empty(t, errs)
	require.Len(t, messages, 1)
	require.Equal(t, "p3", field(t, messages[0], "peerId"))
}

// TestLargeLineAcrossChunks tests a line larger than the initial scanner buffer.
func TestLargeLineAcrossChunks(t *testing.T) {
	moves := make([]string, 5000)
	for i := range moves {
		moves[i] = strings.Repeat("x", 40)
	}

	line, err := json.Marshal(map[string]any{"event": "histSync", "payload": moves})
	require.NoError(t, err)

	line = append(line, '\n')

	chunkSize := 64 * 1024

	var chunks []string

	for i := 0; i < len(line); i += chunkSize {
		end := min(i+chunkSize, len(line))
		chunks = append(chunks, string(line[i:end]))
	}

	messages, errs := readAll(t, newMockChunkReader(chunks...), nil)

	require.Empty(t, errs)
	require.Len(t, messages, 1)

	var payload []string
	require.NoError(t, json.Unmarshal(messages[0]["payload"], &payload))
	require.Len(t, payload, 5000)
}

// TestLineExceedsMaxLineSize tests that an oversized line is skipped and
// reading continues with the next line.
func TestLineExceedsMaxLineSize(t *testing.T) {
	reader := newMockChunkReader(
		`{"ok":true,"id":"req-1"}`+"\n",
		`{"event":"sync","payload":"`+strings.Repeat("x", 4096)+`"}`+"\n",
		`{"ok":true,"id":"req-2"}`+"\n",
	)

	messages, errs := readAll(t, reader, &config.Options{MaxLineSize: 1024})

	require.Empty(t, errs)
	require.Len(t, messages, 2)
	require.Equal(t, "req-1", field(t, messages[0], "id"))
	require.Equal(t, "req-2", field(t, messages[1], "id"))
}

// TestOversizedLineAcrossChunks tests skipping a line that spans many reads,
// with the next line starting in the same chunk the oversized one ends in.
func TestOversizedLineAcrossChunks(t *testing.T) {
	noise := strings.Repeat("n", 300_000)

	reader := newMockChunkReader(
		noise[:100_000],
		noise[100_000:200_000],
		noise[200_000:]+"\n"+`{"ok":true,"id":"req-1"}`,
		"\n",
	)

	messages, errs := readAll(t, reader, &config.Options{MaxLineSize: 64 * 1024})

	require.Empty(t, errs)
	require.Len(t, messages, 1)
	require.Equal(t, "req-1", field(t, messages[0], "id"))
}

// TestMaxLineSizeBoundary tests that a line of exactly MaxLineSize bytes is accepted.
func TestMaxLineSizeBoundary(t *testing.T) {
	prefix := `{"ok":true,"id":"`
	suffix := `"}`
	id := strings.Repeat("a", 256-len(prefix)-len(suffix))
	exact := prefix + id + suffix

	reader := newMockChunkReader(exact+"\r\n", exact+"b\n")

	messages, errs := readAll(t, reader, &config.Options{MaxLineSize: 256})

	require.Empty(t, errs)
	require.Len(t, messages, 1)
	require.Equal(t, id, field(t, messages[0], "id"))
}

// TestFinalLineWithoutNewline tests that a trailing unterminated line is still parsed.
func TestFinalLineWithoutNewline(t *testing.T) {
	messages, errs := readAll(t, newMockChunkReader(`{"ok":true,"id":"req-9"}`), nil)

	require.Empty(t, errs)
	require.Len(t, messages, 1)
	require.Equal(t, "req-9", field(t, messages[0], "id"))
}

// failingReader returns its data once, then a read error.
type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}

	n := copy(p, r.data)
	r.data = r.data[n:]

	return n, nil
}

// TestReadErrorReported tests that a read failure ends the reader with one error.
func TestReadErrorReported(t *testing.T) {
	reader := &failingReader{
		data: []byte(`{"ok":true,"id":"req-1"}` + "\n"),
		err:  errors.New("pipe broken"),
	}

	messages, errs := readAll(t, reader, nil)

	require.Len(t, messages, 1)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Error(), "read bridge output")
	require.Contains(t, errs[0].Error(), "pipe broken")
}
