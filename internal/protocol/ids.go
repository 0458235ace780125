package protocol

import (
	"strconv"
	"sync/atomic"

	"github.com/oklog/ulid/v2"

	"github.com/fedichess/fedichess-go/internal/config"
)

// requestIDPrefix is prepended to counter-based request ids.
const requestIDPrefix = "req-"

// NewCounterIDs returns a generator producing "req-1", "req-2", ...
//
// Each call creates an independent counter, so ids are unique per generator
// rather than per process.
func NewCounterIDs() config.RequestIDGenerator {
	var next atomic.Uint64

	return func() string {
		return requestIDPrefix + strconv.FormatUint(next.Add(1), 10)
	}
}

// NewULIDIDs returns a generator producing monotonic, lexically ordered ULIDs.
func NewULIDIDs() config.RequestIDGenerator {
	return func() string {
		return ulid.Make().String()
	}
}
