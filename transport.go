package fedichess

import "github.com/fedichess/fedichess-go/internal/config"

// Transport carries newline-delimited JSON between the client and a bridge.
// Use WithTransport to replace the default subprocess transport, e.g. with
// an in-memory fake in tests.
type Transport = config.Transport
