package fedichess

import (
	"log/slog"
)

// NopLogger returns the logger a client uses when WithLogger is not given.
// Bridge traffic, lifecycle and dropped-reply records are all discarded.
func NopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
