//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	fedichess "github.com/fedichess/fedichess-go"
)

// envPeerTests enables tests that need two bridges to meet through a tracker.
const envPeerTests = "FEDICHESS_PEER_TESTS"

// skipIfBridgeNotInstalled skips the test if the error indicates the bridge is not found.
func skipIfBridgeNotInstalled(t *testing.T, err error) {
	t.Helper()

	if _, ok := errors.AsType[*fedichess.BridgeNotFoundError](err); ok {
		t.Skip("FediChess bridge not installed")
	}
}

// startClient starts a client against the discovered bridge and closes it
// when the test ends.
func startClient(t *testing.T, ctx context.Context, opts ...fedichess.Option) fedichess.Client {
	t.Helper()

	client := fedichess.NewClient()

	if err := client.Start(ctx, opts...); err != nil {
		skipIfBridgeNotInstalled(t, err)
		t.Fatalf("Start failed: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	return client
}

// waitForEvent polls client until an event named name arrives.
func waitForEvent(ctx context.Context, client fedichess.Client, name string) (*fedichess.Event, bool) {
	for ev := range client.PollEvents(ctx, 100*time.Millisecond) {
		if ev.Name == name {
			return ev, true
		}
	}

	return nil, false
}

func requirePeerTests(t *testing.T) {
	t.Helper()

	if os.Getenv(envPeerTests) == "" {
		t.Skipf("set %s=1 to run tests that need tracker connectivity", envPeerTests)
	}
}
