package bridge

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fedichess/fedichess-go/internal/config"
	"github.com/fedichess/fedichess-go/internal/errors"
)

func writeFile(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("// bridge\n"), 0o755))
}

// TestDiscoverer_NotFound tests that an invalid explicit path returns BridgeNotFoundError.
func TestDiscoverer_NotFound(t *testing.T) {
	discoverer := NewDiscoverer(&Config{
		BridgePath: "/nonexistent/path/to/index.js",
		Logger:     slog.Default(),
	})

	_, err := discoverer.Discover(context.Background())

	require.Error(t, err)
	require.IsType(t, &errors.BridgeNotFoundError{}, err)
}

// TestDiscoverer_ExplicitPath tests discovery with an explicit script path.
func TestDiscoverer_ExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	script := filepath.Join(tmpDir, "bridge", "dist", "index.js")
	writeFile(t, script)

	loc, err := NewDiscoverer(&Config{BridgePath: script}).Discover(context.Background())

	require.NoError(t, err)
	require.Equal(t, script, loc.Path)
	require.Equal(t, filepath.Join(tmpDir, "bridge"), loc.Cwd)
}

// TestDiscoverer_ExplicitExecutable tests that executables get no suggested cwd.
func TestDiscoverer_ExplicitExecutable(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "fedichess-bridge")
	writeFile(t, exe)

	loc, err := NewDiscoverer(&Config{BridgePath: exe}).Discover(context.Background())

	require.NoError(t, err)
	require.Equal(t, exe, loc.Path)
	require.Empty(t, loc.Cwd)
}

// TestDiscoverer_EnvVar tests the FEDICHESS_BRIDGE override.
func TestDiscoverer_EnvVar(t *testing.T) {
	script := filepath.Join(t.TempDir(), "custom", "dist", "index.js")
	writeFile(t, script)
	t.Setenv(EnvBridgePath, script)

	loc, err := NewDiscoverer(&Config{SearchDir: t.TempDir()}).Discover(context.Background())

	require.NoError(t, err)
	require.Equal(t, script, loc.Path)
}

// TestDiscoverer_Checkout tests the upward search for a bridge checkout.
func TestDiscoverer_Checkout(t *testing.T) {
	t.Setenv(EnvBridgePath, "")

	root := t.TempDir()
	script := filepath.Join(root, "sdks", "bridge", "dist", "index.js")
	writeFile(t, script)

	nested := filepath.Join(root, "sdks", "go", "examples")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	loc, err := NewDiscoverer(&Config{SearchDir: nested}).Discover(context.Background())

	require.NoError(t, err)
	require.Equal(t, script, loc.Path)
	require.Equal(t, filepath.Join(root, "sdks", "bridge"), loc.Cwd)
}

// TestDiscoverer_ReportsSearchedPaths tests the error when nothing is found.
func TestDiscoverer_ReportsSearchedPaths(t *testing.T) {
	t.Setenv(EnvBridgePath, "")
	t.Setenv("PATH", t.TempDir())

	dir := t.TempDir()

	_, err := NewDiscoverer(&Config{SearchDir: dir}).Discover(context.Background())

	notFound, ok := err.(*errors.BridgeNotFoundError)
	require.True(t, ok, "expected BridgeNotFoundError, got %v", err)
	require.Contains(t, notFound.SearchedPaths, filepath.Join(dir, "bridge", "dist", "index.js"))
	require.Contains(t, notFound.SearchedPaths, "$PATH/"+ExecutableName)
}

func TestBuildCommand_Script(t *testing.T) {
	cmd, err := BuildCommand(&config.Options{
		BridgePath: "/opt/fedichess/bridge/dist/index.js",
		Cwd:        "/opt/fedichess/bridge",
	})

	require.NoError(t, err)
	require.Equal(t, "node", cmd.Name)
	require.Equal(t, []string{"/opt/fedichess/bridge/dist/index.js"}, cmd.Args)
	require.Equal(t, "/opt/fedichess/bridge", cmd.Dir)
}

func TestBuildCommand_Executable(t *testing.T) {
	cmd, err := BuildCommand(&config.Options{BridgePath: "/usr/local/bin/fedichess-bridge"})

	require.NoError(t, err)
	require.Equal(t, "/usr/local/bin/fedichess-bridge", cmd.Name)
	require.Empty(t, cmd.Args)
	require.Empty(t, cmd.Dir)
}

func TestBuildCommand_EmptyPath(t *testing.T) {
	_, err := BuildCommand(&config.Options{})
	require.Error(t, err)
}

func TestInterpreter(t *testing.T) {
	tests := []struct {
		path      string
		overrides map[string]string
		want      string
		wantOK    bool
	}{
		{path: "dist/index.js", want: "node", wantOK: true},
		{path: "dist/INDEX.JS", want: "node", wantOK: true},
		{path: "dist/index.mjs", want: "node", wantOK: true},
		{path: "bridge.py", want: "python3", wantOK: true},
		{path: "fake.sh", want: "sh", wantOK: true},
		{path: "fedichess-bridge"},
		{path: "bridge.exe"},
		{path: "index.js", overrides: map[string]string{".js": "bun"}, want: "bun", wantOK: true},
		{path: "index.js", overrides: map[string]string{".js": ""}},
		{path: "bridge.ts", overrides: map[string]string{".ts": "deno"}, want: "deno", wantOK: true},
	}

	for _, tt := range tests {
		got, ok := Interpreter(tt.path, tt.overrides)
		require.Equal(t, tt.wantOK, ok, tt.path)
		require.Equal(t, tt.want, got, tt.path)
	}
}

func TestBuildEnvironment(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("environment layout differs on Windows")
	}

	t.Setenv("FEDICHESS_TEST_PARENT", "1")

	env := BuildEnvironment(&config.Options{
		Env: map[string]string{
			"P2P_TRACKERS": "wss://tracker.example",
			"A_FIRST":      "x",
		},
	})

	require.Contains(t, env, "FEDICHESS_TEST_PARENT=1")

	trackers := slices.Index(env, "P2P_TRACKERS=wss://tracker.example")
	first := slices.Index(env, "A_FIRST=x")
	require.NotEqual(t, -1, trackers)
	require.NotEqual(t, -1, first)
	require.Less(t, first, trackers, "extra variables are appended in key order")
}
