package bridge

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/fedichess/fedichess-go/internal/errors"
)

const (
	// EnvBridgePath overrides discovery with a file path or command name.
	EnvBridgePath = "FEDICHESS_BRIDGE"

	// ExecutableName is the bridge binary looked up on PATH.
	ExecutableName = "fedichess-bridge"

	// maxParentLevels bounds the upward search for a bridge checkout.
	maxParentLevels = 4
)

// entryPoints are bridge scripts relative to a checkout directory.
var entryPoints = []string{
	filepath.Join("bridge", "dist", "index.js"),
	filepath.Join("sdks", "bridge", "dist", "index.js"),
}

// xdgEntryPoint is the bridge script relative to an XDG data directory.
var xdgEntryPoint = filepath.Join("fedichess", "bridge", "dist", "index.js")

// Config holds configuration for bridge discovery.
type Config struct {
	// BridgePath is an explicit path that skips every other search.
	BridgePath string

	// SearchDir is where the upward checkout search begins.
	// If empty, the current working directory is used.
	SearchDir string

	// Interpreters are extension overrides used to decide whether the
	// found path is a script.
	Interpreters map[string]string

	// Logger is an optional logger for discovery operations.
	// If nil, a default no-op logger is used.
	Logger *slog.Logger
}

// Location is a discovered bridge.
type Location struct {
	// Path is the bridge entry point or executable.
	Path string

	// Cwd is the suggested working directory: the bridge package root for
	// scripts (the parent of dist/), empty for executables.
	Cwd string
}

// Discoverer locates the bridge entry point.
type Discoverer interface {
	// Discover returns the bridge location or a BridgeNotFoundError.
	Discover(ctx context.Context) (*Location, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new bridge discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &discoverer{
		cfg: cfg,
		log: log.With("component", "bridge_discovery"),
	}
}

// Discover locates the bridge entry point.
func (d *discoverer) Discover(ctx context.Context) (*Location, error) {
	d.log.Debug("Discovering FediChess bridge")

	if d.cfg.BridgePath != "" {
		d.log.Debug("Using explicit bridge path", "bridge_path", d.cfg.BridgePath)

		if isFile(d.cfg.BridgePath) {
			return d.location(d.cfg.BridgePath), nil
		}

		return nil, &errors.BridgeNotFoundError{SearchedPaths: []string{d.cfg.BridgePath}}
	}

	searched := make([]string, 0, 2*maxParentLevels+4)

	if env := os.Getenv(EnvBridgePath); env != "" {
		searched = append(searched, "$"+EnvBridgePath)

		if isFile(env) {
			d.log.Debug("Found bridge via environment", "path", env)

			return d.location(env), nil
		}

		if path, err := exec.LookPath(env); err == nil {
			d.log.Debug("Found bridge command via environment", "path", path)

			return d.location(path), nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := d.cfg.SearchDir
	if start == "" {
		if wd, err := os.Getwd(); err == nil {
			start = wd
		}
	}

	if start != "" {
		dir := start

		for range maxParentLevels {
			for _, rel := range entryPoints {
				candidate := filepath.Join(dir, rel)
				searched = append(searched, candidate)

				if isFile(candidate) {
					d.log.Debug("Found bridge checkout", "path", candidate)

					return d.location(candidate), nil
				}
			}

			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}

			dir = parent
		}
	}

	searched = append(searched, filepath.Join(xdg.DataHome, xdgEntryPoint))

	if path, err := xdg.SearchDataFile(xdgEntryPoint); err == nil {
		d.log.Debug("Found bridge in XDG data directory", "path", path)

		return d.location(path), nil
	}

	searched = append(searched, "$PATH/"+ExecutableName)

	if path, err := exec.LookPath(ExecutableName); err == nil {
		d.log.Debug("Found bridge executable in PATH", "path", path)

		return d.location(path), nil
	}

	d.log.Warn("FediChess bridge not found in any searched paths", "searched_paths", searched)

	return nil, &errors.BridgeNotFoundError{SearchedPaths: searched}
}

// location builds a Location, suggesting the package root for scripts.
func (d *discoverer) location(path string) *Location {
	loc := &Location{Path: path}

	if IsScript(path, d.cfg.Interpreters) {
		loc.Cwd = filepath.Dir(filepath.Dir(path))
	}

	return loc
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}
