// Command fedichess-mcp serves a FediChess bridge to MCP hosts over stdio.
//
// The process spawns one bridge, exposes its commands as MCP tools and runs
// until the host disconnects or a termination signal arrives. Stdout carries
// the MCP protocol, so logs go to a rotating file instead.
//
// Usage:
//
//	fedichess-mcp [-bridge path] [-trackers url,url] [-log path] [-debug]
//	fedichess-mcp -print-config
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/natefinch/lumberjack.v2"

	fedichess "github.com/fedichess/fedichess-go"
)

const (
	envLogPath = "FEDICHESS_MCP_LOG"
	envBridge  = "FEDICHESS_BRIDGE"
	envTracker = "P2P_TRACKERS"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type flags struct {
	bridge      string
	trackers    string
	logPath     string
	debug       bool
	printConfig bool
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}

	fs := flag.NewFlagSet("fedichess-mcp", flag.ContinueOnError)
	fs.StringVar(&f.bridge, "bridge", "", "bridge entry point (default: discovered)")
	fs.StringVar(&f.trackers, "trackers", "", "comma-separated WebSocket tracker URLs")
	fs.StringVar(&f.logPath, "log", "", "log file (default: $"+envLogPath+" or the XDG state dir)")
	fs.BoolVar(&f.debug, "debug", false, "log bridge traffic")
	fs.BoolVar(&f.printConfig, "print-config", false, "print an mcpServers entry for this binary and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return f, nil
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}

	if err != nil {
		os.Exit(2)
	}

	if f.printConfig {
		if err := printConfig(os.Stdout, f); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		return
	}

	if err := run(context.Background(), f); err != nil {
		fmt.Fprintln(os.Stderr, "fedichess-mcp:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f *flags) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logFile, err := openLog(f.logPath)
	if err != nil {
		return err
	}
	defer logFile.Close()

	level := slog.LevelInfo
	if f.debug {
		level = slog.LevelDebug
	}

	log := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level}))

	opts := []fedichess.Option{fedichess.WithLogger(log)}

	if f.bridge != "" {
		opts = append(opts, fedichess.WithBridgePath(f.bridge))
	}

	if urls := splitList(f.trackers); len(urls) > 0 {
		opts = append(opts, fedichess.WithTrackers(urls...))
	}

	client := fedichess.NewClient()
	defer client.Close()

	if err := client.Start(ctx, opts...); err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}

	// Stop serving when the bridge dies; every tool would fail from then on.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-client.Done():
			log.Warn("Bridge output ended", "error", client.Err())
			cancel()
		case <-ctx.Done():
		}
	}()

	server := fedichess.NewMCPServer(client, version, log)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}

// openLog returns the rotating log sink. An explicit path wins over the
// environment, which wins over the XDG state directory.
func openLog(path string) (io.WriteCloser, error) {
	if path == "" {
		path = os.Getenv(envLogPath)
	}

	if path == "" {
		var err error

		path, err = xdg.StateFile(filepath.Join("fedichess", "mcp.log"))
		if err != nil {
			return nil, fmt.Errorf("resolve log path: %w", err)
		}
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}, nil
}

// printConfig writes a host configuration that launches this executable
// with the current bridge and tracker settings.
func printConfig(w io.Writer, f *flags) error {
	command, err := os.Executable()
	if err != nil {
		command = "fedichess-mcp"
	}

	bridge := f.bridge
	if bridge == "" {
		bridge = os.Getenv(envBridge)
	}

	if bridge != "" {
		if abs, err := filepath.Abs(bridge); err == nil {
			bridge = abs
		}
	}

	trackers := f.trackers
	if trackers == "" {
		trackers = os.Getenv(envTracker)
	}

	data, err := fedichess.NewMCPHostConfig(command, nil, map[string]string{
		envBridge:  bridge,
		envTracker: strings.Join(splitList(trackers), ","),
	}).Marshal()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string

	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
