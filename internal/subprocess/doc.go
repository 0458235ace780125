// Package subprocess provides the subprocess-based transport for the
// FediChess bridge.
//
// This package implements the Transport interface by spawning the bridge as
// a child process and communicating via stdin/stdout. It owns the process
// lifecycle (spawn, kill, reap), serializes writes, and runs the line reader
// goroutine that turns stdout into parsed JSON objects.
package subprocess
