// Package client implements the FediChess client facade.
//
// A Client owns one bridge process for its whole lifetime. It issues lobby,
// game and messaging commands, blocks each caller until the bridge replies
// to that command, and queues the events the bridge emits in between so
// callers can poll them at their own pace.
//
// The Client uses the protocol package for reply correlation and runs the
// dispatcher on an errgroup-managed goroutine.
package client
