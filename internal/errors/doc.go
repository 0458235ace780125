// Package errors defines error types for the FediChess SDK.
//
// This package provides structured error types for each way a bridge
// interaction can fail: spawning the process, writing a command, decoding a
// reply, or losing the output stream. All error types support error
// unwrapping and can be checked using errors.Is, errors.As, and errors.AsType.
package errors
