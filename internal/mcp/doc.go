// Package mcp exposes a FediChess client as Model Context Protocol tools.
//
// A ToolServer keeps a thread-safe registry of tools backed by a running
// client: lobby and game membership, sending actions to peers, listing peers
// and draining queued events. The registry can be called directly or served
// to an MCP host through the official go-sdk server, typically over stdio.
package mcp
