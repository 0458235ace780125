package fedichess

import (
	"log/slog"

	"github.com/fedichess/fedichess-go/internal/mcp"
)

// MCPServer exposes a client's commands as MCP tools.
type MCPServer = mcp.ToolServer

// MCPHostConfig is the mcpServers entry an MCP host needs to launch a
// FediChess tool server over stdio.
type MCPHostConfig = mcp.HostConfig

// NewMCPServer creates a tool server driving client. The tools are
// join_lobby, leave_lobby, join_game, leave_game, send, get_peers and
// poll_events.
//
// Serve it with Run and an MCP transport, e.g. &mcp.StdioTransport{}:
//
//	server := fedichess.NewMCPServer(client, "1.0.0", log)
//	err := server.Run(ctx, &mcp.StdioTransport{})
func NewMCPServer(client Client, version string, log *slog.Logger) *MCPServer {
	return mcp.NewServer(client, version, log)
}

// NewMCPHostConfig describes how a host launches command as a stdio MCP
// server. Empty env values are omitted.
func NewMCPHostConfig(command string, args []string, env map[string]string) *MCPHostConfig {
	return mcp.NewHostConfig(command, args, env)
}
