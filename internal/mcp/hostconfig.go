package mcp

import (
	"encoding/json"
	"fmt"
)

// ServerType represents how an MCP host talks to a server.
type ServerType string

// ServerTypeStdio uses stdio for communication.
const ServerTypeStdio ServerType = "stdio"

// StdioServerConfig tells an MCP host how to launch a stdio server.
type StdioServerConfig struct {
	Type    ServerType        `json:"type"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// HostConfig is the "mcpServers" document MCP hosts read their server list from.
type HostConfig struct {
	MCPServers map[string]*StdioServerConfig `json:"mcpServers"`
}

// NewHostConfig returns a host configuration registering command under
// ServerName. Empty env values are omitted.
func NewHostConfig(command string, args []string, env map[string]string) *HostConfig {
	cfg := &StdioServerConfig{
		Type:    ServerTypeStdio,
		Command: command,
		Args:    args,
	}

	for k, v := range env {
		if v == "" {
			continue
		}

		if cfg.Env == nil {
			cfg.Env = make(map[string]string, len(env))
		}

		cfg.Env[k] = v
	}

	return &HostConfig{MCPServers: map[string]*StdioServerConfig{ServerName: cfg}}
}

// Marshal renders the configuration as indented JSON.
func (c *HostConfig) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal host config: %w", err)
	}

	return data, nil
}
