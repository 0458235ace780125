package mcp

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolServer is a registry of MCP tools that can be invoked directly or
// served through the official MCP SDK server.
type ToolServer struct {
	name    string
	version string
	log     *slog.Logger
	mu      sync.RWMutex
	tools   map[string]*registeredTool
}

// registeredTool holds tool metadata and handler for the registry.
type registeredTool struct {
	tool    *mcp.Tool
	handler mcp.ToolHandler
}

// NewToolServer creates an empty tool server.
func NewToolServer(name, version string, log *slog.Logger) *ToolServer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &ToolServer{
		name:    name,
		version: version,
		log:     log.With("component", "mcp_server"),
		tools:   make(map[string]*registeredTool, 8),
	}
}

// AddTool registers a tool, replacing any tool with the same name.
// A nil input schema is replaced by an empty object schema.
func (s *ToolServer) AddTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	if tool.InputSchema == nil {
		tool.InputSchema = ObjectSchema(nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools[tool.Name] = &registeredTool{
		tool:    tool,
		handler: handler,
	}
}

// Name returns the server name.
func (s *ToolServer) Name() string {
	return s.name
}

// Version returns the server version.
func (s *ToolServer) Version() string {
	return s.version
}

// ListTools returns the registered tools sorted by name.
func (s *ToolServer) ListTools() []*mcp.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]*mcp.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		tools = append(tools, t.tool)
	}

	slices.SortFunc(tools, func(a, b *mcp.Tool) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return tools
}

// CallTool executes a tool by name with the given arguments.
//
// Unknown tools, unmarshalable arguments and handler errors are reported as
// error results rather than Go errors, the way MCP hosts expect them.
func (s *ToolServer) CallTool(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	s.mu.RLock()
	t, exists := s.tools[name]
	s.mu.RUnlock()

	if !exists {
		return ErrorResult("Tool not found: " + name)
	}

	input, err := json.Marshal(args)
	if err != nil {
		return ErrorResult("Failed to marshal input: " + err.Error())
	}

	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      name,
			Arguments: input,
		},
	}

	return s.invoke(ctx, t, req)
}

func (s *ToolServer) invoke(ctx context.Context, t *registeredTool, req *mcp.CallToolRequest) *mcp.CallToolResult {
	s.log.Debug("Calling tool", "tool", t.tool.Name)

	result, err := t.handler(ctx, req)
	if err != nil {
		s.log.Warn("Tool execution failed", "tool", t.tool.Name, "error", err)

		return ErrorResult("Tool execution failed: " + err.Error())
	}

	if result == nil {
		return &mcp.CallToolResult{Content: []mcp.Content{}}
	}

	return result
}

// MCPServer builds an SDK server exposing every registered tool.
// Tools added afterwards are not visible to it.
func (s *ToolServer) MCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: s.name, Version: s.version}, nil)

	for _, tool := range s.ListTools() {
		s.mu.RLock()
		t := s.tools[tool.Name]
		s.mu.RUnlock()

		server.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return s.invoke(ctx, t, req), nil
		})
	}

	return server
}

// Run serves the registered tools over transport until ctx is done or the
// peer disconnects.
func (s *ToolServer) Run(ctx context.Context, transport mcp.Transport) error {
	s.log.Info("Serving MCP tools", "tools", len(s.ListTools()))

	if err := s.MCPServer().Run(ctx, transport); err != nil {
		return fmt.Errorf("run mcp server: %w", err)
	}

	return nil
}

// ObjectSchema creates an object schema from a simple type map.
//
// Input format: {"game_id": "string", "max": "int"}. Properties named in
// required are marked as required; all others are optional.
func ObjectSchema(props map[string]string, required ...string) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(props))

	for name, goType := range props {
		properties[name] = goTypeToJSONSchema(goType)
	}

	req := slices.Clone(required)
	slices.Sort(req)

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   req,
	}
}

// goTypeToJSONSchema converts a Go type string to a JSON Schema type.
func goTypeToJSONSchema(goType string) *jsonschema.Schema {
	switch goType {
	case "string":
		return &jsonschema.Schema{Type: "string"}
	case "int", "int64", "uint", "integer":
		return &jsonschema.Schema{Type: "integer"}
	case "float64", "number":
		return &jsonschema.Schema{Type: "number"}
	case "bool", "boolean":
		return &jsonschema.Schema{Type: "boolean"}
	case "any":
		return &jsonschema.Schema{}
	case "object", "map[string]any":
		return &jsonschema.Schema{Type: "object"}
	default:
		if len(goType) > 2 && goType[:2] == "[]" {
			return &jsonschema.Schema{
				Type:  "array",
				Items: goTypeToJSONSchema(goType[2:]),
			}
		}

		return &jsonschema.Schema{Type: "string"}
	}
}

// TextResult creates a CallToolResult with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// JSONResult creates a CallToolResult holding v encoded as JSON text.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return ErrorResult("Failed to marshal result: " + err.Error())
	}

	return TextResult(string(data))
}

// ErrorResult creates a CallToolResult indicating an error.
func ErrorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
		IsError: true,
	}
}

// NewTool creates an mcp.Tool with the given parameters. A nil schema
// declares a tool without arguments.
func NewTool(name, description string, inputSchema *jsonschema.Schema) *mcp.Tool {
	if inputSchema == nil {
		inputSchema = ObjectSchema(nil)
	}

	return &mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
	}
}

// DecodeArguments unmarshals CallToolRequest arguments into v.
// Missing arguments leave v untouched.
func DecodeArguments(req *mcp.CallToolRequest, v any) error {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}

	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return fmt.Errorf("failed to unmarshal arguments: %w", err)
	}

	return nil
}
