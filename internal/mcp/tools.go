package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fedichess/fedichess-go/internal/message"
)

const (
	// ServerName is the MCP implementation name announced to hosts.
	ServerName = "fedichess"

	// defaultMaxEvents bounds how many events one poll_events call returns.
	defaultMaxEvents = 50
)

// Tool names.
const (
	ToolJoinLobby  = "join_lobby"
	ToolLeaveLobby = "leave_lobby"
	ToolJoinGame   = "join_game"
	ToolLeaveGame  = "leave_game"
	ToolSend       = "send"
	ToolGetPeers   = "get_peers"
	ToolPollEvents = "poll_events"
)

// Backend is the subset of the client the tools drive.
type Backend interface {
	JoinLobby(ctx context.Context) (*message.Reply, error)
	LeaveLobby(ctx context.Context) (*message.Reply, error)
	JoinGame(ctx context.Context, gameID string) (*message.Reply, error)
	LeaveGame(ctx context.Context) (*message.Reply, error)
	SendTo(ctx context.Context, peerID string, action string, payload any) (*message.Reply, error)
	GetPeers(ctx context.Context) ([]string, error)
	PollEvent() (*message.Event, bool)
}

// NewServer creates a tool server exposing backend.
func NewServer(backend Backend, version string, log *slog.Logger) *ToolServer {
	s := NewToolServer(ServerName, version, log)
	RegisterTools(s, backend)

	return s
}

// RegisterTools adds the FediChess tools to s.
func RegisterTools(s *ToolServer, backend Backend) {
	s.AddTool(
		NewTool(ToolJoinLobby, "Join the global FediChess lobby to discover other players.", nil),
		func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return replyResult(backend.JoinLobby(ctx))
		},
	)

	s.AddTool(
		NewTool(ToolLeaveLobby, "Leave the FediChess lobby.", nil),
		func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return replyResult(backend.LeaveLobby(ctx))
		},
	)

	s.AddTool(
		NewTool(ToolJoinGame,
			"Join the room of a game. A new game id is generated when game_id is omitted.",
			ObjectSchema(map[string]string{"game_id": "string"}),
		),
		func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				GameID string `json:"game_id"`
			}

			if err := DecodeArguments(req, &args); err != nil {
				return nil, err
			}

			if args.GameID == "" {
				args.GameID = uuid.NewString()
			}

			reply, err := backend.JoinGame(ctx, args.GameID)
			if err != nil {
				return nil, err
			}

			result := JSONResult(struct {
				*message.Reply
				GameID string `json:"gameId"`
			}{Reply: reply, GameID: args.GameID})
			result.IsError = result.IsError || !reply.OK

			return result, nil
		},
	)

	s.AddTool(
		NewTool(ToolLeaveGame, "Leave the current game room.", nil),
		func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return replyResult(backend.LeaveGame(ctx))
		},
	)

	s.AddTool(
		NewTool(ToolSend,
			"Send an action (challenge, challResp, move, chat, ...) with a JSON payload. "+
				"Broadcasts to the current room unless peer_id is given.",
			ObjectSchema(map[string]string{
				"action":  "string",
				"payload": "any",
				"peer_id": "string",
			}, "action"),
		),
		func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				Action  string          `json:"action"`
				Payload json.RawMessage `json:"payload"`
				PeerID  string          `json:"peer_id"`
			}

			if err := DecodeArguments(req, &args); err != nil {
				return nil, err
			}

			if args.Action == "" {
				return ErrorResult("action is required"), nil
			}

			var payload any
			if len(args.Payload) > 0 && string(args.Payload) != "null" {
				payload = args.Payload
			}

			return replyResult(backend.SendTo(ctx, args.PeerID, args.Action, payload))
		},
	)

	getPeers := NewTool(ToolGetPeers, "List the peers in the current room.", nil)
	getPeers.Annotations = &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true}

	s.AddTool(
		getPeers,
		func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			peers, err := backend.GetPeers(ctx)
			if err != nil {
				return nil, err
			}

			return JSONResult(map[string]any{"peers": peers}), nil
		},
	)

	s.AddTool(
		NewTool(ToolPollEvents,
			fmt.Sprintf("Return queued events in arrival order without waiting (at most max, default %d).", defaultMaxEvents),
			ObjectSchema(map[string]string{"max": "int"}),
		),
		func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				Max int `json:"max"`
			}

			if err := DecodeArguments(req, &args); err != nil {
				return nil, err
			}

			if args.Max <= 0 {
				args.Max = defaultMaxEvents
			}

			events := make([]*message.Event, 0, min(args.Max, defaultMaxEvents))

			for len(events) < args.Max {
				ev, ok := backend.PollEvent()
				if !ok {
					break
				}

				events = append(events, ev)
			}

			return JSONResult(map[string]any{"events": events}), nil
		},
	)
}

// replyResult renders a bridge reply; ok:false becomes an error result.
func replyResult(reply *message.Reply, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return nil, err
	}

	result := JSONResult(reply)
	result.IsError = result.IsError || !reply.OK

	return result, nil
}
