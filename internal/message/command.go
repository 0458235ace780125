package message

import (
	"encoding/json"
	"fmt"
)

// CommandName is the value of the "cmd" field on an outbound line.
type CommandName string

const (
	// CmdJoinLobby joins the global lobby room.
	CmdJoinLobby CommandName = "joinLobby"
	// CmdLeaveLobby leaves the lobby room.
	CmdLeaveLobby CommandName = "leaveLobby"
	// CmdJoinGame joins the room of a specific game.
	CmdJoinGame CommandName = "joinGame"
	// CmdLeaveGame leaves the current game room.
	CmdLeaveGame CommandName = "leaveGame"
	// CmdSend sends an action to one peer or broadcasts it to the current room.
	CmdSend CommandName = "send"
	// CmdGetPeers lists the peers of the current room.
	CmdGetPeers CommandName = "getPeers"
)

// emptyPayload is sent when a Send command carries no payload.
var emptyPayload = json.RawMessage(`{}`)

// Command is a request for the bridge. The request id is not part of the
// command; it is injected by Encode.
//
// Wire format:
//
//	{"cmd":"send","id":"req-3","action":"heartbeat","payload":{...},"peerId":"p2"}
type Command struct {
	Cmd     CommandName     `json:"cmd"`
	ID      string          `json:"id"`
	GameID  *string         `json:"gameId,omitempty"`
	Action  *string         `json:"action,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	PeerID  string          `json:"peerId,omitempty"`
}

// JoinLobby builds a joinLobby command.
func JoinLobby() Command {
	return Command{Cmd: CmdJoinLobby}
}

// LeaveLobby builds a leaveLobby command.
func LeaveLobby() Command {
	return Command{Cmd: CmdLeaveLobby}
}

// JoinGame builds a joinGame command for gameID.
func JoinGame(gameID string) Command {
	return Command{Cmd: CmdJoinGame, GameID: &gameID}
}

// LeaveGame builds a leaveGame command.
func LeaveGame() Command {
	return Command{Cmd: CmdLeaveGame}
}

// GetPeers builds a getPeers command.
func GetPeers() Command {
	return Command{Cmd: CmdGetPeers}
}

// Send builds a send command. An empty peerID broadcasts to the current room.
//
// The payload may be any JSON-marshalable value; json.RawMessage and []byte
// holding JSON are passed through. A nil payload is sent as {}.
func Send(action string, payload any, peerID string) (Command, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return Command{}, fmt.Errorf("marshal %q payload: %w", action, err)
	}

	return Command{
		Cmd:     CmdSend,
		Action:  &action,
		Payload: raw,
		PeerID:  peerID,
	}, nil
}

// Encode serializes cmd with the request id attached. The result is a single
// line of compact JSON without the trailing newline.
func Encode(cmd Command, id string) ([]byte, error) {
	cmd.ID = id

	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("marshal %s command: %w", cmd.Cmd, err)
	}

	return data, nil
}

func marshalPayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return emptyPayload, nil
	case json.RawMessage:
		if len(p) == 0 {
			return emptyPayload, nil
		}

		if !json.Valid(p) {
			return nil, fmt.Errorf("invalid JSON payload")
		}

		return p, nil
	case []byte:
		return marshalPayload(json.RawMessage(p))
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return data, nil
}
