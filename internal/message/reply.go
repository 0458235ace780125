package message

import (
	"encoding/json"
	"fmt"
)

// Reply is the bridge's answer to exactly one Command.
//
// Wire format:
//
//	{"ok":true,"id":"req-1"}
//	{"ok":false,"error":"joinGame requires gameId","id":"req-2"}
//	{"ok":true,"peers":["p1","p2"],"id":"req-3"}
type Reply struct {
	// OK reports whether the bridge executed the command.
	OK bool `json:"ok"`

	// Error is the bridge's failure message, empty when absent.
	Error string `json:"error,omitempty"`

	// Peers is only set by getPeers; nil when absent.
	Peers []string `json:"peers,omitempty"`

	// ID echoes the request id.
	ID string `json:"id,omitempty"`
}

// DecodeReply interprets a reply line. The "ok" field is required; the
// optional fields must have the documented types when present and non-null.
func DecodeReply(raw Raw) (*Reply, error) {
	okField, exists := raw["ok"]
	if !exists || isNull(okField) {
		return nil, fmt.Errorf("reply: missing 'ok' field")
	}

	reply := &Reply{}

	if err := json.Unmarshal(okField, &reply.OK); err != nil {
		return nil, fmt.Errorf("reply: invalid 'ok' field: %w", err)
	}

	if err := decodeOptional(raw, "error", &reply.Error); err != nil {
		return nil, err
	}

	if err := decodeOptional(raw, "peers", &reply.Peers); err != nil {
		return nil, err
	}

	if err := decodeOptional(raw, "id", &reply.ID); err != nil {
		return nil, err
	}

	return reply, nil
}

// PeersOf extracts the peer list from a getPeers reply. A missing or
// malformed list yields an empty slice and non-string entries are skipped.
func PeersOf(raw Raw) []string {
	var entries []json.RawMessage
	if !raw.decode("peers", &entries) {
		return []string{}
	}

	peers := make([]string, 0, len(entries))

	for _, entry := range entries {
		if isNull(entry) {
			continue
		}

		var peer string
		if err := json.Unmarshal(entry, &peer); err != nil {
			continue
		}

		peers = append(peers, peer)
	}

	return peers
}

func decodeOptional(raw Raw, key string, v any) error {
	field, ok := raw[key]
	if !ok || isNull(field) {
		return nil
	}

	if err := json.Unmarshal(field, v); err != nil {
		return fmt.Errorf("reply: invalid '%s' field: %w", key, err)
	}

	return nil
}
