package message

import (
	"encoding/json"
	"fmt"
)

// Event names emitted by the bridge. Room actions are forwarded under their
// action name; peerJoin and peerLeave come from room membership changes.
const (
	EventHeartbeat = "heartbeat"
	EventChallenge = "challenge"
	EventChallResp = "challResp"
	EventMove      = "move"
	EventChat      = "chat"
	EventGameEvent = "gameEvent"
	EventSync      = "sync"
	EventHistory   = "history"
	EventHistSync  = "histSync"
	EventRole      = "role"
	EventPeerJoin  = "peerJoin"
	EventPeerLeave = "peerLeave"
)

// Event is an unsolicited notification from the bridge.
//
// Wire format:
//
//	{"event":"challResp","peerId":"p2","payload":{"accepted":true}}
type Event struct {
	// Name is the event name, e.g. "challResp".
	Name string `json:"event"`

	// PeerID identifies the originating peer, empty when absent or null.
	PeerID string `json:"peerId,omitempty"`

	// Payload is the raw event payload, nil when absent or null.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HasPayload reports whether the event carried a non-null payload.
func (e *Event) HasPayload() bool {
	return len(e.Payload) > 0
}

// UnmarshalPayload decodes the event payload into v.
func (e *Event) UnmarshalPayload(v any) error {
	if !e.HasPayload() {
		return fmt.Errorf("event %q has no payload", e.Name)
	}

	return json.Unmarshal(e.Payload, v)
}

// DecodeEvent interprets an event line. The "event" field must be a string;
// "peerId" must be a string when present and non-null.
func DecodeEvent(raw Raw) (*Event, error) {
	nameField, ok := raw["event"]
	if !ok {
		return nil, fmt.Errorf("event: missing 'event' field")
	}

	ev := &Event{}

	if err := json.Unmarshal(nameField, &ev.Name); err != nil || isNull(nameField) {
		return nil, fmt.Errorf("event: 'event' field is not a string")
	}

	if peerField, ok := raw["peerId"]; ok && !isNull(peerField) {
		if err := json.Unmarshal(peerField, &ev.PeerID); err != nil {
			return nil, fmt.Errorf("event %q: invalid 'peerId' field: %w", ev.Name, err)
		}
	}

	if payload, ok := raw["payload"]; ok && !isNull(payload) {
		ev.Payload = payload
	}

	return ev, nil
}
