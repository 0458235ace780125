package fedichess

import (
	"github.com/fedichess/fedichess-go/internal/config"
	"github.com/fedichess/fedichess-go/internal/message"
)

// Options configures the client. Build it with Option functions.
type Options = config.Options

// RequestIDGenerator returns a fresh correlation id on every call.
type RequestIDGenerator = config.RequestIDGenerator

// Reply is the bridge's answer to one command.
type Reply = message.Reply

// Event is an unsolicited message from the bridge.
type Event = message.Event

// Command is one request to the bridge.
type Command = message.Command

// Event names the bridge emits.
const (
	EventHeartbeat = message.EventHeartbeat
	EventChallenge = message.EventChallenge
	EventChallResp = message.EventChallResp
	EventMove      = message.EventMove
	EventChat      = message.EventChat
	EventGameEvent = message.EventGameEvent
	EventSync      = message.EventSync
	EventHistory   = message.EventHistory
	EventHistSync  = message.EventHistSync
	EventRole      = message.EventRole
	EventPeerJoin  = message.EventPeerJoin
	EventPeerLeave = message.EventPeerLeave
)
