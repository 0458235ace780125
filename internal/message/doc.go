// Package message defines the bridge wire model: outbound commands, inbound
// replies and events, and the raw line classification that separates them.
//
// Every line of bridge output is parsed into a Raw object first. A line with
// an "event" field is an Event; any other line is a Reply and is routed by
// its "id" field.
package message
