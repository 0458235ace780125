package message

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Raw is one parsed line of bridge output with its fields left undecoded.
type Raw map[string]json.RawMessage

// ParseLine parses a trimmed, non-empty line into a Raw object.
// Lines that are not JSON objects are rejected.
func ParseLine(line []byte) (Raw, error) {
	var raw Raw
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, err
	}

	if raw == nil {
		return nil, fmt.Errorf("line is not a JSON object")
	}

	return raw, nil
}

// IsEvent reports whether the line is an event: it carries an "event" field.
// Everything else is treated as a reply.
func (r Raw) IsEvent() bool {
	_, ok := r["event"]

	return ok
}

// RequestID returns the correlation id of a reply line. A missing or
// non-string id reports false.
func (r Raw) RequestID() (string, bool) {
	var id string
	if !r.decode("id", &id) {
		return "", false
	}

	return id, true
}

// String re-encodes the line for logs and DecodeError.RawData.
func (r Raw) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%v", map[string]json.RawMessage(r))
	}

	return string(data)
}

// decode unmarshals field key into v. It reports false when the field is
// missing, null, or of the wrong type.
func (r Raw) decode(key string, v any) bool {
	field, ok := r[key]
	if !ok || isNull(field) {
		return false
	}

	return json.Unmarshal(field, v) == nil
}

func isNull(field json.RawMessage) bool {
	return len(field) == 0 || bytes.Equal(bytes.TrimSpace(field), []byte("null"))
}
