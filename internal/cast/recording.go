// Package cast reads and writes recorded terminal sessions: JSON documents
// with a field holding [delay, content] event pairs.
//
// The document is never re-encoded as a whole. The event field is read with
// gjson and the annotated field is spliced back into the original bytes with
// sjson, so every other field keeps its exact formatting.
package cast

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/hpungsan/castpaint/internal/errors"
)

// Default field names for asciinema v1 style recordings.
const (
	DefaultSourceField = "stdout"
	DefaultOutputField = "commands"
)

// Recording is a decoded session document.
type Recording struct {
	// Path identifies the recording in error messages.
	Path string

	// Field is the name of the field Events was read from.
	Field string

	// Events is the decoded event sequence.
	Events []Event

	raw []byte
}

// Decode parses a recording document and extracts its event field.
func Decode(path string, data []byte, field string) (*Recording, error) {
	if field == "" {
		field = DefaultSourceField
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.NewMalformedRecording(path, "invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, errors.NewMalformedRecording(path, "document must be a JSON object")
	}

	res := doc.Get(gjson.Escape(field))
	if !res.Exists() {
		return nil, errors.NewMissingField(path, field)
	}
	if !res.IsArray() {
		return nil, errors.NewMalformedRecording(path, fmt.Sprintf("field %q is not an array", field))
	}

	var events []Event
	if err := json.Unmarshal([]byte(res.Raw), &events); err != nil {
		return nil, errors.NewMalformedRecording(path, err.Error())
	}
	if events == nil {
		events = []Event{}
	}

	return &Recording{
		Path:   path,
		Field:  field,
		Events: events,
		raw:    bytes.Clone(data),
	}, nil
}

// Encode returns the original document with each named field set to events.
// Fields not named keep their original bytes.
func (r *Recording) Encode(events []Event, fields ...string) ([]byte, error) {
	raw, err := MarshalEvents(events)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	out := bytes.Clone(r.raw)
	for _, field := range fields {
		out, err = sjson.SetRawBytes(out, gjson.Escape(field), raw)
		if err != nil {
			return nil, errors.NewInternal(fmt.Errorf("set field %q: %w", field, err))
		}
	}
	return out, nil
}

// MarshalEvents encodes events as a JSON array, one pair per event.
func MarshalEvents(events []Event) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, ev := range events {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := ev.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
