package cast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// ZeroDelay is the delay carried by inserted marker events.
var ZeroDelay = json.RawMessage("0")

// Event is one [delay, content] pair of a recording.
// Delay is kept as the raw JSON value and written back unchanged.
type Event struct {
	Delay   json.RawMessage
	Content string
}

// Marker returns a zero-delay event, used for inserted escape sequences.
func Marker(content string) Event {
	return Event{Delay: ZeroDelay, Content: content}
}

// MarshalJSON encodes the event as a two-element array.
func (e Event) MarshalJSON() ([]byte, error) {
	delay := e.Delay
	if len(delay) == 0 {
		delay = ZeroDelay
	}
	content, err := marshalString(e.Content)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(delay) + len(content) + 3)
	buf.WriteByte('[')
	buf.Write(delay)
	buf.WriteByte(',')
	buf.Write(content)
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a [delay, content] pair. The delay must be a number
// or a string; content must be a string.
func (e *Event) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("event must be a [delay, content] array: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("event must have 2 elements, got %d", len(pair))
	}

	delay := bytes.TrimSpace(pair[0])
	if len(delay) == 0 || (delay[0] != '"' && delay[0] != '-' && (delay[0] < '0' || delay[0] > '9')) {
		return fmt.Errorf("event delay must be a number or string, got %s", delay)
	}

	var content string
	if err := json.Unmarshal(pair[1], &content); err != nil {
		return fmt.Errorf("event content must be a string: %w", err)
	}

	e.Delay = append(json.RawMessage(nil), delay...)
	e.Content = content
	return nil
}

// Seconds returns the delay as a number of seconds, or 0 if the delay is
// not numeric.
func (e Event) Seconds() float64 {
	raw := strings.Trim(string(e.Delay), `"`)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}

// Text concatenates event contents as written.
func Text(events []Event) string {
	var sb strings.Builder
	for _, ev := range events {
		sb.WriteString(ev.Content)
	}
	return sb.String()
}

// PlainText concatenates event contents with escape sequences removed.
func PlainText(events []Event) string {
	return ansi.Strip(Text(events))
}

// Duration sums the numeric delays.
func Duration(events []Event) float64 {
	var total float64
	for _, ev := range events {
		total += ev.Seconds()
	}
	return total
}

// marshalString encodes s as a JSON string without HTML escaping, so
// recorded "<", ">" and "&" survive unchanged.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
