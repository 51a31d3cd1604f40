package cast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/hpungsan/castpaint/internal/errors"
)

const sampleDoc = `{
  "version": 1,
  "width": 80,
  "title": "hello weave",
  "stdout": [[0.5, "docker"], [5, "run"], ["2", " "], [0, "-ti"]]
}`

func TestEvent_RoundTrip(t *testing.T) {
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(`[0.123456, "a<b>&\u001b[0m"]`), &ev))
	require.Equal(t, "0.123456", string(ev.Delay))
	require.Equal(t, "a<b>&\x1b[0m", ev.Content)

	out, err := json.Marshal(ev)
	require.NoError(t, err)
	require.Equal(t, `[0.123456,"a<b>&\u001b[0m"]`, string(out))
}

func TestEvent_DelayPassedThrough(t *testing.T) {
	for _, raw := range []string{`[1e-3,"x"]`, `["0.25","x"]`, `[-0,"x"]`, `[12,"x"]`} {
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(raw), &ev), raw)
		out, err := json.Marshal(ev)
		require.NoError(t, err)
		require.Equal(t, raw, string(out))
	}
}

func TestEvent_UnmarshalInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"object", `{"delay":0}`},
		{"one element", `[0]`},
		{"three elements", `[0,"a","b"]`},
		{"content not string", `[0, 5]`},
		{"delay bool", `[true,"a"]`},
		{"delay null", `[null,"a"]`},
		{"null", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev Event
			require.Error(t, json.Unmarshal([]byte(tt.raw), &ev))
		})
	}
}

func TestMarker(t *testing.T) {
	m := Marker("\x1b[34m")
	require.Equal(t, "0", string(m.Delay))
	require.Equal(t, 0.0, m.Seconds())
}

func TestEvent_Seconds(t *testing.T) {
	require.Equal(t, 0.5, Event{Delay: json.RawMessage("0.5")}.Seconds())
	require.Equal(t, 2.0, Event{Delay: json.RawMessage(`"2"`)}.Seconds())
	require.Equal(t, 0.0, Event{Delay: json.RawMessage(`"soon"`)}.Seconds())
}

func TestDecode(t *testing.T) {
	rec, err := Decode("rec.json", []byte(sampleDoc), "")
	require.NoError(t, err)
	require.Equal(t, DefaultSourceField, rec.Field)
	require.Len(t, rec.Events, 4)
	require.Equal(t, "docker", rec.Events[0].Content)
	require.Equal(t, `"2"`, string(rec.Events[2].Delay))
	require.Equal(t, 7.5, Duration(rec.Events))
	require.Equal(t, "dockerrun -ti", Text(rec.Events))
}

func TestDecode_EmptyEvents(t *testing.T) {
	rec, err := Decode("rec.json", []byte(`{"stdout": []}`), "stdout")
	require.NoError(t, err)
	require.NotNil(t, rec.Events)
	require.Empty(t, rec.Events)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
		code  errors.ErrorCode
	}{
		{"invalid json", `{"stdout": [`, "stdout", errors.ErrMalformedRecording},
		{"not an object", `[[0,"a"]]`, "stdout", errors.ErrMalformedRecording},
		{"missing field", `{"events": []}`, "stdout", errors.ErrMissingField},
		{"field not array", `{"stdout": "x"}`, "stdout", errors.ErrMalformedRecording},
		{"bad event", `{"stdout": [[0]]}`, "stdout", errors.ErrMalformedRecording},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode("rec.json", []byte(tt.doc), tt.field)
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestDecode_FieldWithDot(t *testing.T) {
	rec, err := Decode("rec.json", []byte(`{"out.v1": [[0, "x"]]}`), "out.v1")
	require.NoError(t, err)
	require.Len(t, rec.Events, 1)
}

func TestEncode_AddsFieldAndKeepsRest(t *testing.T) {
	rec, err := Decode("rec.json", []byte(sampleDoc), "stdout")
	require.NoError(t, err)

	annotated := append([]Event{Marker("\x1b[34m")}, rec.Events...)
	out, err := rec.Encode(annotated, DefaultOutputField)
	require.NoError(t, err)
	require.True(t, gjson.ValidBytes(out))

	doc := gjson.ParseBytes(out)
	require.Equal(t, "hello weave", doc.Get("title").String())
	require.Equal(t, int64(80), doc.Get("width").Int())
	require.Len(t, doc.Get("stdout").Array(), 4)
	require.Len(t, doc.Get("commands").Array(), 5)
	require.Equal(t, "\x1b[34m", doc.Get("commands.0.1").String())
	require.Equal(t, "0.5", doc.Get("commands.1.0").Raw)

	// the source bytes are untouched
	again, err := Decode("rec.json", []byte(sampleDoc), "stdout")
	require.NoError(t, err)
	require.Equal(t, rec.Events, again.Events)
}

func TestEncode_OverwritesSource(t *testing.T) {
	rec, err := Decode("rec.json", []byte(sampleDoc), "stdout")
	require.NoError(t, err)

	out, err := rec.Encode([]Event{Marker("x")}, "commands", "stdout")
	require.NoError(t, err)

	doc := gjson.ParseBytes(out)
	require.Len(t, doc.Get("stdout").Array(), 1)
	require.Len(t, doc.Get("commands").Array(), 1)
}

func TestPlainText(t *testing.T) {
	events := []Event{
		Marker("\x1b[34m"),
		{Delay: json.RawMessage("0"), Content: "docker"},
		Marker("\x1b[0m"),
		{Delay: json.RawMessage("1"), Content: "\x1b[33m$ \x1b[0m"},
	}
	require.Equal(t, "docker$ ", PlainText(events))
}

func TestMarshalEvents_Empty(t *testing.T) {
	out, err := MarshalEvents(nil)
	require.NoError(t, err)
	require.Equal(t, "[]", string(out))
}
