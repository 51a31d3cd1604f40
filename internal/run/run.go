// Package run describes recorded annotation runs and renders their reports.
package run

// Run is one recorded annotation of a recording file.
type Run struct {
	// ID is a ULID that uniquely identifies this run
	ID string `json:"id"`

	// InputPath is the absolute path of the source recording
	InputPath string `json:"input_path"`

	// OutputPath is the absolute path the annotated recording was written to
	OutputPath string `json:"output_path"`

	// SourceField is the document field events were read from
	SourceField string `json:"source_field"`

	// OutputField is the document field the annotated events were written to
	OutputField string `json:"output_field"`

	// Lexicon is the lexicon file used, or "default" for the embedded one
	Lexicon string `json:"lexicon"`

	// EventsIn is the number of events in the source field
	EventsIn int `json:"events_in"`

	// EventsOut is the number of events after annotation
	EventsOut int `json:"events_out"`

	// TokensTotal is the number of tokens the tokenizer produced
	TokensTotal int `json:"tokens_total"`

	// TokensMatched is the number of tokens found in the lexicon
	TokensMatched int `json:"tokens_matched"`

	// PromptsRewritten is the number of prompt events wrapped in the prompt color
	PromptsRewritten int `json:"prompts_rewritten"`

	// DurationSeconds is the summed playback delay of the recording
	DurationSeconds float64 `json:"duration_seconds"`

	// Matches lists every colored token (stored as JSON in DB)
	Matches []MatchRecord `json:"matches"`

	// CreatedAt is the Unix timestamp when the run was recorded
	CreatedAt int64 `json:"created_at"`
}

// MatchRecord is a colored token as kept in run history.
type MatchRecord struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	Span  int    `json:"span"`
	Kind  string `json:"kind"`
	Style string `json:"style"`
}

// Summary is a run without its match list, used by list views.
type Summary struct {
	ID               string `json:"id"`
	InputPath        string `json:"input_path"`
	OutputPath       string `json:"output_path"`
	EventsIn         int    `json:"events_in"`
	EventsOut        int    `json:"events_out"`
	TokensTotal      int    `json:"tokens_total"`
	TokensMatched    int    `json:"tokens_matched"`
	PromptsRewritten int    `json:"prompts_rewritten"`
	CreatedAt        int64  `json:"created_at"`
}

// ToSummary strips the match list.
func (r *Run) ToSummary() Summary {
	return Summary{
		ID:               r.ID,
		InputPath:        r.InputPath,
		OutputPath:       r.OutputPath,
		EventsIn:         r.EventsIn,
		EventsOut:        r.EventsOut,
		TokensTotal:      r.TokensTotal,
		TokensMatched:    r.TokensMatched,
		PromptsRewritten: r.PromptsRewritten,
		CreatedAt:        r.CreatedAt,
	}
}
