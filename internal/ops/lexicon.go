package ops

import (
	"github.com/hpungsan/castpaint/internal/config"
)

// LexiconInput contains parameters for the Lexicon operation.
type LexiconInput struct {
	Path string // optional, default: configured lexicon or the embedded one
}

// LexiconEntry is one token with its style and the escape sequence it renders to.
type LexiconEntry struct {
	Text     string   `json:"text"`
	Style    []string `json:"style"`
	Sequence string   `json:"sequence"`
	Preview  string   `json:"preview"`
}

// LexiconOutput contains the result of the Lexicon operation.
type LexiconOutput struct {
	Source      string         `json:"source"`
	PromptStyle []string       `json:"prompt_style"`
	Prompts     []string       `json:"prompts"`
	Tokens      []LexiconEntry `json:"tokens"`
	Count       int            `json:"count"`
}

// Lexicon loads and validates a lexicon and lists its entries sorted by text.
func Lexicon(cfg *config.Config, input LexiconInput) (*LexiconOutput, error) {
	lex, err := loadLexicon(cfg, input.Path)
	if err != nil {
		return nil, err
	}

	entries := lex.Entries()
	out := &LexiconOutput{
		Source:      lex.Source(),
		PromptStyle: lex.PromptStyle().Names(),
		Prompts:     lex.Prompts(),
		Tokens:      make([]LexiconEntry, 0, len(entries)),
		Count:       len(entries),
	}
	if out.Prompts == nil {
		out.Prompts = []string{}
	}
	for _, e := range entries {
		out.Tokens = append(out.Tokens, LexiconEntry{
			Text:     e.Text,
			Style:    e.Style.Names(),
			Sequence: e.Style.Start(),
			Preview:  e.Style.Wrap(e.Text),
		})
	}
	return out, nil
}
