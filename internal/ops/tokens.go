package ops

import (
	"github.com/hpungsan/castpaint/internal/annotate"
	"github.com/hpungsan/castpaint/internal/cast"
	"github.com/hpungsan/castpaint/internal/config"
)

// TokensInput contains parameters for the Tokens operation.
type TokensInput struct {
	Path        string // required
	LexiconPath string
	SourceField string
	MatchedOnly bool
}

// TokenItem is one tokenizer result, with its lexicon style if it matched.
type TokenItem struct {
	annotate.Token
	Span    int    `json:"span"`
	Kind    string `json:"kind"`
	Matched bool   `json:"matched"`
	Style   string `json:"style,omitempty"`
}

// TokensOutput contains the result of the Tokens operation.
type TokensOutput struct {
	Path    string      `json:"path"`
	Field   string      `json:"field"`
	Events  int         `json:"events"`
	Prompts []int       `json:"prompts"`
	Tokens  []TokenItem `json:"tokens"`
	Total   int         `json:"total"`
	Matched int         `json:"matched"`
}

// Tokens runs the prompt rewriter and tokenizer over a recording without
// injecting anything, so word recovery can be checked against a lexicon.
func Tokens(cfg *config.Config, input TokensInput) (*TokensOutput, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	field := firstNonEmpty(input.SourceField, cfg.SourceField, cast.DefaultSourceField)

	lex, err := loadLexicon(cfg, input.LexiconPath)
	if err != nil {
		return nil, err
	}

	data, err := readRecording(input.Path)
	if err != nil {
		return nil, err
	}
	rec, err := cast.Decode(input.Path, data, field)
	if err != nil {
		return nil, err
	}

	// rewritten in place on the decoded copy only
	prompts := annotate.RewritePrompts(rec.Events, lex)

	out := &TokensOutput{
		Path:    input.Path,
		Field:   field,
		Events:  len(rec.Events),
		Prompts: make([]int, 0, len(prompts)),
		Tokens:  []TokenItem{},
	}
	for i := range rec.Events {
		if prompts.Has(i) {
			out.Prompts = append(out.Prompts, i)
		}
	}

	for tok := range annotate.Tokenize(rec.Events, prompts) {
		out.Total++
		item := TokenItem{Token: tok, Span: tok.Span(), Kind: tok.Kind()}
		if s, ok := lex.Lookup(tok.Text); ok {
			item.Matched = true
			item.Style = s.String()
			out.Matched++
		}
		if input.MatchedOnly && !item.Matched {
			continue
		}
		out.Tokens = append(out.Tokens, item)
	}

	return out, nil
}
