// Package annotate colors the tokens of a recorded terminal session.
//
// The pipeline is: rewrite prompt events in place, tokenize the stream,
// keep tokens found in the lexicon, then rebuild the event sequence with a
// color-start event before and a reset event after each matched token.
// Inserted events have zero delay, so playback timing is unchanged, and
// stripping their escape sequences gives back the original text.
//
// Annotating is not idempotent: running it on its own output re-matches the
// literal tokens and wraps them a second time.
package annotate

import (
	"slices"

	"github.com/hpungsan/castpaint/internal/cast"
	"github.com/hpungsan/castpaint/internal/lexicon"
)

// Result is the outcome of annotating one event sequence.
type Result struct {
	// Source is the input after prompt rewriting, same length as the input.
	Source []cast.Event

	// Events is the annotated sequence.
	Events []cast.Event

	// Matches are the lexicon hits, in ascending start order.
	Matches []Match

	// TokensTotal counts every token the tokenizer produced.
	TokensTotal int

	// PromptsRewritten counts prompt events.
	PromptsRewritten int
}

// Annotate runs the full pipeline on a copy of events.
func Annotate(events []cast.Event, lex *lexicon.Lexicon) (*Result, error) {
	src := slices.Clone(events)
	prompts := RewritePrompts(src, lex)

	total := 0
	counted := func(yield func(Token) bool) {
		for tok := range Tokenize(src, prompts) {
			total++
			if !yield(tok) {
				return
			}
		}
	}
	matches := MatchTokens(counted, lex)

	out, err := Inject(src, matches)
	if err != nil {
		return nil, err
	}

	return &Result{
		Source:           src,
		Events:           out,
		Matches:          matches,
		TokensTotal:      total,
		PromptsRewritten: len(prompts),
	}, nil
}
