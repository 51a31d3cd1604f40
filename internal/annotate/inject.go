package annotate

import (
	"cmp"
	"iter"
	"slices"

	"github.com/hpungsan/castpaint/internal/cast"
	"github.com/hpungsan/castpaint/internal/errors"
	"github.com/hpungsan/castpaint/internal/lexicon"
	"github.com/hpungsan/castpaint/internal/style"
)

// Match is a token found in the lexicon, with the style to paint it in.
type Match struct {
	Token
	Style style.Style
}

// MatchTokens keeps the tokens whose text is a lexicon key, ordered by
// ascending start index. Tokens with equal starts keep tokenizer order.
func MatchTokens(tokens iter.Seq[Token], lex *lexicon.Lexicon) []Match {
	var matches []Match
	for tok := range tokens {
		if s, ok := lex.Lookup(tok.Text); ok {
			matches = append(matches, Match{Token: tok, Style: s})
		}
	}
	// A literal event inside an open word is yielded before the word itself.
	slices.SortStableFunc(matches, func(a, b Match) int { return cmp.Compare(a.Start, b.Start) })
	return matches
}

// Inject returns a new event sequence with a zero-delay color-start event
// before each match's first event and a zero-delay reset event after its
// last one. events is not modified.
//
// The output is rebuilt in a single pass over events rather than by
// inserting into a growing slice, so there is no running offset to track.
// It is equivalent to inserting at Start+offset and End+offset in ascending
// order.
//
// matches must be sorted by Start. A match that runs past the end of events
// or overlaps the previous match is rejected with SPAN_MISMATCH.
func Inject(events []cast.Event, matches []Match) ([]cast.Event, error) {
	prevEnd := 0
	for _, m := range matches {
		end := m.End()
		if m.Start < 0 || m.Start < prevEnd || end > len(events) {
			return nil, errors.NewSpanMismatch(m.Text, m.Start, end, len(events))
		}
		prevEnd = end
	}

	out := make([]cast.Event, 0, len(events)+2*len(matches))
	next := 0
	openEnd := -1
	for i, ev := range events {
		if next < len(matches) && matches[next].Start == i {
			out = append(out, cast.Marker(matches[next].Style.Start()))
			openEnd = matches[next].End()
			next++
		}
		out = append(out, ev)
		if i+1 == openEnd {
			out = append(out, cast.Marker(style.Reset))
			openEnd = -1
		}
	}
	return out, nil
}
