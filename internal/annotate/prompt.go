package annotate

import (
	"github.com/hpungsan/castpaint/internal/cast"
	"github.com/hpungsan/castpaint/internal/lexicon"
)

// PromptSet records which event indices were rewritten as prompts.
type PromptSet map[int]struct{}

// Has reports whether index i was rewritten.
func (p PromptSet) Has(i int) bool {
	_, ok := p[i]
	return ok
}

// RewritePrompts replaces, in place, the content of every event that is
// exactly a prompt string with the prompt wrapped in the prompt style.
// Delays, indices and the event count are unchanged.
func RewritePrompts(events []cast.Event, lex *lexicon.Lexicon) PromptSet {
	rewritten := make(PromptSet)
	ps := lex.PromptStyle()
	for i := range events {
		if lex.IsPrompt(events[i].Content) {
			events[i].Content = ps.Wrap(events[i].Content)
			rewritten[i] = struct{}{}
		}
	}
	return rewritten
}
