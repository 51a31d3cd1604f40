package annotate

import (
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/hpungsan/castpaint/internal/cast"
)

// Token is a word recovered from the event stream.
type Token struct {
	// Text is the recovered word or literal fragment.
	Text string `json:"text"`

	// Start is the index of the first contributing event in the original
	// (pre-insertion) sequence.
	Start int `json:"start"`

	// Composed is true when the token was assembled from consecutive
	// single-character events, false when it was one event verbatim.
	Composed bool `json:"composed"`
}

// Span is the number of original events the token covers: one per
// character for composed tokens, one for literal tokens.
func (t Token) Span() int {
	if t.Composed {
		return utf8.RuneCountInString(t.Text)
	}
	return 1
}

// End is the index just past the token's last event.
func (t Token) End() int {
	return t.Start + t.Span()
}

// Kind returns "composed" or "literal".
func (t Token) Kind() string {
	if t.Composed {
		return "composed"
	}
	return "literal"
}

func isLineTerminator(s string) bool {
	return s == "\r\n" || s == "\n" || s == "\r"
}

// Tokenize scans events left to right and yields tokens lazily.
//
// A single printable character extends the current word. A space or line
// terminator closes a non-empty word as a composed token. Any other event of
// more than one character is a literal token on its own and leaves the word
// alone. Events in prompts are skipped entirely. A word still open when the
// events run out is dropped; recordings end on whitespace in practice and
// existing annotated files depend on that.
func Tokenize(events []cast.Event, prompts PromptSet) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		var word strings.Builder
		wordStart := -1

		for i, ev := range events {
			if prompts.Has(i) {
				continue
			}
			content := ev.Content
			terminator := isLineTerminator(content)
			runes := utf8.RuneCountInString(content)

			switch {
			case runes == 1 && !terminator && content != " ":
				if wordStart < 0 {
					wordStart = i
				}
				word.WriteString(content)
			case terminator || content == " ":
				if wordStart < 0 {
					continue
				}
				tok := Token{Text: word.String(), Start: wordStart, Composed: true}
				word.Reset()
				wordStart = -1
				if !yield(tok) {
					return
				}
			case runes > 1:
				if !yield(Token{Text: content, Start: i}) {
					return
				}
			}
		}
	}
}
