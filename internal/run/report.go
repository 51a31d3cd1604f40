package run

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// md renders reports. Tables need the GFM table extension.
var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Report renders a Markdown summary of a run: counts, then one table row
// per colored token in start order.
func Report(r *Run) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Run %s\n\n", r.ID)
	fmt.Fprintf(&b, "- **Input:** %s\n", code(r.InputPath))
	fmt.Fprintf(&b, "- **Output:** %s\n", code(r.OutputPath))
	fmt.Fprintf(&b, "- **Fields:** %s → %s\n", code(r.SourceField), code(r.OutputField))
	fmt.Fprintf(&b, "- **Lexicon:** %s\n", code(r.Lexicon))
	fmt.Fprintf(&b, "- **Recorded:** %s\n", time.Unix(r.CreatedAt, 0).UTC().Format(time.RFC3339))
	b.WriteString("\n## Counts\n\n")
	b.WriteString("| Events in | Events out | Tokens | Matched | Prompts | Duration |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %.2fs |\n",
		r.EventsIn, r.EventsOut, r.TokensTotal, r.TokensMatched, r.PromptsRewritten, r.DurationSeconds)

	b.WriteString("\n## Matched tokens\n\n")
	if len(r.Matches) == 0 {
		b.WriteString("No tokens matched the lexicon.\n")
		return b.String()
	}
	b.WriteString("| Token | Start | Span | Kind | Style |\n")
	b.WriteString("|---|---:|---:|---|---|\n")
	for _, m := range r.Matches {
		fmt.Fprintf(&b, "| %s | %d | %d | %s | %s |\n",
			code(strconv.Quote(m.Text)), m.Start, m.Span, m.Kind, m.Style)
	}
	return b.String()
}

// RenderHTML converts a Markdown report to HTML.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// code formats s as an inline code span that is safe inside a table cell.
func code(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	if strings.Contains(s, "`") {
		return "`` " + s + " ``"
	}
	return "`" + s + "`"
}
