// Package lexicon holds the token → style table and the prompt set used to
// annotate recordings, and loads them from YAML lexicon files.
//
// A lexicon file looks like:
//
//	prompt_color: yellow
//	prompts:
//	  - "user@host:~$ "
//	tokens:
//	  docker: [blue]
//	  weave: [black, bold]
//
// Token keys must be unique; a repeated key is rejected rather than letting
// the later entry win. Color and attribute names are checked at load time.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/castpaint/internal/errors"
	"github.com/hpungsan/castpaint/internal/style"
)

// DefaultSource is the Source of the embedded lexicon.
const DefaultSource = "default"

//go:embed default.yaml
var defaultYAML []byte

// Entry is one token and its style.
type Entry struct {
	Text  string
	Style style.Style
}

// Lexicon is an immutable token table plus prompt set.
type Lexicon struct {
	source      string
	styles      map[string]style.Style
	prompts     []string
	promptSet   map[string]struct{}
	promptStyle style.Style
}

// New builds a Lexicon from already-validated parts.
func New(promptStyle style.Style, prompts []string, styles map[string]style.Style) *Lexicon {
	l := &Lexicon{
		source:      "inline",
		styles:      make(map[string]style.Style, len(styles)),
		promptSet:   make(map[string]struct{}, len(prompts)),
		promptStyle: promptStyle,
	}
	for text, s := range styles {
		l.styles[text] = s
	}
	for _, p := range prompts {
		if _, dup := l.promptSet[p]; dup {
			continue
		}
		l.promptSet[p] = struct{}{}
		l.prompts = append(l.prompts, p)
	}
	return l
}

// Lookup returns the style for an exact token text.
func (l *Lexicon) Lookup(text string) (style.Style, bool) {
	s, ok := l.styles[text]
	return s, ok
}

// IsPrompt reports whether content is exactly one of the prompt strings.
func (l *Lexicon) IsPrompt(content string) bool {
	_, ok := l.promptSet[content]
	return ok
}

// PromptStyle returns the style prompts are wrapped in.
func (l *Lexicon) PromptStyle() style.Style { return l.promptStyle }

// Prompts returns the prompt strings in file order.
func (l *Lexicon) Prompts() []string {
	return append([]string(nil), l.prompts...)
}

// Len returns the number of tokens.
func (l *Lexicon) Len() int { return len(l.styles) }

// Source returns the file the lexicon was loaded from, or DefaultSource.
func (l *Lexicon) Source() string { return l.source }

// Entries returns all tokens sorted by text.
func (l *Lexicon) Entries() []Entry {
	entries := make([]Entry, 0, len(l.styles))
	for text, s := range l.styles {
		entries = append(entries, Entry{Text: text, Style: s})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Text < entries[j].Text })
	return entries
}

// Default returns the embedded hello-weave lexicon.
func Default() (*Lexicon, error) {
	l, err := Parse(defaultYAML)
	if err != nil {
		return nil, err
	}
	l.source = DefaultSource
	return l, nil
}

// Load reads a lexicon file. An empty path returns Default().
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, errors.NewInternal(err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, err
	}
	l.source = path
	return l, nil
}

// Parse decodes lexicon YAML. The document is walked at the node level so
// duplicate token keys can be reported with their line numbers.
func Parse(data []byte) (*Lexicon, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid lexicon YAML: %v", err))
	}
	if len(doc.Content) == 0 {
		return nil, errors.NewInvalidRequest("lexicon is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.NewInvalidRequest("lexicon must be a mapping")
	}

	promptStyle := style.New(style.Yellow)
	var prompts []string
	styles := make(map[string]style.Style)
	seenKeys := make(map[string]bool)

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if seenKeys[key.Value] {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("line %d: %q defined twice", key.Line, key.Value))
		}
		seenKeys[key.Value] = true

		switch key.Value {
		case "prompt_color":
			s, err := parseStyle("prompt_color", value)
			if err != nil {
				return nil, err
			}
			promptStyle = s
		case "prompts":
			p, err := scalars(value)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("line %d: prompts: %v", value.Line, err))
			}
			for _, s := range p {
				if s == "" {
					return nil, errors.NewInvalidRequest(fmt.Sprintf("line %d: empty prompt", value.Line))
				}
			}
			prompts = p
		case "tokens":
			if err := parseTokens(value, styles); err != nil {
				return nil, err
			}
		default:
			return nil, errors.NewInvalidRequest(fmt.Sprintf("line %d: unknown lexicon key %q", key.Line, key.Value))
		}
	}

	return New(promptStyle, prompts, styles), nil
}

// parseTokens fills styles from the tokens mapping, rejecting repeated keys.
func parseTokens(node *yaml.Node, styles map[string]style.Style) error {
	if node.Kind != yaml.MappingNode {
		return errors.NewInvalidRequest(fmt.Sprintf("line %d: tokens must be a mapping", node.Line))
	}
	firstLine := make(map[string]int, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return errors.NewInvalidRequest(fmt.Sprintf("line %d: token must be a string", key.Line))
		}
		text := key.Value
		if text == "" {
			return errors.NewInvalidRequest(fmt.Sprintf("line %d: empty token", key.Line))
		}
		if line, dup := firstLine[text]; dup {
			return errors.NewDuplicateToken(text, line, key.Line)
		}
		firstLine[text] = key.Line

		s, err := parseStyle(text, value)
		if err != nil {
			return err
		}
		styles[text] = s
	}
	return nil
}

// parseStyle accepts either a single color name or a [color, attrs...] list.
func parseStyle(token string, node *yaml.Node) (style.Style, error) {
	names, err := scalars(node)
	if err != nil {
		return style.Style{}, errors.NewInvalidRequest(fmt.Sprintf("line %d: %q: %v", node.Line, token, err))
	}
	if len(names) == 0 {
		return style.Style{}, errors.NewInvalidRequest(fmt.Sprintf("line %d: %q has no color", node.Line, token))
	}

	fg, ok := style.ParseColor(names[0])
	if !ok {
		return style.Style{}, errors.NewUnknownStyle(token, names[0])
	}
	attrs := make([]style.Attribute, 0, len(names)-1)
	for _, name := range names[1:] {
		a, ok := style.ParseAttribute(name)
		if !ok {
			return style.Style{}, errors.NewUnknownStyle(token, name)
		}
		attrs = append(attrs, a)
	}
	return style.New(fg, attrs...), nil
}

// scalars flattens a scalar or a sequence of scalars into strings.
func scalars(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("expected a list of strings")
			}
			out = append(out, item.Value)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a string or list of strings")
	}
}
