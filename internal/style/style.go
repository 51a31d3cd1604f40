// Package style renders terminal SGR escape sequences for a closed set of
// foreground colors and display attributes.
package style

import (
	"strconv"
	"strings"
)

// Reset is the plain "back to default" sequence.
const Reset = "\x1b[0m"

// Color is one of the eight standard ANSI foreground colors.
type Color int

const (
	Black Color = iota
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
)

var colorNames = [...]string{"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white"}

// String returns the lowercase color name.
func (c Color) String() string {
	if c < Black || c > White {
		return "color(" + strconv.Itoa(int(c)) + ")"
	}
	return colorNames[c]
}

// code returns the SGR foreground parameter (30-37).
func (c Color) code() string {
	return strconv.Itoa(30 + int(c))
}

// ParseColor looks up a color by name.
func ParseColor(name string) (Color, bool) {
	for i, n := range colorNames {
		if n == name {
			return Color(i), true
		}
	}
	return 0, false
}

// Attribute is a display attribute applied on top of the foreground color.
type Attribute int

const (
	Bold Attribute = iota
	Underscore
	Blink
	Reverse
	Conceal
)

var attributes = [...]struct {
	name string
	code string
}{
	Bold:       {"bold", "1"},
	Underscore: {"underscore", "4"},
	Blink:      {"blink", "5"},
	Reverse:    {"reverse", "7"},
	Conceal:    {"conceal", "8"},
}

// String returns the lowercase attribute name.
func (a Attribute) String() string {
	if a < Bold || a > Conceal {
		return "attribute(" + strconv.Itoa(int(a)) + ")"
	}
	return attributes[a].name
}

// ParseAttribute looks up an attribute by name.
func ParseAttribute(name string) (Attribute, bool) {
	for i, a := range attributes {
		if a.name == name {
			return Attribute(i), true
		}
	}
	return 0, false
}

// Style is an immutable foreground color plus ordered attributes.
type Style struct {
	fg    Color
	attrs []Attribute
}

// New creates a Style. Attribute order is kept as given.
func New(fg Color, attrs ...Attribute) Style {
	return Style{fg: fg, attrs: append([]Attribute(nil), attrs...)}
}

// Foreground returns the style's color.
func (s Style) Foreground() Color { return s.fg }

// Attributes returns a copy of the style's attributes.
func (s Style) Attributes() []Attribute {
	return append([]Attribute(nil), s.attrs...)
}

// Names returns the descriptor form used in lexicon files: color first,
// then attribute names.
func (s Style) Names() []string {
	names := make([]string, 0, 1+len(s.attrs))
	names = append(names, s.fg.String())
	for _, a := range s.attrs {
		names = append(names, a.String())
	}
	return names
}

// Equal reports whether two styles render identically.
func (s Style) Equal(o Style) bool {
	if s.fg != o.fg || len(s.attrs) != len(o.attrs) {
		return false
	}
	for i := range s.attrs {
		if s.attrs[i] != o.attrs[i] {
			return false
		}
	}
	return true
}

// Start renders the opening sequence with no trailing reset, so the color
// stays active across whatever is written after it.
func (s Style) Start() string {
	codes := make([]string, 0, 1+len(s.attrs))
	codes = append(codes, s.fg.code())
	for _, a := range s.attrs {
		codes = append(codes, attributes[a].code)
	}
	return "\x1b[" + strings.Join(codes, ";") + "m"
}

// Wrap renders text as a self-contained colored string: start, text, reset.
func (s Style) Wrap(text string) string {
	return s.Start() + text + Reset
}

// String returns the descriptor names joined by "+", e.g. "red+bold".
func (s Style) String() string {
	return strings.Join(s.Names(), "+")
}
