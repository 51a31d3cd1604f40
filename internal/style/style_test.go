package style

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		name string
		want Color
		ok   bool
	}{
		{"black", Black, true},
		{"blue", Blue, true},
		{"white", White, true},
		{"Blue", 0, false},
		{"purple", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseColor(tt.name)
			if ok != tt.ok {
				t.Fatalf("ParseColor(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestParseAttribute(t *testing.T) {
	for _, name := range []string{"bold", "underscore", "blink", "reverse", "conceal"} {
		a, ok := ParseAttribute(name)
		if !ok {
			t.Errorf("ParseAttribute(%q) not found", name)
			continue
		}
		if a.String() != name {
			t.Errorf("String() = %q, want %q", a.String(), name)
		}
	}
	if _, ok := ParseAttribute("noreset"); ok {
		t.Error("noreset must not be an attribute")
	}
}

func TestStart(t *testing.T) {
	tests := []struct {
		name  string
		style Style
		want  string
	}{
		{"plain blue", New(Blue), "\x1b[34m"},
		{"red bold", New(Red, Bold), "\x1b[31;1m"},
		{"black bold", New(Black, Bold), "\x1b[30;1m"},
		{"cyan bold underscore", New(Cyan, Bold, Underscore), "\x1b[36;1;4m"},
		{"attribute order kept", New(Green, Reverse, Blink), "\x1b[32;7;5m"},
		{"conceal", New(White, Conceal), "\x1b[37;8m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.style.Start())
		})
	}
}

func TestWrap(t *testing.T) {
	got := New(Yellow).Wrap("ilya@weave-01:~$ ")
	require.Equal(t, "\x1b[33milya@weave-01:~$ \x1b[0m", got)
}

func TestStyleImmutable(t *testing.T) {
	attrs := []Attribute{Bold}
	s := New(Red, attrs...)
	attrs[0] = Blink

	require.Equal(t, []Attribute{Bold}, s.Attributes())

	got := s.Attributes()
	got[0] = Conceal
	require.Equal(t, "\x1b[31;1m", s.Start())
}

func TestNamesAndEqual(t *testing.T) {
	s := New(Red, Bold)
	require.Equal(t, []string{"red", "bold"}, s.Names())
	require.Equal(t, "red+bold", s.String())
	require.True(t, s.Equal(New(Red, Bold)))
	require.False(t, s.Equal(New(Red)))
	require.False(t, s.Equal(New(Blue, Bold)))
}
