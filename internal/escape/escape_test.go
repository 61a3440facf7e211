package escape

import (
	"testing"
	"unicode"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEscapeUnescapeReservedSet(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"a b", "a b"},
		{"[x]", `\[x\]`},
		{"(x)", `\(x\)`},
		{"${x}", `\$\{x\}`},
		{"$${x}", `\$\$\{x\}`},
		{"a,b", `a\,b`},
		{`C:\path`, `C:\\path`},
	}
	for _, tt := range cases {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got := Unescape(tt.want); got != tt.in {
			t.Errorf("Unescape(%q) = %q, want %q", tt.want, got, tt.in)
		}
	}
}

func TestUnescapeTrailingBackslash(t *testing.T) {
	if got := Unescape(`abc\`); got != `abc\` {
		t.Errorf("Unescape trailing backslash = %q, want %q", got, `abc\`)
	}
}

// TestEscapeRoundTrip verifies the escape round-trip property required by
// spec.md §8: for all printable strings s, unescape(escape(s)) == s.
func TestEscapeRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	printable := gen.AnyString().SuchThat(func(s string) bool {
		for _, r := range s {
			if !unicode.IsPrint(r) {
				return false
			}
		}
		return true
	})

	properties.Property("unescape(escape(s)) == s", prop.ForAll(
		func(s string) bool {
			return Unescape(Escape(s)) == s
		},
		printable,
	))

	properties.TestingRun(t)
}

func TestFormatPathQuoting(t *testing.T) {
	isWindows = false
	defer func() { isWindows = false }()

	cases := []struct {
		in   string
		want string
	}{
		{"a b/c", `"a b/c"`},
		{"abc", "abc"},
		{"'a b'", "'a b'"},
	}
	for _, tt := range cases {
		if got := FormatPath(tt.in); got != tt.want {
			t.Errorf("FormatPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPathQuotingOnWindows(t *testing.T) {
	isWindows = true
	defer func() { isWindows = false }()

	if got := FormatPath("'a b'"); got != `"a b"` {
		t.Errorf("FormatPath on windows = %q, want %q", got, `"a b"`)
	}
}

func TestFormatPathNormalisesSeparators(t *testing.T) {
	isWindows = false
	defer func() { isWindows = false }()

	// Input is in the escaped template domain, so each literal backslash
	// is written as `\\`.
	if got := FormatPath(`a\\b\\c`); got != "a/b/c" {
		t.Errorf("FormatPath separator normalisation = %q, want %q", got, "a/b/c")
	}
}
