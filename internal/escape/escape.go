// Package escape implements the text escape/quote utilities of spec.md
// §4.1: escaping and unescaping the template mini-language's reserved
// metacharacters, and formatting filesystem paths with OS-appropriate
// quoting.
package escape

import (
	"runtime"
	"strings"
)

// reserved is the metacharacter set that escape/unescape operate over:
// the bracket pairs the template engine uses, the variable sigil, the
// list separator, and the escape character itself.
const reserved = "[](){}$,\\"

func isReserved(b byte) bool {
	return strings.IndexByte(reserved, b) >= 0
}

// Escape prefixes every reserved character in s with a backslash. It is
// total: every input string has a defined escaped form.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isReserved(c) {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Unescape consumes every `\X` pair in s as the literal character X,
// leaving unescaped characters untouched. A trailing lone backslash is
// passed through literally.
func Unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			i++
			b.WriteByte(s[i])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// isWindows lets tests override host detection without touching GOOS.
var isWindows = runtime.GOOS == "windows"

// FormatPath trims whitespace, unescapes, normalises path separators to
// `/`, applies quoting, then re-escapes, per spec.md §4.1:
//
//   - a path containing a space that is not already quoted is wrapped in
//     double quotes;
//   - a single-quoted path is re-quoted with double quotes only when the
//     host is Windows;
//   - otherwise existing quoting (or its absence) is left alone.
func FormatPath(s string) string {
	s = strings.TrimSpace(s)
	s = Unescape(s)
	s = strings.ReplaceAll(s, "\\", "/")

	switch {
	case isSingleQuoted(s):
		if isWindows {
			s = `"` + s[1:len(s)-1] + `"`
		}
	case isDoubleQuoted(s):
		// already quoted; leave as-is
	case strings.Contains(s, " "):
		s = `"` + s + `"`
	}

	return Escape(s)
}

func isSingleQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\''
}

func isDoubleQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}
