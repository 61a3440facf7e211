package template

import (
	"fmt"
	"strings"
)

// Parse reads the literal list grammar of spec.md §4.6: a comma-separated
// sequence of single-quoted tokens (with \' and \\ de-escaping inside the
// quotes) or bare tokens (read verbatim up to the next comma, then
// trimmed). It is the inverse of Join.
func Parse(s string) ([]string, error) {
	var items []string
	i, n := 0, len(s)
	for {
		for i < n && isListSpace(s[i]) {
			i++
		}
		if i >= n {
			break
		}
		var token string
		var err error
		if s[i] == '\'' {
			token, i, err = parseQuotedToken(s, i)
			if err != nil {
				return nil, err
			}
		} else {
			start := i
			for i < n && s[i] != ',' {
				i++
			}
			token = strings.TrimSpace(s[start:i])
		}
		items = append(items, token)

		for i < n && isListSpace(s[i]) {
			i++
		}
		if i >= n {
			break
		}
		if s[i] != ',' {
			return nil, fmt.Errorf("list %q: expected ',' at offset %d, found %q", s, i, s[i])
		}
		i++
	}
	return items, nil
}

func parseQuotedToken(s string, i int) (string, int, error) {
	n := len(s)
	i++ // consume opening quote
	var b strings.Builder
	for i < n && s[i] != '\'' {
		if s[i] == '\\' && i+1 < n {
			i++
			b.WriteByte(s[i])
			i++
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	if i >= n {
		return "", 0, fmt.Errorf("list %q: unterminated quoted token", s)
	}
	return b.String(), i + 1, nil
}

func isListSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

// Join renders items as the literal list grammar, always single-quoting
// each value so the result survives being re-parsed by Parse regardless of
// what characters it contains (spec.md §4.6: "always quote values when
// serialising for internal relay").
func Join(items []string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		escaped := strings.ReplaceAll(it, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `'`, `\'`)
		parts[i] = "'" + escaped + "'"
	}
	return strings.Join(parts, ", ")
}
