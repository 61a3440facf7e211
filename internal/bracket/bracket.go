// Package bracket implements the recursive bracket matcher of spec.md
// §4.2: locating balanced `(...)`, `[...]`, `${...}`, and `$${...}`
// regions in a string while honouring an escape character and reporting
// only outermost matches (nested regions, including regions opened by a
// different delimiter that shares the same closer — as `${` and `$${`
// both close on `}` — are skipped, not reported separately).
package bracket

import "fmt"

// Match describes one balanced, outermost bracket region.
type Match struct {
	// StartIndex is the byte offset of LeftLexeme's first character in the
	// searched string.
	StartIndex int
	// EndIndex is the byte offset one past RightLexeme's last character.
	EndIndex int
	// OuterText is the full matched region, delimiters included.
	OuterText string
	// InnerText is OuterText with the delimiters stripped.
	InnerText string
	// LeftLexeme and RightLexeme are the delimiters that matched (useful
	// when a single scan searches for more than one delimiter pair, as
	// §4.2 requires for `${` vs `$${`).
	LeftLexeme, RightLexeme string
}

// Delim is one left/right delimiter pair to search for.
type Delim struct {
	Left, Right string
}

// ErrUnbalanced is returned when a left delimiter is opened but never
// closed before the input ends.
type ErrUnbalanced struct {
	Delim Delim
	At    int
}

func (e *ErrUnbalanced) Error() string {
	return fmt.Sprintf("unbalanced %q at byte offset %d: no matching %q", e.Delim.Left, e.At, e.Delim.Right)
}

type frame struct {
	start int
	d     Delim
}

// FindAll scans s left to right for balanced, outermost regions opened by
// any of delims' left lexemes, honouring esc as the escape character (an
// escaped delimiter character never opens or closes a region). Matches are
// returned in the order their opening delimiter appears. Callers pass
// multiple Delims in one call only when their right lexemes may legally
// close one another's nesting (`${` and `$${` both close on `}`); a single
// shared stack tracks nesting depth across all of them so an inner `${...}`
// found while inside an outer `$${...}` is consumed, not reported.
func FindAll(s string, esc byte, delims ...Delim) ([]Match, error) {
	var matches []Match
	var stack []frame
	i := 0
	for i < len(s) {
		if s[i] == esc {
			i += 2
			continue
		}
		if d, ok := matchLongest(s, i, delims, leftOf); ok {
			stack = append(stack, frame{start: i, d: d})
			i += len(d.Left)
			continue
		}
		if len(stack) > 0 {
			if d, ok := matchLongest(s, i, delims, rightOf); ok {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				end := i + len(d.Right)
				if len(stack) == 0 {
					matches = append(matches, Match{
						StartIndex:  top.start,
						EndIndex:    end,
						OuterText:   s[top.start:end],
						InnerText:   s[top.start+len(top.d.Left) : i],
						LeftLexeme:  top.d.Left,
						RightLexeme: d.Right,
					})
				}
				i = end
				continue
			}
		}
		i++
	}
	if len(stack) > 0 {
		top := stack[0]
		return nil, &ErrUnbalanced{Delim: top.d, At: top.start}
	}
	return matches, nil
}

func leftOf(d Delim) string  { return d.Left }
func rightOf(d Delim) string { return d.Right }

// matchLongest returns the Delim whose lexeme (selected via sel) is the
// longest prefix match of s at position i, so `$${` is preferred over `${`
// when both could start at the same position.
func matchLongest(s string, i int, delims []Delim, sel func(Delim) string) (Delim, bool) {
	var best Delim
	found := false
	for _, d := range delims {
		lex := sel(d)
		if lex == "" {
			continue
		}
		if hasPrefixAt(s, i, lex) {
			if !found || len(lex) > len(sel(best)) {
				best = d
				found = true
			}
		}
	}
	return best, found
}

func hasPrefixAt(s string, i int, prefix string) bool {
	if i+len(prefix) > len(s) {
		return false
	}
	return s[i:i+len(prefix)] == prefix
}
