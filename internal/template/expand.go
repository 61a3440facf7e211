// Package template implements the variable resolver (spec.md §4.4) and the
// template expansion engine (spec.md §4.5, §4.6). The two are mutually
// recursive — resolving a variable expands its stored value as a
// sub-template, and expanding a sub-template resolves the variables it
// references — so both live in one package; internal/scope holds the pure
// data shape they share.
package template

import (
	"fmt"
	"strings"

	"github.com/cppbuild-go/cppbuild/internal/bracket"
	"github.com/cppbuild-go/cppbuild/internal/escape"
	"github.com/cppbuild-go/cppbuild/internal/value"
)

var (
	groupDelim    = bracket.Delim{Left: "(", Right: ")"}
	pathDelim     = bracket.Delim{Left: "[", Right: "]"}
	singleVarOpen = "${"
	multiVarOpen  = "$${"
	varDelims     = []bracket.Delim{
		{Left: singleVarOpen, Right: "}"},
		{Left: multiVarOpen, Right: "}"},
	}
)

// Expand evaluates tmpl against look per mode, implementing the four-pass
// rewrite of spec.md §4.5: groups, path groups, single-value variables,
// multi-value variables. Only the true top-level call should pass
// TopLevel; every internal recursive call uses SubTemplate, so the final
// unescape happens exactly once, here, for the outermost caller.
func Expand(tmpl string, mode Mode, look Lookup) (value.Value, error) {
	v, err := expandPasses(tmpl, mode, look)
	if err != nil {
		return value.Value{}, err
	}
	if mode == TopLevel {
		return value.Of(escape.Unescape(v.Join())), nil
	}
	return v, nil
}

func expandPasses(tmpl string, mode Mode, look Lookup) (value.Value, error) {
	s, err := passGroups(tmpl, look)
	if err != nil {
		return value.Value{}, err
	}
	s, err = passPathGroups(s, mode, look)
	if err != nil {
		return value.Value{}, err
	}
	s, err = passSingleVar(s, mode, look)
	if err != nil {
		return value.Value{}, err
	}
	return passMultiVar(s, mode, look)
}

// passGroups implements §4.5 rule 1: each (...) region's inner text is
// expanded in sub-template mode; a multi-valued result is space-joined.
func passGroups(tmpl string, look Lookup) (string, error) {
	matches, err := bracket.FindAll(tmpl, '\\', groupDelim)
	if err != nil {
		return "", err
	}
	return rewrite(tmpl, matches, func(m bracket.Match) (string, error) {
		inner, err := Expand(m.InnerText, SubTemplate, look)
		if err != nil {
			return "", err
		}
		return strings.Join(inner.Items(), " "), nil
	})
}

// passPathGroups implements §4.5 rule 2: each [...] region's inner text is
// expanded in sub-template mode, then every resulting value is passed
// through escape.FormatPath. If this call is itself evaluating a
// sub-template and the formatted result is still multi-valued, it is
// re-encoded as a synthetic $${...} list literal so a later multi-value
// pass can still fan out over it; otherwise the values are space-joined.
func passPathGroups(tmpl string, mode Mode, look Lookup) (string, error) {
	matches, err := bracket.FindAll(tmpl, '\\', pathDelim)
	if err != nil {
		return "", err
	}
	return rewrite(tmpl, matches, func(m bracket.Match) (string, error) {
		inner, err := Expand(m.InnerText, SubTemplate, look)
		if err != nil {
			return "", err
		}
		items := inner.Items()
		formatted := make([]string, len(items))
		for i, it := range items {
			formatted[i] = escape.FormatPath(it)
		}
		if mode == SubTemplate && inner.IsMulti() {
			return multiVarOpen + Join(formatted) + "}", nil
		}
		return strings.Join(formatted, " "), nil
	})
}

// passSingleVar implements §4.5 rule 3: ${name} resolves name and inserts
// its value; a multi-valued result is re-encoded as a synthetic $${...}
// list literal in sub-template context (to preserve fan-out), or
// space-joined otherwise. Matches are found together with $${...} so the
// bracket matcher's shared-closer handling applies, then filtered down to
// the "${" lexeme.
func passSingleVar(tmpl string, mode Mode, look Lookup) (string, error) {
	matches, err := bracket.FindAll(tmpl, '\\', varDelims...)
	if err != nil {
		return "", err
	}
	matches = filterByLeftLexeme(matches, singleVarOpen)
	return rewrite(tmpl, matches, func(m bracket.Match) (string, error) {
		name := strings.TrimSpace(m.InnerText)
		v, err := look.Resolve(name)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", name, err)
		}
		if mode == SubTemplate && v.IsMulti() {
			return multiVarOpen + Join(v.Items()) + "}", nil
		}
		return v.Join(), nil
	})
}

// passMultiVar implements §4.5 rule 4 and §4.6: $${expr} where expr is a
// bare variable name, a literal comma-separated list, or a glob pattern.
// At top level each occurrence is independently resolved and space-joined
// in place. In sub-template mode at most one occurrence may actually
// resolve multi-valued; that one fans out by cloning the whole current
// string once per value, while any other (necessarily scalar) occurrences
// are substituted directly. Two genuinely multi-valued occurrences in the
// same sub-template is an arity error (it would require a Cartesian
// product the grammar does not define).
func passMultiVar(tmpl string, mode Mode, look Lookup) (value.Value, error) {
	matches, err := bracket.FindAll(tmpl, '\\', varDelims...)
	if err != nil {
		return value.Value{}, err
	}
	matches = filterByLeftLexeme(matches, multiVarOpen)
	if len(matches) == 0 {
		return value.Of(tmpl), nil
	}

	resolved := make([]value.Value, len(matches))
	for i, m := range matches {
		v, err := resolveMultiExpr(strings.TrimSpace(m.InnerText), look)
		if err != nil {
			return value.Value{}, err
		}
		resolved[i] = v
	}

	if mode == TopLevel {
		s, err := rewriteResolved(tmpl, matches, resolved, func(v value.Value) (string, error) {
			return v.Join(), nil
		})
		if err != nil {
			return value.Value{}, err
		}
		return value.Of(s), nil
	}

	fanIdx := -1
	for i, v := range resolved {
		if v.IsMulti() {
			if fanIdx != -1 {
				return value.Value{}, fmt.Errorf("sub-template %q references more than one multi-valued expression", tmpl)
			}
			fanIdx = i
		}
	}

	if fanIdx == -1 {
		s, err := rewriteResolved(tmpl, matches, resolved, func(v value.Value) (string, error) {
			return v.Join(), nil
		})
		if err != nil {
			return value.Value{}, err
		}
		return value.Of(s), nil
	}

	base, err := rewriteResolved(tmpl, matches, resolved, func(v value.Value) (string, error) {
		if v.IsMulti() {
			return "", nil // placeholder; fan match handled below
		}
		return v.Join(), nil
	})
	if err != nil {
		return value.Value{}, err
	}

	fanMatch := matches[fanIdx]
	placeholderStart, placeholderEnd := remapFanRange(matches, resolved, fanIdx, tmpl, base)
	clones := make([]string, 0, len(resolved[fanIdx].Items()))
	for _, item := range resolved[fanIdx].Items() {
		clone := base[:placeholderStart] + item + base[placeholderEnd:]
		v, err := Expand(clone, SubTemplate, look)
		if err != nil {
			return value.Value{}, fmt.Errorf("re-expand fan-out clone of %q: %w", fanMatch.OuterText, err)
		}
		clones = append(clones, v.Items()...)
	}
	return value.OfList(value.Uniq(clones)), nil
}

// rewriteResolved substitutes each match with render(resolved value),
// left to right, returning the rewritten string.
func rewriteResolved(s string, matches []bracket.Match, resolved []value.Value, render func(value.Value) (string, error)) (string, error) {
	var b strings.Builder
	last := 0
	for i, m := range matches {
		b.WriteString(s[last:m.StartIndex])
		r, err := render(resolved[i])
		if err != nil {
			return "", err
		}
		b.WriteString(r)
		last = m.EndIndex
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

// remapFanRange locates, in the already-rewritten base string, the byte
// range that stands in for the fanning match (an empty placeholder, since
// rewriteResolved rendered it as ""). Because every match before fanIdx
// keeps its own rendered width and every match after it is untouched in
// position relative to the placeholder, the placeholder's start is the
// fanning match's original start shifted by the net length delta of all
// earlier substitutions.
func remapFanRange(matches []bracket.Match, resolved []value.Value, fanIdx int, orig, base string) (int, int) {
	delta := 0
	for i := 0; i < fanIdx; i++ {
		rendered := resolved[i].Join()
		origLen := matches[i].EndIndex - matches[i].StartIndex
		delta += len(rendered) - origLen
	}
	start := matches[fanIdx].StartIndex + delta
	return start, start
}

// filterByLeftLexeme keeps only matches whose LeftLexeme equals lexeme,
// preserving order. Used to split a combined ${...}/$${...} scan (needed
// for correct shared-closer nesting) back into per-pass match sets.
func filterByLeftLexeme(matches []bracket.Match, lexeme string) []bracket.Match {
	out := matches[:0:0]
	for _, m := range matches {
		if m.LeftLexeme == lexeme {
			out = append(out, m)
		}
	}
	return out
}

// rewrite substitutes each match in s with render(match), left to right.
func rewrite(s string, matches []bracket.Match, render func(bracket.Match) (string, error)) (string, error) {
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m.StartIndex])
		r, err := render(m)
		if err != nil {
			return "", err
		}
		b.WriteString(r)
		last = m.EndIndex
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

// resolveMultiExpr classifies and resolves the content of a $${...}
// expression per spec.md §4.5 rule 4 / §4.6: text containing a comma or a
// single quote is a literal list, otherwise text containing a glob
// metacharacter (*, ?, [) is a glob pattern, otherwise it is a bare
// variable name, so a plain identifier is never misread as a one-element
// list.
func resolveMultiExpr(inner string, look Lookup) (value.Value, error) {
	if strings.ContainsAny(inner, ",'") {
		items, err := Parse(inner)
		if err != nil {
			return value.Value{}, err
		}
		return value.OfList(items), nil
	}
	if containsGlobMeta(inner) {
		return look.Glob(inner)
	}
	return look.Resolve(inner)
}

func containsGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
