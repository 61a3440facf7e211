// Package value implements the Value data type shared by the scope,
// template, and executor packages: a variable is either a single string
// or an ordered sequence of strings.
package value

import "strings"

// Kind tags which arm of Value is populated.
type Kind int

const (
	// Scalar holds a single string in Single.
	Scalar Kind = iota
	// Multi holds an ordered sequence of strings in List.
	Multi
)

// Value is a tagged union: exactly one of Single (when Kind == Scalar) or
// List (when Kind == Multi) is meaningful. The zero Value is the empty
// scalar string, identical to Of(""); an absent variable is told apart from
// one set to "" by Scope.Get's ok result, not by the Value itself.
type Value struct {
	Kind   Kind
	Single string
	List   []string
}

// Of wraps a single string as a scalar Value.
func Of(s string) Value {
	return Value{Kind: Scalar, Single: s}
}

// OfList wraps a sequence of strings as a multi-valued Value. A nil or
// empty slice is a legal, empty sequence.
func OfList(items []string) Value {
	return Value{Kind: Multi, List: items}
}

// IsMulti reports whether v carries a sequence rather than a scalar.
func (v Value) IsMulti() bool {
	return v.Kind == Multi
}

// AsScalar returns v as a single string. Multi-valued Values are rejected
// with ok=false so callers can surface the "collapse to scalar" invariant
// error required by the data model (spec.md §3).
func (v Value) AsScalar() (string, bool) {
	if v.Kind == Multi {
		return "", false
	}
	return v.Single, true
}

// Items returns v's contents as a slice, promoting a scalar to a
// single-element slice. It never returns nil.
func (v Value) Items() []string {
	if v.Kind == Multi {
		if v.List == nil {
			return []string{}
		}
		return v.List
	}
	return []string{v.Single}
}

// Join renders v as a single string, space-joining a multi-valued Value.
// This is the "top-level context" collapse used throughout the template
// expansion engine (spec.md §4.5).
func (v Value) Join() string {
	if v.Kind == Scalar {
		return v.Single
	}
	return strings.Join(v.List, " ")
}

// Uniq returns a copy of items with duplicates removed, keeping the first
// occurrence and preserving order. Used only at sub-template join points
// per spec.md §4.4 ("deduplicated by uniq only at sub-template join
// points, never during resolution itself").
func Uniq(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Extend returns a new multi-valued Value whose items are outer's items
// followed by extra's items, flattening either side's scalar form. The
// resolver does not call it: the "$${includePath}, /extra" outer-extension
// idiom of §4.4 rule 3 is handled by internal/template's expandScopeValue
// and innerResolver.
func Extend(outer, extra Value) Value {
	return OfList(append(append([]string{}, outer.Items()...), extra.Items()...))
}
