// Package scope defines the layered variable environment of spec.md §3:
// a Scope is a name-to-Value mapping, and a ScopeStack is an ordered list
// of Scopes where later scopes shadow earlier ones. The lookup and
// sub-template evaluation behaviour that turns a ScopeStack into resolved
// values lives in internal/template, which is mutually recursive with
// expansion; this package holds only the data shape both sides share.
package scope

import "github.com/cppbuild-go/cppbuild/internal/value"

// Scope is one layer of the environment: a mapping from variable name
// (matching [A-Za-z0-9_-]+ per spec.md §3) to its raw, unexpanded Value.
// A scope's stored Value is itself a template fragment — its final
// resolved form is computed lazily by the resolver, never at construction.
type Scope map[string]value.Value

// New returns an empty Scope.
func New() Scope {
	return make(Scope)
}

// Set stores a raw value under name, overwriting any prior value in this
// scope (not in outer scopes — scopes never mutate their parents).
func (s Scope) Set(name string, v value.Value) {
	s[name] = v
}

// SetString is a convenience for Set(name, value.Of(s)).
func (s Scope) SetString(name, v string) {
	s[name] = value.Of(v)
}

// SetList is a convenience for Set(name, value.OfList(items)).
func (s Scope) SetList(name string, items []string) {
	s[name] = value.OfList(items)
}

// Get returns the raw value stored for name in this scope and whether it
// was present.
func (s Scope) Get(name string) (value.Value, bool) {
	v, ok := s[name]
	return v, ok
}

// Stack is an ordered list of Scopes, innermost last: later entries shadow
// earlier ones on name collision. The layer order named in spec.md §3 is:
// global defaults, C/C++ properties, file-wide params, configuration
// params, build-type params, step params, per-file command scope,
// CLI-provided overrides.
type Stack []Scope

// Push returns a new Stack with s appended as the innermost layer. The
// receiver is left unmodified, so callers can safely push a per-file scope
// onto a shared, concurrently-used base stack (spec.md §3's "Lifecycle").
func (st Stack) Push(s Scope) Stack {
	next := make(Stack, len(st)+1)
	copy(next, st)
	next[len(st)] = s
	return next
}

// Layers returns the stack's scopes from outermost to innermost.
func (st Stack) Layers() []Scope {
	return st
}
