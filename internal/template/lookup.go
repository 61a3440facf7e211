package template

import "github.com/cppbuild-go/cppbuild/internal/value"

// Lookup is the evaluation-time dependency the expansion engine needs: a
// way to resolve a variable by name (§4.4) and a way to expand a glob
// pattern found inside a $${...} multi-value expression (§4.3, §4.5 rule
// 4c). *Resolver implements it directly; sub-template evaluation of a
// self-referencing scope layer wraps it in an innerResolver that special
// cases the name currently being resolved.
type Lookup interface {
	Resolve(name string) (value.Value, error)
	Glob(pattern string) (value.Value, error)
}
