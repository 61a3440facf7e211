package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cppbuild-go/cppbuild/internal/globexpand"
	"github.com/cppbuild-go/cppbuild/internal/scope"
	"github.com/cppbuild-go/cppbuild/internal/value"
)

// CycleError reports a variable whose resolution transitively depends on
// itself (spec.md §4.4 rule 4).
type CycleError struct {
	Name string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("variable %q is involved in a resolution cycle", e.Name)
}

type entryStatus int

const (
	statusInProgress entryStatus = iota
	statusDone
)

type cacheEntry struct {
	status entryStatus
	val    value.Value
	err    error
}

// Resolver implements the variable resolution algorithm of spec.md §4.4
// over a scope stack: the `~` home-directory rule, the `env:` prefix rule,
// and the outer-to-inner scope walk with sub-template expansion and
// self-reference extension. A Resolver's cache is both a memoisation table
// and its cycle detector, so one Resolver should back exactly one
// resolution session (typically one build step's variable lookups).
type Resolver struct {
	Stack         scope.Stack
	WorkspaceRoot string
	GlobMode      globexpand.Mode

	cache map[string]*cacheEntry

	// Env and HomeDir are overridable for tests; they default to the OS.
	Env     func(string) (string, bool)
	HomeDir func() (string, error)
}

// NewResolver returns a Resolver ready to resolve variables against stack,
// expanding glob patterns relative to workspaceRoot.
func NewResolver(stack scope.Stack, workspaceRoot string) *Resolver {
	return &Resolver{
		Stack:         stack,
		WorkspaceRoot: workspaceRoot,
		GlobMode:      globexpand.ExpandAll,
		cache:         make(map[string]*cacheEntry),
		Env:           os.LookupEnv,
		HomeDir:       os.UserHomeDir,
	}
}

// Resolve returns the fully-expanded value of name, memoising the result
// for subsequent lookups within this Resolver's lifetime.
func (r *Resolver) Resolve(name string) (value.Value, error) {
	if strings.HasPrefix(name, "~") {
		return r.resolveHome(name)
	}
	if rest, ok := strings.CutPrefix(name, "env:"); ok {
		return r.resolveEnv(rest)
	}

	if e, ok := r.cache[name]; ok {
		if e.status == statusInProgress {
			return value.Value{}, &CycleError{Name: name}
		}
		return e.val, e.err
	}
	r.cache[name] = &cacheEntry{status: statusInProgress}

	val, err := r.walkScopes(name)
	r.cache[name] = &cacheEntry{status: statusDone, val: val, err: err}
	return val, err
}

// Glob implements Lookup.Glob by expanding pattern against WorkspaceRoot.
func (r *Resolver) Glob(pattern string) (value.Value, error) {
	matches, err := globexpand.Expand(r.WorkspaceRoot, pattern, r.GlobMode)
	if err != nil {
		return value.Value{}, err
	}
	return value.OfList(matches), nil
}

func (r *Resolver) resolveHome(name string) (value.Value, error) {
	home, err := r.HomeDir()
	if err != nil {
		return value.Value{}, fmt.Errorf("resolve %q: %w", name, err)
	}
	rest := strings.TrimPrefix(name, "~")
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return value.Of(home), nil
	}
	return value.Of(filepath.Join(home, rest)), nil
}

func (r *Resolver) resolveEnv(key string) (value.Value, error) {
	v, ok := r.Env(key)
	if !ok {
		return value.Value{}, fmt.Errorf("environment variable %q is not set", key)
	}
	return value.Of(v), nil
}

// walkScopes implements §4.4 rule 3: walk the stack outermost to
// innermost; each layer that defines name has its raw value expanded as a
// sub-template, with self-references resolved to the value accumulated
// from less-inner layers so far. A layer's expansion result replaces the
// accumulated value outright (ordinary shadowing); a layer only extends
// rather than replaces when its own template explicitly references name.
func (r *Resolver) walkScopes(name string) (value.Value, error) {
	var accumulated value.Value
	have := false
	for _, layer := range r.Stack.Layers() {
		raw, ok := layer.Get(name)
		if !ok {
			continue
		}
		ir := &innerResolver{outer: r, name: name, accumulated: accumulated, have: have}
		v, err := expandScopeValue(raw, ir)
		if err != nil {
			return value.Value{}, fmt.Errorf("resolve %q: %w", name, err)
		}
		accumulated = v
		have = true
	}
	if !have {
		return value.Value{}, fmt.Errorf("unknown variable %q", name)
	}
	return accumulated, nil
}

// expandScopeValue expands a scope layer's raw stored Value as a
// sub-template. A scalar value is one template string; a multi-valued
// value is a literal list of template strings, each expanded and
// flattened in order (this is how the "$${includePath}, /extra"
// outer-extension idiom is expressed in a JSON-authored build file).
func expandScopeValue(raw value.Value, look Lookup) (value.Value, error) {
	if !raw.IsMulti() {
		return Expand(raw.Single, SubTemplate, look)
	}
	var items []string
	for _, item := range raw.List {
		v, err := Expand(item, SubTemplate, look)
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, v.Items()...)
	}
	return value.OfList(items), nil
}

// innerResolver wraps a Resolver for the duration of expanding one scope
// layer's raw value, intercepting lookups of the variable currently being
// resolved so they return the value accumulated from outer layers instead
// of recursing. A self-reference before any outer layer has defined the
// name is an error, not a cycle through the memoisation cache — it is
// caught here, directly, without ever calling back into Resolver.Resolve.
type innerResolver struct {
	outer       *Resolver
	name        string
	accumulated value.Value
	have        bool
}

func (ir *innerResolver) Resolve(name string) (value.Value, error) {
	if name == ir.name {
		if !ir.have {
			return value.Value{}, fmt.Errorf("variable %q references itself before any outer value exists", name)
		}
		return ir.accumulated, nil
	}
	return ir.outer.Resolve(name)
}

func (ir *innerResolver) Glob(pattern string) (value.Value, error) {
	return ir.outer.Glob(pattern)
}
