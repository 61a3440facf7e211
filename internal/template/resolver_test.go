package template

import (
	"errors"
	"testing"

	"github.com/cppbuild-go/cppbuild/internal/scope"
	"github.com/cppbuild-go/cppbuild/internal/value"
)

func TestResolverMemoizesAcrossRepeatedLookups(t *testing.T) {
	s := scope.New()
	s.Set("counted", value.Of("${base}"))
	s.Set("base", value.Of("x"))
	r := NewResolver(scope.Stack{s}, "/workspace")
	r.Env = func(string) (string, bool) { return "", false }

	// A cycle-free lookup of the same name twice must return the cached
	// result without re-walking the scope stack: the backing scope is
	// changed between the two lookups, so a second walk would see "y".
	first, err := r.Resolve("counted")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Set("base", value.Of("y"))
	second, err := r.Resolve("counted")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Single != second.Single {
		t.Fatalf("memoised lookups diverged: %q vs %q", first.Single, second.Single)
	}
	if first.Single != "x" {
		t.Errorf("got %q, want %q", first.Single, "x")
	}
}

func TestResolverDirectSelfReferenceCycle(t *testing.T) {
	s := scope.New()
	s.Set("a", value.Of("${a}"))
	r := NewResolver(scope.Stack{s}, "/workspace")
	r.Env = func(string) (string, bool) { return "", false }

	_, err := r.Resolve("a")
	if err == nil {
		t.Fatal("expected an error for a variable that references itself before any outer value exists")
	}
}

func TestResolverIndirectCycleDetected(t *testing.T) {
	s := scope.New()
	s.Set("a", value.Of("${b}"))
	s.Set("b", value.Of("${a}"))
	r := NewResolver(scope.Stack{s}, "/workspace")
	r.Env = func(string) (string, bool) { return "", false }

	_, err := r.Resolve("a")
	if err == nil {
		t.Fatal("expected a cycle error for a -> b -> a")
	}
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected the chain to bottom out in a *CycleError, got %T: %v", err, err)
	}
}

func TestResolverOuterShadowingWithoutSelfReference(t *testing.T) {
	outer := scope.New()
	outer.Set("name", value.Of("outer"))
	inner := scope.New()
	inner.Set("name", value.Of("inner"))
	r := NewResolver(scope.Stack{outer, inner}, "/workspace")
	r.Env = func(string) (string, bool) { return "", false }

	v, err := r.Resolve("name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Single != "inner" {
		t.Errorf("got %q, want inner layer to shadow outer", v.Single)
	}
}

func TestResolverSelfReferenceExtendsOuterValue(t *testing.T) {
	outer := scope.New()
	outer.SetList("includePath", []string{"/usr/include"})
	inner := scope.New()
	inner.Set("includePath", value.OfList([]string{"$${includePath}", "/extra"}))
	r := NewResolver(scope.Stack{outer, inner}, "/workspace")
	r.Env = func(string) (string, bool) { return "", false }

	v, err := r.Resolve("includePath")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"/usr/include", "/extra"}
	got := v.Items()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResolverEnvPrefix(t *testing.T) {
	r := NewResolver(scope.Stack{scope.New()}, "/workspace")
	r.Env = func(key string) (string, bool) {
		if key == "PATH" {
			return "/bin", true
		}
		return "", false
	}
	v, err := r.Resolve("env:PATH")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Single != "/bin" {
		t.Errorf("got %q, want /bin", v.Single)
	}

	if _, err := r.Resolve("env:MISSING"); err == nil {
		t.Fatal("expected an error for an unset environment variable")
	}
}

func TestResolverHomePrefix(t *testing.T) {
	r := NewResolver(scope.Stack{scope.New()}, "/workspace")
	r.HomeDir = func() (string, error) { return "/home/dev", nil }

	v, err := r.Resolve("~/.config")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Single != "/home/dev/.config" {
		t.Errorf("got %q", v.Single)
	}
}
