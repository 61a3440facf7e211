package template

import (
	"fmt"
	"testing"

	"github.com/cppbuild-go/cppbuild/internal/scope"
	"github.com/cppbuild-go/cppbuild/internal/value"
)

func newTestResolver(vars map[string]value.Value) *Resolver {
	s := scope.New()
	for k, v := range vars {
		s.Set(k, v)
	}
	r := NewResolver(scope.Stack{s}, "/workspace")
	r.Env = func(string) (string, bool) { return "", false }
	return r
}

func TestExpandPathGroupFansMultiValueAtTopLevel(t *testing.T) {
	r := newTestResolver(map[string]value.Value{
		"t1": value.OfList([]string{"b b", "c c c", "dddd"}),
	})
	got, err := Expand("[$${t1}]", TopLevel, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `"b b" "c c c" dddd`
	if got.Single != want {
		t.Errorf("got %q, want %q", got.Single, want)
	}
}

func TestExpandGroupJoinsFannedPathGroup(t *testing.T) {
	r := newTestResolver(map[string]value.Value{
		"t1": value.OfList([]string{"b b", "c c c", "dddd"}),
	})
	got, err := Expand("(f:[$${t1}])", TopLevel, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `f:"b b" f:"c c c" f:dddd`
	if got.Single != want {
		t.Errorf("got %q, want %q", got.Single, want)
	}
}

func TestExpandNestedGroupsAndListLiteralFanOut(t *testing.T) {
	r := newTestResolver(map[string]value.Value{
		"t0": value.OfList([]string{
			"a",
			"(-$${t1})",
			"(+$${t2})",
			"${t3}",
			"$${g, h}",
		}),
		"t1": value.OfList([]string{"b", "c"}),
		"t2": value.OfList([]string{"d", "e"}),
		"t3": value.Of("f"),
	})
	got, err := Expand("($${t0})", TopLevel, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "a -b -c +d +e f g h"
	if got.Single != want {
		t.Errorf("got %q, want %q", got.Single, want)
	}
}

func TestExpandSubTemplateArityErrorOnTwoMultiValues(t *testing.T) {
	r := newTestResolver(map[string]value.Value{
		"xs": value.OfList([]string{"1", "2"}),
		"ys": value.OfList([]string{"a", "b"}),
	})
	_, err := Expand("($${xs} $${ys})", TopLevel, r)
	if err == nil {
		t.Fatal("expected an arity error for two multi-valued expressions in one sub-template")
	}
}

func TestExpandSubTemplateArityOkWhenOneSideScalar(t *testing.T) {
	r := newTestResolver(map[string]value.Value{
		"xs": value.OfList([]string{"1", "2"}),
		"ys": value.Of("a"),
	})
	got, err := Expand("($${xs} $${ys})", TopLevel, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "1 a 2 a"
	if got.Single != want {
		t.Errorf("got %q, want %q", got.Single, want)
	}
}

func TestExpandLiteralTextUnescapedOnlyAtTopLevel(t *testing.T) {
	r := newTestResolver(nil)
	got, err := Expand(`a\,b`, TopLevel, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Single != "a,b" {
		t.Errorf("got %q, want %q", got.Single, "a,b")
	}
}

func TestExpandMultipleTopLevelMultiVarsEachIndependentlyJoined(t *testing.T) {
	r := newTestResolver(map[string]value.Value{
		"xs": value.OfList([]string{"1", "2"}),
		"ys": value.OfList([]string{"a", "b"}),
	})
	got, err := Expand("$${xs} $${ys}", TopLevel, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Single != "1 2 a b" {
		t.Errorf("got %q", got.Single)
	}
}

func TestExpandUnknownVariableError(t *testing.T) {
	r := newTestResolver(nil)
	_, err := Expand("${missing}", TopLevel, r)
	if err == nil {
		t.Fatal("expected an error for unknown variable")
	}
}

func ExampleExpand() {
	r := newTestResolver(map[string]value.Value{"name": value.Of("world")})
	v, _ := Expand("hello ${name}", TopLevel, r)
	fmt.Println(v.Single)
	// Output: hello world
}
