package quilt_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/pthm/quilt"
	"github.com/pthm/quilt/pkg/query"
)

func table(name string) quilt.BuildFunc {
	return func(...quilt.Source) any {
		return query.FromTable(name, "")
	}
}

func passthrough(deps ...quilt.Source) any {
	if len(deps) == 0 {
		return query.FromTable("dual", "")
	}
	return query.From(deps[0])
}

func TestResolve_Leaf(t *testing.T) {
	reg := quilt.NewRegistry()
	reg.MustUse("companies", table("companies"))

	order, err := quilt.Resolve(reg, "companies")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(order) != 0 {
		t.Errorf("Resolve() = %v, want empty order", order)
	}
}

func TestResolve_DeclarationOrder(t *testing.T) {
	reg := quilt.NewRegistry()
	reg.MustUse("companies", table("companies"))
	reg.MustUse("people", table("people"))
	reg.MustUse("joined", passthrough, "people", "companies")

	order, err := quilt.Resolve(reg, "joined")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := []string{"people", "companies"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("Resolve() = %v, want %v", order, want)
	}
}

func TestResolve_Diamond(t *testing.T) {
	// root → left → base, root → right → base
	reg := quilt.NewRegistry()
	reg.MustUse("base", table("base"))
	reg.MustUse("left", passthrough, "base")
	reg.MustUse("right", passthrough, "base")
	reg.MustUse("root", passthrough, "left", "right")

	order, err := quilt.Resolve(reg, "root")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := []string{"base", "left", "right"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("Resolve() = %v, want %v", order, want)
	}
}

func TestResolve_DependenciesBeforeDependents(t *testing.T) {
	reg := quilt.NewRegistry()
	reg.MustUse("a", table("a"))
	reg.MustUse("b", passthrough, "a")
	reg.MustUse("c", passthrough, "b", "a")
	reg.MustUse("d", passthrough, "c", "b")
	reg.MustUse("e", passthrough, "a", "d")

	order, err := quilt.Resolve(reg, "e")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	pos := make(map[string]int, len(order))
	for i, name := range order {
		if _, dup := pos[name]; dup {
			t.Fatalf("%q appears twice in %v", name, order)
		}
		pos[name] = i
	}
	if _, ok := pos["e"]; ok {
		t.Fatalf("root must not be in order %v", order)
	}
	if len(order) != 4 {
		t.Fatalf("Resolve() = %v, want 4 fragments", order)
	}
	for _, name := range order {
		frag, _ := reg.Lookup(name)
		for _, dep := range frag.Deps {
			if pos[dep] >= pos[name] {
				t.Errorf("%q must come before %q in %v", dep, name, order)
			}
		}
	}
}

func TestResolve_SelfReference(t *testing.T) {
	reg := quilt.NewRegistry()
	reg.MustUse("x", passthrough, "x")

	_, err := quilt.Resolve(reg, "x")
	if !quilt.IsCircularDependencyErr(err) {
		t.Fatalf("expected circular dependency error, got %v", err)
	}
	var cycleErr *quilt.CircularDependencyError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CircularDependencyError, got %T", err)
	}
	if want := []string{"x", "x"}; !reflect.DeepEqual(cycleErr.Cycle, want) {
		t.Errorf("Cycle = %v, want %v", cycleErr.Cycle, want)
	}
}

func TestResolve_TwoWayCycle(t *testing.T) {
	reg := quilt.NewRegistry()
	reg.MustUse("a", passthrough, "b")
	reg.MustUse("b", passthrough, "a")

	_, err := quilt.Resolve(reg, "a")
	var cycleErr *quilt.CircularDependencyError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CircularDependencyError, got %v", err)
	}
	if cycleErr.Fragment != "b" {
		t.Errorf("Fragment = %q, want %q", cycleErr.Fragment, "b")
	}
	if want := []string{"a", "b", "a"}; !reflect.DeepEqual(cycleErr.Cycle, want) {
		t.Errorf("Cycle = %v, want %v", cycleErr.Cycle, want)
	}
	if !strings.Contains(err.Error(), "a → b → a") {
		t.Errorf("error should show the cycle path, got: %s", err)
	}
}

func TestResolve_CycleBelowRoot(t *testing.T) {
	// root → a → b → c → a
	reg := quilt.NewRegistry()
	reg.MustUse("root", passthrough, "a")
	reg.MustUse("a", passthrough, "b")
	reg.MustUse("b", passthrough, "c")
	reg.MustUse("c", passthrough, "a")

	_, err := quilt.Resolve(reg, "root")
	var cycleErr *quilt.CircularDependencyError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CircularDependencyError, got %v", err)
	}
	if want := []string{"a", "b", "c", "a"}; !reflect.DeepEqual(cycleErr.Cycle, want) {
		t.Errorf("Cycle = %v, want %v", cycleErr.Cycle, want)
	}
}

func TestResolve_MissingDependency(t *testing.T) {
	reg := quilt.NewRegistry()
	reg.MustUse("x", passthrough, "missing")

	_, err := quilt.Resolve(reg, "x")
	if !quilt.IsUnknownFragmentErr(err) {
		t.Fatalf("expected unknown fragment error, got %v", err)
	}
	var unknown *quilt.UnknownFragmentError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownFragmentError, got %T", err)
	}
	if unknown.Name != "missing" || unknown.Referrer != "x" {
		t.Errorf("got Name=%q Referrer=%q, want missing/x", unknown.Name, unknown.Referrer)
	}
}

func TestResolve_MissingRoot(t *testing.T) {
	reg := quilt.NewRegistry()

	_, err := quilt.Resolve(reg, "nope")
	var unknown *quilt.UnknownFragmentError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownFragmentError, got %v", err)
	}
	if unknown.Name != "nope" || unknown.Referrer != "" {
		t.Errorf("got Name=%q Referrer=%q, want nope with no referrer", unknown.Name, unknown.Referrer)
	}
}
