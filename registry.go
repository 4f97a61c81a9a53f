package quilt

import (
	"fmt"
	"sort"
)

// BuildFunc builds a fragment's query. It receives one Source per declared
// dependency, in declaration order, and must return a query: a sqldsl
// statement, a query builder, or anything else with a SQL() string method.
// Returning an error fails the build with that error.
type BuildFunc func(deps ...Source) any

// Fragment is a registered fragment definition.
type Fragment struct {
	// Deps lists the fragments this one depends on. Each name is both a
	// dependency edge and the positional slot its Source is passed in.
	Deps []string

	// Build produces the fragment's query.
	Build BuildFunc
}

// Registry maps fragment names to their definitions.
//
// A Registry is not safe for concurrent mutation; callers serialize Use,
// Alias and Delete against Build.
type Registry struct {
	fragments map[string]Fragment
	version   uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{fragments: make(map[string]Fragment)}
}

// Use registers fn under name, depending on deps. An existing fragment with
// the same name is replaced. Dependencies are not checked until build time,
// so fragments may be registered in any order.
func (r *Registry) Use(name string, fn BuildFunc, deps ...string) error {
	if name == "" {
		return fmt.Errorf("%w: empty fragment name", ErrInvalidFragment)
	}
	if fn == nil {
		return fmt.Errorf("%w: %q has no build function", ErrInvalidFragment, name)
	}
	r.fragments[name] = Fragment{
		Deps:  append([]string(nil), deps...),
		Build: fn,
	}
	r.version++
	return nil
}

// MustUse is like Use but panics on error. Intended for static registrations.
func (r *Registry) MustUse(name string, fn BuildFunc, deps ...string) {
	if err := r.Use(name, fn, deps...); err != nil {
		panic(err)
	}
}

// Alias registers a copy of the existing fragment under newName.
// Later changes to existing do not affect the copy.
func (r *Registry) Alias(newName, existing string) error {
	f, ok := r.fragments[existing]
	if !ok {
		return &UnknownFragmentError{Name: existing}
	}
	return r.Use(newName, f.Build, f.Deps...)
}

// Delete removes a fragment. Deleting an unknown name is a no-op.
func (r *Registry) Delete(name string) {
	if _, ok := r.fragments[name]; !ok {
		return
	}
	delete(r.fragments, name)
	r.version++
}

// Lookup returns the fragment registered under name.
func (r *Registry) Lookup(name string) (Fragment, bool) {
	f, ok := r.fragments[name]
	return f, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.fragments[name]
	return ok
}

// Names returns the registered fragment names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fragments))
	for name := range r.fragments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered fragments.
func (r *Registry) Len() int {
	return len(r.fragments)
}

// Version increases every time the registry is modified.
func (r *Registry) Version() uint64 {
	return r.version
}
