package quilt

import (
	"fmt"
	"reflect"
)

// invoke calls a fragment's build function with the sources of its declared
// dependencies and normalizes the result into a Query.
//
// Builders exposing Build() sqldsl.SelectStmt are snapshotted into their
// statement so later changes to the builder cannot leak into the assembled
// query. A returned error fails the build as is.
func invoke(reg *Registry, name string, sources map[string]Source) (Query, error) {
	frag, ok := reg.Lookup(name)
	if !ok {
		return nil, &UnknownFragmentError{Name: name}
	}

	args := make([]Source, len(frag.Deps))
	for i, dep := range frag.Deps {
		src, ok := sources[dep]
		if !ok {
			return nil, &UnknownFragmentError{Name: dep, Referrer: name}
		}
		args[i] = src
	}

	return normalize(name, frag.Build(args...))
}

func normalize(name string, v any) (Query, error) {
	if v == nil {
		return nil, &InvalidFragmentError{Name: name, Got: "nil"}
	}
	if isNil(v) {
		return nil, &InvalidFragmentError{Name: name, Got: fmt.Sprintf("nil %T", v)}
	}
	switch q := v.(type) {
	case error:
		return nil, fmt.Errorf("fragment %q: %w", name, q)
	case Structured:
		return q.Build(), nil
	case Query:
		return q, nil
	default:
		return nil, &InvalidFragmentError{Name: name, Got: fmt.Sprintf("%T", v)}
	}
}

// isNil reports whether v holds a typed nil.
func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
