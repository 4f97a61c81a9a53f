package quilt

import (
	"strings"

	"github.com/pthm/quilt/pkg/sqldsl"
)

// Binding pairs an assembled dependency with the alias it is published as in
// a WITH clause.
type Binding struct {
	Alias string
	Query Query
}

// Builder constructs the structural SQL pieces the composer assembles
// fragments with. The composer never renders SQL text itself.
type Builder interface {
	// Subquery wraps q as a derived table named alias.
	Subquery(q Query, alias string) Source

	// Ref returns a bare reference to the named result alias.
	Ref(alias string) Source

	// With attaches bindings to q as its WITH clause, in order.
	With(bindings []Binding, q Query) Query
}

// DSLBuilder is the Builder backed by package sqldsl. It is the default.
type DSLBuilder struct{}

var _ Builder = DSLBuilder{}

// Subquery implements Builder.
func (DSLBuilder) Subquery(q Query, alias string) Source {
	return sqldsl.Subquery{Query: q, Alias: alias}
}

// Ref implements Builder.
func (DSLBuilder) Ref(alias string) Source {
	return sqldsl.Ref(alias)
}

// nestedRootAlias names the derived table a root WITH query is wrapped in
// when its CTEs cannot be merged with the bindings.
const nestedRootAlias = "root"

// With implements Builder. When q already carries its own WITH clause the
// bindings are prepended to it, so a single WITH clause is rendered. A
// RECURSIVE clause, or one defining a name a binding also uses, is kept
// intact instead and selected from as a derived table under the bindings.
func (DSLBuilder) With(bindings []Binding, q Query) Query {
	if len(bindings) == 0 {
		return q
	}
	ctes := make([]sqldsl.CTEDef, len(bindings))
	for i, b := range bindings {
		ctes[i] = sqldsl.CTEDef{Name: b.Alias, Query: b.Query}
	}
	if inner, ok := q.(sqldsl.WithCTE); ok {
		if canMerge(ctes, inner) {
			return inner.Prepend(ctes...)
		}
		q = sqldsl.SelectStmt{FromExpr: sqldsl.Subquery{Query: inner, Alias: nestedRootAlias}}
	}
	return sqldsl.MultiCTE(false, ctes, q)
}

// canMerge reports whether ctes can join inner's WITH clause without
// changing what any name refers to.
func canMerge(ctes []sqldsl.CTEDef, inner sqldsl.WithCTE) bool {
	if inner.Recursive {
		return false
	}
	names := make(map[string]bool, len(ctes))
	for _, c := range ctes {
		names[identKey(c.Name)] = true
	}
	for _, c := range inner.CTEs {
		if names[identKey(c.Name)] {
			return false
		}
	}
	return true
}

// identKey folds an identifier the way PostgreSQL compares them: quoted
// names are exact, bare names are case-insensitive.
func identKey(name string) string {
	if len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"' {
		return strings.ReplaceAll(name[1:len(name)-1], `""`, `"`)
	}
	return strings.ToLower(name)
}
