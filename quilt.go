// Package quilt composes a single SQL query out of independently defined,
// named fragments.
//
// # Fragments
//
// A fragment is a function that returns a query. It declares, by name, the
// other fragments it depends on; each one is handed to it positionally as a
// table expression it can select from or join against:
//
//	reg := quilt.NewRegistry()
//	reg.Use("companies", func(...sqldsl.TableExpr) any {
//	    return query.FromTable("companies", "")
//	})
//	reg.Use("people", func(...sqldsl.TableExpr) any {
//	    return query.FromTable("people", "")
//	})
//	reg.Use("joined", func(deps ...sqldsl.TableExpr) any {
//	    people, companies := deps[0], deps[1]
//	    return query.From(people).
//	        Select(query.Col(people, "first_name"), query.Col(companies, "name")).
//	        InnerJoin(companies, sqldsl.Eq{
//	            Left:  query.Col(people, "company_id"),
//	            Right: query.Col(companies, "id"),
//	        })
//	}, "people", "companies")
//
// # Building
//
// A Composer resolves the dependency graph of a root fragment and assembles
// it into one query:
//
//	c := quilt.New(reg)
//	q, err := c.Build("joined")
//	fmt.Println(q.SQL())
//
// Two assembly strategies are available. The default nests every dependency
// as a derived table, "(SELECT ...) AS a". With UseCTE(true) every dependency
// becomes a common table expression in a single WITH clause and fragments
// refer to each other by name. Both produce the same result set.
//
// Dependencies are aliased with short generated names ("a", "b", ...) by
// default. UseAliases(false) aliases each dependency by its fragment name.
//
// # Errors
//
// Build fails with ErrUnknownFragment, ErrCircularDependency or
// ErrInvalidFragment (wrapped in typed errors carrying the fragment names).
// It never returns a partially assembled query.
//
// # Concurrency
//
// A Registry does no locking. Mutating it while a Build is running must be
// serialized by the caller.
package quilt

import (
	"github.com/pthm/quilt/pkg/sqldsl"
)

// Query is a renderable SQL statement. Fragments return queries and Build
// produces one.
type Query = sqldsl.SQLer

// Source is a dependency as seen by a fragment: something to select from or
// join against, referred to by its alias.
type Source = sqldsl.TableExpr

// Structured is implemented by query builders that can snapshot themselves
// into a SELECT statement, such as *query.SelectQuery.
type Structured interface {
	Build() sqldsl.SelectStmt
}
