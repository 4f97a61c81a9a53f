// Package sqldsl provides a typed DSL for building PostgreSQL SELECT queries.
//
// # Overview
//
// Rather than constructing SQL strings through concatenation or templating,
// this package provides typed building blocks that compose together to form
// complete queries. It is the SQL-expression builder that quilt fragments
// return values from, and the one the composer uses to nest those values as
// derived tables or chain them as common table expressions.
//
// # Core Interfaces
//
// All DSL types implement one of three interfaces:
//
//   - Expr: SQL expressions (columns, literals, operators, function calls)
//   - SQLer: complete SQL statements (SELECT, WITH, raw SQL)
//   - TableExpr: things that can appear in FROM and JOIN clauses
//
// Expr and SQLer define a SQL() method that renders the PostgreSQL syntax.
// TableExpr defines TableSQL() and TableAlias().
//
// # Expression Types
//
//	Col{Table: "p", Column: "id"}     // Column reference: p.id
//	Lit("acme")                       // String literal: 'acme'
//	Int(42)                           // Integer literal: 42
//	Bool(true)                        // Boolean literal: TRUE
//	Null{}                            // NULL literal
//	Star{}                            // *
//	Raw("CURRENT_TIMESTAMP")          // Raw SQL (escape hatch)
//
// Operators:
//
//	Eq{Left: col, Right: Int(1)}      // col = 1
//	In{Expr: col, Values: []Expr{..}} // col IN (...)
//	And(expr1, expr2, expr3)          // (expr1 AND expr2 AND expr3)
//	Or(expr1, expr2)                  // (expr1 OR expr2)
//	Not(expr)                         // NOT (expr)
//
// # Table Expressions
//
//	TableAs("people", "p")            // people AS p
//	Ref("a")                          // a (a CTE or other named result)
//	Subquery{Query: q, Alias: "a"}    // (q) AS a
//
// # Statement Types
//
//	SelectStmt{
//	    ColumnExprs: []Expr{Col{Table: "p", Column: "first_name"}},
//	    FromExpr:    TableAs("people", "p"),
//	    Where:       Eq{Left: Col{Table: "p", Column: "active"}, Right: Bool(true)},
//	    Limit:       100,
//	}
//
//	WithCTE{
//	    CTEs:  []CTEDef{{Name: "a", Query: cteQuery}},
//	    Query: finalSelect,
//	}
package sqldsl
