package sqldsl

import (
	"fmt"
	"strings"
)

// Expr is the interface that all SQL expression types implement.
type Expr interface {
	SQL() string
}

// Col represents a table column reference (e.g., p.first_name).
type Col struct {
	Table  string
	Column string
}

// SQL renders the column reference.
func (c Col) SQL() string {
	if c.Table == "" {
		return c.Column
	}
	return c.Table + "." + c.Column
}

// ColOf qualifies a column with the alias of a table expression.
// An unaliased table expression yields an unqualified column.
func ColOf(t TableExpr, column string) Col {
	return Col{Table: t.TableAlias(), Column: column}
}

// Star represents * or table.* in a select list.
type Star struct {
	Table string
}

// SQL renders the star.
func (s Star) SQL() string {
	if s.Table == "" {
		return "*"
	}
	return s.Table + ".*"
}

// Lit represents a literal string value (auto-quoted with single quotes).
type Lit string

// SQL renders the literal with single quotes.
func (l Lit) SQL() string {
	// Escape single quotes by doubling them
	escaped := strings.ReplaceAll(string(l), "'", "''")
	return "'" + escaped + "'"
}

// Raw is an escape hatch for arbitrary SQL expressions.
// Raw also satisfies SQLer, so a whole statement can be supplied as Raw.
type Raw string

// SQL renders the raw SQL as-is.
func (r Raw) SQL() string {
	return string(r)
}

// Int represents an integer literal.
type Int int

// SQL renders the integer.
func (i Int) SQL() string {
	return fmt.Sprintf("%d", i)
}

// Bool represents a boolean literal.
type Bool bool

// SQL renders the boolean.
func (b Bool) SQL() string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// Null represents SQL NULL.
type Null struct{}

// SQL renders NULL.
func (Null) SQL() string {
	return "NULL"
}

// Func represents a SQL function call.
type Func struct {
	Name string
	Args []Expr
}

// SQL renders the function call.
func (f Func) SQL() string {
	return f.Name + "(" + joinSQL(f.Args, ", ") + ")"
}

// Count renders count(expr), or count(*) when expr is nil.
func Count(expr Expr) Func {
	if expr == nil {
		expr = Star{}
	}
	return Func{Name: "count", Args: []Expr{expr}}
}

// Alias wraps an expression with an alias (expr AS alias).
type Alias struct {
	Expr Expr
	Name string
}

// SQL renders the aliased expression.
func (a Alias) SQL() string {
	return a.Expr.SQL() + " AS " + a.Name
}

// SelectAs creates an aliased column expression (expr AS alias).
func SelectAs(expr Expr, alias string) Alias {
	return Alias{Expr: expr, Name: alias}
}

// Paren wraps an expression in parentheses.
type Paren struct {
	Expr Expr
}

// SQL renders the parenthesized expression.
func (p Paren) SQL() string {
	return "(" + p.Expr.SQL() + ")"
}

// Desc marks an ORDER BY expression as descending.
type Desc struct {
	Expr Expr
}

// SQL renders expr DESC.
func (d Desc) SQL() string {
	return d.Expr.SQL() + " DESC"
}

func joinSQL(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.SQL()
	}
	return strings.Join(parts, sep)
}
