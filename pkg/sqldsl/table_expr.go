package sqldsl

// TableExpr is the interface for table expressions in FROM and JOIN clauses.
// Types that can be used as table sources implement this interface.
type TableExpr interface {
	// TableSQL returns the SQL for use in FROM/JOIN clauses.
	TableSQL() string
	// TableAlias returns the name other clauses use to refer to the table
	// (empty string if none).
	TableAlias() string
}

// TableRef wraps a raw table name for use as a TableExpr.
type TableRef struct {
	Name  string
	Alias string
}

// TableSQL implements TableExpr.
func (t TableRef) TableSQL() string {
	if t.Alias != "" && t.Alias != t.Name {
		return t.Name + " AS " + t.Alias
	}
	return t.Name
}

// TableAlias implements TableExpr. An unaliased table is referred to by name.
func (t TableRef) TableAlias() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// TableAs creates a table reference with an alias.
func TableAs(name, alias string) TableRef {
	return TableRef{Name: name, Alias: alias}
}

// Ref creates a bare reference to a named result such as a CTE.
// Renders: name
func Ref(name string) TableRef {
	return TableRef{Name: name}
}

// Subquery is a derived table: a query nested in FROM or JOIN under an alias.
//
// Example: Subquery{Query: SelectStmt{...}, Alias: "a"}
// Renders:
//
//	(
//	    SELECT ...
//	) AS a
type Subquery struct {
	Query SQLer
	Alias string
}

// TableSQL implements TableExpr.
func (s Subquery) TableSQL() string {
	return "(\n" + IndentLines(s.Query.SQL(), "    ") + "\n) AS " + s.Alias
}

// TableAlias implements TableExpr.
func (s Subquery) TableAlias() string {
	return s.Alias
}
