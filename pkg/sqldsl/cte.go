package sqldsl

import "strings"

// CTEDef represents a single Common Table Expression definition.
// Used within WithCTE to define named subqueries.
type CTEDef struct {
	Name    string   // CTE name (e.g., "a", "companies")
	Columns []string // Optional column names (e.g., ["id", "depth"])
	Query   SQLer    // The CTE query body
}

// SQL renders the CTE definition as "name [(columns)] AS (query)".
func (c CTEDef) SQL() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	if len(c.Columns) > 0 {
		sb.WriteString("(")
		sb.WriteString(strings.Join(c.Columns, ", "))
		sb.WriteString(")")
	}
	sb.WriteString(" AS (\n")
	sb.WriteString(IndentLines(c.Query.SQL(), "    "))
	sb.WriteString("\n)")
	return sb.String()
}

// WithCTE represents a WITH clause wrapping a final query.
// Supports both regular and recursive CTEs.
//
// Example:
//
//	WithCTE{
//	    CTEs:  []CTEDef{{Name: "a", Query: companies}, {Name: "b", Query: people}},
//	    Query: joined,
//	}
//
// Renders:
//
//	WITH a AS (
//	    <companies>
//	),
//	b AS (
//	    <people>
//	)
//	<joined>
type WithCTE struct {
	Recursive bool     // If true, renders WITH RECURSIVE
	CTEs      []CTEDef // CTE definitions, each may reference the ones before it
	Query     SQLer    // The final SELECT that uses the CTEs
}

// SQL renders the complete WITH clause and final query.
func (w WithCTE) SQL() string {
	if len(w.CTEs) == 0 {
		return w.Query.SQL()
	}

	var sb strings.Builder
	sb.WriteString("WITH ")
	if w.Recursive {
		sb.WriteString("RECURSIVE ")
	}

	cteParts := make([]string, len(w.CTEs))
	for i, cte := range w.CTEs {
		cteParts[i] = cte.SQL()
	}
	sb.WriteString(strings.Join(cteParts, ",\n"))
	sb.WriteString("\n")
	sb.WriteString(w.Query.SQL())

	return sb.String()
}

// Prepend returns a copy of w with ctes placed ahead of its own definitions,
// so its existing CTEs and final query can reference them.
func (w WithCTE) Prepend(ctes ...CTEDef) WithCTE {
	merged := make([]CTEDef, 0, len(ctes)+len(w.CTEs))
	merged = append(merged, ctes...)
	merged = append(merged, w.CTEs...)
	return WithCTE{Recursive: w.Recursive, CTEs: merged, Query: w.Query}
}

// MultiCTE creates a WITH clause with multiple CTEs.
func MultiCTE(recursive bool, ctes []CTEDef, finalQuery SQLer) WithCTE {
	return WithCTE{
		Recursive: recursive,
		CTEs:      ctes,
		Query:     finalQuery,
	}
}
