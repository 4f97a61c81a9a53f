package sqldsl

import (
	"fmt"
	"strings"
)

// SQLer is an interface for types that can render a complete SQL statement.
// SelectStmt, WithCTE and Raw implement this interface.
type SQLer interface {
	SQL() string
}

// JoinClause represents a SQL JOIN clause.
type JoinClause struct {
	Type  string // "INNER", "LEFT", "CROSS", etc.
	Table TableExpr
	On    Expr
}

// SQL renders the JOIN clause.
func (j JoinClause) SQL() string {
	joinType := j.Type
	if joinType == "" {
		joinType = "INNER"
	}

	// Don't add "JOIN" if Type already contains it
	// (e.g., "CROSS JOIN LATERAL" should not become "CROSS JOIN LATERAL JOIN")
	joinKeyword := joinType + " JOIN"
	if strings.Contains(joinType, "JOIN") {
		joinKeyword = joinType
	}

	// CROSS JOIN doesn't have an ON clause
	if strings.HasPrefix(joinType, "CROSS") || j.On == nil {
		return joinKeyword + " " + j.Table.TableSQL()
	}
	return joinKeyword + " " + j.Table.TableSQL() + " ON " + j.On.SQL()
}

// SelectStmt represents a SELECT query.
type SelectStmt struct {
	Distinct    bool
	ColumnExprs []Expr
	FromExpr    TableExpr
	Joins       []JoinClause
	Where       Expr
	GroupBy     []Expr
	Having      Expr
	OrderBy     []Expr
	Limit       int
}

// SQL renders the SELECT statement, one clause per line.
func (s SelectStmt) SQL() string {
	clauses := []string{"SELECT " + optf(s.Distinct, "DISTINCT ") + s.columnsSQL()}
	if s.FromExpr != nil {
		clauses = append(clauses, "FROM "+s.FromExpr.TableSQL())
	}
	for _, j := range s.Joins {
		clauses = append(clauses, j.SQL())
	}
	if s.Where != nil {
		clauses = append(clauses, "WHERE "+s.Where.SQL())
	}
	if len(s.GroupBy) > 0 {
		clauses = append(clauses, "GROUP BY "+joinSQL(s.GroupBy, ", "))
	}
	if s.Having != nil {
		clauses = append(clauses, "HAVING "+s.Having.SQL())
	}
	if len(s.OrderBy) > 0 {
		clauses = append(clauses, "ORDER BY "+joinSQL(s.OrderBy, ", "))
	}
	if s.Limit > 0 {
		clauses = append(clauses, fmt.Sprintf("LIMIT %d", s.Limit))
	}
	return strings.Join(clauses, "\n")
}

func (s SelectStmt) columnsSQL() string {
	if len(s.ColumnExprs) == 0 {
		return "*"
	}
	return joinSQL(s.ColumnExprs, ", ")
}

// Exists wraps the query in EXISTS(...).
func (s SelectStmt) Exists() Exists {
	return Exists{Query: s}
}

// optf returns formatted string if condition is true, empty string otherwise.
func optf(cond bool, format string, args ...any) string {
	if !cond {
		return ""
	}
	return fmt.Sprintf(format, args...)
}

// =============================================================================
// SQL Formatting Helpers
// =============================================================================

// IndentLines adds the given indent prefix to each line of input.
func IndentLines(input, indent string) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(input), "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

// Ident sanitizes an identifier for use in SQL.
// Replaces non-alphanumeric characters with underscores.
func Ident(name string) string {
	var result strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			result.WriteRune(r)
		} else {
			result.WriteRune('_')
		}
	}
	return result.String()
}

// QuoteIdent returns name unchanged when it is a plain lower-case identifier
// that is not a reserved word, and double-quoted otherwise.
func QuoteIdent(name string) string {
	if isPlainIdent(name) && !IsReserved(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isPlainIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// reservedWords holds the PostgreSQL keywords that cannot be used as bare
// table aliases.
var reservedWords = map[string]bool{
	"all": true, "analyse": true, "analyze": true, "and": true, "any": true,
	"array": true, "as": true, "asc": true, "asymmetric": true, "both": true,
	"by": true, "case": true, "cast": true, "check": true, "collate": true,
	"column": true, "constraint": true, "create": true, "cross": true,
	"current_date": true, "current_role": true, "current_time": true,
	"current_timestamp": true, "current_user": true, "default": true,
	"deferrable": true, "desc": true, "distinct": true, "do": true,
	"else": true, "end": true, "except": true, "false": true, "fetch": true,
	"for": true, "foreign": true, "from": true, "full": true, "grant": true,
	"group": true, "having": true, "if": true, "ilike": true, "in": true,
	"initially": true, "inner": true, "intersect": true, "into": true,
	"is": true, "join": true, "lateral": true, "leading": true, "left": true,
	"like": true, "limit": true, "localtime": true, "localtimestamp": true,
	"natural": true, "not": true, "null": true, "of": true, "offset": true,
	"on": true, "only": true, "or": true, "order": true, "outer": true,
	"placing": true, "primary": true, "references": true, "returning": true,
	"right": true, "select": true, "session_user": true, "similar": true,
	"some": true, "symmetric": true, "table": true, "then": true, "to": true,
	"trailing": true, "true": true, "union": true, "unique": true,
	"user": true, "using": true, "variadic": true, "verbose": true,
	"when": true, "where": true, "window": true, "with": true,
}

// IsReserved reports whether word is a reserved SQL keyword (case-insensitive).
func IsReserved(word string) bool {
	return reservedWords[strings.ToLower(word)]
}
