// Package query provides a fluent SELECT builder over sqldsl.
//
// Fragments usually start from one of the sources the composer hands them:
//
//	func(deps ...sqldsl.TableExpr) any {
//	    people, companies := deps[0], deps[1]
//	    return query.From(people).
//	        Select(query.Col(people, "first_name"), query.Col(companies, "name")).
//	        InnerJoin(companies, sqldsl.Eq{
//	            Left:  query.Col(people, "company_id"),
//	            Right: query.Col(companies, "id"),
//	        })
//	}
package query

import (
	"github.com/pthm/quilt/pkg/sqldsl"
)

// SelectQuery is a fluent builder for a single SELECT statement.
type SelectQuery struct {
	from       sqldsl.TableExpr
	columns    []sqldsl.Expr
	conditions []sqldsl.Expr
	joins      []sqldsl.JoinClause
	groupBy    []sqldsl.Expr
	having     []sqldsl.Expr
	orderBy    []sqldsl.Expr
	distinct   bool
	limit      int
}

// From creates a new SelectQuery reading from the given table expression.
func From(src sqldsl.TableExpr) *SelectQuery {
	return &SelectQuery{from: src}
}

// FromTable creates a new SelectQuery reading from a physical table.
// An empty alias refers to the table by name.
func FromTable(name, alias string) *SelectQuery {
	return From(sqldsl.TableAs(name, alias))
}

// Col returns a column of src qualified with its alias.
func Col(src sqldsl.TableExpr, column string) sqldsl.Col {
	return sqldsl.ColOf(src, column)
}

// Source returns the table expression the query reads from.
func (q *SelectQuery) Source() sqldsl.TableExpr {
	return q.from
}

// Select adds typed expressions as columns.
func (q *SelectQuery) Select(exprs ...sqldsl.Expr) *SelectQuery {
	q.columns = append(q.columns, exprs...)
	return q
}

// SelectCol adds columns of the FROM source, qualified with its alias.
func (q *SelectQuery) SelectCol(columns ...string) *SelectQuery {
	for _, c := range columns {
		q.columns = append(q.columns, Col(q.from, c))
	}
	return q
}

// SelectAs adds an aliased expression (expr AS alias).
func (q *SelectQuery) SelectAs(expr sqldsl.Expr, alias string) *SelectQuery {
	q.columns = append(q.columns, sqldsl.SelectAs(expr, alias))
	return q
}

// Distinct enables DISTINCT in the SELECT.
func (q *SelectQuery) Distinct() *SelectQuery {
	q.distinct = true
	return q
}

// Limit sets the LIMIT clause.
func (q *SelectQuery) Limit(n int) *SelectQuery {
	q.limit = n
	return q
}

// Where adds WHERE conditions, combined with AND. Nil conditions are ignored.
func (q *SelectQuery) Where(exprs ...sqldsl.Expr) *SelectQuery {
	for _, e := range exprs {
		if e != nil {
			q.conditions = append(q.conditions, e)
		}
	}
	return q
}

// GroupBy adds GROUP BY expressions.
func (q *SelectQuery) GroupBy(exprs ...sqldsl.Expr) *SelectQuery {
	q.groupBy = append(q.groupBy, exprs...)
	return q
}

// Having adds HAVING conditions, combined with AND.
func (q *SelectQuery) Having(exprs ...sqldsl.Expr) *SelectQuery {
	for _, e := range exprs {
		if e != nil {
			q.having = append(q.having, e)
		}
	}
	return q
}

// OrderBy adds ORDER BY expressions. Wrap in sqldsl.Desc for descending order.
func (q *SelectQuery) OrderBy(exprs ...sqldsl.Expr) *SelectQuery {
	q.orderBy = append(q.orderBy, exprs...)
	return q
}

// InnerJoin adds an INNER JOIN clause.
func (q *SelectQuery) InnerJoin(src sqldsl.TableExpr, on ...sqldsl.Expr) *SelectQuery {
	return q.addJoin("INNER", src, on)
}

// LeftJoin adds a LEFT JOIN clause.
func (q *SelectQuery) LeftJoin(src sqldsl.TableExpr, on ...sqldsl.Expr) *SelectQuery {
	return q.addJoin("LEFT", src, on)
}

// CrossJoin adds a CROSS JOIN clause.
func (q *SelectQuery) CrossJoin(src sqldsl.TableExpr) *SelectQuery {
	return q.addJoin("CROSS", src, nil)
}

func (q *SelectQuery) addJoin(joinType string, src sqldsl.TableExpr, on []sqldsl.Expr) *SelectQuery {
	join := sqldsl.JoinClause{Type: joinType, Table: src}
	if len(on) > 0 {
		join.On = sqldsl.And(on...)
	}
	q.joins = append(q.joins, join)
	return q
}

// Build returns the declarative SelectStmt for inspection or testing.
// The returned statement does not share slices with the builder.
func (q *SelectQuery) Build() sqldsl.SelectStmt {
	stmt := sqldsl.SelectStmt{
		Distinct:    q.distinct,
		ColumnExprs: append([]sqldsl.Expr(nil), q.columns...),
		FromExpr:    q.from,
		Joins:       append([]sqldsl.JoinClause(nil), q.joins...),
		GroupBy:     append([]sqldsl.Expr(nil), q.groupBy...),
		OrderBy:     append([]sqldsl.Expr(nil), q.orderBy...),
		Limit:       q.limit,
	}
	if len(q.conditions) > 0 {
		stmt.Where = sqldsl.And(q.conditions...)
	}
	if len(q.having) > 0 {
		stmt.Having = sqldsl.And(q.having...)
	}
	return stmt
}

// SQL renders the query to a SQL string.
func (q *SelectQuery) SQL() string {
	return q.Build().SQL()
}
