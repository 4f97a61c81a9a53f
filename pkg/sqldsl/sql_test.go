package sqldsl

import (
	"strings"
	"testing"
)

func TestSelectStmt_SQL(t *testing.T) {
	tests := []struct {
		name string
		stmt SelectStmt
		want string
	}{
		{
			name: "bare select",
			stmt: SelectStmt{FromExpr: TableRef{Name: "companies"}},
			want: "SELECT *\nFROM companies",
		},
		{
			name: "all clauses",
			stmt: SelectStmt{
				Distinct:    true,
				ColumnExprs: []Expr{Col{Table: "p", Column: "company_id"}, SelectAs(Count(nil), "n")},
				FromExpr:    TableAs("people", "p"),
				Where:       Eq{Left: Col{Table: "p", Column: "active"}, Right: Bool(true)},
				GroupBy:     []Expr{Col{Table: "p", Column: "company_id"}},
				Having:      Gt{Left: Count(nil), Right: Int(1)},
				OrderBy:     []Expr{Desc{Expr: Raw("n")}},
				Limit:       10,
			},
			want: "SELECT DISTINCT p.company_id, count(*) AS n\n" +
				"FROM people AS p\n" +
				"WHERE p.active = TRUE\n" +
				"GROUP BY p.company_id\n" +
				"HAVING count(*) > 1\n" +
				"ORDER BY n DESC\n" +
				"LIMIT 10",
		},
		{
			name: "join",
			stmt: SelectStmt{
				ColumnExprs: []Expr{Col{Table: "p", Column: "first_name"}, Col{Table: "c", Column: "name"}},
				FromExpr:    TableAs("people", "p"),
				Joins: []JoinClause{{
					Table: TableAs("companies", "c"),
					On:    Eq{Left: Col{Table: "p", Column: "company_id"}, Right: Col{Table: "c", Column: "id"}},
				}},
			},
			want: "SELECT p.first_name, c.name\nFROM people AS p\nINNER JOIN companies AS c ON p.company_id = c.id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stmt.SQL(); got != tt.want {
				t.Errorf("SelectStmt.SQL() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestJoinClause_SQL(t *testing.T) {
	tests := []struct {
		name string
		join JoinClause
		want string
	}{
		{
			name: "left join",
			join: JoinClause{Type: "LEFT", Table: Ref("a"), On: Eq{Left: Raw("x"), Right: Raw("y")}},
			want: "LEFT JOIN a ON x = y",
		},
		{
			name: "cross join ignores ON",
			join: JoinClause{Type: "CROSS", Table: Ref("a"), On: Bool(true)},
			want: "CROSS JOIN a",
		},
		{
			name: "type already containing JOIN",
			join: JoinClause{Type: "CROSS JOIN LATERAL", Table: Ref("a")},
			want: "CROSS JOIN LATERAL a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.join.SQL(); got != tt.want {
				t.Errorf("JoinClause.SQL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubquery_TableSQL(t *testing.T) {
	sub := Subquery{Query: SelectStmt{FromExpr: Ref("companies")}, Alias: "a"}

	want := "(\n    SELECT *\n    FROM companies\n) AS a"
	if got := sub.TableSQL(); got != want {
		t.Errorf("Subquery.TableSQL() = %q, want %q", got, want)
	}
	if sub.TableAlias() != "a" {
		t.Errorf("Subquery.TableAlias() = %q, want a", sub.TableAlias())
	}

	nested := SelectStmt{FromExpr: Subquery{Query: SelectStmt{FromExpr: sub}, Alias: "b"}}
	if !strings.Contains(nested.SQL(), "        SELECT *\n        FROM companies\n    ) AS a\n) AS b") {
		t.Errorf("nested subqueries should indent each level, got:\n%s", nested.SQL())
	}
}

func TestTableRef(t *testing.T) {
	if got := Ref("a").TableSQL(); got != "a" {
		t.Errorf("Ref.TableSQL() = %q, want a", got)
	}
	if got := Ref("a").TableAlias(); got != "a" {
		t.Errorf("Ref.TableAlias() = %q, want a", got)
	}
	if got := TableAs("people", "p").TableSQL(); got != "people AS p" {
		t.Errorf("TableAs.TableSQL() = %q", got)
	}
	if got := ColOf(TableAs("people", "p"), "id").SQL(); got != "p.id" {
		t.Errorf("ColOf() = %q, want p.id", got)
	}
}

func TestQuoteIdent(t *testing.T) {
	tests := map[string]string{
		"companies":     "companies",
		"people_2":      "people_2",
		"order":         `"order"`,
		"Companies":     `"Companies"`,
		"active users":  `"active users"`,
		`say "hi"`:      `"say ""hi"""`,
		"2fast":         `"2fast"`,
	}
	for in, want := range tests {
		if got := QuoteIdent(in); got != want {
			t.Errorf("QuoteIdent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIdent(t *testing.T) {
	if got := Ident("active-users.v2"); got != "active_users_v2" {
		t.Errorf("Ident() = %q, want active_users_v2", got)
	}
}
