package sqldsl

import "testing"

func TestOperators_SQL(t *testing.T) {
	id := Col{Table: "p", Column: "id"}

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"eq", Eq{Left: id, Right: Int(1)}, "p.id = 1"},
		{"ne", Ne{Left: id, Right: Int(1)}, "p.id <> 1"},
		{"in literals", InLits(Col{Column: "kind"}, "a", "b'c"), "kind IN ('a', 'b''c')"},
		{"empty in", In{Expr: id}, "FALSE"},
		{"and drops nil", And(Eq{Left: id, Right: Int(1)}, nil), "p.id = 1"},
		{"and many", And(Raw("x"), Raw("y")), "(x AND y)"},
		{"empty and", And(), "TRUE"},
		{"or", Or(Raw("x"), Raw("y")), "(x OR y)"},
		{"empty or", Or(), "FALSE"},
		{"not", Not(Raw("x")), "NOT (x)"},
		{"is null", IsNull{Expr: id}, "p.id IS NULL"},
		{"case", CaseExpr{
			Whens: []CaseWhen{{Cond: IsNull{Expr: id}, Result: Int(0)}},
			Else:  Int(1),
		}, "CASE WHEN p.id IS NULL THEN 0 ELSE 1 END"},
		{"in query", InQuery{Expr: id, Query: Raw("SELECT 1")}, "p.id IN (\n    SELECT 1\n)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.SQL(); got != tt.want {
				t.Errorf("SQL() = %q, want %q", got, tt.want)
			}
		})
	}
}
