package doctor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/pthm/quilt"
	"github.com/pthm/quilt/pkg/sqldsl"
)

// resultAlias names the derived table a checked query is wrapped in.
const resultAlias = "quilt_result"

// nullValue stands for SQL NULL in a Row. No text value can contain the
// leading NUL byte, so NULL never equals the string 'NULL'.
const nullValue = "\x00NULL"

// Row is a result row with every value rendered as text.
type Row []string

func countRows(ctx context.Context, db Querier, q quilt.Query) (int64, error) {
	stmt := sqldsl.SelectStmt{
		ColumnExprs: []sqldsl.Expr{sqldsl.Count(nil)},
		FromExpr:    sqldsl.Subquery{Query: q, Alias: resultAlias},
	}
	var n int64
	if err := db.QueryRowContext(ctx, stmt.SQL()).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// fetchRows runs q and returns its rows rendered as text and sorted, so
// results can be compared as multisets.
func fetchRows(ctx context.Context, db Querier, q quilt.Query) ([]Row, error) {
	rows, err := db.QueryContext(ctx, q.SQL())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortRows(result)
	return result, nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return nullValue
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}

func sortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		return strings.Join(rows[i], "\x00") < strings.Join(rows[j], "\x00")
	})
}

// diffRows returns a human-readable diff of two sorted row sets, or "" when
// they are equal.
func diffRows(derived, cte []Row) string {
	return cmp.Diff(derived, cte, cmpopts.EquateEmpty())
}
