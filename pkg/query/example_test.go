package query_test

import (
	"fmt"

	"github.com/pthm/quilt"
	"github.com/pthm/quilt/pkg/query"
	"github.com/pthm/quilt/pkg/sqldsl"
)

func Example() {
	var joined quilt.BuildFunc = func(deps ...sqldsl.TableExpr) any {
		people, companies := deps[0], deps[1]
		return query.From(people).
			Select(query.Col(people, "first_name"), query.Col(companies, "name")).
			InnerJoin(companies, sqldsl.Eq{
				Left:  query.Col(people, "company_id"),
				Right: query.Col(companies, "id"),
			})
	}

	q := joined(sqldsl.TableAs("people", "p"), sqldsl.TableAs("companies", "c"))
	fmt.Println(q.(*query.SelectQuery).SQL())
	// Output:
	// SELECT p.first_name, c.name
	// FROM people AS p
	// INNER JOIN companies AS c ON p.company_id = c.id
}
