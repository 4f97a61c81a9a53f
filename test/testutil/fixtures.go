package testutil

import (
	"context"
	"database/sql"
	"fmt"
)

// Fixtures inserts additional rows on top of the seed data.
type Fixtures struct {
	db  *sql.DB
	ctx context.Context
}

// NewFixtures creates a new Fixtures instance for bulk data insertion.
func NewFixtures(ctx context.Context, db *sql.DB) *Fixtures {
	return &Fixtures{db: db, ctx: ctx}
}

// AddPeople hires n generated people at the given company and returns the
// total number of people afterwards. Rows are inserted in batches of 1000.
func (f *Fixtures) AddPeople(companyID, n int) (int, error) {
	const batchSize = 1000
	for i := 0; i < n; i += batchSize {
		count := min(batchSize, n-i)
		if err := f.insertPeopleBatch(companyID, count); err != nil {
			return 0, fmt.Errorf("insert people batch %d-%d: %w", i, i+count, err)
		}
	}

	var total int
	err := f.db.QueryRowContext(f.ctx, "SELECT count(*) FROM people").Scan(&total)
	return total, err
}

func (f *Fixtures) insertPeopleBatch(companyID, count int) error {
	_, err := f.db.ExecContext(f.ctx, `
		INSERT INTO people (id, first_name, company_id)
		SELECT base.n + g, 'person_' || (base.n + g), $1
		FROM generate_series(1, $2::int) AS g,
		     (SELECT coalesce(max(id), 0) AS n FROM people) AS base
	`, companyID, count)
	return err
}
