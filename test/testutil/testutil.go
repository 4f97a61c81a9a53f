// Package testutil provides shared test utilities for quilt integration tests.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	//go:embed testdata/schema.sql
	schemaSQL string

	//go:embed testdata/seed.sql
	seedSQL string
)

var (
	adminOnce sync.Once
	adminDSN  string
	adminErr  error

	templateOnce sync.Once
	templateName string
	templateErr  error
)

// ensureAdmin returns the DSN of the server test databases are created on.
// DATABASE_URL or DATABASE_HOST selects an external server; otherwise a
// PostgreSQL container is started once per test binary.
func ensureAdmin() (string, error) {
	adminOnce.Do(func() {
		if cfg := GetDatabaseConfig(); cfg.External() {
			adminDSN = cfg.URL
			return
		}

		ctx := context.Background()
		container, err := postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("postgres"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithEnv(map[string]string{
				"POSTGRES_INITDB_ARGS": "--auth-host=trust",
			}),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			adminErr = fmt.Errorf("failed to start PostgreSQL container: %w", err)
			return
		}

		dsn, err := container.ConnectionString(ctx)
		if err != nil {
			_ = container.Terminate(ctx)
			adminErr = fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
			return
		}

		// ConnectionString ends in "?", ready for parameters.
		adminDSN = dsn + "sslmode=disable"
		// ryuk terminates the container when the test binary exits.
	})

	return adminDSN, adminErr
}

// ensureTemplate creates the seeded template database once.
func ensureTemplate(dsn string) (string, error) {
	templateOnce.Do(func() {
		templateName = uniqueDBName("quilt_template")

		if err := createDatabase(dsn, templateName); err != nil {
			templateErr = fmt.Errorf("failed to create template database: %w", err)
			return
		}

		if err := seed(replaceDBName(dsn, templateName)); err != nil {
			templateErr = err
			return
		}

		// Copying works without the flag, only slower.
		_ = markAsTemplate(dsn, templateName)
	})

	return templateName, templateErr
}

func seed(dsn string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	if _, err := db.ExecContext(ctx, seedSQL); err != nil {
		return fmt.Errorf("seed tables: %w", err)
	}
	return nil
}

// DB returns a connection to a fresh database holding the companies and
// people tables with their seed rows. The database is dropped when the test
// completes. Works with both *testing.T and *testing.B.
func DB(tb testing.TB) *sql.DB {
	tb.Helper()

	dsn, err := ensureAdmin()
	require.NoError(tb, err, "failed to reach PostgreSQL")

	tmpl, err := ensureTemplate(dsn)
	require.NoError(tb, err, "failed to create template database")

	dbName := uniqueDBName("test")
	err = createDatabaseFromTemplate(dsn, dbName, tmpl)
	require.NoError(tb, err, "failed to create test database from template")

	return connect(tb, dsn, dbName)
}

// EmptyDB returns a connection to a fresh database with no tables.
func EmptyDB(tb testing.TB) *sql.DB {
	tb.Helper()

	dsn, err := ensureAdmin()
	require.NoError(tb, err, "failed to reach PostgreSQL")

	dbName := uniqueDBName("empty")
	err = createDatabase(dsn, dbName)
	require.NoError(tb, err, "failed to create empty database")

	return connect(tb, dsn, dbName)
}

func connect(tb testing.TB, dsn, dbName string) *sql.DB {
	tb.Helper()

	db, err := sql.Open("pgx", replaceDBName(dsn, dbName))
	require.NoError(tb, err, "failed to connect to test database")
	if n := GetDatabaseConfig().MaxConnections; n > 0 {
		db.SetMaxOpenConns(n)
	}

	err = db.Ping()
	require.NoError(tb, err, "failed to ping test database")

	registerCleanup(tb, db, dsn, dbName)
	return db
}

// registerCleanup closes db and drops its database in the background.
func registerCleanup(tb testing.TB, db *sql.DB, dsn, dbName string) {
	tb.Cleanup(func() {
		_ = db.Close()

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = dropDatabase(ctx, dsn, dbName)
		}()
	})
}

func uniqueDBName(prefix string) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))
}

func createDatabase(dsn, name string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	_, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", name))
	return err
}

func createDatabaseFromTemplate(dsn, name, template string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	// CREATE DATABASE fails while anything is connected to the template.
	terminateConnections(context.Background(), db, template)

	_, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s WITH TEMPLATE %s", name, template))
	return err
}

func markAsTemplate(dsn, name string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	terminateConnections(context.Background(), db, name)

	_, err = db.Exec(fmt.Sprintf("ALTER DATABASE %s WITH is_template = true", name))
	return err
}

func dropDatabase(ctx context.Context, dsn, name string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	terminateConnections(ctx, db, name)

	_, err = db.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", name))
	return err
}

func terminateConnections(ctx context.Context, db *sql.DB, name string) {
	_, _ = db.ExecContext(ctx, `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`, name)
}

// replaceDBName replaces the database name in a postgres:// DSN.
func replaceDBName(dsn, newDB string) string {
	for i := len(dsn) - 1; i >= 0; i-- {
		if dsn[i] != '/' {
			continue
		}
		rest := ""
		for j := i + 1; j < len(dsn); j++ {
			if dsn[j] == '?' {
				rest = dsn[j:]
				break
			}
		}
		return dsn[:i+1] + newDB + rest
	}
	return dsn
}
