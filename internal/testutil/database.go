// Package testutil provides testing utilities for queue database tests.
//
// SQLite databases are created in a per-test temporary directory and need no
// external services:
//
//	db := testutil.SetupSQLiteDB(t)
//
// PostgreSQL and MySQL databases are only used when a DSN is provided through
// the environment; otherwise the calling test is skipped:
//   - TEST_POSTGRES_DSN
//   - TEST_MYSQL_DSN
//
// All helpers run the embedded migrations and register cleanup with t.Cleanup.
package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/allisson/writequeue/internal/database"
)

// SetupSQLiteDB opens a migrated SQLite queue database backed by a temp file.
func SetupSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Connect(database.Config{
		Driver:           database.DriverSQLite,
		ConnectionString: filepath.Join(t.TempDir(), "pending_sync.db"),
	})
	require.NoError(t, err, "failed to open sqlite database")

	require.NoError(t, database.Migrate(db, database.DriverSQLite), "failed to migrate sqlite database")

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// SetupPostgresDB connects to the database named by TEST_POSTGRES_DSN, runs
// migrations and truncates the queue tables when the test finishes.
func SetupPostgresDB(t *testing.T) *sql.DB {
	t.Helper()
	return setupServerDB(t, database.DriverPostgreSQL, "TEST_POSTGRES_DSN",
		"TRUNCATE TABLE pending_operations, dead_letters RESTART IDENTITY")
}

// SetupMySQLDB connects to the database named by TEST_MYSQL_DSN, runs
// migrations and truncates the queue tables when the test finishes.
func SetupMySQLDB(t *testing.T) *sql.DB {
	t.Helper()
	return setupServerDB(t, database.DriverMySQL, "TEST_MYSQL_DSN",
		"TRUNCATE TABLE pending_operations", "TRUNCATE TABLE dead_letters")
}

func setupServerDB(t *testing.T, driver, envKey string, cleanup ...string) *sql.DB {
	t.Helper()

	dsn := os.Getenv(envKey)
	if dsn == "" {
		t.Skipf("%s not set", envKey)
	}

	db, err := database.Connect(database.Config{
		Driver:             driver,
		ConnectionString:   dsn,
		MaxOpenConnections: 5,
		MaxIdleConnections: 2,
		ConnMaxLifetime:    time.Minute,
	})
	require.NoError(t, err, "failed to connect to %s", driver)

	require.NoError(t, database.Migrate(db, driver), "failed to migrate %s", driver)

	t.Cleanup(func() {
		for _, stmt := range cleanup {
			_, _ = db.Exec(stmt)
		}
		_ = db.Close()
	})

	return db
}
