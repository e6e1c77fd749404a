// Package repository provides persistence for the local durable log: pending
// operations and dead letters, for SQLite, PostgreSQL and MySQL.
package repository

import (
	"time"
)

// sqliteTimeLayout matches the strftime default used by the SQLite schema.
const sqliteTimeLayout = "2006-01-02T15:04:05.000Z"

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}
