package testutils

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// NewSQLiteDB opens an in-memory SQLite database and runs the statements against it.
// A single connection keeps every query on the same in-memory database.
func NewSQLiteDB(t *testing.T, statements ...string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return db
}

// PostgresDSN returns the DSN of the integration database from the environment.
func PostgresDSN() string {
	return "postgres://" + getEnv("DB_USERNAME", "devel") + ":" + getEnv("DB_PASSWORD", "devel") +
		"@" + getEnv("DB_HOST", "localhost") + ":" + getEnv("DB_PORT", "5432") + "/" + getEnv("DB_DATABASE", "devel_grade")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
