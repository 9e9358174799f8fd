// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-seat-booking/internal/config"
	"github.com/iliyamo/theater-seat-booking/internal/database"
)

// Open returns a fresh in-memory SQLite database with the schema applied.
// It is closed automatically when the test ends.
func Open(t testing.TB) *database.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", uuid.NewString())
	return open(t, dsn)
}

// OpenPool returns a file backed SQLite database in WAL mode that keeps
// up to conns connections open, so transactions from different
// goroutines really overlap instead of queueing on one connection.
func OpenPool(t testing.TB, conns int) *database.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pool.db")
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)", path)
	db := open(t, dsn)
	db.SetMaxOpenConns(conns)
	db.SetMaxIdleConns(conns)
	return db
}

func open(t testing.TB, dsn string) *database.DB {
	t.Helper()
	db, err := database.Open(config.DBConfig{Driver: string(database.SQLite), DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}
