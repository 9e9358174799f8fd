package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-seat-booking/internal/database"
	"github.com/iliyamo/theater-seat-booking/internal/database/dbtest"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect database.Dialect
		in      string
		want    string
	}{
		{"mysql untouched", database.MySQL, "SELECT * FROM seats WHERE id = ? AND status = ?", "SELECT * FROM seats WHERE id = ? AND status = ?"},
		{"postgres numbered", database.Postgres, "UPDATE seats SET status = ? WHERE id = ?", "UPDATE seats SET status = $1 WHERE id = $2"},
		{"postgres skips literals", database.Postgres, "SELECT '?' , ? FROM t WHERE a = 'x?y' AND b = ?", "SELECT '?' , $1 FROM t WHERE a = 'x?y' AND b = $2"},
		{"sqlite untouched", database.SQLite, "DELETE FROM seats WHERE section_id = ?", "DELETE FROM seats WHERE section_id = ?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &database.DB{Dialect: tt.dialect}
			assert.Equal(t, tt.want, db.Rebind(tt.in))
		})
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, database.Migrate(context.Background(), db))

	ctx := context.Background()
	id, err := db.InsertID(ctx, db, `INSERT INTO theaters (name, location) VALUES (?, ?)`, "Globe", "London")
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = db.InsertID(ctx, db, `INSERT INTO theaters (name, location) VALUES (?, ?)`, "Globe", "Elsewhere")
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}
