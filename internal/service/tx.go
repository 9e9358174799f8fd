package service

import (
	"context"
	"database/sql"

	"github.com/iliyamo/theater-seat-booking/internal/database"
)

// withTx runs fn inside a transaction, committing when fn returns nil
// and rolling back otherwise.
func withTx(ctx context.Context, db *database.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
