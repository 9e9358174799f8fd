// This file defines the theater repository: CRUD for the root entity.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/theater-seat-booking/internal/database"
	"github.com/iliyamo/theater-seat-booking/internal/model"
)

// TheaterRepo encapsulates all database queries related to theaters.
type TheaterRepo struct {
	db *database.DB
}

// NewTheaterRepo constructs a TheaterRepo with the provided DB handle.
func NewTheaterRepo(db *database.DB) *TheaterRepo {
	return &TheaterRepo{db: db}
}

// Create inserts a new theater. On success ID and CreatedAt are populated.
// A duplicate name yields ErrConflict.
func (r *TheaterRepo) Create(ctx context.Context, t *model.Theater) error {
	const q = `INSERT INTO theaters (name, location) VALUES (?, ?)`
	id, err := r.db.InsertID(ctx, r.db, q, t.Name, t.Location)
	if err != nil {
		return uniqueOr(err)
	}
	fresh, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*t = *fresh
	return nil
}

// GetByID fetches a theater or returns ErrTheaterNotFound.
func (r *TheaterRepo) GetByID(ctx context.Context, id uint64) (*model.Theater, error) {
	const q = `SELECT id, name, location, created_at FROM theaters WHERE id = ?`
	var t model.Theater
	var created string
	if err := r.db.QueryRowContext(ctx, r.db.Rebind(q), id).Scan(&t.ID, &t.Name, &t.Location, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTheaterNotFound
		}
		return nil, err
	}
	t.CreatedAt = parseDBTime(created)
	return &t, nil
}

// List returns all theaters ordered by id.
func (r *TheaterRepo) List(ctx context.Context) ([]model.Theater, error) {
	const q = `SELECT id, name, location, created_at FROM theaters ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Theater
	for rows.Next() {
		var t model.Theater
		var created string
		if err := rows.Scan(&t.ID, &t.Name, &t.Location, &created); err != nil {
			return nil, err
		}
		t.CreatedAt = parseDBTime(created)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update changes name and location.
func (r *TheaterRepo) Update(ctx context.Context, t *model.Theater) error {
	const q = `UPDATE theaters SET name = ?, location = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), t.Name, t.Location, t.ID)
	if err != nil {
		return uniqueOr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTheaterNotFound
	}
	return nil
}

// Delete removes a theater together with its seat types and configuration.
// It refuses with ErrConflict while any section still belongs to it.
func (r *TheaterRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var n int
	if err := tx.QueryRowContext(ctx, r.db.Rebind(`SELECT COUNT(*) FROM sections WHERE theater_id = ?`), id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	for _, q := range []string{
		`DELETE FROM theater_configs WHERE theater_id = ?`,
		`DELETE FROM seat_types WHERE theater_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, r.db.Rebind(q), id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM theaters WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTheaterNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
