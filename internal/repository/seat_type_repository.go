package repository // repository defines data access for seat types

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/theater-seat-booking/internal/database"
	"github.com/iliyamo/theater-seat-booking/internal/model"
)

// SeatTypeRepo provides methods to work with seat types. Every query is
// scoped by theater id.
type SeatTypeRepo struct {
	db *database.DB
}

// NewSeatTypeRepo constructs a SeatTypeRepo with the given DB handle.
func NewSeatTypeRepo(db *database.DB) *SeatTypeRepo {
	return &SeatTypeRepo{db: db}
}

const seatTypeColumns = `id, theater_id, name, description, price_cents`

func scanSeatType(sc rowScanner) (*model.SeatType, error) {
	var st model.SeatType
	if err := sc.Scan(&st.ID, &st.TheaterID, &st.Name, &st.Description, &st.PriceCents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatTypeNotFound
		}
		return nil, err
	}
	return &st, nil
}

// Create inserts a seat type. Names are unique per theater (ErrConflict).
func (r *SeatTypeRepo) Create(ctx context.Context, st *model.SeatType) error {
	const q = `INSERT INTO seat_types (theater_id, name, description, price_cents) VALUES (?, ?, ?, ?)`
	id, err := r.db.InsertID(ctx, r.db, q, st.TheaterID, st.Name, st.Description, st.PriceCents)
	if err != nil {
		return uniqueOr(err)
	}
	st.ID = id
	return nil
}

// GetByID returns the seat type if it belongs to the theater.
func (r *SeatTypeRepo) GetByID(ctx context.Context, theaterID, id uint64) (*model.SeatType, error) {
	const q = `SELECT ` + seatTypeColumns + ` FROM seat_types WHERE id = ? AND theater_id = ?`
	return scanSeatType(r.db.QueryRowContext(ctx, r.db.Rebind(q), id, theaterID))
}

// GetByName looks a seat type up by its per-theater unique name.
func (r *SeatTypeRepo) GetByName(ctx context.Context, theaterID uint64, name string) (*model.SeatType, error) {
	const q = `SELECT ` + seatTypeColumns + ` FROM seat_types WHERE name = ? AND theater_id = ?`
	return scanSeatType(r.db.QueryRowContext(ctx, r.db.Rebind(q), name, theaterID))
}

// ListByTheater returns the theater's seat types ordered by name.
func (r *SeatTypeRepo) ListByTheater(ctx context.Context, theaterID uint64) ([]model.SeatType, error) {
	const q = `SELECT ` + seatTypeColumns + ` FROM seat_types WHERE theater_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), theaterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.SeatType
	for rows.Next() {
		st, err := scanSeatType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

// Update changes name, description and price. Existing bookings keep the
// price they were booked at.
func (r *SeatTypeRepo) Update(ctx context.Context, st *model.SeatType) error {
	const q = `UPDATE seat_types SET name = ?, description = ?, price_cents = ? WHERE id = ? AND theater_id = ?`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), st.Name, st.Description, st.PriceCents, st.ID, st.TheaterID)
	if err != nil {
		return uniqueOr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeatTypeNotFound
	}
	return nil
}

// Delete removes a seat type that no section references. A referenced
// seat type yields ErrConflict.
func (r *SeatTypeRepo) Delete(ctx context.Context, theaterID, id uint64) error {
	if _, err := r.GetByID(ctx, theaterID, id); err != nil {
		return err
	}
	const q = `DELETE FROM seat_types
	           WHERE id = ? AND theater_id = ?
	             AND NOT EXISTS (SELECT 1 FROM sections WHERE seat_type_id = ?)`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), id, theaterID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// PriceTx reads the current price of a seat type inside a transaction.
// The booking ledger snapshots this value into the booking row.
func (r *SeatTypeRepo) PriceTx(ctx context.Context, tx *sql.Tx, seatTypeID uint64) (int64, error) {
	const q = `SELECT price_cents FROM seat_types WHERE id = ?`
	var price int64
	if err := tx.QueryRowContext(ctx, r.db.Rebind(q), seatTypeID).Scan(&price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrSeatTypeNotFound
		}
		return 0, err
	}
	return price, nil
}
