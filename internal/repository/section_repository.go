package repository // repository defines data access for sections

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/theater-seat-booking/internal/database"
	"github.com/iliyamo/theater-seat-booking/internal/model"
)

// SectionRepo provides methods to work with sections. Writes that change
// the seat layout come in ...Tx form so the seat generator can pair them
// with seat regeneration in one transaction.
type SectionRepo struct {
	db *database.DB
}

// NewSectionRepo constructs a SectionRepo with the given DB handle.
func NewSectionRepo(db *database.DB) *SectionRepo {
	return &SectionRepo{db: db}
}

const sectionColumns = `id, theater_id, name, description, seat_type_id, rows_count, seats_per_row, is_active`

func scanSection(sc rowScanner) (*model.Section, error) {
	var s model.Section
	if err := sc.Scan(&s.ID, &s.TheaterID, &s.Name, &s.Description, &s.SeatTypeID, &s.RowsCount, &s.SeatsPerRow, &s.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSectionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// CreateTx inserts the section row and populates its ID.
func (r *SectionRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Section) error {
	const q = `INSERT INTO sections (theater_id, name, description, seat_type_id, rows_count, seats_per_row, is_active)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.InsertID(ctx, tx, q, s.TheaterID, s.Name, s.Description, s.SeatTypeID, s.RowsCount, s.SeatsPerRow, s.IsActive)
	if err != nil {
		return uniqueOr(err)
	}
	s.ID = id
	return nil
}

// UpdateTx rewrites every mutable column of the section.
func (r *SectionRepo) UpdateTx(ctx context.Context, tx *sql.Tx, s *model.Section) error {
	const q = `UPDATE sections
	           SET name = ?, description = ?, seat_type_id = ?, rows_count = ?, seats_per_row = ?
	           WHERE id = ? AND theater_id = ?`
	res, err := tx.ExecContext(ctx, r.db.Rebind(q), s.Name, s.Description, s.SeatTypeID, s.RowsCount, s.SeatsPerRow, s.ID, s.TheaterID)
	if err != nil {
		return uniqueOr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSectionNotFound
	}
	return nil
}

// DeleteTx removes the section row. Seats and bookings must be gone already.
func (r *SectionRepo) DeleteTx(ctx context.Context, tx *sql.Tx, theaterID, id uint64) error {
	res, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM sections WHERE id = ? AND theater_id = ?`), id, theaterID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSectionNotFound
	}
	return nil
}

// GetByID returns the section if it belongs to the theater.
func (r *SectionRepo) GetByID(ctx context.Context, theaterID, id uint64) (*model.Section, error) {
	const q = `SELECT ` + sectionColumns + ` FROM sections WHERE id = ? AND theater_id = ?`
	return scanSection(r.db.QueryRowContext(ctx, r.db.Rebind(q), id, theaterID))
}

// GetByIDTx is GetByID inside a transaction.
func (r *SectionRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, theaterID, id uint64) (*model.Section, error) {
	const q = `SELECT ` + sectionColumns + ` FROM sections WHERE id = ? AND theater_id = ?`
	return scanSection(tx.QueryRowContext(ctx, r.db.Rebind(q), id, theaterID))
}

// GetByName looks a section up by its per-theater unique name.
func (r *SectionRepo) GetByName(ctx context.Context, theaterID uint64, name string) (*model.Section, error) {
	const q = `SELECT ` + sectionColumns + ` FROM sections WHERE name = ? AND theater_id = ?`
	return scanSection(r.db.QueryRowContext(ctx, r.db.Rebind(q), name, theaterID))
}

// ListByTheater returns every section of a theater ordered by name.
func (r *SectionRepo) ListByTheater(ctx context.Context, theaterID uint64) ([]model.Section, error) {
	const q = `SELECT ` + sectionColumns + ` FROM sections WHERE theater_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), theaterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Section
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// SetActive flips the soft-delete flag of a section.
func (r *SectionRepo) SetActive(ctx context.Context, theaterID, id uint64, active bool) error {
	const q = `UPDATE sections SET is_active = ? WHERE id = ? AND theater_id = ?`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), active, id, theaterID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSectionNotFound
	}
	return nil
}
