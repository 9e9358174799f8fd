package repository // repository defines data access for the booking ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/theater-seat-booking/internal/database"
	"github.com/iliyamo/theater-seat-booking/internal/model"
)

// BookingRepo persists bookings. Rows are never updated except for the
// CONFIRMED -> CANCELLED transition, and only removed when the seat they
// point at is regenerated away.
type BookingRepo struct {
	db *database.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *database.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// InsertTx appends a CONFIRMED booking and populates its ID.
func (r *BookingRepo) InsertTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (seat_id, customer_name, customer_email, customer_phone, booking_time, total_price_cents, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.InsertID(ctx, tx, q, b.SeatID, b.Customer.Name, b.Customer.Email, b.Customer.Phone,
		formatDBTime(b.BookedAt), b.TotalPriceCents, string(b.Status))
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

const bookingByTheater = `SELECT ` + bookingColumns + ` FROM bookings b
	JOIN seats s ON s.id = b.seat_id
	WHERE b.id = ? AND s.theater_id = ?`

// GetForTheater returns a booking if its seat belongs to the theater.
func (r *BookingRepo) GetForTheater(ctx context.Context, theaterID, id uint64) (*model.Booking, error) {
	return r.getFrom(ctx, r.db, theaterID, id)
}

// GetForTheaterTx is GetForTheater inside a transaction.
func (r *BookingRepo) GetForTheaterTx(ctx context.Context, tx *sql.Tx, theaterID, id uint64) (*model.Booking, error) {
	return r.getFrom(ctx, tx, theaterID, id)
}

func (r *BookingRepo) getFrom(ctx context.Context, q database.Querier, theaterID, id uint64) (*model.Booking, error) {
	b, err := scanBooking(q.QueryRowContext(ctx, r.db.Rebind(bookingByTheater), id, theaterID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// MarkCancelledTx flips a CONFIRMED booking to CANCELLED. It reports
// false when the booking was not CONFIRMED any more, which lets two
// concurrent cancellations agree on a single winner.
func (r *BookingRepo) MarkCancelledTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	const q = `UPDATE bookings SET status = 'CANCELLED' WHERE id = ? AND status = 'CONFIRMED'`
	res, err := tx.ExecContext(ctx, r.db.Rebind(q), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// DeleteBySectionTx removes every booking, confirmed or cancelled, whose
// seat belongs to the section. Used by regeneration.
func (r *BookingRepo) DeleteBySectionTx(ctx context.Context, tx *sql.Tx, sectionID uint64) (int64, error) {
	const q = `DELETE FROM bookings WHERE seat_id IN (SELECT id FROM seats WHERE section_id = ?)`
	res, err := tx.ExecContext(ctx, r.db.Rebind(q), sectionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountConfirmedBySectionTx counts the live bookings regeneration would discard.
func (r *BookingRepo) CountConfirmedBySectionTx(ctx context.Context, tx *sql.Tx, sectionID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM bookings b JOIN seats s ON s.id = b.seat_id
	           WHERE s.section_id = ? AND b.status = 'CONFIRMED'`
	var n int
	err := tx.QueryRowContext(ctx, r.db.Rebind(q), sectionID).Scan(&n)
	return n, err
}

// CountConfirmedByEmailTx counts a customer's live bookings in a theater.
func (r *BookingRepo) CountConfirmedByEmailTx(ctx context.Context, tx *sql.Tx, theaterID uint64, email string) (int, error) {
	const q = `SELECT COUNT(*) FROM bookings b JOIN seats s ON s.id = b.seat_id
	           WHERE s.theater_id = ? AND b.customer_email = ? AND b.status = 'CONFIRMED'`
	var n int
	err := tx.QueryRowContext(ctx, r.db.Rebind(q), theaterID, email).Scan(&n)
	return n, err
}

// ListByTheater returns bookings of a theater, newest first. An empty
// status returns every status.
func (r *BookingRepo) ListByTheater(ctx context.Context, theaterID uint64, status model.BookingStatus) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings b JOIN seats s ON s.id = b.seat_id WHERE s.theater_id = ?`
	args := []any{theaterID}
	if status != "" {
		q += ` AND b.status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY b.id DESC`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
