package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel definitions
	"strings"

	"github.com/iliyamo/theater-seat-booking/internal/database"
	"github.com/iliyamo/theater-seat-booking/internal/model"
)

// ErrSeatNotFound is returned when a seat code does not exist in the theater.
var ErrSeatNotFound = errors.New("seat not found")

// ErrSeatNotAvailable is returned by a claim that lost: the seat is
// already RESERVED, deactivated, or sits in an inactive section.
var ErrSeatNotAvailable = errors.New("seat not available")

// seatInsertChunk bounds the number of rows per multi-row INSERT so the
// placeholder count stays well under every driver's limit.
const seatInsertChunk = 500

// SeatClaim identifies a seat that has just been moved to RESERVED.
type SeatClaim struct {
	SeatID     uint64
	SeatTypeID uint64
	Code       string
}

// SeatRepo is the seat inventory store. The claim/release pair is the
// only place seat status changes; everything else is read-only.
type SeatRepo struct {
	db *database.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *database.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// ClaimTx atomically moves a seat from AVAILABLE to RESERVED inside tx.
// The conditional UPDATE is the serialisation point: of any number of
// concurrent callers for the same seat exactly one sees a row affected.
// The others get ErrSeatNotAvailable. Unknown codes get ErrSeatNotFound.
func (r *SeatRepo) ClaimTx(ctx context.Context, tx *sql.Tx, theaterID uint64, code string) (SeatClaim, error) {
	// The conditional UPDATE is the first statement so the transaction
	// takes the write lock before it has read anything.
	const claim = `UPDATE seats SET status = 'RESERVED'
	               WHERE theater_id = ? AND seat_code = ? AND status = 'AVAILABLE' AND is_active = TRUE
	                 AND EXISTS (SELECT 1 FROM sections sec WHERE sec.id = seats.section_id AND sec.is_active = TRUE)`
	res, err := tx.ExecContext(ctx, r.db.Rebind(claim), theaterID, code)
	if err != nil {
		return SeatClaim{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return SeatClaim{}, err
	}

	const lookup = `SELECT id, seat_type_id FROM seats WHERE theater_id = ? AND seat_code = ?`
	c := SeatClaim{Code: code}
	if err := tx.QueryRowContext(ctx, r.db.Rebind(lookup), theaterID, code).Scan(&c.SeatID, &c.SeatTypeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SeatClaim{}, ErrSeatNotFound
		}
		return SeatClaim{}, err
	}
	if n != 1 {
		return SeatClaim{}, ErrSeatNotAvailable
	}
	return c, nil
}

// Claim runs ClaimTx in its own transaction.
func (r *SeatRepo) Claim(ctx context.Context, theaterID uint64, code string) (SeatClaim, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return SeatClaim{}, err
	}
	c, err := r.ClaimTx(ctx, tx, theaterID, code)
	if err != nil {
		_ = tx.Rollback()
		return SeatClaim{}, err
	}
	if err := tx.Commit(); err != nil {
		return SeatClaim{}, err
	}
	return c, nil
}

// ReleaseTx moves a seat back to AVAILABLE. Releasing an already
// available seat is a no-op.
func (r *SeatRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, seatID uint64) error {
	const q = `UPDATE seats SET status = 'AVAILABLE' WHERE id = ?`
	_, err := tx.ExecContext(ctx, r.db.Rebind(q), seatID)
	return err
}

// Release runs ReleaseTx outside any caller transaction.
func (r *SeatRepo) Release(ctx context.Context, seatID uint64) error {
	const q = `UPDATE seats SET status = 'AVAILABLE' WHERE id = ?`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(q), seatID)
	return err
}

// CreateBulkTx inserts seats with multi-row INSERT statements.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []model.Seat) error {
	for start := 0; start < len(seats); start += seatInsertChunk {
		end := start + seatInsertChunk
		if end > len(seats) {
			end = len(seats)
		}
		batch := seats[start:end]

		var b strings.Builder
		b.WriteString(`INSERT INTO seats (theater_id, section_id, seat_code, row_no, seat_no, seat_type_id, status, is_active) VALUES `)
		args := make([]any, 0, len(batch)*8)
		for i, s := range batch {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString("(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, s.TheaterID, s.SectionID, s.Code, s.Row, s.Number, s.SeatTypeID, string(model.SeatAvailable), true)
		}
		if _, err := tx.ExecContext(ctx, r.db.Rebind(b.String()), args...); err != nil {
			return uniqueOr(err)
		}
	}
	return nil
}

// DeleteBySectionTx removes all seats of a section. Bookings referencing
// them must be deleted first.
func (r *SeatRepo) DeleteBySectionTx(ctx context.Context, tx *sql.Tx, sectionID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM seats WHERE section_id = ?`), sectionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CodesTakenTx returns which of codes are already used by seats of other
// sections in the same theater.
func (r *SeatRepo) CodesTakenTx(ctx context.Context, tx *sql.Tx, theaterID, sectionID uint64, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var taken []string
	for start := 0; start < len(codes); start += seatInsertChunk {
		end := start + seatInsertChunk
		if end > len(codes) {
			end = len(codes)
		}
		batch := codes[start:end]
		q := `SELECT seat_code FROM seats WHERE theater_id = ? AND section_id <> ? AND seat_code IN (?` +
			strings.Repeat(", ?", len(batch)-1) + `)`
		args := make([]any, 0, len(batch)+2)
		args = append(args, theaterID, sectionID)
		for _, c := range batch {
			args = append(args, c)
		}
		rows, err := tx.QueryContext(ctx, r.db.Rebind(q), args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var c string
			if err := rows.Scan(&c); err != nil {
				rows.Close()
				return nil, err
			}
			taken = append(taken, c)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return taken, nil
}

// GetByCode returns the seat with the given code in a theater.
func (r *SeatRepo) GetByCode(ctx context.Context, theaterID uint64, code string) (*model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats s WHERE s.theater_id = ? AND s.seat_code = ?`
	s, err := scanSeat(r.db.QueryRowContext(ctx, r.db.Rebind(q), theaterID, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// SetActive soft-enables or disables a single seat.
func (r *SeatRepo) SetActive(ctx context.Context, theaterID uint64, code string, active bool) error {
	const q = `UPDATE seats SET is_active = ? WHERE theater_id = ? AND seat_code = ?`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), active, theaterID, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeatNotFound
	}
	return nil
}

// ListBySection retrieves all seats of a section ordered by row then number.
func (r *SeatRepo) ListBySection(ctx context.Context, sectionID uint64) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats s WHERE s.section_id = ? ORDER BY s.row_no, s.seat_no`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), sectionID)
	if err != nil {
		return nil, err
	}
	return collectSeats(rows)
}

// ListAvailableBySection lists bookable seats of a section.
func (r *SeatRepo) ListAvailableBySection(ctx context.Context, sectionID uint64) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats s
	           WHERE s.section_id = ? AND s.status = 'AVAILABLE' AND s.is_active = TRUE
	           ORDER BY s.row_no, s.seat_no`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), sectionID)
	if err != nil {
		return nil, err
	}
	return collectSeats(rows)
}

// ListByRow lists the seats of one row of a section.
func (r *SeatRepo) ListByRow(ctx context.Context, sectionID uint64, row int) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats s WHERE s.section_id = ? AND s.row_no = ? ORDER BY s.seat_no`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), sectionID, row)
	if err != nil {
		return nil, err
	}
	return collectSeats(rows)
}

// ListAvailable lists every bookable seat of a theater, skipping inactive sections.
func (r *SeatRepo) ListAvailable(ctx context.Context, theaterID uint64) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats s
	           JOIN sections sec ON sec.id = s.section_id
	           WHERE s.theater_id = ? AND s.status = 'AVAILABLE' AND s.is_active = TRUE AND sec.is_active = TRUE
	           ORDER BY sec.name, s.row_no, s.seat_no`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), theaterID)
	if err != nil {
		return nil, err
	}
	return collectSeats(rows)
}

// ListBooked lists reserved seats of a theater together with their
// confirmed booking.
func (r *SeatRepo) ListBooked(ctx context.Context, theaterID uint64) ([]model.BookedSeat, error) {
	const q = `SELECT ` + seatColumns + `, ` + bookingColumns + ` FROM seats s
	           JOIN bookings b ON b.seat_id = s.id AND b.status = 'CONFIRMED'
	           WHERE s.theater_id = ?
	           ORDER BY s.seat_code`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), theaterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BookedSeat
	for rows.Next() {
		var bs model.BookedSeat
		var seatStatus, bookedAt, bookingStatus string
		if err := rows.Scan(
			&bs.Seat.ID, &bs.Seat.TheaterID, &bs.Seat.SectionID, &bs.Seat.Code, &bs.Seat.Row, &bs.Seat.Number,
			&bs.Seat.SeatTypeID, &seatStatus, &bs.Seat.IsActive,
			&bs.Booking.ID, &bs.Booking.SeatID, &bs.Booking.SeatCode, &bs.Booking.Customer.Name,
			&bs.Booking.Customer.Email, &bs.Booking.Customer.Phone, &bookedAt, &bs.Booking.TotalPriceCents, &bookingStatus,
		); err != nil {
			return nil, err
		}
		bs.Seat.Status = model.SeatStatus(seatStatus)
		bs.Booking.BookedAt = parseDBTime(bookedAt)
		bs.Booking.Status = model.BookingStatus(bookingStatus)
		out = append(out, bs)
	}
	return out, rows.Err()
}

// CountAvailableBySection counts bookable seats, optionally limited to one row (row > 0).
func (r *SeatRepo) CountAvailableBySection(ctx context.Context, sectionID uint64, row int) (int, error) {
	q := `SELECT COUNT(*) FROM seats WHERE section_id = ? AND status = 'AVAILABLE' AND is_active = TRUE`
	args := []any{sectionID}
	if row > 0 {
		q += ` AND row_no = ?`
		args = append(args, row)
	}
	var n int
	err := r.db.QueryRowContext(ctx, r.db.Rebind(q), args...).Scan(&n)
	return n, err
}
