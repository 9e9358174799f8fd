package repository

import (
	"database/sql"
	"time"

	"github.com/iliyamo/theater-seat-booking/internal/database"
	"github.com/iliyamo/theater-seat-booking/internal/model"
)

// dbTimeLayout is how timestamps are written; every supported driver
// accepts it for DATETIME/TIMESTAMP columns.
const dbTimeLayout = "2006-01-02 15:04:05"

var readLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	dbTimeLayout,
}

// parseDBTime accepts the textual forms drivers hand back when a
// timestamp is scanned into a string. Unparseable input yields zero time.
func parseDBTime(s string) time.Time {
	for _, l := range readLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func formatDBTime(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const seatColumns = `s.id, s.theater_id, s.section_id, s.seat_code, s.row_no, s.seat_no, s.seat_type_id, s.status, s.is_active`

func scanSeat(sc rowScanner) (model.Seat, error) {
	var s model.Seat
	var status string
	err := sc.Scan(&s.ID, &s.TheaterID, &s.SectionID, &s.Code, &s.Row, &s.Number, &s.SeatTypeID, &status, &s.IsActive)
	s.Status = model.SeatStatus(status)
	return s, err
}

func collectSeats(rows *sql.Rows) ([]model.Seat, error) {
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const bookingColumns = `b.id, b.seat_id, s.seat_code, b.customer_name, b.customer_email, b.customer_phone, b.booking_time, b.total_price_cents, b.status`

func scanBooking(sc rowScanner) (model.Booking, error) {
	var b model.Booking
	var bookedAt, status string
	err := sc.Scan(&b.ID, &b.SeatID, &b.SeatCode, &b.Customer.Name, &b.Customer.Email, &b.Customer.Phone,
		&bookedAt, &b.TotalPriceCents, &status)
	b.BookedAt = parseDBTime(bookedAt)
	b.Status = model.BookingStatus(status)
	return b, err
}

// uniqueOr maps a unique-constraint violation to ErrConflict.
func uniqueOr(err error) error {
	if database.IsUniqueViolation(err) {
		return ErrConflict
	}
	return err
}
