package model

// Section is a block of seats inside a theater. Its seat set is derived
// from RowsCount × SeatsPerRow; changing either, or the seat type,
// regenerates every seat of the section.
//
// Fields:
//  ID          – primary key identifier.
//  TheaterID   – owning theater.
//  Name        – unique per theater; prefix of every seat code.
//  Description – optional free text.
//  SeatTypeID  – pricing class applied to all generated seats.
//  RowsCount   – number of rows (> 0).
//  SeatsPerRow – seats in each row (> 0).
//  IsActive    – soft switch; inactive sections accept no bookings.
type Section struct {
	ID          uint64 `json:"id"`
	TheaterID   uint64 `json:"theater_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SeatTypeID  uint64 `json:"seat_type_id"`
	RowsCount   int    `json:"rows"`
	SeatsPerRow int    `json:"seats_per_row"`
	IsActive    bool   `json:"is_active"`
}

// TotalSeats is the size of the section's seat set.
func (s Section) TotalSeats() int {
	return s.RowsCount * s.SeatsPerRow
}

// SameLayout reports whether two configurations produce the same seat set.
func (s Section) SameLayout(o Section) bool {
	return s.RowsCount == o.RowsCount && s.SeatsPerRow == o.SeatsPerRow && s.SeatTypeID == o.SeatTypeID
}
