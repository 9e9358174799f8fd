package model

import "fmt"

// SeatStatus is the availability state of a seat.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatReserved  SeatStatus = "RESERVED"
)

// Seat is one physical seat of a section. Seats are identified within a
// theater by their code, e.g. "A1-2" for section A, row 1, seat 2.
//
// Fields:
//  ID         – primary key identifier.
//  TheaterID  – theater the seat belongs to (denormalised from the section).
//  SectionID  – section the seat was generated for.
//  Code       – unique per theater.
//  Row        – 1-based row number.
//  Number     – 1-based position in the row.
//  SeatTypeID – pricing class.
//  Status     – AVAILABLE or RESERVED.
//  IsActive   – soft disable without deletion.
type Seat struct {
	ID         uint64     `json:"id"`
	TheaterID  uint64     `json:"theater_id"`
	SectionID  uint64     `json:"section_id"`
	Code       string     `json:"seat_code"`
	Row        int        `json:"row"`
	Number     int        `json:"number"`
	SeatTypeID uint64     `json:"seat_type_id"`
	Status     SeatStatus `json:"status"`
	IsActive   bool       `json:"is_active"`
}

// SeatCode derives the code of a seat from its section name and position.
func SeatCode(sectionName string, row, number int) string {
	return fmt.Sprintf("%s%d-%d", sectionName, row, number)
}
