package model

import "time"

// Theater is the root of ownership: seat types, sections, configuration
// and (through sections and seats) bookings all hang off a theater.
// A theater can only be deleted once it owns no sections.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name, unique across the system.
//  Location  – free-form address or city.
//  CreatedAt – creation timestamp.
type Theater struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

// SeatType is a pricing class scoped to a theater (STANDARD, VIP ...).
// Prices are integer cents and never negative.
type SeatType struct {
	ID          uint64 `json:"id"`
	TheaterID   uint64 `json:"theater_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
}

// TheaterConfig is one key/value setting of a theater.
type TheaterConfig struct {
	TheaterID uint64 `json:"theater_id"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

// Well-known configuration keys read by the booking flow.
const (
	ConfigBookingEnabled         = "booking_enabled"
	ConfigMaxBookingsPerCustomer = "max_bookings_per_customer"
)
