package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Customer identifies who a booking is for.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Booking binds one seat to one customer. TotalPriceCents is the price
// resolved when the booking was made and does not follow later seat
// type price changes. Cancelled bookings are kept for audit.
type Booking struct {
	ID              uint64        `json:"id"`
	SeatID          uint64        `json:"seat_id"`
	SeatCode        string        `json:"seat_code,omitempty"`
	Customer        Customer      `json:"customer"`
	BookedAt        time.Time     `json:"booked_at"`
	TotalPriceCents int64         `json:"total_price_cents"`
	Status          BookingStatus `json:"status"`
}

// BookedSeat is a seat together with its active booking.
type BookedSeat struct {
	Seat    Seat    `json:"seat"`
	Booking Booking `json:"booking"`
}
