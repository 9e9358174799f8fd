// Package events defines the domain events emitted after a booking,
// cancellation, section regeneration or import commits, and the
// publishers that ship them to a broker.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type names an event; it doubles as the AMQP routing key and the Kafka key prefix.
type Type string

const (
	BookingConfirmed   Type = "booking.confirmed"
	BookingCancelled   Type = "booking.cancelled"
	SectionRegenerated Type = "section.regenerated"
	ImportCompleted    Type = "import.completed"
)

// Event is the envelope written to the broker.
type Event struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	TheaterID  uint64          `json:"theater_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// New wraps data into an envelope with a fresh id.
func New(t Type, theaterID uint64, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		TheaterID:  theaterID,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}, nil
}

// BookingConfirmedData is published when a booking commits.
type BookingConfirmedData struct {
	BookingID     uint64 `json:"booking_id"`
	SeatCode      string `json:"seat_code"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	PriceCents    int64  `json:"price_cents"`
	BookedAt      string `json:"booked_at"`
}

// BookingCancelledData is published when a booking is cancelled.
type BookingCancelledData struct {
	BookingID uint64 `json:"booking_id"`
	SeatCode  string `json:"seat_code"`
}

// SectionRegeneratedData is published after a section's seats were rebuilt.
type SectionRegeneratedData struct {
	SectionID         uint64 `json:"section_id"`
	SectionName       string `json:"section_name"`
	Seats             int    `json:"seats"`
	DiscardedBookings int    `json:"discarded_bookings"`
}

// ImportCompletedData summarises one bulk import batch.
type ImportCompletedData struct {
	BatchID string `json:"batch_id"`
	Files   int    `json:"files"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	Errors  int    `json:"errors"`
}
