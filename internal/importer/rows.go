// Package importer turns booking and section files into rows and feeds
// them through the booking and seat generation services. Parsing lives
// entirely here; the services never see a file.
package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/service"
)

// BookingRow is one booking request read from a file. PriceCents is nil
// when the row carries no price column.
type BookingRow struct {
	Line       int    `json:"line"`
	SeatCode   string `json:"seat_code"`
	Name       string `json:"customer_name"`
	Email      string `json:"customer_email"`
	Phone      string `json:"customer_phone"`
	PriceCents *int64 `json:"price_cents,omitempty"`
}

// Request converts the row into a booking request.
func (r BookingRow) Request() service.BookingRequest {
	return service.BookingRequest{
		SeatCode:           r.SeatCode,
		Customer:           model.Customer{Name: r.Name, Email: r.Email, Phone: r.Phone},
		PriceOverrideCents: r.PriceCents,
	}
}

// SectionRow describes one single-row section to create. SeatType is a
// seat type id or name.
type SectionRow struct {
	Line        int    `json:"line"`
	SectionName string `json:"section_name"`
	RowNumber   int    `json:"row_number"`
	TotalSeats  int    `json:"total_seats"`
	SeatType    string `json:"seat_type"`
}

// Tally counts import outcomes. Tallies combine by addition so the order
// in which workers finish does not matter.
type Tally struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Add returns the elementwise sum of t and o.
func (t Tally) Add(o Tally) Tally {
	return Tally{Created: t.Created + o.Created, Skipped: t.Skipped + o.Skipped, Errors: t.Errors + o.Errors}
}

// Total is the number of rows the tally accounts for.
func (t Tally) Total() int { return t.Created + t.Skipped + t.Errors }

// ParsePriceCents reads a decimal amount such as "12", "12.5" or "12.50"
// into cents without going through floating point. More than two
// fractional digits is an error rather than a silent rounding.
func ParsePriceCents(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative price %q", s)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("price %q has more than two decimals", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("price %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("price %q: bad fraction", s)
	}
	if w > (math.MaxInt64-f)/100 {
		return 0, fmt.Errorf("price %q out of range", s)
	}
	return w*100 + f, nil
}
