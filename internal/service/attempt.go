package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/repository"
)

// BookingState is the position of one interactive booking attempt.
type BookingState string

const (
	StateStart           BookingState = "START"
	StateSectionSelected BookingState = "SECTION_SELECTED"
	StateRowSelected     BookingState = "ROW_SELECTED"
	StateSeatClaimed     BookingState = "SEAT_CLAIMED"
	StatePriced          BookingState = "PRICED"
	StateRecorded        BookingState = "RECORDED"
	StateRejected        BookingState = "REJECTED"
)

// Terminal reports whether no further step is accepted.
func (s BookingState) Terminal() bool {
	return s == StateRecorded || s == StateRejected
}

// Attempt walks one seat booking through section, row and seat selection.
// Any failing step moves it to REJECTED; the reason is kept for display.
// An Attempt is not safe for concurrent use.
type Attempt struct {
	svc       *BookingService
	theaterID uint64
	section   *model.Section
	row       int

	State   BookingState   `json:"state"`
	Reason  string         `json:"reason,omitempty"`
	Booking *model.Booking `json:"booking,omitempty"`
}

// Begin opens an attempt for a theater. It fails immediately when
// booking is disabled for that theater.
func (s *BookingService) Begin(ctx context.Context, theaterID uint64) (*Attempt, error) {
	if err := s.CheckEnabled(ctx, theaterID); err != nil {
		return nil, err
	}
	return &Attempt{svc: s, theaterID: theaterID, State: StateStart}, nil
}

// Section returns the selected section, nil before SelectSection succeeds.
func (a *Attempt) Section() *model.Section { return a.section }

// Row returns the selected row, zero before SelectRow succeeds.
func (a *Attempt) Row() int { return a.row }

func (a *Attempt) expect(st BookingState) error {
	if a.State != st {
		return fmt.Errorf("%w: in state %s", ErrInvalidTransition, a.State)
	}
	return nil
}

func (a *Attempt) reject(err error) error {
	a.State = StateRejected
	a.Reason = err.Error()
	return err
}

// SelectSection picks an active section that still has an available seat.
func (a *Attempt) SelectSection(ctx context.Context, name string) error {
	if err := a.expect(StateStart); err != nil {
		return err
	}
	sec, err := a.svc.sections.GetByName(ctx, a.theaterID, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, repository.ErrSectionNotFound) {
			return a.reject(invalid("section", "%q does not exist", name))
		}
		return a.reject(err)
	}
	if !sec.IsActive {
		return a.reject(ErrSectionInactive)
	}
	n, err := a.svc.seats.CountAvailableBySection(ctx, sec.ID, 0)
	if err != nil {
		return a.reject(err)
	}
	if n == 0 {
		return a.reject(ErrSoldOut)
	}
	a.section = sec
	a.State = StateSectionSelected
	return nil
}

// SelectRow picks a row of the selected section with an available seat.
func (a *Attempt) SelectRow(ctx context.Context, row int) error {
	if err := a.expect(StateSectionSelected); err != nil {
		return err
	}
	if row < 1 || row > a.section.RowsCount {
		return a.reject(invalid("row", "must be between 1 and %d", a.section.RowsCount))
	}
	n, err := a.svc.seats.CountAvailableBySection(ctx, a.section.ID, row)
	if err != nil {
		return a.reject(err)
	}
	if n == 0 {
		return a.reject(ErrSoldOut)
	}
	a.row = row
	a.State = StateRowSelected
	return nil
}

// AvailableSeats lists the bookable seats of the selected row.
func (a *Attempt) AvailableSeats(ctx context.Context) ([]model.Seat, error) {
	if err := a.expect(StateRowSelected); err != nil {
		return nil, err
	}
	seats, err := a.svc.seats.ListByRow(ctx, a.section.ID, a.row)
	if err != nil {
		return nil, err
	}
	out := seats[:0]
	for _, s := range seats {
		if s.Status == model.SeatAvailable && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

// Book claims seatCode for customer and records the booking. The seat
// must belong to the selected section and row. On success the attempt
// ends in RECORDED with Booking set.
func (a *Attempt) Book(ctx context.Context, seatCode string, customer model.Customer, override *int64) (*model.Booking, error) {
	if err := a.expect(StateRowSelected); err != nil {
		return nil, err
	}
	seatCode = strings.TrimSpace(seatCode)
	seat, err := a.svc.seats.GetByCode(ctx, a.theaterID, seatCode)
	if err != nil {
		return nil, a.reject(err)
	}
	if seat.SectionID != a.section.ID || seat.Row != a.row {
		return nil, a.reject(invalid("seat_code", "%s is not in section %s row %d", seatCode, a.section.Name, a.row))
	}
	b, err := a.svc.book(ctx, a.theaterID, BookingRequest{
		SeatCode:           seatCode,
		Customer:           customer,
		PriceOverrideCents: override,
	}, func(st BookingState) { a.State = st })
	if err != nil {
		return nil, a.reject(err)
	}
	a.Booking = b
	return b, nil
}
