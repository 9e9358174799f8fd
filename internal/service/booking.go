package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-booking/internal/database"
	"github.com/iliyamo/theater-seat-booking/internal/events"
	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/repository"
)

// Recorder prices and records a booking for a seat claimed in tx.
// *Ledger is the production implementation.
type Recorder interface {
	ResolvePrice(ctx context.Context, tx *sql.Tx, claim repository.SeatClaim, override *int64) (int64, error)
	Record(ctx context.Context, tx *sql.Tx, claim repository.SeatClaim, customer model.Customer, priceCents int64) (*model.Booking, error)
}

// BookingRequest is one seat booking as supplied by a caller or an import row.
// PriceOverrideCents is nil when no override was given; zero means free.
type BookingRequest struct {
	SeatCode           string         `json:"seat_code"`
	Customer           model.Customer `json:"customer"`
	PriceOverrideCents *int64         `json:"price_override_cents,omitempty"`
}

// BookingService runs the claim -> price -> record unit of work.
type BookingService struct {
	db       *database.DB
	seats    *repository.SeatRepo
	sections *repository.SectionRepo
	bookings *repository.BookingRepo
	configs  *repository.ConfigRepo
	recorder Recorder
	pub      events.Publisher
	log      logrus.FieldLogger
}

func NewBookingService(db *database.DB, seats *repository.SeatRepo, sections *repository.SectionRepo,
	bookings *repository.BookingRepo, configs *repository.ConfigRepo, recorder Recorder,
	pub events.Publisher, log logrus.FieldLogger) *BookingService {
	return &BookingService{
		db:       db,
		seats:    seats,
		sections: sections,
		bookings: bookings,
		configs:  configs,
		recorder: recorder,
		pub:      pub,
		log:      log,
	}
}

// CheckEnabled returns ErrBookingDisabled when the theater's
// booking_enabled setting is false. A missing setting means enabled.
func (s *BookingService) CheckEnabled(ctx context.Context, theaterID uint64) error {
	v, err := s.configs.Get(ctx, theaterID, model.ConfigBookingEnabled)
	if errors.Is(err, repository.ErrConfigNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if on, perr := strconv.ParseBool(strings.TrimSpace(v)); perr == nil && !on {
		return ErrBookingDisabled
	}
	return nil
}

// Book claims the seat, resolves its price and records the booking in a
// single transaction. Any failure after the claim rolls the claim back,
// so a seat is never left RESERVED without a booking.
func (s *BookingService) Book(ctx context.Context, theaterID uint64, req BookingRequest) (*model.Booking, error) {
	return s.book(ctx, theaterID, req, nil)
}

func (s *BookingService) book(ctx context.Context, theaterID uint64, req BookingRequest, step func(BookingState)) (*model.Booking, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	advance := func(st BookingState) {
		if step != nil {
			step(st)
		}
	}

	var booking *model.Booking
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		claim, err := s.seats.ClaimTx(ctx, tx, theaterID, req.SeatCode)
		if err != nil {
			return err
		}
		// the claim goes first; a refused limit rolls it back with the tx
		if err := s.checkCustomerLimit(ctx, tx, theaterID, req.Customer.Email); err != nil {
			return err
		}
		advance(StateSeatClaimed)

		price, err := s.recorder.ResolvePrice(ctx, tx, claim, req.PriceOverrideCents)
		if err != nil {
			return fmt.Errorf("resolve price: %w", err)
		}
		advance(StatePriced)

		booking, err = s.recorder.Record(ctx, tx, claim, req.Customer, price)
		if err != nil {
			return fmt.Errorf("record booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	advance(StateRecorded)

	s.log.WithFields(logrus.Fields{
		"theater_id": theaterID,
		"booking_id": booking.ID,
		"seat_code":  booking.SeatCode,
		"price":      booking.TotalPriceCents,
	}).Debug("booking recorded")
	events.Emit(ctx, s.pub, s.log, events.BookingConfirmed, theaterID, events.BookingConfirmedData{
		BookingID:     booking.ID,
		SeatCode:      booking.SeatCode,
		CustomerName:  booking.Customer.Name,
		CustomerEmail: booking.Customer.Email,
		PriceCents:    booking.TotalPriceCents,
		BookedAt:      booking.BookedAt.Format(time.RFC3339),
	})
	return booking, nil
}

func validateRequest(req BookingRequest) error {
	switch {
	case strings.TrimSpace(req.SeatCode) == "":
		return invalid("seat_code", "is required")
	case strings.TrimSpace(req.Customer.Name) == "":
		return invalid("customer.name", "is required")
	case req.PriceOverrideCents != nil && *req.PriceOverrideCents < 0:
		return invalid("price", "must not be negative")
	}
	return nil
}

// checkCustomerLimit enforces max_bookings_per_customer when configured.
// The count is read inside the booking transaction but is not a lock:
// two concurrent bookings by the same customer may both pass.
func (s *BookingService) checkCustomerLimit(ctx context.Context, tx *sql.Tx, theaterID uint64, email string) error {
	if email == "" {
		return nil
	}
	v, err := s.configs.GetTx(ctx, tx, theaterID, model.ConfigMaxBookingsPerCustomer)
	if errors.Is(err, repository.ErrConfigNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	max, perr := strconv.Atoi(strings.TrimSpace(v))
	if perr != nil || max <= 0 {
		return nil
	}
	n, err := s.bookings.CountConfirmedByEmailTx(ctx, tx, theaterID, email)
	if err != nil {
		return err
	}
	if n >= max {
		return ErrCustomerLimit
	}
	return nil
}
