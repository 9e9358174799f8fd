package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-booking/internal/database"
	"github.com/iliyamo/theater-seat-booking/internal/events"
	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/repository"
)

// Ledger records bookings against seats the caller has already claimed
// and cancels them again. It never claims a seat itself.
type Ledger struct {
	db        *database.DB
	seats     *repository.SeatRepo
	seatTypes *repository.SeatTypeRepo
	bookings  *repository.BookingRepo
	pub       events.Publisher
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewLedger(db *database.DB, seats *repository.SeatRepo, seatTypes *repository.SeatTypeRepo,
	bookings *repository.BookingRepo, pub events.Publisher, log logrus.FieldLogger) *Ledger {
	return &Ledger{db: db, seats: seats, seatTypes: seatTypes, bookings: bookings, pub: pub, log: log, now: time.Now}
}

// ResolvePrice returns the override when one is given, otherwise the
// claimed seat's seat type price as of now. The result is copied into the
// booking, so later price edits leave existing bookings untouched.
func (l *Ledger) ResolvePrice(ctx context.Context, tx *sql.Tx, claim repository.SeatClaim, override *int64) (int64, error) {
	if override != nil {
		if *override < 0 {
			return 0, invalid("price", "must not be negative")
		}
		return *override, nil
	}
	return l.seatTypes.PriceTx(ctx, tx, claim.SeatTypeID)
}

// Record appends a CONFIRMED booking for a claimed seat.
func (l *Ledger) Record(ctx context.Context, tx *sql.Tx, claim repository.SeatClaim, customer model.Customer, priceCents int64) (*model.Booking, error) {
	b := &model.Booking{
		SeatID:          claim.SeatID,
		SeatCode:        claim.Code,
		Customer:        customer,
		BookedAt:        l.now().UTC().Truncate(time.Second),
		TotalPriceCents: priceCents,
		Status:          model.BookingConfirmed,
	}
	if err := l.bookings.InsertTx(ctx, tx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Cancel releases the booking's seat and marks the booking CANCELLED in
// one transaction. It returns false when the booking does not exist, is
// outside the theater, or was already cancelled.
func (l *Ledger) Cancel(ctx context.Context, theaterID, bookingID uint64) (bool, error) {
	var cancelled *model.Booking
	err := withTx(ctx, l.db, func(tx *sql.Tx) error {
		b, err := l.bookings.GetForTheaterTx(ctx, tx, theaterID, bookingID)
		if err != nil {
			return err
		}
		ok, err := l.bookings.MarkCancelledTx(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		if !ok {
			return errAlreadyCancelled
		}
		if err := l.seats.ReleaseTx(ctx, tx, b.SeatID); err != nil {
			return err
		}
		cancelled = b
		return nil
	})
	switch {
	case errors.Is(err, repository.ErrBookingNotFound), errors.Is(err, errAlreadyCancelled):
		return false, nil
	case err != nil:
		return false, err
	}

	l.log.WithFields(logrus.Fields{"theater_id": theaterID, "booking_id": bookingID, "seat_code": cancelled.SeatCode}).Info("booking cancelled")
	events.Emit(ctx, l.pub, l.log, events.BookingCancelled, theaterID, events.BookingCancelledData{
		BookingID: cancelled.ID,
		SeatCode:  cancelled.SeatCode,
	})
	return true, nil
}

var errAlreadyCancelled = errors.New("booking already cancelled")
