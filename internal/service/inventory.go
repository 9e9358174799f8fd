package service

import (
	"context"
	"math"

	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/repository"
)

// Inventory answers read-only questions about seats and bookings. Every
// answer is a snapshot that may be stale by the time the caller acts on it.
type Inventory struct {
	sections *repository.SectionRepo
	seats    *repository.SeatRepo
	bookings *repository.BookingRepo
	stats    *repository.StatsRepo
}

func NewInventory(sections *repository.SectionRepo, seats *repository.SeatRepo,
	bookings *repository.BookingRepo, stats *repository.StatsRepo) *Inventory {
	return &Inventory{sections: sections, seats: seats, bookings: bookings, stats: stats}
}

// SectionSeats lists every seat of a section. With availableOnly set the
// list is narrowed to bookable seats.
func (i *Inventory) SectionSeats(ctx context.Context, theaterID, sectionID uint64, availableOnly bool) ([]model.Seat, error) {
	if _, err := i.sections.GetByID(ctx, theaterID, sectionID); err != nil {
		return nil, err
	}
	if availableOnly {
		return i.seats.ListAvailableBySection(ctx, sectionID)
	}
	return i.seats.ListBySection(ctx, sectionID)
}

// RowSeats lists the seats of one row.
func (i *Inventory) RowSeats(ctx context.Context, theaterID, sectionID uint64, row int) ([]model.Seat, error) {
	sec, err := i.sections.GetByID(ctx, theaterID, sectionID)
	if err != nil {
		return nil, err
	}
	if row < 1 || row > sec.RowsCount {
		return nil, invalid("row", "must be between 1 and %d", sec.RowsCount)
	}
	return i.seats.ListByRow(ctx, sectionID, row)
}

func (i *Inventory) Seat(ctx context.Context, theaterID uint64, code string) (*model.Seat, error) {
	return i.seats.GetByCode(ctx, theaterID, code)
}

func (i *Inventory) AvailableSeats(ctx context.Context, theaterID uint64) ([]model.Seat, error) {
	return i.seats.ListAvailable(ctx, theaterID)
}

func (i *Inventory) BookedSeats(ctx context.Context, theaterID uint64) ([]model.BookedSeat, error) {
	return i.seats.ListBooked(ctx, theaterID)
}

func (i *Inventory) Bookings(ctx context.Context, theaterID uint64, status model.BookingStatus) ([]model.Booking, error) {
	return i.bookings.ListByTheater(ctx, theaterID, status)
}

func (i *Inventory) Booking(ctx context.Context, theaterID, bookingID uint64) (*model.Booking, error) {
	return i.bookings.GetForTheater(ctx, theaterID, bookingID)
}

// Stats summarises occupancy and confirmed revenue of a theater.
func (i *Inventory) Stats(ctx context.Context, theaterID uint64) (*model.TheaterStats, error) {
	secs, err := i.stats.SectionCounts(ctx, theaterID)
	if err != nil {
		return nil, err
	}
	rev, err := i.stats.Revenue(ctx, theaterID)
	if err != nil {
		return nil, err
	}
	st := &model.TheaterStats{TheaterID: theaterID, RevenueCents: rev, Sections: secs}
	if st.Sections == nil {
		st.Sections = []model.SectionStats{}
	}
	for _, s := range secs {
		st.TotalSeats += s.TotalSeats
		st.Available += s.Available
		st.Booked += s.Booked
	}
	if st.TotalSeats > 0 {
		st.Occupancy = math.Round(float64(st.Booked)*10000/float64(st.TotalSeats)) / 100
	}
	return st, nil
}
