package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-seat-booking/internal/database/dbtest"
	"github.com/iliyamo/theater-seat-booking/internal/events"
	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/repository"
)

func TestSectionBookAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sec := f.section(t, "A", 2, 3)

	seats, err := f.inventory.SectionSeats(ctx, f.theater.ID, sec.ID, false)
	require.NoError(t, err)
	codes := make([]string, 0, len(seats))
	for _, s := range seats {
		assert.Equal(t, model.SeatAvailable, s.Status)
		codes = append(codes, s.Code)
	}
	assert.Equal(t, []string{"A1-1", "A1-2", "A1-3", "A2-1", "A2-2", "A2-3"}, codes)

	b, err := f.book("A1-2", "Jane")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), b.TotalPriceCents)
	assert.Equal(t, model.BookingConfirmed, b.Status)
	assert.Equal(t, "A1-2", b.SeatCode)
	assert.Equal(t, model.SeatReserved, f.seatStatus(t, "A1-2"))

	_, err = f.book("A1-2", "John")
	assert.ErrorIs(t, err, repository.ErrSeatNotAvailable)
	assert.True(t, IsContention(err))

	ok, err := f.ledger.Cancel(ctx, f.theater.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.SeatAvailable, f.seatStatus(t, "A1-2"))

	stored, err := f.inventory.Booking(ctx, f.theater.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, stored.Status)

	ok, err = f.ledger.Cancel(ctx, f.theater.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok, "second cancel is a no-op")

	ok, err = f.ledger.Cancel(ctx, f.theater.ID+1, b.ID)
	require.NoError(t, err)
	assert.False(t, ok, "booking of another theater is not visible")

	assert.Len(t, f.pub.OfType(events.BookingConfirmed), 1)
	assert.Len(t, f.pub.OfType(events.BookingCancelled), 1)
}

func TestBookUnknownSeat(t *testing.T) {
	f := newFixture(t)
	f.section(t, "A", 1, 1)

	_, err := f.book("Z9-9", "Jane")
	assert.ErrorIs(t, err, repository.ErrSeatNotFound)
	assert.True(t, IsContention(err))
}

func TestBookValidatesRequest(t *testing.T) {
	f := newFixture(t)
	f.section(t, "A", 1, 1)

	_, err := f.book("A1-1", " ")
	assert.True(t, IsValidation(err))

	_, err = f.booking.Book(context.Background(), f.theater.ID, BookingRequest{
		SeatCode:           "A1-1",
		Customer:           model.Customer{Name: "Jane"},
		PriceOverrideCents: int64p(-1),
	})
	assert.True(t, IsValidation(err))
	assert.Equal(t, model.SeatAvailable, f.seatStatus(t, "A1-1"))
}

// failingRecorder prices normally but fails to record.
type failingRecorder struct {
	*Ledger
}

func (failingRecorder) Record(context.Context, *sql.Tx, repository.SeatClaim, model.Customer, int64) (*model.Booking, error) {
	return nil, errors.New("disk full")
}

func TestClaimRolledBackWhenRecordFails(t *testing.T) {
	f := newFixture(t)
	f.section(t, "A", 1, 2)

	svc := NewBookingService(f.db, f.seats, repository.NewSectionRepo(f.db), f.bookings,
		repository.NewConfigRepo(f.db), failingRecorder{f.ledger}, f.pub, f.log)
	_, err := svc.Book(context.Background(), f.theater.ID, BookingRequest{
		SeatCode: "A1-1",
		Customer: model.Customer{Name: "Jane"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, IsContention(err))

	assert.Equal(t, model.SeatAvailable, f.seatStatus(t, "A1-1"))
	list, err := f.inventory.Bookings(context.Background(), f.theater.ID, "")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.pub.OfType(events.BookingConfirmed))
}

func TestConcurrentBookingsOfOneSeatHaveOneWinner(t *testing.T) {
	f := newFixtureOn(t, dbtest.OpenPool(t, 8))
	f.section(t, "A", 1, 1)

	const callers = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		start    = make(chan struct{})
		won      int
		rejected int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := f.book("A1-1", fmt.Sprintf("guest%d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errors.Is(err, repository.ErrSeatNotAvailable):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, won)
	assert.Equal(t, callers-1, rejected)
	list, err := f.inventory.Bookings(context.Background(), f.theater.ID, model.BookingConfirmed)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, model.SeatReserved, f.seatStatus(t, "A1-1"))
}

func TestPriceIsSnapshotAtBookingTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.section(t, "A", 1, 3)

	first, err := f.book("A1-1", "Jane")
	require.NoError(t, err)

	f.standard.PriceCents = 1500
	require.NoError(t, f.catalog.UpdateSeatType(ctx, &f.standard))

	second, err := f.book("A1-2", "John")
	require.NoError(t, err)
	free, err := f.booking.Book(ctx, f.theater.ID, BookingRequest{
		SeatCode:           "A1-3",
		Customer:           model.Customer{Name: "Guest"},
		PriceOverrideCents: int64p(0),
	})
	require.NoError(t, err)

	stored, err := f.inventory.Booking(ctx, f.theater.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stored.TotalPriceCents)
	assert.Equal(t, int64(1500), second.TotalPriceCents)
	assert.Equal(t, int64(0), free.TotalPriceCents)
}

func TestInactiveSeatsAndSectionsCannotBeClaimed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sec := f.section(t, "A", 1, 2)

	require.NoError(t, f.catalog.SetSeatActive(ctx, f.theater.ID, "A1-1", false))
	_, err := f.book("A1-1", "Jane")
	assert.ErrorIs(t, err, repository.ErrSeatNotAvailable)

	require.NoError(t, f.catalog.SetSectionActive(ctx, f.theater.ID, sec.ID, false))
	_, err = f.book("A1-2", "Jane")
	assert.ErrorIs(t, err, repository.ErrSeatNotAvailable)

	require.NoError(t, f.catalog.SetSectionActive(ctx, f.theater.ID, sec.ID, true))
	_, err = f.book("A1-2", "Jane")
	assert.NoError(t, err)
}

func TestBookingGateAndCustomerLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.section(t, "A", 1, 3)

	require.NoError(t, f.catalog.SetConfig(ctx, model.TheaterConfig{TheaterID: f.theater.ID, Key: model.ConfigBookingEnabled, Value: "false"}))
	_, err := f.booking.Begin(ctx, f.theater.ID)
	assert.ErrorIs(t, err, ErrBookingDisabled)

	require.NoError(t, f.catalog.SetConfig(ctx, model.TheaterConfig{TheaterID: f.theater.ID, Key: model.ConfigBookingEnabled, Value: "true"}))
	require.NoError(t, f.catalog.SetConfig(ctx, model.TheaterConfig{TheaterID: f.theater.ID, Key: model.ConfigMaxBookingsPerCustomer, Value: "1"}))

	_, err = f.book("A1-1", "jane")
	require.NoError(t, err)
	_, err = f.book("A1-2", "jane")
	assert.ErrorIs(t, err, ErrCustomerLimit)
	assert.True(t, IsContention(err))
	assert.Equal(t, model.SeatAvailable, f.seatStatus(t, "A1-2"))

	_, err = f.book("A1-2", "john")
	assert.NoError(t, err)
}

func TestSetConfigValidatesKnownKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.catalog.SetConfig(ctx, model.TheaterConfig{TheaterID: f.theater.ID, Key: model.ConfigBookingEnabled, Value: "maybe"})
	assert.True(t, IsValidation(err))
	err = f.catalog.SetConfig(ctx, model.TheaterConfig{TheaterID: f.theater.ID, Key: model.ConfigMaxBookingsPerCustomer, Value: "-2"})
	assert.True(t, IsValidation(err))
	err = f.catalog.SetConfig(ctx, model.TheaterConfig{TheaterID: f.theater.ID, Key: "opening_hours", Value: "10-22"})
	assert.NoError(t, err)

	list, err := f.catalog.ListConfig(ctx, f.theater.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "opening_hours", list[0].Key)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.section(t, "A", 2, 2)
	f.section(t, "B", 1, 4)

	_, err := f.book("A1-1", "Jane")
	require.NoError(t, err)
	_, err = f.book("B1-4", "John")
	require.NoError(t, err)

	st, err := f.inventory.Stats(ctx, f.theater.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, st.TotalSeats)
	assert.Equal(t, 2, st.Booked)
	assert.Equal(t, 6, st.Available)
	assert.Equal(t, int64(2000), st.RevenueCents)
	assert.Equal(t, 25.0, st.Occupancy)
	require.Len(t, st.Sections, 2)
	assert.Equal(t, "A", st.Sections[0].SectionName)
}
