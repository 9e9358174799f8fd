package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-seat-booking/internal/database"
	"github.com/iliyamo/theater-seat-booking/internal/database/dbtest"
	"github.com/iliyamo/theater-seat-booking/internal/events"
	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/repository"
)

// fixture wires every service against a fresh in-memory database.
type fixture struct {
	db        *database.DB
	log       *logrus.Logger
	hook      *logtest.Hook
	pub       *events.Memory
	seats     *repository.SeatRepo
	bookings  *repository.BookingRepo
	catalog   *Catalog
	generator *SeatGenerator
	ledger    *Ledger
	booking   *BookingService
	inventory *Inventory

	theater  model.Theater
	standard model.SeatType
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, dbtest.Open(t))
}

// newFixtureOn wires the fixture over an already migrated db.
func newFixtureOn(t *testing.T, db *database.DB) *fixture {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	pub := &events.Memory{}

	theaters := repository.NewTheaterRepo(db)
	seatTypes := repository.NewSeatTypeRepo(db)
	sections := repository.NewSectionRepo(db)
	seats := repository.NewSeatRepo(db)
	bookings := repository.NewBookingRepo(db)
	configs := repository.NewConfigRepo(db)
	stats := repository.NewStatsRepo(db)

	f := &fixture{db: db, log: log, hook: hook, pub: pub, seats: seats, bookings: bookings}
	f.catalog = NewCatalog(theaters, seatTypes, sections, seats, configs, log)
	f.generator = NewSeatGenerator(db, sections, seatTypes, seats, bookings, pub, log)
	f.ledger = NewLedger(db, seats, seatTypes, bookings, pub, log)
	f.booking = NewBookingService(db, seats, sections, bookings, configs, f.ledger, pub, log)
	f.inventory = NewInventory(sections, seats, bookings, stats)

	ctx := context.Background()
	f.theater = model.Theater{Name: "Grand", Location: "Main St"}
	require.NoError(t, f.catalog.CreateTheater(ctx, &f.theater))
	f.standard = model.SeatType{TheaterID: f.theater.ID, Name: "standard", PriceCents: 1000}
	require.NoError(t, f.catalog.CreateSeatType(ctx, &f.standard))
	return f
}

// section creates a section of the fixture theater using the STANDARD type.
func (f *fixture) section(t *testing.T, name string, rows, perRow int) model.Section {
	t.Helper()
	res, err := f.generator.CreateSection(context.Background(), model.Section{
		TheaterID:   f.theater.ID,
		Name:        name,
		SeatTypeID:  f.standard.ID,
		RowsCount:   rows,
		SeatsPerRow: perRow,
	})
	require.NoError(t, err)
	return res.Section
}

func (f *fixture) book(code, name string) (*model.Booking, error) {
	return f.booking.Book(context.Background(), f.theater.ID, BookingRequest{
		SeatCode: code,
		Customer: model.Customer{Name: name, Email: name + "@example.com"},
	})
}

func (f *fixture) seatStatus(t *testing.T, code string) model.SeatStatus {
	t.Helper()
	s, err := f.seats.GetByCode(context.Background(), f.theater.ID, code)
	require.NoError(t, err)
	return s.Status
}

func int64p(v int64) *int64 { return &v }
