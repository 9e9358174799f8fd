package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-seat-booking/internal/events"
	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/repository"
)

func TestBuildSeatsIsRowMajor(t *testing.T) {
	seats := BuildSeats(model.Section{ID: 7, TheaterID: 1, Name: "VIP", SeatTypeID: 3, RowsCount: 2, SeatsPerRow: 2})
	require.Len(t, seats, 4)
	assert.Equal(t, "VIP1-1", seats[0].Code)
	assert.Equal(t, "VIP1-2", seats[1].Code)
	assert.Equal(t, "VIP2-1", seats[2].Code)
	assert.Equal(t, 2, seats[3].Row)
	assert.Equal(t, 2, seats[3].Number)
	for _, s := range seats {
		assert.Equal(t, uint64(7), s.SectionID)
		assert.Equal(t, uint64(3), s.SeatTypeID)
		assert.Equal(t, model.SeatAvailable, s.Status)
		assert.True(t, s.IsActive)
	}
}

func TestCreateSectionRejectsBadLayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []model.Section{
		{Name: "A", RowsCount: 0, SeatsPerRow: 3, SeatTypeID: f.standard.ID},
		{Name: "A", RowsCount: 2, SeatsPerRow: -1, SeatTypeID: f.standard.ID},
		{Name: "", RowsCount: 2, SeatsPerRow: 2, SeatTypeID: f.standard.ID},
		{Name: "A B", RowsCount: 2, SeatsPerRow: 2, SeatTypeID: f.standard.ID},
		{Name: "A", RowsCount: 2, SeatsPerRow: 2, SeatTypeID: f.standard.ID + 100},
	}
	for _, sec := range cases {
		sec.TheaterID = f.theater.ID
		_, err := f.generator.CreateSection(ctx, sec)
		assert.True(t, IsValidation(err), "section %+v: %v", sec, err)
	}

	secs, err := f.catalog.ListSections(ctx, f.theater.ID)
	require.NoError(t, err)
	assert.Empty(t, secs, "nothing is written on validation failure")
}

func TestCreateSectionRejectsDuplicateName(t *testing.T) {
	f := newFixture(t)
	f.section(t, "A", 1, 1)

	_, err := f.generator.CreateSection(context.Background(), model.Section{
		TheaterID: f.theater.ID, Name: "A", RowsCount: 1, SeatsPerRow: 1, SeatTypeID: f.standard.ID,
	})
	assert.True(t, IsValidation(err))
}

func TestSeatCodeCollisionAcrossSections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.section(t, "A", 11, 1) // produces A11-1

	_, err := f.generator.CreateSection(ctx, model.Section{
		TheaterID: f.theater.ID, Name: "A1", RowsCount: 1, SeatsPerRow: 1, SeatTypeID: f.standard.ID,
	})
	require.True(t, IsValidation(err), "got %v", err)

	_, lookupErr := f.generator.sections.GetByName(ctx, f.theater.ID, "A1")
	assert.ErrorIs(t, lookupErr, repository.ErrSectionNotFound, "section insert rolled back with the seats")
}

func TestUpdateSectionRegeneratesAndDiscardsBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sec := f.section(t, "A", 2, 3)

	b, err := f.book("A1-2", "Jane")
	require.NoError(t, err)

	sec.RowsCount = 3
	res, err := f.generator.UpdateSection(ctx, sec)
	require.NoError(t, err)
	assert.True(t, res.Regenerated)
	assert.Equal(t, 9, res.Seats)
	assert.Equal(t, 1, res.DiscardedBookings)

	seats, err := f.inventory.SectionSeats(ctx, f.theater.ID, sec.ID, true)
	require.NoError(t, err)
	assert.Len(t, seats, 9, "every regenerated seat starts AVAILABLE")

	_, err = f.inventory.Booking(ctx, f.theater.ID, b.ID)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)

	regen := f.pub.OfType(events.SectionRegenerated)
	require.Len(t, regen, 1)
	var data events.SectionRegeneratedData
	require.NoError(t, json.Unmarshal(regen[0].Data, &data))
	assert.Equal(t, "A", data.SectionName)
	assert.Equal(t, 1, data.DiscardedBookings)
}

func TestUpdateSectionRenameRegeneratesCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sec := f.section(t, "A", 1, 2)

	sec.Name = "Balcony"
	res, err := f.generator.UpdateSection(ctx, sec)
	require.NoError(t, err)
	assert.True(t, res.Regenerated)

	_, err = f.inventory.Seat(ctx, f.theater.ID, "Balcony1-2")
	assert.NoError(t, err)
	_, err = f.inventory.Seat(ctx, f.theater.ID, "A1-2")
	assert.ErrorIs(t, err, repository.ErrSeatNotFound)
}

func TestUpdateSectionDescriptionKeepsSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sec := f.section(t, "A", 1, 2)

	b, err := f.book("A1-1", "Jane")
	require.NoError(t, err)

	sec.Description = "near the stage"
	res, err := f.generator.UpdateSection(ctx, sec)
	require.NoError(t, err)
	assert.False(t, res.Regenerated)
	assert.Equal(t, model.SeatReserved, f.seatStatus(t, "A1-1"))

	kept, err := f.inventory.Booking(ctx, f.theater.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, kept.Status)
	assert.Empty(t, f.pub.OfType(events.SectionRegenerated))
}

func TestDeleteSection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sec := f.section(t, "A", 1, 2)

	b, err := f.book("A1-1", "Jane")
	require.NoError(t, err)
	assert.ErrorIs(t, f.generator.DeleteSection(ctx, f.theater.ID, sec.ID), repository.ErrConflict)

	ok, err := f.ledger.Cancel(ctx, f.theater.ID, b.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, f.generator.DeleteSection(ctx, f.theater.ID, sec.ID))

	_, err = f.catalog.GetSection(ctx, f.theater.ID, sec.ID)
	assert.ErrorIs(t, err, repository.ErrSectionNotFound)
	assert.NoError(t, f.catalog.DeleteSeatType(ctx, f.theater.ID, f.standard.ID), "seat type is free once its section is gone")
}

func TestDeleteTheaterWithSectionsConflicts(t *testing.T) {
	f := newFixture(t)
	f.section(t, "A", 1, 1)
	assert.ErrorIs(t, f.catalog.DeleteTheater(context.Background(), f.theater.ID), repository.ErrConflict)
}

func TestDeleteSeatTypeInUseConflicts(t *testing.T) {
	f := newFixture(t)
	f.section(t, "A", 1, 1)
	assert.ErrorIs(t, f.catalog.DeleteSeatType(context.Background(), f.theater.ID, f.standard.ID), repository.ErrConflict)
}
