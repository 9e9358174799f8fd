package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-seat-booking/internal/database/dbtest"
	"github.com/iliyamo/theater-seat-booking/internal/events"
	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/repository"
	"github.com/iliyamo/theater-seat-booking/internal/service"
)

type env struct {
	theaterID uint64
	seatType  model.SeatType
	catalog   *service.Catalog
	generator *service.SeatGenerator
	booking   *service.BookingService
	pub       *events.Memory
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.Open(t)
	log, _ := logtest.NewNullLogger()
	pub := &events.Memory{}

	theaters := repository.NewTheaterRepo(db)
	seatTypes := repository.NewSeatTypeRepo(db)
	sections := repository.NewSectionRepo(db)
	seats := repository.NewSeatRepo(db)
	bookings := repository.NewBookingRepo(db)
	configs := repository.NewConfigRepo(db)

	e := &env{pub: pub}
	e.catalog = service.NewCatalog(theaters, seatTypes, sections, seats, configs, log)
	e.generator = service.NewSeatGenerator(db, sections, seatTypes, seats, bookings, pub, log)
	ledger := service.NewLedger(db, seats, seatTypes, bookings, pub, log)
	e.booking = service.NewBookingService(db, seats, sections, bookings, configs, ledger, pub, log)

	ctx := context.Background()
	th := model.Theater{Name: "Import Hall"}
	require.NoError(t, e.catalog.CreateTheater(ctx, &th))
	e.theaterID = th.ID
	e.seatType = model.SeatType{TheaterID: th.ID, Name: "STANDARD", PriceCents: 1000}
	require.NoError(t, e.catalog.CreateSeatType(ctx, &e.seatType))
	return e
}

func writeFile(t *testing.T, dir, name string, lines []string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return p
}

func TestImportHundredRows(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.generator.CreateSection(ctx, model.Section{
		TheaterID: e.theaterID, Name: "A", SeatTypeID: e.seatType.ID, RowsCount: 10, SeatsPerRow: 10,
	})
	require.NoError(t, err)

	// Row 1 is sold before the import starts.
	for n := 1; n <= 10; n++ {
		_, err := e.booking.Book(ctx, e.theaterID, service.BookingRequest{
			SeatCode: model.SeatCode("A", 1, n),
			Customer: model.Customer{Name: "Walk-in"},
		})
		require.NoError(t, err)
	}

	var lines []string
	for n := 1; n <= 10; n++ {
		lines = append(lines, fmt.Sprintf("%s,Taken %d,t%d@example.com,555", model.SeatCode("A", 1, n), n, n))
	}
	for n := 1; n <= 5; n++ {
		lines = append(lines, fmt.Sprintf("Z9-%d,Ghost %d,g%d@example.com,555", n, n, n))
	}
	fresh := 0
	for row := 2; row <= 10 && fresh < 85; row++ {
		for n := 1; n <= 10 && fresh < 85; n++ {
			lines = append(lines, fmt.Sprintf("%s,Guest %d,guest%d@example.com,555", model.SeatCode("A", row, n), fresh, fresh))
			fresh++
		}
	}
	require.Len(t, lines, 100)

	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "part1.csv", lines[:25]),
		writeFile(t, dir, "part2.csv", lines[25:50]),
		writeFile(t, dir, "part3.csv", lines[50:75]),
		writeFile(t, dir, "part4.csv", lines[75:]),
	}

	log, _ := logtest.NewNullLogger()
	rec := NewReconciler(e.booking, 3, 5*time.Second, e.pub, log)
	res, err := rec.ImportFiles(ctx, e.theaterID, paths)
	require.NoError(t, err)

	assert.Equal(t, Tally{Created: 85, Skipped: 15, Errors: 0}, res.Tally)
	assert.Equal(t, 100, res.Total())
	require.Len(t, res.Files, 4)
	rowsSeen := 0
	for _, fr := range res.Files {
		rowsSeen += fr.Rows
		assert.Equal(t, fr.Rows, fr.Total())
	}
	assert.Equal(t, 100, rowsSeen)
	assert.NotEmpty(t, res.BatchID)

	done := e.pub.OfType(events.ImportCompleted)
	require.Len(t, done, 1)
	assert.Len(t, e.pub.OfType(events.BookingConfirmed), 95)
}

func TestImportUnreadableFileCountsAsOneError(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.generator.CreateSection(ctx, model.Section{
		TheaterID: e.theaterID, Name: "A", SeatTypeID: e.seatType.ID, RowsCount: 1, SeatsPerRow: 2,
	})
	require.NoError(t, err)

	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", []string{"A1-1 Jane jane@example.com 555", "A1-2 John john@example.com 556"})
	missing := filepath.Join(dir, "gone.csv")

	log, _ := logtest.NewNullLogger()
	res, err := NewReconciler(e.booking, 2, 0, nil, log).ImportFiles(ctx, e.theaterID, []string{good, missing})
	require.NoError(t, err)
	assert.Equal(t, Tally{Created: 2, Skipped: 0, Errors: 1}, res.Tally)
	assert.NotEmpty(t, res.Files[1].Error)
}

func TestImportRefusedWhenBookingDisabled(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.catalog.SetConfig(ctx, model.TheaterConfig{
		TheaterID: e.theaterID, Key: model.ConfigBookingEnabled, Value: "false",
	}))

	log, _ := logtest.NewNullLogger()
	_, err := NewReconciler(e.booking, 1, 0, nil, log).ImportFiles(ctx, e.theaterID, []string{"unused.csv"})
	assert.ErrorIs(t, err, service.ErrBookingDisabled)
}

// flakyBooker fails every third booking with a storage fault.
type flakyBooker struct {
	mu    sync.Mutex
	calls int
}

func (f *flakyBooker) CheckEnabled(context.Context, uint64) error { return nil }

func (f *flakyBooker) Book(_ context.Context, _ uint64, req service.BookingRequest) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	switch {
	case f.calls%3 == 0:
		return nil, errors.New("connection reset")
	case strings.HasPrefix(req.SeatCode, "X"):
		return nil, repository.ErrSeatNotAvailable
	}
	return &model.Booking{SeatCode: req.SeatCode}, nil
}

func TestImportRowsClassifiesFailures(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	rec := NewReconciler(&flakyBooker{}, 1, 0, nil, log)

	rows := []BookingRow{
		{SeatCode: "A1-1", Name: "a"},
		{SeatCode: "X1-1", Name: "b"},
		{SeatCode: "A1-2", Name: "c"}, // third call faults
		{SeatCode: "A1-3", Name: "d"},
		{SeatCode: "X1-2", Name: "e"},
		{SeatCode: "A1-4", Name: "f"}, // sixth call faults
	}
	got := rec.ImportRows(context.Background(), 1, rows)
	assert.Equal(t, Tally{Created: 2, Skipped: 2, Errors: 2}, got)
	assert.Equal(t, len(rows), got.Total())
}

func TestImportRowFailureLogsBatchAndFile(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	dir := t.TempDir()
	path := writeFile(t, dir, "evening.csv", []string{
		"A1-1,Ann,ann@example.com,1",
		"A1-2,Bob,bob@example.com,2",
		"A1-3,Cid,cid@example.com,3", // third call faults
	})

	res, err := NewReconciler(&flakyBooker{}, 1, 0, nil, log).ImportFiles(context.Background(), 1, []string{path})
	require.NoError(t, err)
	assert.Equal(t, Tally{Created: 2, Errors: 1}, res.Tally)

	var failed []string
	for _, entry := range hook.AllEntries() {
		if entry.Message != "import row failed" {
			continue
		}
		failed = append(failed, fmt.Sprint(entry.Data["seat_code"]))
		assert.Equal(t, res.BatchID, entry.Data["batch_id"])
		assert.Equal(t, "evening.csv", entry.Data["file"])
		assert.Equal(t, 3, entry.Data["line"])
	}
	assert.Equal(t, []string{"A1-3"}, failed)
}

func TestSectionImport(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	log, _ := logtest.NewNullLogger()

	dir := t.TempDir()
	path := writeFile(t, dir, "layout.csv", []string{
		"section,row,seats,type",
		"Orchestra,1,5,standard",
		fmt.Sprintf("Orchestra,2,4,%d", e.seatType.ID),
		"Orchestra,1,9,STANDARD", // already created above
		"Balcony,1,6,GOLD",       // unknown seat type
		"Pit,1,0,STANDARD",       // rejected layout
	})

	imp := NewSectionImporter(e.catalog, e.generator, log)
	res, err := imp.ImportFiles(ctx, e.theaterID, []string{path})
	require.NoError(t, err)
	assert.Equal(t, Tally{Created: 2, Skipped: 2, Errors: 1}, res.Tally)

	sec, err := e.catalog.SectionByName(ctx, e.theaterID, "Orchestra2")
	require.NoError(t, err)
	assert.Equal(t, 1, sec.RowsCount)
	assert.Equal(t, 4, sec.SeatsPerRow)

	_, err = e.booking.Book(ctx, e.theaterID, service.BookingRequest{
		SeatCode: "Orchestra11-5",
		Customer: model.Customer{Name: "Jane"},
	})
	assert.NoError(t, err, "seat codes of imported sections follow the usual scheme")
}
