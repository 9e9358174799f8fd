package importer

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/theater-seat-booking/internal/events"
	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/service"
)

// Booker is the part of service.BookingService the reconciler needs.
type Booker interface {
	CheckEnabled(ctx context.Context, theaterID uint64) error
	Book(ctx context.Context, theaterID uint64, req service.BookingRequest) (*model.Booking, error)
}

// FileResult is the outcome of one input file.
type FileResult struct {
	Path  string `json:"path"`
	Rows  int    `json:"rows"`
	Error string `json:"error,omitempty"`
	Tally
}

// Result is the outcome of a whole import batch. Tally is the sum of the
// per-file tallies.
type Result struct {
	BatchID string       `json:"batch_id"`
	Files   []FileResult `json:"files"`
	Tally
}

// Reconciler books every row of a batch of files. Files are spread over a
// bounded pool of workers; rows of one file are booked in file order,
// each in its own transaction, so one failing row never undoes another.
type Reconciler struct {
	booker    Booker
	workers   int
	txTimeout time.Duration
	pub       events.Publisher
	log       logrus.FieldLogger
}

func NewReconciler(booker Booker, workers int, txTimeout time.Duration, pub events.Publisher, log logrus.FieldLogger) *Reconciler {
	if workers <= 0 {
		workers = 1
	}
	return &Reconciler{booker: booker, workers: workers, txTimeout: txTimeout, pub: pub, log: log}
}

// ImportFiles parses and books every file in paths for one theater. It
// only fails up front, when booking is disabled for the theater or the
// check itself fails; per-file and per-row problems end up in the tally.
func (r *Reconciler) ImportFiles(ctx context.Context, theaterID uint64, paths []string) (*Result, error) {
	if err := r.booker.CheckEnabled(ctx, theaterID); err != nil {
		return nil, err
	}
	res := &Result{BatchID: uuid.NewString(), Files: make([]FileResult, len(paths))}
	log := r.log.WithFields(logrus.Fields{"batch_id": res.BatchID, "theater_id": theaterID})
	log.WithField("files", len(paths)).Info("import started")
	start := time.Now()

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			fr := r.importFile(ctx, theaterID, path, log)
			mu.Lock()
			res.Files[i] = fr
			res.Tally = res.Tally.Add(fr.Tally)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	log.WithFields(logrus.Fields{
		"created":  res.Created,
		"skipped":  res.Skipped,
		"errors":   res.Errors,
		"duration": time.Since(start).String(),
	}).Info("import finished")
	events.Emit(ctx, r.pub, r.log, events.ImportCompleted, theaterID, events.ImportCompletedData{
		BatchID: res.BatchID,
		Files:   len(paths),
		Created: res.Created,
		Skipped: res.Skipped,
		Errors:  res.Errors,
	})
	return res, nil
}

func (r *Reconciler) importFile(ctx context.Context, theaterID uint64, path string, log logrus.FieldLogger) FileResult {
	fr := FileResult{Path: path}
	flog := log.WithField("file", filepath.Base(path))
	rows, err := ParseBookingFile(path, flog)
	if err != nil {
		flog.WithError(err).Error("cannot read import file")
		fr.Error = err.Error()
		fr.Errors = 1
		return fr
	}
	fr.Rows = len(rows)
	fr.Tally = r.importRows(ctx, theaterID, rows, flog)
	flog.WithFields(logrus.Fields{"created": fr.Created, "skipped": fr.Skipped, "errors": fr.Errors}).Debug("file imported")
	return fr
}

// ImportRows books rows in order and classifies each outcome: contention
// (seat taken, unknown seat, customer cap) is skipped, anything else is
// an error. The returned tally always accounts for every row.
func (r *Reconciler) ImportRows(ctx context.Context, theaterID uint64, rows []BookingRow) Tally {
	return r.importRows(ctx, theaterID, rows, r.log.WithField("theater_id", theaterID))
}

func (r *Reconciler) importRows(ctx context.Context, theaterID uint64, rows []BookingRow, log logrus.FieldLogger) Tally {
	var t Tally
	for _, row := range rows {
		switch err := r.bookRow(ctx, theaterID, row); {
		case err == nil:
			t.Created++
		case service.IsContention(err):
			t.Skipped++
		default:
			t.Errors++
			log.WithError(err).WithFields(logrus.Fields{"line": row.Line, "seat_code": row.SeatCode}).Warn("import row failed")
		}
	}
	return t
}

func (r *Reconciler) bookRow(ctx context.Context, theaterID uint64, row BookingRow) error {
	if r.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.txTimeout)
		defer cancel()
	}
	_, err := r.booker.Book(ctx, theaterID, row.Request())
	return err
}
