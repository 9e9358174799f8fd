package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/repository"
	"github.com/iliyamo/theater-seat-booking/internal/service"
)

// SectionImporter creates one single-row section per section row. The
// section is named after the row ("Orchestra" row 3 becomes "Orchestra3")
// and holds TotalSeats seats.
type SectionImporter struct {
	catalog   *service.Catalog
	generator *service.SeatGenerator
	log       logrus.FieldLogger
}

func NewSectionImporter(catalog *service.Catalog, generator *service.SeatGenerator, log logrus.FieldLogger) *SectionImporter {
	return &SectionImporter{catalog: catalog, generator: generator, log: log}
}

// ImportFiles parses every file and imports its rows. Unreadable files
// count as one error each.
func (s *SectionImporter) ImportFiles(ctx context.Context, theaterID uint64, paths []string) (*Result, error) {
	if _, err := s.catalog.GetTheater(ctx, theaterID); err != nil {
		return nil, err
	}
	res := &Result{BatchID: uuid.NewString(), Files: make([]FileResult, 0, len(paths))}
	log := s.log.WithFields(logrus.Fields{"batch_id": res.BatchID, "theater_id": theaterID})
	for _, path := range paths {
		fr := FileResult{Path: path}
		flog := log.WithField("file", filepath.Base(path))
		rows, err := ParseSectionFile(path, flog)
		if err != nil {
			flog.WithError(err).Error("cannot read section file")
			fr.Error = err.Error()
			fr.Errors = 1
		} else {
			fr.Rows = len(rows)
			fr.Tally = s.importRows(ctx, theaterID, rows, flog)
		}
		res.Files = append(res.Files, fr)
		res.Tally = res.Tally.Add(fr.Tally)
	}
	return res, nil
}

// ImportRows creates sections in row order. Rows naming an unknown seat
// type or an existing section are skipped; rejected layouts and storage
// faults are errors.
func (s *SectionImporter) ImportRows(ctx context.Context, theaterID uint64, rows []SectionRow) Tally {
	return s.importRows(ctx, theaterID, rows, s.log.WithField("theater_id", theaterID))
}

func (s *SectionImporter) importRows(ctx context.Context, theaterID uint64, rows []SectionRow, log logrus.FieldLogger) Tally {
	var t Tally
	for _, row := range rows {
		err := s.importRow(ctx, theaterID, row)
		switch {
		case err == nil:
			t.Created++
		case errors.Is(err, errSkipRow):
			t.Skipped++
			log.WithFields(logrus.Fields{"line": row.Line, "section": row.SectionName}).Debug(err.Error())
		default:
			t.Errors++
			log.WithError(err).WithFields(logrus.Fields{"line": row.Line, "section": row.SectionName}).Warn("section row failed")
		}
	}
	return t
}

var errSkipRow = errors.New("section row skipped")

func (s *SectionImporter) importRow(ctx context.Context, theaterID uint64, row SectionRow) error {
	st, err := s.catalog.ResolveSeatType(ctx, theaterID, row.SeatType)
	if errors.Is(err, repository.ErrSeatTypeNotFound) {
		return fmt.Errorf("%w: unknown seat type %q", errSkipRow, row.SeatType)
	}
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%s%d", row.SectionName, row.RowNumber)
	_, err = s.catalog.SectionByName(ctx, theaterID, name)
	switch {
	case err == nil:
		return fmt.Errorf("%w: section %s exists", errSkipRow, name)
	case !errors.Is(err, repository.ErrSectionNotFound):
		return err
	}
	_, err = s.generator.CreateSection(ctx, model.Section{
		TheaterID:   theaterID,
		Name:        name,
		SeatTypeID:  st.ID,
		RowsCount:   1,
		SeatsPerRow: row.TotalSeats,
	})
	return err
}
