package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-booking/internal/database"
	"github.com/iliyamo/theater-seat-booking/internal/events"
	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/repository"
)

// SeatGenerator owns the section lifecycle and keeps every section's seat
// set equal to rows × seats-per-row. Regeneration is destructive: the old
// seats and every booking on them are deleted in the same transaction
// that inserts the new seats, so readers see either the old or the new
// generation and never a mix.
type SeatGenerator struct {
	db        *database.DB
	sections  *repository.SectionRepo
	seatTypes *repository.SeatTypeRepo
	seats     *repository.SeatRepo
	bookings  *repository.BookingRepo
	pub       events.Publisher
	log       logrus.FieldLogger
}

func NewSeatGenerator(db *database.DB, sections *repository.SectionRepo, seatTypes *repository.SeatTypeRepo,
	seats *repository.SeatRepo, bookings *repository.BookingRepo, pub events.Publisher, log logrus.FieldLogger) *SeatGenerator {
	return &SeatGenerator{db: db, sections: sections, seatTypes: seatTypes, seats: seats, bookings: bookings, pub: pub, log: log}
}

// GenerationResult describes one (re)generation.
type GenerationResult struct {
	Section           model.Section `json:"section"`
	Seats             int           `json:"seats"`
	Regenerated       bool          `json:"regenerated"`
	DiscardedBookings int           `json:"discarded_bookings"`
}

// BuildSeats lays out the seats of a section: rows 1..RowsCount, numbers
// 1..SeatsPerRow, in row-major order.
func BuildSeats(sec model.Section) []model.Seat {
	out := make([]model.Seat, 0, sec.TotalSeats())
	for row := 1; row <= sec.RowsCount; row++ {
		for n := 1; n <= sec.SeatsPerRow; n++ {
			out = append(out, model.Seat{
				TheaterID:  sec.TheaterID,
				SectionID:  sec.ID,
				Code:       model.SeatCode(sec.Name, row, n),
				Row:        row,
				Number:     n,
				SeatTypeID: sec.SeatTypeID,
				Status:     model.SeatAvailable,
				IsActive:   true,
			})
		}
	}
	return out
}

func validateSection(sec model.Section) error {
	name := strings.TrimSpace(sec.Name)
	switch {
	case name == "":
		return invalid("name", "is required")
	case strings.ContainsAny(name, " \t,"):
		return invalid("name", "must not contain whitespace or commas")
	case sec.RowsCount <= 0:
		return invalid("rows", "must be greater than zero")
	case sec.SeatsPerRow <= 0:
		return invalid("seats_per_row", "must be greater than zero")
	case sec.SeatTypeID == 0:
		return invalid("seat_type_id", "is required")
	}
	return nil
}

func (g *SeatGenerator) checkSeatType(ctx context.Context, theaterID, seatTypeID uint64) error {
	if _, err := g.seatTypes.GetByID(ctx, theaterID, seatTypeID); err != nil {
		if errors.Is(err, repository.ErrSeatTypeNotFound) {
			return invalid("seat_type_id", "does not exist in this theater")
		}
		return err
	}
	return nil
}

// CreateSection validates the layout, inserts the section and generates
// its seats in one transaction.
func (g *SeatGenerator) CreateSection(ctx context.Context, sec model.Section) (*GenerationResult, error) {
	sec.Name = strings.TrimSpace(sec.Name)
	if err := validateSection(sec); err != nil {
		return nil, err
	}
	if err := g.checkSeatType(ctx, sec.TheaterID, sec.SeatTypeID); err != nil {
		return nil, err
	}
	sec.IsActive = true

	var res *GenerationResult
	err := g.inTx(ctx, func(tx *sql.Tx) error {
		if err := g.sections.CreateTx(ctx, tx, &sec); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return invalid("name", "%q already used in this theater", sec.Name)
			}
			return err
		}
		var err error
		res, err = g.regenerateTx(ctx, tx, sec)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Regenerated = false
	g.log.WithFields(logrus.Fields{"theater_id": sec.TheaterID, "section": sec.Name, "seats": res.Seats}).Info("section created")
	return res, nil
}

// UpdateSection applies a new configuration. Seats are regenerated only
// when the layout (rows, seats per row, seat type) or the name, which
// prefixes every seat code, changed.
func (g *SeatGenerator) UpdateSection(ctx context.Context, next model.Section) (*GenerationResult, error) {
	cur, err := g.sections.GetByID(ctx, next.TheaterID, next.ID)
	if err != nil {
		return nil, err
	}
	next.Name = strings.TrimSpace(next.Name)
	next.IsActive = cur.IsActive
	if err := validateSection(next); err != nil {
		return nil, err
	}
	if next.SeatTypeID != cur.SeatTypeID {
		if err := g.checkSeatType(ctx, next.TheaterID, next.SeatTypeID); err != nil {
			return nil, err
		}
	}
	rebuild := !cur.SameLayout(next) || cur.Name != next.Name

	res := &GenerationResult{Section: next, Seats: cur.TotalSeats()}
	err = g.inTx(ctx, func(tx *sql.Tx) error {
		if err := g.sections.UpdateTx(ctx, tx, &next); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return invalid("name", "%q already used in this theater", next.Name)
			}
			return err
		}
		if !rebuild {
			return nil
		}
		var err error
		res, err = g.regenerateTx(ctx, tx, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	if rebuild {
		g.announce(ctx, res)
	}
	return res, nil
}

// Generate discards and rebuilds the seats of an existing section.
func (g *SeatGenerator) Generate(ctx context.Context, theaterID, sectionID uint64) (*GenerationResult, error) {
	var res *GenerationResult
	err := g.inTx(ctx, func(tx *sql.Tx) error {
		sec, err := g.sections.GetByIDTx(ctx, tx, theaterID, sectionID)
		if err != nil {
			return err
		}
		res, err = g.regenerateTx(ctx, tx, *sec)
		return err
	})
	if err != nil {
		return nil, err
	}
	g.announce(ctx, res)
	return res, nil
}

// DeleteSection removes a section and its seats. Sections holding
// confirmed bookings are refused with repository.ErrConflict.
func (g *SeatGenerator) DeleteSection(ctx context.Context, theaterID, sectionID uint64) error {
	return g.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := g.sections.GetByIDTx(ctx, tx, theaterID, sectionID); err != nil {
			return err
		}
		live, err := g.bookings.CountConfirmedBySectionTx(ctx, tx, sectionID)
		if err != nil {
			return err
		}
		if live > 0 {
			return repository.ErrConflict
		}
		if _, err := g.bookings.DeleteBySectionTx(ctx, tx, sectionID); err != nil {
			return err
		}
		if _, err := g.seats.DeleteBySectionTx(ctx, tx, sectionID); err != nil {
			return err
		}
		return g.sections.DeleteTx(ctx, tx, theaterID, sectionID)
	})
}

func (g *SeatGenerator) regenerateTx(ctx context.Context, tx *sql.Tx, sec model.Section) (*GenerationResult, error) {
	seats := BuildSeats(sec)
	codes := make([]string, len(seats))
	for i, s := range seats {
		codes[i] = s.Code
	}
	taken, err := g.seats.CodesTakenTx(ctx, tx, sec.TheaterID, sec.ID, codes)
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, invalid("name", "seat code %s collides with another section", taken[0])
	}

	discarded, err := g.bookings.CountConfirmedBySectionTx(ctx, tx, sec.ID)
	if err != nil {
		return nil, err
	}
	if _, err := g.bookings.DeleteBySectionTx(ctx, tx, sec.ID); err != nil {
		return nil, fmt.Errorf("delete bookings: %w", err)
	}
	if _, err := g.seats.DeleteBySectionTx(ctx, tx, sec.ID); err != nil {
		return nil, fmt.Errorf("delete seats: %w", err)
	}
	if err := g.seats.CreateBulkTx(ctx, tx, seats); err != nil {
		return nil, fmt.Errorf("insert seats: %w", err)
	}
	return &GenerationResult{Section: sec, Seats: len(seats), Regenerated: true, DiscardedBookings: discarded}, nil
}

func (g *SeatGenerator) announce(ctx context.Context, res *GenerationResult) {
	g.log.WithFields(logrus.Fields{
		"theater_id":         res.Section.TheaterID,
		"section":            res.Section.Name,
		"seats":              res.Seats,
		"discarded_bookings": res.DiscardedBookings,
	}).Warn("section seats regenerated")
	events.Emit(ctx, g.pub, g.log, events.SectionRegenerated, res.Section.TheaterID, events.SectionRegeneratedData{
		SectionID:         res.Section.ID,
		SectionName:       res.Section.Name,
		Seats:             res.Seats,
		DiscardedBookings: res.DiscardedBookings,
	})
}

func (g *SeatGenerator) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return withTx(ctx, g.db, fn)
}
