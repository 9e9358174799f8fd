package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/repository"
)

// Catalog manages the slow-moving parts of a theater: the theater row
// itself, its seat types, its configuration and the activation flags of
// sections and seats. Seat layout changes go through SeatGenerator.
type Catalog struct {
	theaters  *repository.TheaterRepo
	seatTypes *repository.SeatTypeRepo
	sections  *repository.SectionRepo
	seats     *repository.SeatRepo
	configs   *repository.ConfigRepo
	log       logrus.FieldLogger
}

func NewCatalog(theaters *repository.TheaterRepo, seatTypes *repository.SeatTypeRepo, sections *repository.SectionRepo,
	seats *repository.SeatRepo, configs *repository.ConfigRepo, log logrus.FieldLogger) *Catalog {
	return &Catalog{theaters: theaters, seatTypes: seatTypes, sections: sections, seats: seats, configs: configs, log: log}
}

// ---- theaters ----

func (c *Catalog) CreateTheater(ctx context.Context, t *model.Theater) error {
	t.Name = strings.TrimSpace(t.Name)
	t.Location = strings.TrimSpace(t.Location)
	if t.Name == "" {
		return invalid("name", "is required")
	}
	if err := c.theaters.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return invalid("name", "%q already exists", t.Name)
		}
		return err
	}
	c.log.WithFields(logrus.Fields{"theater_id": t.ID, "name": t.Name}).Info("theater created")
	return nil
}

func (c *Catalog) GetTheater(ctx context.Context, id uint64) (*model.Theater, error) {
	return c.theaters.GetByID(ctx, id)
}

func (c *Catalog) ListTheaters(ctx context.Context) ([]model.Theater, error) {
	return c.theaters.List(ctx)
}

func (c *Catalog) UpdateTheater(ctx context.Context, t *model.Theater) error {
	t.Name = strings.TrimSpace(t.Name)
	t.Location = strings.TrimSpace(t.Location)
	if t.Name == "" {
		return invalid("name", "is required")
	}
	if err := c.theaters.Update(ctx, t); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return invalid("name", "%q already exists", t.Name)
		}
		return err
	}
	return nil
}

// DeleteTheater removes an empty theater; one with sections yields
// repository.ErrConflict.
func (c *Catalog) DeleteTheater(ctx context.Context, id uint64) error {
	return c.theaters.Delete(ctx, id)
}

// ---- seat types ----

func validateSeatType(st *model.SeatType) error {
	st.Name = strings.ToUpper(strings.TrimSpace(st.Name))
	st.Description = strings.TrimSpace(st.Description)
	switch {
	case st.Name == "":
		return invalid("name", "is required")
	case st.PriceCents < 0:
		return invalid("price_cents", "must not be negative")
	}
	return nil
}

// CreateSeatType adds a pricing class. Names are stored upper-cased so
// "vip" and "VIP" are the same type.
func (c *Catalog) CreateSeatType(ctx context.Context, st *model.SeatType) error {
	if err := validateSeatType(st); err != nil {
		return err
	}
	if _, err := c.theaters.GetByID(ctx, st.TheaterID); err != nil {
		return err
	}
	if err := c.seatTypes.Create(ctx, st); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return invalid("name", "%q already exists in this theater", st.Name)
		}
		return err
	}
	return nil
}

func (c *Catalog) ListSeatTypes(ctx context.Context, theaterID uint64) ([]model.SeatType, error) {
	return c.seatTypes.ListByTheater(ctx, theaterID)
}

func (c *Catalog) GetSeatType(ctx context.Context, theaterID, id uint64) (*model.SeatType, error) {
	return c.seatTypes.GetByID(ctx, theaterID, id)
}

// UpdateSeatType changes a seat type. A new price applies to future
// bookings only.
func (c *Catalog) UpdateSeatType(ctx context.Context, st *model.SeatType) error {
	if err := validateSeatType(st); err != nil {
		return err
	}
	if err := c.seatTypes.Update(ctx, st); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return invalid("name", "%q already exists in this theater", st.Name)
		}
		return err
	}
	return nil
}

// ResolveSeatType finds a seat type by numeric id or, failing that, by
// name.
func (c *Catalog) ResolveSeatType(ctx context.Context, theaterID uint64, ref string) (*model.SeatType, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		return c.seatTypes.GetByID(ctx, theaterID, id)
	}
	return c.seatTypes.GetByName(ctx, theaterID, strings.ToUpper(ref))
}

func (c *Catalog) DeleteSeatType(ctx context.Context, theaterID, id uint64) error {
	return c.seatTypes.Delete(ctx, theaterID, id)
}

// ---- sections and seats ----

func (c *Catalog) GetSection(ctx context.Context, theaterID, id uint64) (*model.Section, error) {
	return c.sections.GetByID(ctx, theaterID, id)
}

func (c *Catalog) SectionByName(ctx context.Context, theaterID uint64, name string) (*model.Section, error) {
	return c.sections.GetByName(ctx, theaterID, strings.TrimSpace(name))
}

func (c *Catalog) ListSections(ctx context.Context, theaterID uint64) ([]model.Section, error) {
	return c.sections.ListByTheater(ctx, theaterID)
}

// SetSectionActive toggles a section. Seats of an inactive section keep
// their status but cannot be claimed.
func (c *Catalog) SetSectionActive(ctx context.Context, theaterID, id uint64, active bool) error {
	if err := c.sections.SetActive(ctx, theaterID, id, active); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{"theater_id": theaterID, "section_id": id, "active": active}).Info("section activation changed")
	return nil
}

// SetSeatActive toggles a single seat without deleting it.
func (c *Catalog) SetSeatActive(ctx context.Context, theaterID uint64, code string, active bool) error {
	return c.seats.SetActive(ctx, theaterID, strings.TrimSpace(code), active)
}

// ---- configuration ----

// validateConfig checks the keys the booking flow interprets. Other keys
// are stored as given.
func validateConfig(key, value string) error {
	switch key {
	case model.ConfigBookingEnabled:
		if _, err := strconv.ParseBool(value); err != nil {
			return invalid("value", "%s must be true or false", key)
		}
	case model.ConfigMaxBookingsPerCustomer:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return invalid("value", "%s must be a non-negative integer", key)
		}
	}
	return nil
}

func (c *Catalog) SetConfig(ctx context.Context, cfg model.TheaterConfig) error {
	cfg.Key = strings.TrimSpace(cfg.Key)
	cfg.Value = strings.TrimSpace(cfg.Value)
	if cfg.Key == "" {
		return invalid("key", "is required")
	}
	if err := validateConfig(cfg.Key, cfg.Value); err != nil {
		return err
	}
	if _, err := c.theaters.GetByID(ctx, cfg.TheaterID); err != nil {
		return err
	}
	if err := c.configs.Set(ctx, cfg); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{"theater_id": cfg.TheaterID, "key": cfg.Key, "value": cfg.Value}).Info("theater config set")
	return nil
}

func (c *Catalog) GetConfig(ctx context.Context, theaterID uint64, key string) (string, error) {
	return c.configs.Get(ctx, theaterID, key)
}

func (c *Catalog) ListConfig(ctx context.Context, theaterID uint64) ([]model.TheaterConfig, error) {
	return c.configs.List(ctx, theaterID)
}

func (c *Catalog) DeleteConfig(ctx context.Context, theaterID uint64, key string) error {
	return c.configs.Delete(ctx, theaterID, key)
}
