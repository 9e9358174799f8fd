// Package app assembles the storage, services and HTTP stack from a
// loaded configuration.  Both the API server and theaterctl start here.
package app

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-booking/internal/config"
	"github.com/iliyamo/theater-seat-booking/internal/database"
	"github.com/iliyamo/theater-seat-booking/internal/events"
	"github.com/iliyamo/theater-seat-booking/internal/handler"
	"github.com/iliyamo/theater-seat-booking/internal/importer"
	"github.com/iliyamo/theater-seat-booking/internal/middleware"
	"github.com/iliyamo/theater-seat-booking/internal/repository"
	"github.com/iliyamo/theater-seat-booking/internal/router"
	"github.com/iliyamo/theater-seat-booking/internal/service"
)

// Services is the domain layer shared by every entry point.
type Services struct {
	Catalog   *service.Catalog
	Generator *service.SeatGenerator
	Ledger    *service.Ledger
	Booking   *service.BookingService
	Inventory *service.Inventory
	Bookings  *importer.Reconciler
	Sections  *importer.SectionImporter
}

// NewServices builds the repositories and services over db.
func NewServices(cfg config.Config, db *database.DB, pub events.Publisher, log logrus.FieldLogger) *Services {
	theaters := repository.NewTheaterRepo(db)
	seatTypes := repository.NewSeatTypeRepo(db)
	sections := repository.NewSectionRepo(db)
	seats := repository.NewSeatRepo(db)
	bookings := repository.NewBookingRepo(db)
	configs := repository.NewConfigRepo(db)
	stats := repository.NewStatsRepo(db)

	s := &Services{}
	s.Catalog = service.NewCatalog(theaters, seatTypes, sections, seats, configs, log)
	s.Generator = service.NewSeatGenerator(db, sections, seatTypes, seats, bookings, pub, log)
	s.Ledger = service.NewLedger(db, seats, seatTypes, bookings, pub, log)
	s.Booking = service.NewBookingService(db, seats, sections, bookings, configs, s.Ledger, pub, log)
	s.Inventory = service.NewInventory(sections, seats, bookings, stats)
	s.Bookings = importer.NewReconciler(s.Booking, cfg.Import.Workers, cfg.Import.TxTimeout, pub, log)
	s.Sections = importer.NewSectionImporter(s.Catalog, s.Generator, log)
	return s
}

// App owns the long lived resources of a process.
type App struct {
	Config    config.Config
	Log       *logrus.Logger
	DB        *database.DB
	Publisher events.Publisher
	*Services
}

// New opens the database, applies the schema when db.auto_migrate is set
// and connects the event publisher.
func New(ctx context.Context, cfg config.Config, log *logrus.Logger) (*App, error) {
	db, err := database.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("database schema applied")
	}
	pub, err := events.NewPublisher(cfg, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.WithFields(logrus.Fields{"db": cfg.DB.Driver, "events": cfg.Events.Driver}).Info("application initialised")
	return &App{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Publisher: pub,
		Services:  NewServices(cfg, db, pub, log),
	}, nil
}

// Close releases the publisher and the database.
func (a *App) Close() error {
	if err := a.Publisher.Close(); err != nil {
		a.Log.WithError(err).Warn("close publisher")
	}
	return a.DB.Close()
}

// NewEcho builds the HTTP server.  rdb may be nil, in which case caching
// and rate limiting are pass-through.
func (a *App) NewEcho(rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = middleware.NewRequestValidator()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(middleware.RequestLogger(a.Log))

	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	router.Register(e, router.Handlers{
		Health:  &handler.HealthHandler{DB: a.DB, Redis: rdb},
		Theater: handler.NewTheaterHandler(a.Catalog),
		Section: handler.NewSectionHandler(a.Catalog, a.Generator, a.Inventory),
		Booking: handler.NewBookingHandler(a.Booking, a.Ledger, a.Catalog, a.Inventory),
		Import:  handler.NewImportHandler(a.Bookings, a.Sections, a.Config.App.UploadDir, a.Log),
	}, router.Middleware{
		JWTSecret:  a.Config.JWT.Secret,
		Cache:      middleware.NewRedisCache(cacheCfg, rdb),
		Invalidate: middleware.InvalidateOnWrite(cacheCfg, rdb, a.Log),
		RateLimit:  middleware.NewTokenBucket(rlCfg, rdb, a.Log),
	})
	return e
}
