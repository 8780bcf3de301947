package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/stadium-seat-reservation/internal/config"
	"github.com/iliyamo/stadium-seat-reservation/internal/database"
	"github.com/iliyamo/stadium-seat-reservation/internal/handler"
	"github.com/iliyamo/stadium-seat-reservation/internal/middleware"
	"github.com/iliyamo/stadium-seat-reservation/internal/queue"
	"github.com/iliyamo/stadium-seat-reservation/internal/repository"
	"github.com/iliyamo/stadium-seat-reservation/internal/repository/memory"
	"github.com/iliyamo/stadium-seat-reservation/internal/repository/mysqlrepo"
	"github.com/iliyamo/stadium-seat-reservation/internal/router"
	"github.com/iliyamo/stadium-seat-reservation/internal/service"
)

// server is the wired HTTP API with the resources it owns.
type server struct {
	Echo    *echo.Echo
	closers []func()
}

func (s *server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStorage returns the repositories selected by cfg.Storage.
func openStorage(ctx context.Context, cfg config.Config) (repository.Repos, func(), error) {
	if cfg.Storage == config.StorageMemory {
		return memory.New().Repos(), func() {}, nil
	}
	db, err := database.Open(ctx, cfg.Database())
	if err != nil {
		return repository.Repos{}, nil, fmt.Errorf("open database: %w", err)
	}
	return mysqlrepo.New(db), func() { _ = db.Close() }, nil
}

func newAccounts(cfg config.Config, repos repository.Repos) *service.Accounts {
	return &service.Accounts{
		Users:      repos.Users,
		Tokens:     repos.Tokens,
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
		BcryptCost: cfg.BcryptCost,
	}
}

func newServer(ctx context.Context, cfg config.Config, logger *log.Logger) (*server, error) {
	srv := &server{}
	checks := map[string]handler.Check{}

	var (
		repos repository.Repos
		db    *sql.DB
	)
	if cfg.Storage == config.StorageMemory {
		repos = memory.New().Repos()
		logger.Warn("using in-memory storage; data is lost on exit")
	} else {
		var err error
		db, err = database.Open(ctx, cfg.Database())
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		srv.closers = append(srv.closers, func() { _ = db.Close() })
		repos = mysqlrepo.New(db)
		checks["mysql"] = db.PingContext
	}

	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		logger.Warnf("redis unavailable, cache off and local rate limiting: %v", err)
		rdb = nil
	} else {
		srv.closers = append(srv.closers, func() { _ = rdb.Close() })
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	listings := middleware.NewListingCache(config.LoadCacheConfig(), rdb, logger)
	catalog := service.NewVenueCatalog(repos.Stadiums, repos.Seats)
	if listings != nil {
		catalog.Listings = listings
	}
	teams := service.NewTeamRegistry(repos.Teams)
	scheduler := service.NewMatchScheduler(repos.Matches, repos.Stadiums, repos.Teams)
	pricing := service.NewSeatPricing(repos.Matches, repos.Seats, repos.SeatInfos)
	engine := service.NewReservationEngine(repos.Matches, repos.SeatInfos, nil, logger)
	if amqpCfg := config.LoadAMQPConfig(); amqpCfg.Enabled {
		engine.Notifier = queue.NewPublisher(amqpCfg, logger)
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Recover())
	e.Use(requestLogger(logger))
	e.Use(middleware.Metrics())

	router.RegisterRoutes(e, router.Deps{
		JWTSecret: cfg.JWTSecret,
		Users:     repos.Users,
		Accounts:  handler.NewAccountHandler(newAccounts(cfg, repos)),
		Venues:    handler.NewVenueHandler(catalog),
		Teams:     handler.NewTeamHandler(teams),
		Matches:   handler.NewMatchHandler(scheduler, pricing, engine),
		Health:    handler.NewHealthHandler(checks),
		Limiter:   middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb),
		Listings:  listings,
	})
	srv.Echo = e
	return srv, nil
}

// requestLogger logs one line per request through the app logger.
func requestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				logger.Warnf("%s %s %d %s id=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RequestID, v.Error)
				return nil
			}
			logger.Infof("%s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	})
}
