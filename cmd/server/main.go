package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/urfave/cli/v2"

	"github.com/iliyamo/stadium-seat-reservation/internal/config"
	"github.com/iliyamo/stadium-seat-reservation/internal/database"
	"github.com/iliyamo/stadium-seat-reservation/internal/queue"
)

func main() {
	config.LoadDotEnv() // .env is optional; real env vars win

	app := &cli.App{
		Name:  "stadium",
		Usage: "stadium seat reservation service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create the MySQL tables",
				Action: migrate,
			},
			{
				Name:   "consume",
				Usage:  "append seats.reserved events to the reservation log",
				Action: consume,
			},
			{
				Name:  "create-admin",
				Usage: "create a staff account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
				},
				Action: createAdmin,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newLogger builds the application logger.  Production output is JSON.
func newLogger(cfg config.Config, prefix string) *log.Logger {
	logger := log.New(prefix)
	logger.SetLevel(parseLevel(cfg.LogLevel))
	if cfg.Env == "prod" {
		logger.SetHeader(`{"time":"${time_rfc3339}","level":"${level}","prefix":"${prefix}","file":"${short_file}","line":"${line}"}`)
	}
	return logger
}

func parseLevel(s string) log.Lvl {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return log.DEBUG
	case "WARN":
		return log.WARN
	case "ERROR":
		return log.ERROR
	case "OFF":
		return log.OFF
	default:
		return log.INFO
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func serve(c *cli.Context) error {
	cfg := config.Load()
	logger := newLogger(cfg, "stadium")
	ctx, stop := signalContext(c.Context)
	defer stop()

	srv, err := newServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	addr := ":" + cfg.Port
	logger.Infof("listening on %s (env=%s storage=%s)", addr, cfg.Env, cfg.Storage)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Echo.Start(addr) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Echo.Shutdown(shutdownCtx)
}

func migrate(c *cli.Context) error {
	cfg := config.Load()
	if cfg.Storage != config.StorageMySQL {
		return fmt.Errorf("migrate needs STORAGE=%s, got %q", config.StorageMySQL, cfg.Storage)
	}
	logger := newLogger(cfg, "migrate")
	db, err := database.Open(c.Context, cfg.Database())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(c.Context, db); err != nil {
		return err
	}
	logger.Info("schema is up to date")
	return nil
}

func consume(c *cli.Context) error {
	cfg := config.Load()
	logger := newLogger(cfg, "consumer")
	ctx, stop := signalContext(c.Context)
	defer stop()

	err := queue.NewConsumer(config.LoadAMQPConfig(), logger).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func createAdmin(c *cli.Context) error {
	cfg := config.Load()
	logger := newLogger(cfg, "admin")
	if cfg.Storage == config.StorageMemory {
		return errors.New("create-admin needs persistent storage")
	}
	repos, closeFn, err := openStorage(c.Context, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	u, err := newAccounts(cfg, repos).CreateAdmin(c.Context, c.String("email"), c.String("password"))
	if err != nil {
		return err
	}
	logger.Infof("created admin %s (id=%d)", u.Email, u.ID)
	return nil
}
