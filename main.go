package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/gastrogenius/restaurant-pos/internal/auth"
	"github.com/gastrogenius/restaurant-pos/internal/config"
	"github.com/gastrogenius/restaurant-pos/internal/db"
	"github.com/gastrogenius/restaurant-pos/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "restaurant-pos",
		Usage: "restaurant point of sale service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "migrate the database and start the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema",
				Action: withDB(func(_ *cli.Context, _ *config.Config, conn *gorm.DB, _ *log.Logger) error {
					return db.Migrate(conn)
				}),
			},
			{
				Name:   "seed",
				Usage:  "insert demo users, menu and tables",
				Action: withDB(func(_ *cli.Context, _ *config.Config, conn *gorm.DB, logger *log.Logger) error {
					if err := db.Migrate(conn); err != nil {
						return err
					}
					return db.Seed(conn, logger)
				}),
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("command failed")
	}
}

type dbAction func(c *cli.Context, cfg *config.Config, conn *gorm.DB, logger *log.Logger) error

// withDB loads the configuration and opens the database before running fn.
func withDB(fn dbAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := logging.New(cfg.LogLevel, os.Stdout)

		conn, err := db.Open(cfg.Database)
		if err != nil {
			return err
		}
		if sqlDB, err := conn.DB(); err == nil {
			defer sqlDB.Close()
		}
		return fn(c, cfg, conn, logger)
	}
}

var serve = withDB(func(c *cli.Context, cfg *config.Config, conn *gorm.DB, logger *log.Logger) error {
	if err := cfg.CheckServe(); err != nil {
		return err
	}
	if cfg.UsesDefaultSessionSecret() {
		logger.Warn("session cookies are signed with the default secret, set POS_SESSION_SECRET")
	}
	if err := db.Migrate(conn); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var verifier auth.TokenVerifier
	if cfg.OIDC.Issuer != "" {
		v, err := auth.NewOIDCVerifier(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.RoleClaim)
		if err != nil {
			return err
		}
		verifier = v
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := SetupRouter(conn, cfg, verifier, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: cfg.HTTPAddress, Handler: router}
	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("address", cfg.HTTPAddress).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "graceful shutdown failed")
	}
	return nil
})
