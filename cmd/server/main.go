package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-materiel/auth"
	"github.com/diewo77/go-materiel/internal/config"
	"github.com/diewo77/go-materiel/internal/db"
	"github.com/diewo77/go-materiel/internal/notify"
	"github.com/diewo77/go-materiel/internal/policy"
	"github.com/diewo77/go-materiel/internal/services"
	"github.com/joho/godotenv"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	logger := config.SetupLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	dbConn, err := db.Connect(cfg.Database, logger)
	if err != nil {
		return err
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn, cfg.Database, logger); err != nil {
			return err
		}
		logger.Info("migrations completed")
		return nil
	}
	if cfg.App.Migrations {
		if err := db.Migrate(dbConn, cfg.Database, logger); err != nil {
			return err
		}
	}

	if *seedOnlyFlag {
		if err := db.Seed(dbConn); err != nil {
			return err
		}
		logger.Info("seeding completed")
		return nil
	}
	if err := db.Seed(dbConn); err != nil {
		return err
	}

	sender, err := notify.New(cfg.Mail, logger)
	if err != nil {
		return err
	}
	svc := services.New(services.Deps{
		DB:     dbConn,
		Gate:   policy.NewGate(),
		Log:    logger,
		Sender: sender,
		Notice: services.NoticeConfig{
			To:      cfg.Mail.Recipient,
			Subject: cfg.Mail.Subject,
			Timeout: cfg.Mail.Timeout,
		},
	})

	if cfg.App.AdminUsername != "" && cfg.App.AdminPassword != "" {
		created, err := svc.Users.EnsureAdmin(context.Background(), cfg.App.AdminUsername, cfg.App.AdminPassword)
		if err != nil {
			return err
		}
		if created {
			logger.Info("bootstrap admin created", slog.String("username", cfg.App.AdminUsername))
		}
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	app := NewApp(cfg, dbConn, svc, tokens, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("db_driver", cfg.Database.Driver),
			slog.Bool("dev", cfg.App.Dev),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}
