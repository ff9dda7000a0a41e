package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/diewo77/go-materiel/internal/config"
	"github.com/diewo77/go-materiel/internal/models"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Connect opens the configured datastore. Postgres is retried a few times
// to let the container start.
func Connect(cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	switch cfg.Driver {
	case "sqlite":
		log.Info("opening sqlite database", slog.String("path", cfg.SQLitePath))
		return gorm.Open(sqlite.Open(cfg.SQLitePath+"?_foreign_keys=on"), gcfg)
	case "postgres":
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	var db *gorm.DB
	var err error
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gcfg)
		if err == nil {
			break
		}
		log.Warn("database connection failed, retrying",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()),
		)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after retries: %w", err)
	}
	log.Info("connected to database",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("database", cfg.DBName),
	)
	return db, nil
}

// Migrate brings the schema up to date: versioned SQL migrations on
// postgres, AutoMigrate on sqlite.
func Migrate(db *gorm.DB, cfg config.DatabaseConfig, log *slog.Logger) error {
	if cfg.Driver == "postgres" {
		return runSQLMigrations(cfg.MigrateURL(), log)
	}
	return AutoMigrate(db)
}

// AutoMigrate creates or updates every table from the models.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// runSQLMigrations applies the embedded migrations with golang-migrate.
func runSQLMigrations(url string, log *slog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, dirty, _ := m.Version()
	log.Info("migrations applied",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// Ping checks the datastore answers within the context deadline.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
