// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Mail     MailConfig
	Log      LogConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string
	ReadTimeout     int // seconds
	WriteTimeout    int // seconds
	IdleTimeout     int // seconds
	ShutdownTimeout int // seconds
	AllowedOrigins  []string
}

// DatabaseConfig selects and configures the datastore.
// Driver is "postgres" (default) or "sqlite".
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
	Debug      bool
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// MailConfig holds the SMTP relay used for cart submission notices.
// An empty Host disables SMTP and notices are only logged.
type MailConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	StartTLS  bool
	SSL       bool
	Recipient string
	Subject   string
	Timeout   time.Duration
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  slog.Level
	Format string // "text" or "json"
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool
	Migrations bool
	// Bootstrap admin created at startup when no admin exists.
	AdminUsername string
	AdminPassword string
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// MigrateURL returns the pgx5 URL used by golang-migrate.
func (d DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf(
		"pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8000"),
			ReadTimeout:     getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:    getEnvInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:     getEnvInt("SERVER_IDLE_TIMEOUT", 60),
			ShutdownTimeout: getEnvInt("SERVER_SHUTDOWN_TIMEOUT", 10),
			AllowedOrigins:  getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:8000"}),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "materiel"),
			Password:   getEnv("DB_PASSWORD", "materiel"),
			DBName:     getEnv("DB_NAME", "materiel"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "materiel.db"),
			Debug:      getEnvBool("DB_DEBUG", false),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("SECRET_KEY"),
			TokenTTL:  time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		},
		Mail: MailConfig{
			Host:      getEnv("MAIL_SERVER", ""),
			Port:      getEnvInt("MAIL_PORT", 587),
			Username:  getEnv("MAIL_USERNAME", ""),
			Password:  getEnv("MAIL_PASSWORD", ""),
			From:      getEnv("MAIL_FROM", "noreply@localhost"),
			StartTLS:  getEnvBool("MAIL_STARTTLS", true),
			SSL:       getEnvBool("MAIL_SSL_TLS", false),
			Recipient: getEnv("MAIL_RECIPIENT", "logistique@localhost"),
			Subject:   getEnv("MAIL_SUBJECT", "Nouvelles demandes de matériel"),
			Timeout:   time.Duration(getEnvInt("MAIL_TIMEOUT", 10)) * time.Second,
		},
		Log: LogConfig{
			Level:  parseLevel(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
		App: AppConfig{
			Dev:           getEnvBool("DEV", false),
			Migrations:    getEnvBool("MIGRATIONS", true),
			AdminUsername: getEnv("ADMIN_USERNAME", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
	}
}

// Validate rejects configurations the server must not start with.
// In dev mode a missing secret is replaced by a fixed development value.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		if c.App.Dev {
			c.Auth.JWTSecret = "dev-secret-change-me"
		} else {
			errs = append(errs, errors.New("SECRET_KEY is required outside dev mode"))
		}
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q: want postgres or sqlite", c.Database.Driver))
	}
	if c.Mail.SSL && c.Mail.StartTLS {
		errs = append(errs, errors.New("MAIL_SSL_TLS and MAIL_STARTTLS are mutually exclusive"))
	}
	return errors.Join(errs...)
}

// SetupLogger configures the default slog logger from the log settings.
func SetupLogger(cfg LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvList splits a comma separated variable, dropping empty entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
