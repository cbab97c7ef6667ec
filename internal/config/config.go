// Package config loads runtime settings from environment variables.
//
//	PORT                  listen port (8080)
//	DB_DRIVER             sqlite | postgres | mysql (sqlite)
//	DB_DSN                data source name; defaults to data/app.db for sqlite,
//	                      required for the other drivers
//	LOG_LEVEL             debug | info | warn | error (info)
//	LOG_FORMAT            text | json (text)
//	BCRYPT_COST           4..31 (12)
//	CORS_ALLOWED_ORIGINS  comma separated origins (*)
//	SHUTDOWN_TIMEOUT      Go duration (30s)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/taskapi/internal/auth"
	"github.com/sakif/taskapi/internal/repository/sqlstore"
)

const DefaultSQLitePath = "data/app.db"

type Config struct {
	Port            int
	DBDriver        string
	DBDSN           string
	LogLevel        slog.Level
	LogFormat       string
	BcryptCost      int
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// Load reads the environment and validates the result. Every problem is
// reported, not just the first.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		DBDriver:  strings.ToLower(getEnv("DB_DRIVER", sqlstore.DriverSQLite)),
		DBDSN:     os.Getenv("DB_DSN"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a number between 1 and 65535, got %q", os.Getenv("PORT")))
	}
	cfg.Port = port

	switch cfg.DBDriver {
	case sqlstore.DriverSQLite:
		if cfg.DBDSN == "" {
			cfg.DBDSN = DefaultSQLitePath
		}
	case sqlstore.DriverPostgres, sqlstore.DriverMySQL:
		if cfg.DBDSN == "" {
			errs = append(errs, fmt.Errorf("DB_DSN is required for driver %q", cfg.DBDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be sqlite, postgres or mysql, got %q", cfg.DBDriver))
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat))
	}

	cost, err := strconv.Atoi(getEnv("BCRYPT_COST", strconv.Itoa(auth.DefaultCost)))
	if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %q",
			bcrypt.MinCost, bcrypt.MaxCost, os.Getenv("BCRYPT_COST")))
	}
	cfg.BcryptCost = cost

	cfg.AllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	timeout, err := time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "30s"))
	if err != nil || timeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be a positive duration, got %q", os.Getenv("SHUTDOWN_TIMEOUT")))
	}
	cfg.ShutdownTimeout = timeout

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// NewLogger builds the process logger described by the config.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
