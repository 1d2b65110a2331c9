package database

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/sirupsen/logrus"

	"imaginarium/internal/config"
)

// ErrMissingDSN is returned when the database host is not configured.
var ErrMissingDSN = errors.New("database host is not configured")

func Connect(cfg *config.Config, log logrus.FieldLogger) (*sqlx.DB, error) {
	if cfg.DBHost == "" {
		return nil, ErrMissingDSN
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.WithField("host", cfg.DBHost).Info("connected to database")
	return db, nil
}

