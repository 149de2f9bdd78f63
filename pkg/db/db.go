package db

import (
	"fmt"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds database connection settings for the secret store.
type Config struct {
	// URL is the connection URL. DATABASE_URL is used when empty.
	URL string
	// Debug logs every SQL statement.
	Debug bool
	// MaxOpenConns caps the pool; zero leaves database/sql's default.
	MaxOpenConns int
}

// Connect opens a gorm connection to PostgreSQL.
func Connect(cfg Config) (*gorm.DB, error) {
	dbURL := cfg.URL
	if dbURL == "" {
		dbURL = URL()
	}
	if dbURL == "" {
		return nil, fmt.Errorf("database URL is required (set database_url or DATABASE_URL)")
	}

	logMode := logger.Silent
	if cfg.Debug {
		logMode = logger.Info
	}

	gdb, err := gorm.Open(
		postgres.New(postgres.Config{
			DSN:                  dbURL,
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger:                 logger.Default.LogMode(logMode),
			SkipDefaultTransaction: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return gdb, nil
}

// URL returns DATABASE_URL, or "" if it is unset.
func URL() string {
	return os.Getenv("DATABASE_URL")
}
