package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps sql.DB for the scheduling store.
type DB struct {
	*sql.DB
	path   string
	logger zerolog.Logger
}

// NewDB opens database at path and runs migrations.
func NewDB(path string, logger zerolog.Logger) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: sqlDB, path: path, logger: logger.With().Str("component", "db").Logger()}, nil
}

// Path is the database file location.
func (db *DB) Path() string {
	return db.path
}

// Ping reports whether the database answers.
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

func createTables(db *sql.DB) error {
	queries := []string{
		// One weekly template per affiliate, stored as its JSON document.
		`CREATE TABLE IF NOT EXISTS weekly_templates (
			affiliate_id TEXT PRIMARY KEY,
			days TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS date_exceptions (
			id TEXT PRIMARY KEY,
			affiliate_id TEXT NOT NULL,
			date TEXT NOT NULL,
			type TEXT NOT NULL CHECK (type IN ('block', 'override')),
			slot_morning BOOLEAN,
			slot_afternoon BOOLEAN,
			slot_evening BOOLEAN,
			reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (affiliate_id, date)
		)`,

		`CREATE TABLE IF NOT EXISTS schedule_settings (
			affiliate_id TEXT PRIMARY KEY,
			advance_booking_days INTEGER NOT NULL,
			max_booking_days INTEGER NOT NULL,
			timezone TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Orders are written by the booking flow; the scheduler only counts them.
		`CREATE TABLE IF NOT EXISTS pickup_orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			affiliate_id TEXT NOT NULL,
			pickup_date TEXT NOT NULL,
			slot TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'scheduled',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_exceptions_affiliate_date ON date_exceptions(affiliate_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_affiliate_date ON pickup_orders(affiliate_id, pickup_date, status)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
