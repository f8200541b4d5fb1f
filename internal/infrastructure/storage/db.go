package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/edachat/backend/internal/infrastructure/config"
)

// OpenDB opens the SQLite database at path, creating its directory.
func OpenDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ProvideDB opens the configured database. It returns a nil DB when persistence is
// disabled, which puts the service in memory-only mode.
func ProvideDB(cfg *config.DatabaseConfig) (*sql.DB, func(), error) {
	if !cfg.Enabled || cfg.Path == "" {
		return nil, func() {}, nil
	}
	db, err := OpenDB(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}
