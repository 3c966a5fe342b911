package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eslsoft/conceptgraph/internal/infrastructure/config"
)

// OpenSQLite opens the configured SQLite file with foreign keys enforced.
func OpenSQLite(cfg *config.Config) (*sql.DB, func(), error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	dsn, err := cfg.DatabaseURL()
	if err != nil {
		return nil, nil, err
	}
	db, err := OpenSQLiteDSN(dsn)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}

// OpenSQLiteDSN opens a SQLite DSN. A single connection serialises writers and keeps
// per-connection pragmas in force.
func OpenSQLiteDSN(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}
