// Package storage persists classified transactions in SQLite.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var (
	// ErrNotFound is returned when no transaction has the requested id.
	ErrNotFound = errors.New("transaction not found")
	// ErrNoIDs is returned by bulk operations given an empty id set.
	ErrNoIDs = errors.New("no valid ids provided")
)

// SQLiteStorage stores transactions in a single SQLite file.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
	logger logging.Logger
}

// Open opens (creating if needed) the database at dbPath. Call Migrate
// before use.
func Open(dbPath string, logger logging.Logger) (*SQLiteStorage, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("database path must not be empty")
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time; SQLite serializes anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath, logger: logger}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
