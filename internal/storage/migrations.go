package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
)

// Migration is one schema step. Applied versions are tracked in
// PRAGMA user_version.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS transactions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				import_id TEXT NOT NULL DEFAULT '',
				booking_date TEXT,
				payee TEXT,
				purpose TEXT,
				counterparty TEXT,
				amount TEXT,
				category_payee TEXT,
				category_purpose TEXT,
				category_counterparty TEXT,
				final_category INTEGER,
				processed INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`)
			return err
		},
	},
	{
		Version:     2,
		Description: "Indexes for date filters and upload batches",
		Up: func(tx *sql.Tx) error {
			for _, q := range []string{
				`CREATE INDEX IF NOT EXISTS idx_transactions_booking_date ON transactions(booking_date)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_import_id ON transactions(import_id)`,
			} {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// ExpectedSchemaVersion is the version Migrate brings the database to.
var ExpectedSchemaVersion = migrations[len(migrations)-1].Version

// Migrate applies all pending migrations, each in its own transaction.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		s.logger.Info("Applied migration",
			logging.Field{Key: "version", Value: m.Version},
			logging.Field{Key: "description", Value: m.Description})
	}

	final, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if final != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, final)
	}
	return nil
}

// SchemaVersion returns the applied schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return v, nil
}
