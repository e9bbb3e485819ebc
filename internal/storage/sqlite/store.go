// Package sqlite stores the per-ledger snapshot series in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/interfaces"
	"github.com/bobmcallan/paperledger/internal/models"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// timestamps are stored as fixed-width UTC text so they sort lexically
const tsLayout = "2006-01-02 15:04:05.000000000"

const schema = `
CREATE TABLE IF NOT EXISTS portfolio_history (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	ledger_id       TEXT    NOT NULL,
	timestamp       TEXT    NOT NULL,
	portfolio_value REAL    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_portfolio_history_ledger ON portfolio_history(ledger_id, timestamp);
`

// SnapshotStore implements interfaces.SnapshotStore on the portfolio_history table.
type SnapshotStore struct {
	db     *sql.DB
	logger *common.Logger
}

// NewSnapshotStore opens (or creates) the database at path and applies the schema.
func NewSnapshotStore(logger *common.Logger, path string) (*SnapshotStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	// single connection; sqlite allows one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Debug().Str("path", path).Msg("SQLite snapshot store opened")
	return &SnapshotStore{db: db, logger: logger}, nil
}

func (s *SnapshotStore) Append(ctx context.Context, ledgerID string, snap models.Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO portfolio_history (ledger_id, timestamp, portfolio_value) VALUES (?, ?, ?)`,
		ledgerID, snap.Timestamp.UTC().Format(tsLayout), snap.Value)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) List(ctx context.Context, ledgerID string) ([]models.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, portfolio_value FROM portfolio_history WHERE ledger_id = ? ORDER BY timestamp ASC, id ASC`,
		ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	out := []models.Snapshot{}
	for rows.Next() {
		var ts string
		var value float64
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		t, err := time.ParseInLocation(tsLayout, ts, time.UTC)
		if err != nil {
			s.logger.Warn().Str("ledger", ledgerID).Str("timestamp", ts).Msg("Skipping snapshot with malformed timestamp")
			continue
		}
		out = append(out, models.Snapshot{Timestamp: t, Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}
	return out, nil
}

// Reset deletes the ledger's series and inserts the initial sample in one transaction.
func (s *SnapshotStore) Reset(ctx context.Context, ledgerID string, initial models.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM portfolio_history WHERE ledger_id = ?`, ledgerID); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO portfolio_history (ledger_id, timestamp, portfolio_value) VALUES (?, ?, ?)`,
		ledgerID, initial.Timestamp.UTC().Format(tsLayout), initial.Value); err != nil {
		return fmt.Errorf("failed to insert initial snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

var _ interfaces.SnapshotStore = (*SnapshotStore)(nil)
