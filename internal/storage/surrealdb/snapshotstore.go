package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/interfaces"
	"github.com/bobmcallan/paperledger/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// snapshotRow is the stored form of one sample.
type snapshotRow struct {
	LedgerID  string    `json:"ledger_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// SnapshotStore keeps snapshot series as rows in the ledger_snapshot table.
type SnapshotStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewSnapshotStore(db *surrealdb.DB, logger *common.Logger) *SnapshotStore {
	return &SnapshotStore{db: db, logger: logger}
}

func (s *SnapshotStore) Append(ctx context.Context, ledgerID string, snap models.Snapshot) error {
	sql := fmt.Sprintf("CREATE %s CONTENT $row", snapshotTable)
	vars := map[string]any{"row": snapshotRow{LedgerID: ledgerID, Timestamp: snap.Timestamp.UTC(), Value: snap.Value}}
	if _, err := surrealdb.Query[[]snapshotRow](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) List(ctx context.Context, ledgerID string) ([]models.Snapshot, error) {
	sql := fmt.Sprintf("SELECT ledger_id, timestamp, value FROM %s WHERE ledger_id = $ledger_id ORDER BY timestamp ASC", snapshotTable)
	results, err := surrealdb.Query[[]snapshotRow](ctx, s.db, sql, map[string]any{"ledger_id": ledgerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	out := []models.Snapshot{}
	if results != nil && len(*results) > 0 {
		for _, r := range (*results)[0].Result {
			out = append(out, models.Snapshot{Timestamp: r.Timestamp, Value: r.Value})
		}
	}
	return out, nil
}

// Reset runs delete and insert in a single SurrealQL transaction.
func (s *SnapshotStore) Reset(ctx context.Context, ledgerID string, initial models.Snapshot) error {
	sql := fmt.Sprintf(`BEGIN TRANSACTION;
DELETE %[1]s WHERE ledger_id = $ledger_id;
CREATE %[1]s CONTENT $row;
COMMIT TRANSACTION;`, snapshotTable)
	vars := map[string]any{
		"ledger_id": ledgerID,
		"row":       snapshotRow{LedgerID: ledgerID, Timestamp: initial.Timestamp.UTC(), Value: initial.Value},
	}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to reset snapshots: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Close() error {
	return nil
}

var _ interfaces.SnapshotStore = (*SnapshotStore)(nil)
