// Package interfaces defines service contracts for paperledger
package interfaces

import (
	"context"

	"github.com/bobmcallan/paperledger/internal/models"
)

// StorageManager coordinates the ledger and snapshot backends
type StorageManager interface {
	LedgerStore() LedgerStore
	SnapshotStore() SnapshotStore

	// Lifecycle
	Close() error
}

// LedgerStore persists one Portfolio document per ledger id.
// Save must replace the whole document or fail without a partial write.
type LedgerStore interface {
	// Get returns models.ErrNotFound when the ledger has never been saved.
	Get(ctx context.Context, ledgerID string) (*models.Portfolio, error)
	Save(ctx context.Context, portfolio *models.Portfolio) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// SnapshotStore is an append-only per-ledger series of total-value samples.
type SnapshotStore interface {
	Append(ctx context.Context, ledgerID string, snap models.Snapshot) error
	// List returns the full series in ascending timestamp order.
	List(ctx context.Context, ledgerID string) ([]models.Snapshot, error)
	// Reset drops the series and leaves exactly one sample.
	Reset(ctx context.Context, ledgerID string, initial models.Snapshot) error
	Close() error
}
