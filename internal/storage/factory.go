// Package storage builds the ledger and snapshot stores from configuration.
package storage

import (
	"fmt"

	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/interfaces"
	"github.com/bobmcallan/paperledger/internal/storage/sqlite"
	"github.com/bobmcallan/paperledger/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendFile      = "file"
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendSurrealDB = "surrealdb"
)

// NewStorageManager creates a StorageManager from the [storage] section.
// Ledger backends: "file" (default), "memory", "surrealdb".
// Snapshot backends: "sqlite" (default), "memory", "surrealdb".
func NewStorageManager(logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	ledgerBackend := config.Storage.Backend
	if ledgerBackend == "" {
		ledgerBackend = BackendFile
	}
	snapshotBackend := config.Storage.SnapshotBackend
	if snapshotBackend == "" {
		snapshotBackend = BackendSQLite
	}

	if ledgerBackend == BackendSurrealDB && snapshotBackend == BackendSurrealDB {
		sm, err := surrealdb.NewManager(logger, config)
		if err != nil {
			return nil, err
		}
		return sm, nil
	}

	m := &Manager{logger: logger}

	// one SurrealDB connection serves whichever side asks for it
	var surreal *surrealdb.Manager
	getSurreal := func() (*surrealdb.Manager, error) {
		if surreal != nil {
			return surreal, nil
		}
		sm, err := surrealdb.NewManager(logger, config)
		if err != nil {
			return nil, err
		}
		surreal = sm
		m.closers = append(m.closers, sm.Close)
		return sm, nil
	}

	switch ledgerBackend {
	case BackendFile:
		fs, err := NewFileLedgerStore(logger, &config.Storage.File)
		if err != nil {
			return nil, fmt.Errorf("failed to create file ledger store: %w", err)
		}
		m.ledger = fs
	case BackendMemory:
		m.ledger = NewMemoryLedgerStore()
	case BackendSurrealDB:
		sm, err := getSurreal()
		if err != nil {
			return nil, err
		}
		m.ledger = sm.LedgerStore()
	default:
		return nil, fmt.Errorf("unknown ledger backend: %s (supported: file, memory, surrealdb)", ledgerBackend)
	}

	switch snapshotBackend {
	case BackendSQLite:
		ss, err := sqlite.NewSnapshotStore(logger, config.Storage.SQLite.Path)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("failed to create sqlite snapshot store: %w", err)
		}
		m.snapshots = ss
		m.closers = append(m.closers, ss.Close)
	case BackendMemory:
		m.snapshots = NewMemorySnapshotStore()
	case BackendSurrealDB:
		sm, err := getSurreal()
		if err != nil {
			m.Close()
			return nil, err
		}
		m.snapshots = sm.SnapshotStore()
	default:
		m.Close()
		return nil, fmt.Errorf("unknown snapshot backend: %s (supported: sqlite, memory, surrealdb)", snapshotBackend)
	}

	logger.Info().
		Str("ledger_backend", ledgerBackend).
		Str("snapshot_backend", snapshotBackend).
		Msg("Storage manager initialized")

	return m, nil
}
