// Package surrealdb implements the ledger and snapshot stores on SurrealDB.
package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/interfaces"
	"github.com/surrealdb/surrealdb.go"
)

const (
	ledgerTable   = "ledger"
	snapshotTable = "ledger_snapshot"
)

// Connect signs in, selects the namespace/database and defines the tables.
func Connect(ctx context.Context, logger *common.Logger, config *common.SurrealDBConfig) (*surrealdb.DB, error) {
	db, err := surrealdb.New(config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Username,
		"pass": config.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	if err := defineTables(ctx, db); err != nil {
		db.Close(ctx)
		return nil, err
	}

	logger.Info().
		Str("address", config.Address).
		Str("namespace", config.Namespace).
		Str("database", config.Database).
		Msg("SurrealDB connected")

	return db, nil
}

// defineTables creates the tables up front; SurrealDB v3 errors when querying a table that does not exist.
func defineTables(ctx context.Context, db *surrealdb.DB) error {
	for _, table := range []string{ledgerTable, snapshotTable} {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}
	sql := fmt.Sprintf("DEFINE INDEX IF NOT EXISTS idx_snapshot_ledger ON %s FIELDS ledger_id, timestamp", snapshotTable)
	if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
		return fmt.Errorf("failed to define snapshot index: %w", err)
	}
	return nil
}

// isNotFoundError matches the errors SurrealDB returns for a missing record.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist")
}

// Manager implements interfaces.StorageManager with both stores on one connection.
type Manager struct {
	db            *surrealdb.DB
	logger        *common.Logger
	ledgerStore   *LedgerStore
	snapshotStore *SnapshotStore
}

// NewManager connects and builds both stores.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	db, err := Connect(context.Background(), logger, &config.Storage.SurrealDB)
	if err != nil {
		return nil, err
	}
	return &Manager{
		db:            db,
		logger:        logger,
		ledgerStore:   NewLedgerStore(db, logger),
		snapshotStore: NewSnapshotStore(db, logger),
	}, nil
}

// DB exposes the shared connection so a mixed-backend manager can reuse it.
func (m *Manager) DB() *surrealdb.DB { return m.db }

func (m *Manager) LedgerStore() interfaces.LedgerStore {
	return m.ledgerStore
}

func (m *Manager) SnapshotStore() interfaces.SnapshotStore {
	return m.snapshotStore
}

func (m *Manager) Close() error {
	m.db.Close(context.Background())
	return nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
