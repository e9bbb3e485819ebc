package storage

import (
	"errors"

	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/interfaces"
)

// Manager implements interfaces.StorageManager over independently chosen
// ledger and snapshot backends.
type Manager struct {
	ledger    interfaces.LedgerStore
	snapshots interfaces.SnapshotStore
	closers   []func() error
	logger    *common.Logger
}

// NewManagerFromStores wraps existing stores. Used by tests and embedders.
func NewManagerFromStores(logger *common.Logger, ledger interfaces.LedgerStore, snapshots interfaces.SnapshotStore) *Manager {
	return &Manager{ledger: ledger, snapshots: snapshots, logger: logger}
}

func (m *Manager) LedgerStore() interfaces.LedgerStore {
	return m.ledger
}

func (m *Manager) SnapshotStore() interfaces.SnapshotStore {
	return m.snapshots
}

// Close releases backend resources, reporting every failure.
func (m *Manager) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	return errors.Join(errs...)
}

var _ interfaces.StorageManager = (*Manager)(nil)
