package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bobmcallan/paperledger/internal/interfaces"
	"github.com/bobmcallan/paperledger/internal/models"
)

// MemoryLedgerStore keeps ledgers in process memory. Values are cloned on the
// way in and out so callers never share state with the store.
type MemoryLedgerStore struct {
	mu      sync.RWMutex
	ledgers map[string]*models.Portfolio
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{ledgers: make(map[string]*models.Portfolio)}
}

func (s *MemoryLedgerStore) Get(_ context.Context, ledgerID string) (*models.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.ledgers[ledgerID]
	if !ok {
		return nil, fmt.Errorf("ledger '%s': %w", ledgerID, models.ErrNotFound)
	}
	return p.Clone(), nil
}

func (s *MemoryLedgerStore) Save(_ context.Context, portfolio *models.Portfolio) error {
	if portfolio.LedgerID == "" {
		return fmt.Errorf("ledger id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[portfolio.LedgerID] = portfolio.Clone()
	return nil
}

func (s *MemoryLedgerStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.ledgers))
	for id := range s.ledgers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryLedgerStore) Close() error { return nil }

// MemorySnapshotStore keeps snapshot series in process memory.
type MemorySnapshotStore struct {
	mu     sync.RWMutex
	series map[string][]models.Snapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{series: make(map[string][]models.Snapshot)}
}

func (s *MemorySnapshotStore) Append(_ context.Context, ledgerID string, snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[ledgerID] = append(s.series[ledgerID], snap)
	return nil
}

func (s *MemorySnapshotStore) List(_ context.Context, ledgerID string) ([]models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Snapshot{}, s.series[ledgerID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *MemorySnapshotStore) Reset(_ context.Context, ledgerID string, initial models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[ledgerID] = []models.Snapshot{initial}
	return nil
}

func (s *MemorySnapshotStore) Close() error { return nil }

var (
	_ interfaces.LedgerStore   = (*MemoryLedgerStore)(nil)
	_ interfaces.SnapshotStore = (*MemorySnapshotStore)(nil)
)
