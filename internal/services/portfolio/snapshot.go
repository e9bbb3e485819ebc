package portfolio

import (
	"context"
	"fmt"

	"github.com/bobmcallan/paperledger/internal/models"
)

// recordSnapshot appends the ledger's book value to its snapshot series.
// Failures are logged; the trade that triggered it is already committed.
func (s *Service) recordSnapshot(ctx context.Context, p *models.Portfolio) {
	snap := models.Snapshot{
		Timestamp: s.now(),
		Value:     p.BookValue().InexactFloat64(),
	}
	if err := s.storage.SnapshotStore().Append(ctx, p.LedgerID, snap); err != nil {
		s.logger.Warn().Err(err).Str("ledger", p.LedgerID).Float64("value", snap.Value).Msg("Failed to record snapshot")
	}
}

// GetSnapshots returns the full snapshot series, oldest first
func (s *Service) GetSnapshots(ctx context.Context, ledgerID string) ([]models.Snapshot, error) {
	ledgerID, err := s.resolveLedgerID(ledgerID)
	if err != nil {
		return nil, err
	}
	snaps, err := s.storage.SnapshotStore().List(ctx, ledgerID)
	if err != nil {
		s.logger.Error().Err(err).Str("ledger", ledgerID).Msg("Failed to list snapshots")
		return nil, fmt.Errorf("failed to list snapshots for '%s': %w", ledgerID, models.ErrPersistence)
	}
	if snaps == nil {
		snaps = []models.Snapshot{}
	}
	return snaps, nil
}

// Reset restores the ledger to starting cash with empty positions and logs,
// and leaves a single snapshot at starting cash.
func (s *Service) Reset(ctx context.Context, ledgerID string) (*models.Portfolio, error) {
	ledgerID, err := s.resolveLedgerID(ledgerID)
	if err != nil {
		return nil, err
	}

	mu := s.ledgerLock(ledgerID)
	mu.Lock()
	defer mu.Unlock()

	now := s.now()
	fresh := models.NewPortfolio(ledgerID, s.startingCash(ledgerID), now)
	if err := s.storage.LedgerStore().Save(ctx, fresh); err != nil {
		s.logger.Error().Err(err).Str("ledger", ledgerID).Msg("Failed to save reset ledger")
		return nil, fmt.Errorf("failed to reset ledger '%s': %w", ledgerID, models.ErrPersistence)
	}

	initial := models.Snapshot{Timestamp: now, Value: fresh.StartingCash.InexactFloat64()}
	if err := s.storage.SnapshotStore().Reset(ctx, ledgerID, initial); err != nil {
		s.logger.Error().Err(err).Str("ledger", ledgerID).Msg("Failed to reset snapshot series")
		return nil, fmt.Errorf("failed to reset snapshots for '%s': %w", ledgerID, models.ErrPersistence)
	}

	s.logger.Info().Str("ledger", ledgerID).Str("starting_cash", fresh.StartingCash.String()).Msg("Ledger reset")
	return fresh, nil
}
