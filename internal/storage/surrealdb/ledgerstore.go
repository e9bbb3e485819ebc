package surrealdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/interfaces"
	"github.com/bobmcallan/paperledger/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// LedgerStore keeps each ledger as a JSON document in the ledger table,
// keyed by ledger id.
type LedgerStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewLedgerStore(db *surrealdb.DB, logger *common.Logger) *LedgerStore {
	return &LedgerStore{db: db, logger: logger}
}

func (s *LedgerStore) getRecord(ctx context.Context, ledgerID string) (*models.LedgerRecord, error) {
	record, err := surrealdb.Select[models.LedgerRecord](ctx, s.db, surrealmodels.NewRecordID(ledgerTable, ledgerID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("ledger '%s': %w", ledgerID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to select ledger record: %w", err)
	}
	if record == nil || record.Value == "" {
		return nil, fmt.Errorf("ledger '%s': %w", ledgerID, models.ErrNotFound)
	}
	return record, nil
}

func (s *LedgerStore) Get(ctx context.Context, ledgerID string) (*models.Portfolio, error) {
	record, err := s.getRecord(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	var p models.Portfolio
	if err := json.Unmarshal([]byte(record.Value), &p); err != nil {
		return nil, fmt.Errorf("failed to decode ledger '%s': %w", ledgerID, err)
	}
	p.Normalize()
	if p.LedgerID == "" {
		p.LedgerID = ledgerID
	}
	return &p, nil
}

// Save upserts the whole document. The version counter is advisory; callers
// serialise writers per ledger.
func (s *LedgerStore) Save(ctx context.Context, portfolio *models.Portfolio) error {
	if portfolio.LedgerID == "" {
		return fmt.Errorf("ledger id is required")
	}
	data, err := json.Marshal(portfolio)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	version := 1
	if existing, err := s.getRecord(ctx, portfolio.LedgerID); err == nil {
		version = existing.Version + 1
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	record := models.LedgerRecord{
		LedgerID: portfolio.LedgerID,
		Value:    string(data),
		Version:  version,
		DateTime: time.Now().UTC(),
	}
	sql := "UPSERT $rid CONTENT $record"
	vars := map[string]any{"rid": surrealmodels.NewRecordID(ledgerTable, portfolio.LedgerID), "record": record}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.LedgerRecord](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
		s.logger.Warn().Err(err).Str("ledger", portfolio.LedgerID).Int("attempt", attempt).Msg("Ledger upsert failed")
	}
	return fmt.Errorf("failed to save ledger after retries: %w", lastErr)
}

func (s *LedgerStore) List(ctx context.Context) ([]string, error) {
	sql := fmt.Sprintf("SELECT ledger_id FROM %s", ledgerTable)
	results, err := surrealdb.Query[[]models.LedgerRecord](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledgers: %w", err)
	}

	var ids []string
	if results != nil && len(*results) > 0 {
		for _, r := range (*results)[0].Result {
			ids = append(ids, r.LedgerID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *LedgerStore) Close() error {
	return nil
}

var _ interfaces.LedgerStore = (*LedgerStore)(nil)
