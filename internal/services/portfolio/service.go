// Package portfolio provides the paper ledger services: trade execution,
// mark-to-market valuation, NAV reconstruction and snapshot recording.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/interfaces"
	"github.com/bobmcallan/paperledger/internal/models"
)

var (
	ledgerIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)
	symbolPattern   = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.^=_-]{0,31}$`)
)

// Service implements PortfolioService
type Service struct {
	storage interfaces.StorageManager
	prices  interfaces.PriceGateway
	config  *common.LedgerConfig
	logger  *common.Logger
	now     func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewService creates a new portfolio service
func NewService(
	storage interfaces.StorageManager,
	prices interfaces.PriceGateway,
	config *common.LedgerConfig,
	logger *common.Logger,
) *Service {
	return &Service{
		storage: storage,
		prices:  prices,
		config:  config,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		locks:   make(map[string]*sync.Mutex),
	}
}

// ledgerLock returns the mutex serialising writes to one ledger.
func (s *Service) ledgerLock(ledgerID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[ledgerID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[ledgerID] = mu
	}
	return mu
}

// resolveLedgerID applies the configured default and validates the id.
func (s *Service) resolveLedgerID(ledgerID string) (string, error) {
	ledgerID = strings.TrimSpace(ledgerID)
	if ledgerID == "" {
		ledgerID = s.config.DefaultID
	}
	if !ledgerIDPattern.MatchString(ledgerID) {
		return "", models.NewValidationError("", "invalid ledger id %q", ledgerID)
	}
	return ledgerID, nil
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", models.NewValidationError("", "symbol is required")
	}
	if !symbolPattern.MatchString(symbol) {
		return "", models.NewValidationError(symbol, "invalid symbol")
	}
	return symbol, nil
}

func (s *Service) startingCash(ledgerID string) decimal.Decimal {
	return decimal.NewFromFloat(s.config.StartingCashFor(ledgerID))
}

// load reads the stored ledger, or a fresh one at starting cash when none exists yet.
func (s *Service) load(ctx context.Context, ledgerID string) (*models.Portfolio, error) {
	p, err := s.storage.LedgerStore().Get(ctx, ledgerID)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Debug().Str("ledger", ledgerID).Msg("Ledger not stored yet, starting fresh")
		return models.NewPortfolio(ledgerID, s.startingCash(ledgerID), s.now()), nil
	}
	s.logger.Error().Err(err).Str("ledger", ledgerID).Msg("Failed to load ledger")
	return nil, fmt.Errorf("failed to load ledger '%s': %w", ledgerID, models.ErrPersistence)
}

// priceContext bounds a single gateway call.
func (s *Service) priceContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.GetPriceTimeout())
}

// GetPortfolio returns the stored ledger, creating it on first use
func (s *Service) GetPortfolio(ctx context.Context, ledgerID string) (*models.Portfolio, error) {
	ledgerID, err := s.resolveLedgerID(ledgerID)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, ledgerID)
}

// ListLedgers returns the ids of every stored ledger
func (s *Service) ListLedgers(ctx context.Context) ([]string, error) {
	ids, err := s.storage.LedgerStore().List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list ledgers")
		return nil, fmt.Errorf("failed to list ledgers: %w", models.ErrPersistence)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// GetRecentTrades returns the last n trade records, oldest first.
// n <= 0 or above the configured cap returns the cap.
func (s *Service) GetRecentTrades(ctx context.Context, ledgerID string, n int) ([]models.TradeRecord, error) {
	ledgerID, err := s.resolveLedgerID(ledgerID)
	if err != nil {
		return nil, err
	}
	p, err := s.load(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	limit := s.config.RecentTrades
	if n > 0 && n < limit {
		limit = n
	}
	return p.RecentTrades(limit), nil
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)
