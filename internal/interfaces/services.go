// Package interfaces defines service contracts for paperledger
package interfaces

import (
	"context"

	"github.com/bobmcallan/paperledger/internal/models"
)

// PortfolioService manages paper ledgers
type PortfolioService interface {
	// Buy purchases shares of an equity at the live reference price
	Buy(ctx context.Context, ledgerID, symbol string, shares float64) (*models.TradeResult, error)

	// Sell disposes of shares of an open equity position
	Sell(ctx context.Context, ledgerID, symbol string, shares float64) (*models.TradeResult, error)

	// BuyOption opens or adds to an option position. premium <= 0 means discover it.
	BuyOption(ctx context.Context, ledgerID, contract string, quantity, premium float64) (*models.TradeResult, error)

	// SellOption reduces an option position. premium <= 0 means discover it.
	SellOption(ctx context.Context, ledgerID, contract string, quantity, premium float64) (*models.TradeResult, error)

	// GetPortfolio returns the stored ledger, creating it on first use
	GetPortfolio(ctx context.Context, ledgerID string) (*models.Portfolio, error)

	// ListLedgers returns the ids of every stored ledger
	ListLedgers(ctx context.Context) ([]string, error)

	// GetValuation marks every open position to market
	GetValuation(ctx context.Context, ledgerID string) (*models.PortfolioValuation, error)

	// GetHistory reconstructs the daily NAV series for a window keyword
	GetHistory(ctx context.Context, ledgerID, period string) (*models.NAVHistory, error)

	// GetRecentTrades returns the last n trade records, oldest first
	GetRecentTrades(ctx context.Context, ledgerID string, n int) ([]models.TradeRecord, error)

	// GetSnapshots returns the full snapshot series
	GetSnapshots(ctx context.Context, ledgerID string) ([]models.Snapshot, error)

	// Reset restores starting cash and clears positions, logs and snapshots
	Reset(ctx context.Context, ledgerID string) (*models.Portfolio, error)
}
