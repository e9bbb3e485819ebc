// Package interfaces defines service contracts for paperledger
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/paperledger/internal/models"
)

// PriceGateway supplies market data to the ledger. Implementations may fail
// or return partial data; zero prices mean absent.
type PriceGateway interface {
	// GetQuote returns the live quote for one equity symbol
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetQuotes batches GetQuote. Symbols without data are omitted from the map.
	GetQuotes(ctx context.Context, symbols []string) (map[string]*models.Quote, error)

	// GetOptionQuote returns bid/ask/last/previous close for an option contract
	GetOptionQuote(ctx context.Context, contract string) (*models.OptionQuote, error)

	// GetHistoricalCloses returns per-symbol daily closes in ascending date order
	GetHistoricalCloses(ctx context.Context, symbols []string, from, to time.Time) (map[string][]models.ClosePoint, error)

	// GetFastLastPrice returns the cheapest last-price field for a contract; 0 when absent
	GetFastLastPrice(ctx context.Context, contract string) (float64, error)
}
