// Package models defines data structures for paperledger
package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// OptionMultiplier is the number of underlying shares per option contract.
const OptionMultiplier = 100

var optionMultiplier = decimal.NewFromInt(OptionMultiplier)

// DateLayout is the calendar-day format used for transaction dates.
const DateLayout = "2006-01-02"

// TransactionType identifies the kind of ledger entry
type TransactionType string

const (
	TxBuy        TransactionType = "BUY"
	TxSell       TransactionType = "SELL"
	TxBuyOption  TransactionType = "BUY_OPTION"
	TxSellOption TransactionType = "SELL_OPTION"
)

// IsOption reports whether the entry concerns an option contract.
func (t TransactionType) IsOption() bool {
	return t == TxBuyOption || t == TxSellOption
}

// StockPosition is an open equity holding at weighted-average cost.
type StockPosition struct {
	Shares  decimal.Decimal `json:"shares"`
	AvgCost decimal.Decimal `json:"avg_cost"`
}

// CostBasis returns shares × avgCost.
func (p StockPosition) CostBasis() decimal.Decimal {
	return p.Shares.Mul(p.AvgCost)
}

// OptionPosition is an open option holding. AvgCost is premium per share.
type OptionPosition struct {
	Quantity decimal.Decimal `json:"quantity"`
	AvgCost  decimal.Decimal `json:"avg_cost"`
}

// CostBasis returns quantity × avgCost × 100.
func (p OptionPosition) CostBasis() decimal.Decimal {
	return OptionNotional(p.Quantity, p.AvgCost)
}

// OptionNotional scales a per-share premium to the money amount for qty contracts.
func OptionNotional(qty, premium decimal.Decimal) decimal.Decimal {
	return qty.Mul(premium).Mul(optionMultiplier)
}

// Transaction is an immutable day-granularity ledger entry used for replay.
type Transaction struct {
	Date   string          `json:"date"` // YYYY-MM-DD
	Type   TransactionType `json:"type"`
	Symbol string          `json:"symbol"`
	Shares decimal.Decimal `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Total  decimal.Decimal `json:"total"`
}

// Day parses the transaction date. The second result is false for malformed dates.
func (t Transaction) Day() (time.Time, bool) {
	d, err := time.Parse(DateLayout, t.Date)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// TradeRecord is the immutable audit record of an executed trade.
type TradeRecord struct {
	ID        string           `json:"id"`
	Type      TransactionType  `json:"type"`
	Symbol    string           `json:"symbol"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
	Total     decimal.Decimal  `json:"total"`
	Profit    *decimal.Decimal `json:"profit,omitempty"` // sells only
	Timestamp time.Time        `json:"timestamp"`
}

// TradeResult is returned by every successful trade.
type TradeResult struct {
	LedgerID string          `json:"ledger_id"`
	Trade    TradeRecord     `json:"trade"`
	Cash     decimal.Decimal `json:"cash"` // balance after the trade
	Source   PriceSource     `json:"price_source"`
}

// Portfolio is the full ledger state for one ledger id.
type Portfolio struct {
	LedgerID        string                    `json:"ledger_id"`
	Cash            decimal.Decimal           `json:"cash"`
	StartingCash    decimal.Decimal           `json:"starting_cash"`
	Positions       map[string]StockPosition  `json:"positions"`
	OptionPositions map[string]OptionPosition `json:"options_positions"`
	Transactions    []Transaction             `json:"transactions"`
	TradeHistory    []TradeRecord             `json:"trade_history"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}

// NewPortfolio returns a fresh ledger holding only starting cash.
func NewPortfolio(ledgerID string, startingCash decimal.Decimal, now time.Time) *Portfolio {
	return &Portfolio{
		LedgerID:        ledgerID,
		Cash:            startingCash,
		StartingCash:    startingCash,
		Positions:       make(map[string]StockPosition),
		OptionPositions: make(map[string]OptionPosition),
		Transactions:    []Transaction{},
		TradeHistory:    []TradeRecord{},
		UpdatedAt:       now,
	}
}

// Normalize fills nil collections after decoding a stored document.
func (p *Portfolio) Normalize() {
	if p.Positions == nil {
		p.Positions = make(map[string]StockPosition)
	}
	if p.OptionPositions == nil {
		p.OptionPositions = make(map[string]OptionPosition)
	}
	if p.Transactions == nil {
		p.Transactions = []Transaction{}
	}
	if p.TradeHistory == nil {
		p.TradeHistory = []TradeRecord{}
	}
}

// Clone returns a deep copy. Mutations on the copy never reach the original,
// so a failed persist can simply drop the copy.
func (p *Portfolio) Clone() *Portfolio {
	c := *p
	c.Positions = make(map[string]StockPosition, len(p.Positions))
	for k, v := range p.Positions {
		c.Positions[k] = v
	}
	c.OptionPositions = make(map[string]OptionPosition, len(p.OptionPositions))
	for k, v := range p.OptionPositions {
		c.OptionPositions[k] = v
	}
	c.Transactions = append([]Transaction(nil), p.Transactions...)
	c.TradeHistory = make([]TradeRecord, len(p.TradeHistory))
	for i, r := range p.TradeHistory {
		if r.Profit != nil {
			profit := *r.Profit
			r.Profit = &profit
		}
		c.TradeHistory[i] = r
	}
	return &c
}

// BookValue is cash plus every open position carried at cost.
func (p *Portfolio) BookValue() decimal.Decimal {
	total := p.Cash
	for _, pos := range p.Positions {
		total = total.Add(pos.CostBasis())
	}
	for _, pos := range p.OptionPositions {
		total = total.Add(pos.CostBasis())
	}
	return total
}

// RecentTrades returns the last n trade records in chronological order.
func (p *Portfolio) RecentTrades(n int) []TradeRecord {
	src := p.TradeHistory
	if n > 0 && n < len(src) {
		src = src[len(src)-n:]
	}
	return append(make([]TradeRecord, 0, len(src)), src...)
}

// StockSymbols returns the held equity symbols in sorted order.
func (p *Portfolio) StockSymbols() []string {
	out := make([]string, 0, len(p.Positions))
	for sym := range p.Positions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// OptionContracts returns the held option contracts in sorted order.
func (p *Portfolio) OptionContracts() []string {
	out := make([]string, 0, len(p.OptionPositions))
	for c := range p.OptionPositions {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
