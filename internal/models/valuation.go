package models

import "time"

// PriceSource records where a valuation price came from.
type PriceSource string

const (
	PriceSourceQuote         PriceSource = "quote"
	PriceSourceHistory       PriceSource = "history"
	PriceSourceBid           PriceSource = "bid"
	PriceSourceAsk           PriceSource = "ask"
	PriceSourceLast          PriceSource = "last"
	PriceSourcePreviousClose PriceSource = "previous_close"
	PriceSourceFast          PriceSource = "fast"
	PriceSourceCostBasis     PriceSource = "cost_basis"
	PriceSourceCaller        PriceSource = "caller"
)

// Degraded reports whether the price is a cost-basis substitute.
func (s PriceSource) Degraded() bool { return s == PriceSourceCostBasis }

// PositionValuation is the mark-to-market view of one stock position.
type PositionValuation struct {
	Symbol        string      `json:"symbol"`
	Shares        float64     `json:"shares"`
	AvgCost       float64     `json:"avg_cost"`
	CurrentPrice  float64     `json:"current_price"`
	PreviousClose float64     `json:"previous_close"`
	MarketValue   float64     `json:"market_value"`
	CostBasis     float64     `json:"cost_basis"`
	TotalPL       float64     `json:"total_pl"`
	TotalPLPct    float64     `json:"total_pl_pct"`
	DailyPL       float64     `json:"daily_pl"`
	DailyPLPct    float64     `json:"daily_pl_pct"`
	PriceSource   PriceSource `json:"price_source"`
}

// OptionValuation is the mark-to-market view of one option position.
// Options carry no daily P&L.
type OptionValuation struct {
	Contract     string      `json:"contract"`
	Quantity     float64     `json:"quantity"`
	AvgCost      float64     `json:"avg_cost"`
	CurrentPrice float64     `json:"current_price"`
	MarketValue  float64     `json:"market_value"`
	CostBasis    float64     `json:"cost_basis"`
	TotalPL      float64     `json:"total_pl"`
	TotalPLPct   float64     `json:"total_pl_pct"`
	PriceSource  PriceSource `json:"price_source"`
}

// PortfolioValuation is the aggregate mark-to-market view of a ledger.
type PortfolioValuation struct {
	LedgerID       string              `json:"ledger_id"`
	Currency       string              `json:"currency"`
	Cash           float64             `json:"cash"`
	StartingCash   float64             `json:"starting_cash"`
	PositionsValue float64             `json:"positions_value"`
	OptionsValue   float64             `json:"options_value"`
	TotalValue     float64             `json:"total_value"`
	TotalPL        float64             `json:"total_pl"`
	TotalReturnPct float64             `json:"total_return_pct"`
	DailyPL        float64             `json:"daily_pl"`
	Positions      []PositionValuation `json:"positions"`
	Options        []OptionValuation   `json:"options_positions"`
	AsOf           time.Time           `json:"as_of"`
}
