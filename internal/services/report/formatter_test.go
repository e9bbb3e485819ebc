package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/paperledger/internal/models"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestFormatValuation(t *testing.T) {
	v := &models.PortfolioValuation{
		LedgerID:       "paper",
		Currency:       "USD",
		Cash:           90000,
		PositionsValue: 6000,
		OptionsValue:   240,
		TotalValue:     96240,
		TotalPL:        -3760,
		TotalReturnPct: -3.76,
		DailyPL:        200,
		AsOf:           time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC),
		Positions: []models.PositionValuation{
			{Symbol: "AAA", Shares: 100, AvgCost: 50, CurrentPrice: 60, MarketValue: 6000, TotalPL: 1000, TotalPLPct: 20, DailyPL: 200, PriceSource: models.PriceSourceQuote},
		},
		Options: []models.OptionValuation{
			{Contract: "AAPL260116C00200000", Quantity: 2, AvgCost: 1.5, CurrentPrice: 1.2, MarketValue: 240, TotalPL: -60, TotalPLPct: -20, PriceSource: models.PriceSourceCostBasis},
		},
	}

	out := FormatValuation(v)

	assert.Contains(t, out, "# Ledger: paper")
	assert.Contains(t, out, "**Total Value:** $96,240.00")
	assert.Contains(t, out, "-$3,760.00 (-3.76%)")
	assert.Contains(t, out, "**Day Change:** +$200.00")
	assert.Contains(t, out, "| AAA | 100 | $50.00 | $60.00 | $6,000.00 | +$1,000.00 | +20.00% | +$200.00 | quote |")
	assert.Contains(t, out, "**cost_basis**", "degraded prices are highlighted")
	assert.Contains(t, out, "## Options")
}

func TestFormatValuation_Empty(t *testing.T) {
	out := FormatValuation(&models.PortfolioValuation{LedgerID: "paper", Currency: "USD", Cash: 100000, TotalValue: 100000})
	assert.Contains(t, out, "_No open positions._")
	assert.NotContains(t, out, "## Stocks")
}

func TestFormatHistory(t *testing.T) {
	h := &models.NAVHistory{
		LedgerID: "paper",
		Summary: models.NAVSummary{
			Period:              "1m",
			StartDate:           day(1),
			EndDate:             day(5),
			Days:                4,
			StartValue:          100000,
			EndValue:            100300,
			WealthGenerated:     300,
			CumulativeReturnPct: 0.3,
			AnnualizedReturnPct: 27.375,
		},
		Points: []models.NAVPoint{
			{Date: day(1), Value: 100000},
			{Date: day(5), Value: 100300},
		},
	}

	out := FormatHistory(h, "USD", 0)
	assert.Contains(t, out, "**Window:** 2026-03-01 to 2026-03-05 (4 days)")
	assert.Contains(t, out, "**Cumulative Return:** +0.30%")
	assert.Contains(t, out, "**Annualized Return:** +27.38%")
	assert.Contains(t, out, "| 2026-03-05 | $100,300.00 |")
}

func TestFormatHistory_Unbounded(t *testing.T) {
	h := &models.NAVHistory{
		LedgerID: "zero",
		Summary: models.NAVSummary{
			Period:              "all",
			CumulativeReturnPct: models.Percent(math.Inf(1)),
			AnnualizedReturnPct: models.Percent(math.Inf(1)),
			Unbounded:           true,
		},
	}
	out := FormatHistory(h, "USD", 0)
	assert.Contains(t, out, "**Cumulative Return:** unbounded")
	assert.Contains(t, out, "_No stock transactions in this window._")
}

func TestThin(t *testing.T) {
	points := make([]models.NAVPoint, 10)
	for i := range points {
		points[i] = models.NAVPoint{Date: day(i + 1), Value: float64(i)}
	}

	got := thin(points, 4)
	assert.LessOrEqual(t, len(got), 5)
	assert.Equal(t, points[0], got[0])
	assert.Equal(t, points[9], got[len(got)-1], "last point always kept")

	assert.Len(t, thin(points, 0), 10)
	assert.Len(t, thin(points, 20), 10)
}

func TestFormatTrades_NewestFirst(t *testing.T) {
	profit := decimal.NewFromInt(200)
	trades := []models.TradeRecord{
		{ID: "1", Type: models.TxBuy, Symbol: "X", Quantity: decimal.NewFromInt(100), Price: decimal.NewFromInt(10), Total: decimal.NewFromInt(1000), Timestamp: day(1)},
		{ID: "2", Type: models.TxSell, Symbol: "X", Quantity: decimal.NewFromInt(100), Price: decimal.NewFromInt(12), Total: decimal.NewFromInt(1200), Profit: &profit, Timestamp: day(2)},
	}

	out := FormatTrades("paper", trades, "USD")
	sell := strings.Index(out, "| SELL |")
	buy := strings.Index(out, "| BUY |")
	assert.True(t, sell > 0 && buy > sell, "sell should be listed before buy")
	assert.Contains(t, out, "+$200.00")

	assert.Contains(t, FormatTrades("paper", nil, "USD"), "_No trades yet._")
}

func TestFormatTradeResult(t *testing.T) {
	r := &models.TradeResult{
		LedgerID: "paper",
		Trade: models.TradeRecord{
			ID: "abc", Type: models.TxBuy, Symbol: "X",
			Quantity: decimal.NewFromInt(100), Price: decimal.NewFromInt(10), Total: decimal.NewFromInt(1000),
		},
		Cash:   decimal.NewFromInt(99000),
		Source: models.PriceSourceQuote,
	}

	out := FormatTradeResult(r, "USD")
	assert.Contains(t, out, "## BUY 100 X")
	assert.Contains(t, out, "**Price:** $10.00 (quote)")
	assert.Contains(t, out, "**Cash:** $99,000.00")
	assert.NotContains(t, out, "Realized Profit")
}

func TestFormatSnapshotsAndReset(t *testing.T) {
	out := FormatSnapshots("paper", []models.Snapshot{{Timestamp: day(1), Value: 100000}}, "USD")
	assert.Contains(t, out, "| 2026-03-01 00:00 | $100,000.00 |")
	assert.Contains(t, FormatSnapshots("paper", nil, "USD"), "_No snapshots recorded._")

	p := models.NewPortfolio("paper", decimal.NewFromInt(100000), day(1))
	assert.Equal(t, "Ledger **paper** reset to $100,000.00.\n", FormatReset(p, "USD"))
}
