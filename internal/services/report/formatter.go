// Package report renders ledger data as Markdown for terminal and chat output.
package report

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/models"
)

const timeLayout = "2006-01-02 15:04"

// FormatValuation renders a mark-to-market valuation with per-position tables.
func FormatValuation(v *models.PortfolioValuation) string {
	var sb strings.Builder
	cur := v.Currency

	sb.WriteString(fmt.Sprintf("# Ledger: %s\n\n", v.LedgerID))
	sb.WriteString(fmt.Sprintf("**As of:** %s\n", v.AsOf.Format(timeLayout)))
	sb.WriteString(fmt.Sprintf("**Total Value:** %s\n", common.FormatMoneyFloat(v.TotalValue, cur)))
	sb.WriteString(fmt.Sprintf("**Cash:** %s\n", common.FormatMoneyFloat(v.Cash, cur)))
	sb.WriteString(fmt.Sprintf("**Total P&L:** %s (%s)\n", common.FormatSignedMoney(v.TotalPL, cur), common.FormatSignedPct(v.TotalReturnPct)))
	sb.WriteString(fmt.Sprintf("**Day Change:** %s\n\n", common.FormatSignedMoney(v.DailyPL, cur)))

	if len(v.Positions) == 0 && len(v.Options) == 0 {
		sb.WriteString("_No open positions._\n")
		return sb.String()
	}

	if len(v.Positions) > 0 {
		sb.WriteString("## Stocks\n\n")
		sb.WriteString("| Symbol | Shares | Avg Cost | Price | Value | P&L | P&L % | Day | Source |\n")
		sb.WriteString("|--------|--------|----------|-------|-------|-----|-------|-----|--------|\n")
		for _, p := range v.Positions {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
				p.Symbol, formatQty(p.Shares),
				common.FormatMoneyFloat(p.AvgCost, cur), common.FormatMoneyFloat(p.CurrentPrice, cur),
				common.FormatMoneyFloat(p.MarketValue, cur),
				common.FormatSignedMoney(p.TotalPL, cur), common.FormatSignedPct(p.TotalPLPct),
				common.FormatSignedMoney(p.DailyPL, cur), formatSource(p.PriceSource),
			))
		}
		sb.WriteString(fmt.Sprintf("| **Stocks Total** | | | | **%s** | | | | |\n\n", common.FormatMoneyFloat(v.PositionsValue, cur)))
	}

	if len(v.Options) > 0 {
		sb.WriteString("## Options\n\n")
		sb.WriteString("| Contract | Qty | Avg Premium | Premium | Value | P&L | P&L % | Source |\n")
		sb.WriteString("|----------|-----|-------------|---------|-------|-----|-------|--------|\n")
		for _, o := range v.Options {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s |\n",
				o.Contract, formatQty(o.Quantity),
				common.FormatMoneyFloat(o.AvgCost, cur), common.FormatMoneyFloat(o.CurrentPrice, cur),
				common.FormatMoneyFloat(o.MarketValue, cur),
				common.FormatSignedMoney(o.TotalPL, cur), common.FormatSignedPct(o.TotalPLPct),
				formatSource(o.PriceSource),
			))
		}
		sb.WriteString(fmt.Sprintf("| **Options Total** | | | | **%s** | | | |\n\n", common.FormatMoneyFloat(v.OptionsValue, cur)))
	}

	return sb.String()
}

// FormatHistory renders a NAV summary followed by the daily series.
// Series longer than maxRows are thinned to keep the table readable.
func FormatHistory(h *models.NAVHistory, currency string, maxRows int) string {
	var sb strings.Builder
	s := h.Summary

	sb.WriteString(fmt.Sprintf("# NAV History: %s (%s)\n\n", h.LedgerID, s.Period))
	sb.WriteString(fmt.Sprintf("**Window:** %s to %s (%d days)\n", s.StartDate.Format(models.DateLayout), s.EndDate.Format(models.DateLayout), s.Days))
	sb.WriteString(fmt.Sprintf("**Start Value:** %s\n", common.FormatMoneyFloat(s.StartValue, currency)))
	sb.WriteString(fmt.Sprintf("**End Value:** %s\n", common.FormatMoneyFloat(s.EndValue, currency)))
	sb.WriteString(fmt.Sprintf("**Wealth Generated:** %s\n", common.FormatSignedMoney(s.WealthGenerated, currency)))
	sb.WriteString(fmt.Sprintf("**Cumulative Return:** %s\n", formatPercent(s.CumulativeReturnPct)))
	sb.WriteString(fmt.Sprintf("**Annualized Return:** %s\n\n", formatPercent(s.AnnualizedReturnPct)))

	if len(h.Points) == 0 {
		sb.WriteString("_No stock transactions in this window._\n")
		return sb.String()
	}

	sb.WriteString("| Date | NAV |\n")
	sb.WriteString("|------|-----|\n")
	for _, p := range thin(h.Points, maxRows) {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", p.Date.Format(models.DateLayout), common.FormatMoneyFloat(p.Value, currency)))
	}
	return sb.String()
}

// FormatTrades renders trade records newest first.
func FormatTrades(ledgerID string, trades []models.TradeRecord, currency string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Trades: %s\n\n", ledgerID))

	if len(trades) == 0 {
		sb.WriteString("_No trades yet._\n")
		return sb.String()
	}

	sb.WriteString("| Time | Type | Symbol | Qty | Price | Total | Profit |\n")
	sb.WriteString("|------|------|--------|-----|-------|-------|--------|\n")
	for i := len(trades) - 1; i >= 0; i-- {
		t := trades[i]
		profit := ""
		if t.Profit != nil {
			profit = common.FormatSignedMoney(t.Profit.InexactFloat64(), currency)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s |\n",
			t.Timestamp.Format(timeLayout), t.Type, t.Symbol, t.Quantity.String(),
			common.FormatMoney(t.Price, currency), common.FormatMoney(t.Total, currency), profit,
		))
	}
	return sb.String()
}

// FormatTradeResult renders the confirmation for one executed trade.
func FormatTradeResult(r *models.TradeResult, currency string) string {
	var sb strings.Builder
	t := r.Trade

	sb.WriteString(fmt.Sprintf("## %s %s %s\n\n", t.Type, t.Quantity.String(), t.Symbol))
	sb.WriteString(fmt.Sprintf("- **Price:** %s (%s)\n", common.FormatMoney(t.Price, currency), formatSource(r.Source)))
	sb.WriteString(fmt.Sprintf("- **Total:** %s\n", common.FormatMoney(t.Total, currency)))
	if t.Profit != nil {
		sb.WriteString(fmt.Sprintf("- **Realized Profit:** %s\n", common.FormatSignedMoney(t.Profit.InexactFloat64(), currency)))
	}
	sb.WriteString(fmt.Sprintf("- **Cash:** %s\n", common.FormatMoney(r.Cash, currency)))
	sb.WriteString(fmt.Sprintf("- **Trade ID:** `%s`\n", t.ID))
	return sb.String()
}

// FormatSnapshots renders the raw snapshot series.
func FormatSnapshots(ledgerID string, snaps []models.Snapshot, currency string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Snapshots: %s\n\n", ledgerID))

	if len(snaps) == 0 {
		sb.WriteString("_No snapshots recorded._\n")
		return sb.String()
	}

	sb.WriteString("| Time | Book Value |\n")
	sb.WriteString("|------|------------|\n")
	for _, s := range snaps {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", s.Timestamp.Format(timeLayout), common.FormatMoneyFloat(s.Value, currency)))
	}
	return sb.String()
}

// FormatReset confirms a ledger reset.
func FormatReset(p *models.Portfolio, currency string) string {
	return fmt.Sprintf("Ledger **%s** reset to %s.\n", p.LedgerID, common.FormatMoney(p.StartingCash, currency))
}

func formatQty(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.4f", q)
}

func formatPercent(p models.Percent) string {
	if !p.IsFinite() {
		return "unbounded"
	}
	return common.FormatSignedPct(float64(p))
}

// formatSource flags degraded prices so they stand out in tables.
func formatSource(s models.PriceSource) string {
	if s.Degraded() {
		return "**" + string(s) + "**"
	}
	return string(s)
}

// thin keeps at most maxRows evenly spaced points, always including the last.
func thin(points []models.NAVPoint, maxRows int) []models.NAVPoint {
	if maxRows <= 0 || len(points) <= maxRows {
		return points
	}
	step := (len(points) + maxRows - 1) / maxRows
	var out []models.NAVPoint
	for i := 0; i < len(points); i += step {
		out = append(out, points[i])
	}
	if last := points[len(points)-1]; !out[len(out)-1].Date.Equal(last.Date) {
		out = append(out, last)
	}
	return out
}
