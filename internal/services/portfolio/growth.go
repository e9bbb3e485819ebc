package portfolio

import (
	"context"
	"sort"
	"time"

	"github.com/bobmcallan/paperledger/internal/models"
)

// Lookback and lookahead padding applied to the historical close request so
// carry-forward has a price at the window boundary.
const (
	closesLookbackDays  = 7
	closesLookaheadDays = 1
)

// replayHolding is a stock position rebuilt from the transaction log.
type replayHolding struct {
	shares  float64
	avgCost float64
}

// replayOption is an option position carried at its weighted-average premium.
type replayOption struct {
	quantity float64
	cost     float64 // total premium paid for the open quantity, ×100 included
}

// replayState is the running cash and positions during NAV reconstruction.
type replayState struct {
	cash    float64
	stocks  map[string]*replayHolding
	options map[string]*replayOption
}

func newReplayState(startingCash float64) *replayState {
	return &replayState{
		cash:    startingCash,
		stocks:  make(map[string]*replayHolding),
		options: make(map[string]*replayOption),
	}
}

// apply books one transaction. Sells of unknown or over-sold positions are
// clamped to the held quantity.
func (r *replayState) apply(tx models.Transaction) {
	qty := tx.Shares.InexactFloat64()
	total := tx.Total.InexactFloat64()

	switch tx.Type {
	case models.TxBuy:
		h := r.stocks[tx.Symbol]
		if h == nil {
			h = &replayHolding{}
			r.stocks[tx.Symbol] = h
		}
		h.avgCost = (h.avgCost*h.shares + total) / (h.shares + qty)
		h.shares += qty
		r.cash -= total
	case models.TxSell:
		r.cash += total
		if h := r.stocks[tx.Symbol]; h != nil {
			h.shares -= qty
			if h.shares <= 1e-9 {
				delete(r.stocks, tx.Symbol)
			}
		}
	case models.TxBuyOption:
		o := r.options[tx.Symbol]
		if o == nil {
			o = &replayOption{}
			r.options[tx.Symbol] = o
		}
		o.quantity += qty
		o.cost += total
		r.cash -= total
	case models.TxSellOption:
		r.cash += total
		if o := r.options[tx.Symbol]; o != nil && o.quantity > 0 {
			sold := qty
			if sold > o.quantity {
				sold = o.quantity
			}
			o.cost -= o.cost / o.quantity * sold
			o.quantity -= sold
			if o.quantity <= 1e-9 {
				delete(r.options, tx.Symbol)
			}
		}
	}
}

// value is cash plus stocks at the close as of day (cost basis when no close
// is known yet) plus options at book.
func (r *replayState) value(closes map[string][]models.ClosePoint, day time.Time) float64 {
	total := r.cash

	symbols := make([]string, 0, len(r.stocks))
	for sym := range r.stocks {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		h := r.stocks[sym]
		price, ok := findClosingPriceAsOf(closes[sym], day)
		if !ok {
			price = h.avgCost
		}
		total += h.shares * price
	}

	contracts := make([]string, 0, len(r.options))
	for c := range r.options {
		contracts = append(contracts, c)
	}
	sort.Strings(contracts)
	for _, c := range contracts {
		total += r.options[c].cost
	}
	return total
}

// findClosingPriceAsOf returns the last close dated at or before asOf.
// bars must be sorted ascending by date.
func findClosingPriceAsOf(bars []models.ClosePoint, asOf time.Time) (float64, bool) {
	target := truncateDay(asOf)
	idx := sort.Search(len(bars), func(i int) bool {
		return truncateDay(bars[i].Date).After(target)
	})
	for i := idx - 1; i >= 0; i-- {
		if models.ValidPrice(bars[i].Close) {
			return bars[i].Close, true
		}
	}
	return 0, false
}

// datedTransaction pairs a transaction with its parsed day.
type datedTransaction struct {
	day time.Time
	tx  models.Transaction
}

// sortTransactions parses and orders the log by day, keeping log order within
// a day. Entries with malformed dates are dropped.
func sortTransactions(txs []models.Transaction) []datedTransaction {
	out := make([]datedTransaction, 0, len(txs))
	for _, tx := range txs {
		if d, ok := tx.Day(); ok {
			out = append(out, datedTransaction{day: truncateDay(d), tx: tx})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].day.Before(out[j].day) })
	return out
}

// stockSymbols returns the distinct symbols of BUY and SELL entries, sorted.
func stockSymbols(txs []models.Transaction) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tx := range txs {
		if tx.Type.IsOption() || seen[tx.Symbol] {
			continue
		}
		seen[tx.Symbol] = true
		out = append(out, tx.Symbol)
	}
	sort.Strings(out)
	return out
}

// firstTransactionDay returns the earliest parsable transaction day, or zero.
func firstTransactionDay(txs []models.Transaction) time.Time {
	sorted := sortTransactions(txs)
	if len(sorted) == 0 {
		return time.Time{}
	}
	return sorted[0].day
}

// ReconstructNAV replays the transaction log against daily closes and returns
// one point per calendar day of the window plus its summary. It is a pure
// function of its inputs. closes must be sorted ascending per symbol.
func ReconstructNAV(txs []models.Transaction, closes map[string][]models.ClosePoint, startingCash float64, w Window) ([]models.NAVPoint, models.NAVSummary) {
	sorted := sortTransactions(txs)
	state := newReplayState(startingCash)

	i := 0
	for ; i < len(sorted) && sorted[i].day.Before(w.Start); i++ {
		state.apply(sorted[i].tx)
	}
	startValue := state.value(closes, w.Start)

	points := []models.NAVPoint{}
	if len(stockSymbols(txs)) == 0 {
		return points, summarize(w, startValue, points)
	}

	for _, day := range generateCalendarDates(w.Start, w.End) {
		for ; i < len(sorted) && !sorted[i].day.After(day); i++ {
			state.apply(sorted[i].tx)
		}
		points = append(points, models.NAVPoint{Date: day, Value: state.value(closes, day)})
	}

	return points, summarize(w, startValue, points)
}

// GetHistory reconstructs the daily NAV series for a window keyword. An empty
// period uses the configured default. Missing closes degrade to cost basis.
func (s *Service) GetHistory(ctx context.Context, ledgerID, period string) (*models.NAVHistory, error) {
	ledgerID, err := s.resolveLedgerID(ledgerID)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = s.config.HistoryPeriod
	}

	p, err := s.load(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	w, err := ResolveWindow(period, firstTransactionDay(p.Transactions), s.now())
	if err != nil {
		return nil, err
	}

	var closes map[string][]models.ClosePoint
	if symbols := stockSymbols(p.Transactions); len(symbols) > 0 {
		closes = s.historicalCloses(ctx, ledgerID, symbols, w)
	}

	funcStart := time.Now()
	points, summary := ReconstructNAV(p.Transactions, closes, p.StartingCash.InexactFloat64(), w)

	s.logger.Info().
		Str("ledger", ledgerID).
		Str("period", w.Period).
		Str("from", w.Start.Format(models.DateLayout)).
		Str("to", w.End.Format(models.DateLayout)).
		Int("points", len(points)).
		Dur("elapsed", time.Since(funcStart)).
		Msg("NAV history reconstructed")

	return &models.NAVHistory{LedgerID: ledgerID, Summary: summary, Points: points}, nil
}

func (s *Service) historicalCloses(ctx context.Context, ledgerID string, symbols []string, w Window) map[string][]models.ClosePoint {
	ctx, cancel := s.priceContext(ctx)
	defer cancel()

	from := w.Start.AddDate(0, 0, -closesLookbackDays)
	to := w.End.AddDate(0, 0, closesLookaheadDays)
	closes, err := s.prices.GetHistoricalCloses(ctx, symbols, from, to)
	if err != nil {
		s.logger.Warn().Err(err).Str("ledger", ledgerID).Strs("symbols", symbols).Msg("Historical closes unavailable, replaying at cost basis")
		return nil
	}
	for _, sym := range symbols {
		if len(closes[sym]) == 0 {
			s.logger.Warn().Str("ledger", ledgerID).Str("symbol", sym).Msg("No historical closes, carrying at cost basis")
		}
	}
	return closes
}
