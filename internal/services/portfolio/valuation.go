package portfolio

import (
	"context"

	"github.com/bobmcallan/paperledger/internal/models"
)

// GetValuation marks every open position to market. Missing market data
// degrades to cost basis; the request itself only fails on store errors.
func (s *Service) GetValuation(ctx context.Context, ledgerID string) (*models.PortfolioValuation, error) {
	ledgerID, err := s.resolveLedgerID(ledgerID)
	if err != nil {
		return nil, err
	}
	p, err := s.load(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	v := &models.PortfolioValuation{
		LedgerID:     ledgerID,
		Currency:     s.config.Currency,
		Cash:         p.Cash.InexactFloat64(),
		StartingCash: p.StartingCash.InexactFloat64(),
		Positions:    []models.PositionValuation{},
		Options:      []models.OptionValuation{},
		AsOf:         s.now(),
	}

	quotes := s.batchQuotes(ctx, ledgerID, p.StockSymbols())
	for _, symbol := range p.StockSymbols() {
		pv := s.valueStock(symbol, p.Positions[symbol], quotes[symbol])
		v.PositionsValue += pv.MarketValue
		v.DailyPL += pv.DailyPL
		v.Positions = append(v.Positions, pv)
	}

	for _, contract := range p.OptionContracts() {
		ov := s.valueOption(ctx, contract, p.OptionPositions[contract])
		v.OptionsValue += ov.MarketValue
		v.Options = append(v.Options, ov)
	}

	v.TotalValue = v.Cash + v.PositionsValue + v.OptionsValue
	v.TotalPL = v.TotalValue - v.StartingCash
	if v.StartingCash > 0 {
		v.TotalReturnPct = v.TotalPL / v.StartingCash * 100
	}

	s.logger.Debug().
		Str("ledger", ledgerID).
		Float64("total_value", v.TotalValue).
		Int("positions", len(v.Positions)).
		Int("options", len(v.Options)).
		Msg("Valuation computed")

	return v, nil
}

// batchQuotes fetches every held symbol in one gateway call. A failed batch
// returns an empty map so every position degrades to cost basis.
func (s *Service) batchQuotes(ctx context.Context, ledgerID string, symbols []string) map[string]*models.Quote {
	if len(symbols) == 0 {
		return nil
	}
	ctx, cancel := s.priceContext(ctx)
	defer cancel()

	quotes, err := s.prices.GetQuotes(ctx, symbols)
	if err != nil {
		s.logger.Warn().Err(err).Str("ledger", ledgerID).Strs("symbols", symbols).Msg("Batch quote failed, valuing stocks at cost basis")
		return nil
	}
	return quotes
}

func (s *Service) valueStock(symbol string, pos models.StockPosition, q *models.Quote) models.PositionValuation {
	shares := pos.Shares.InexactFloat64()
	avgCost := pos.AvgCost.InexactFloat64()

	pv := models.PositionValuation{
		Symbol:    symbol,
		Shares:    shares,
		AvgCost:   avgCost,
		CostBasis: shares * avgCost,
	}

	switch {
	case q != nil && models.ValidPrice(q.Price):
		pv.CurrentPrice = q.Price
		pv.PriceSource = models.PriceSourceQuote
		pv.PreviousClose = q.Price
		if models.ValidPrice(q.PreviousClose) {
			pv.PreviousClose = q.PreviousClose
		}
	case q != nil && models.ValidPrice(q.PreviousClose):
		pv.CurrentPrice = q.PreviousClose
		pv.PreviousClose = q.PreviousClose
		pv.PriceSource = models.PriceSourcePreviousClose
	default:
		pv.CurrentPrice = avgCost
		pv.PreviousClose = avgCost
		pv.PriceSource = models.PriceSourceCostBasis
		s.logger.Warn().Str("symbol", symbol).Float64("substituted_price", avgCost).Msg("No market price, valuing at cost basis")
	}

	pv.MarketValue = shares * pv.CurrentPrice
	pv.TotalPL = pv.MarketValue - pv.CostBasis
	if pv.CostBasis > 0 {
		pv.TotalPLPct = pv.TotalPL / pv.CostBasis * 100
	}
	pv.DailyPL = shares * (pv.CurrentPrice - pv.PreviousClose)
	if pv.PreviousClose > 0 {
		pv.DailyPLPct = (pv.CurrentPrice - pv.PreviousClose) / pv.PreviousClose * 100
	}
	return pv
}

func (s *Service) valueOption(ctx context.Context, contract string, pos models.OptionPosition) models.OptionValuation {
	qty := pos.Quantity.InexactFloat64()
	avgCost := pos.AvgCost.InexactFloat64()

	price, source := discoverPrice(ctx, contract, s.optionLookups(pos))
	if source.Degraded() {
		s.logger.Warn().Str("contract", contract).Float64("substituted_price", price).Msg("No option price discovered, valuing at cost basis")
	}

	ov := models.OptionValuation{
		Contract:     contract,
		Quantity:     qty,
		AvgCost:      avgCost,
		CurrentPrice: price,
		MarketValue:  qty * price * models.OptionMultiplier,
		CostBasis:    pos.CostBasis().InexactFloat64(),
		PriceSource:  source,
	}
	ov.TotalPL = ov.MarketValue - ov.CostBasis
	if ov.CostBasis > 0 {
		ov.TotalPLPct = ov.TotalPL / ov.CostBasis * 100
	}
	return ov
}
