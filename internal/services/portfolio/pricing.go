package portfolio

import (
	"context"

	"github.com/bobmcallan/paperledger/internal/models"
)

// optionHistoryLookback is the short horizon searched for a contract's latest close.
const optionHistoryLookback = 7

// priceLookup is one option price discovery strategy. ok is false when the
// strategy has no usable price for the contract.
type priceLookup func(ctx context.Context, contract string) (price float64, source models.PriceSource, ok bool)

// discoverPrice tries each lookup in order and returns the first usable price.
// The final lookup is expected to always succeed; if none do, the result is
// zero at cost basis.
func discoverPrice(ctx context.Context, contract string, lookups []priceLookup) (float64, models.PriceSource) {
	for _, lookup := range lookups {
		if price, source, ok := lookup(ctx, contract); ok {
			return price, source
		}
	}
	return 0, models.PriceSourceCostBasis
}

// optionLookups is the discovery order for a held option: recent history,
// live quote, fast price, then the position's own average premium.
func (s *Service) optionLookups(pos models.OptionPosition) []priceLookup {
	return []priceLookup{
		s.historyLookup,
		s.quoteLookup,
		s.fastLookup,
		costBasisLookup(pos.AvgCost.InexactFloat64()),
	}
}

func (s *Service) historyLookup(ctx context.Context, contract string) (float64, models.PriceSource, bool) {
	ctx, cancel := s.priceContext(ctx)
	defer cancel()

	to := s.now()
	from := to.AddDate(0, 0, -optionHistoryLookback)
	closes, err := s.prices.GetHistoricalCloses(ctx, []string{contract}, from, to)
	if err != nil {
		s.logger.Debug().Err(err).Str("contract", contract).Msg("Option history lookup failed")
		return 0, "", false
	}
	series := closes[contract]
	for i := len(series) - 1; i >= 0; i-- {
		if models.ValidPrice(series[i].Close) {
			return series[i].Close, models.PriceSourceHistory, true
		}
	}
	return 0, "", false
}

func (s *Service) quoteLookup(ctx context.Context, contract string) (float64, models.PriceSource, bool) {
	ctx, cancel := s.priceContext(ctx)
	defer cancel()

	q, err := s.prices.GetOptionQuote(ctx, contract)
	if err != nil || q == nil {
		s.logger.Debug().Err(err).Str("contract", contract).Msg("Option quote lookup failed")
		return 0, "", false
	}
	return firstQuoted(q)
}

// firstQuoted picks bid, then ask, then last, then previous close.
func firstQuoted(q *models.OptionQuote) (float64, models.PriceSource, bool) {
	candidates := []struct {
		price  float64
		source models.PriceSource
	}{
		{q.Bid, models.PriceSourceBid},
		{q.Ask, models.PriceSourceAsk},
		{q.Last, models.PriceSourceLast},
		{q.PreviousClose, models.PriceSourcePreviousClose},
	}
	for _, c := range candidates {
		if models.ValidPrice(c.price) {
			return c.price, c.source, true
		}
	}
	return 0, "", false
}

func (s *Service) fastLookup(ctx context.Context, contract string) (float64, models.PriceSource, bool) {
	ctx, cancel := s.priceContext(ctx)
	defer cancel()

	price, err := s.prices.GetFastLastPrice(ctx, contract)
	if err != nil {
		s.logger.Debug().Err(err).Str("contract", contract).Msg("Fast price lookup failed")
		return 0, "", false
	}
	if !models.ValidPrice(price) {
		return 0, "", false
	}
	return price, models.PriceSourceFast, true
}

func costBasisLookup(avgCost float64) priceLookup {
	return func(context.Context, string) (float64, models.PriceSource, bool) {
		return avgCost, models.PriceSourceCostBasis, true
	}
}
