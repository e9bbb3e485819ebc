package portfolio

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/paperledger/internal/models"
)

// tradeFunc mutates a cloned ledger in place and reports the price source used.
type tradeFunc func(ctx context.Context, p *models.Portfolio, at time.Time) (models.TradeRecord, models.PriceSource, error)

// Buy purchases shares of an equity at the live reference price
func (s *Service) Buy(ctx context.Context, ledgerID, symbol string, shares float64) (*models.TradeResult, error) {
	ledgerID, symbol, qty, err := s.prepareTrade(ledgerID, symbol, shares, false)
	if err != nil {
		return nil, err
	}

	return s.execute(ctx, ledgerID, symbol, func(ctx context.Context, p *models.Portfolio, at time.Time) (models.TradeRecord, models.PriceSource, error) {
		price, source, err := s.stockPrice(ctx, symbol)
		if err != nil {
			return models.TradeRecord{}, "", err
		}
		record, err := applyBuy(p, stockInstrument, symbol, qty, price, at, s.config.Currency)
		return record, source, err
	})
}

// Sell disposes of shares of an open equity position
func (s *Service) Sell(ctx context.Context, ledgerID, symbol string, shares float64) (*models.TradeResult, error) {
	ledgerID, symbol, qty, err := s.prepareTrade(ledgerID, symbol, shares, false)
	if err != nil {
		return nil, err
	}

	return s.execute(ctx, ledgerID, symbol, func(ctx context.Context, p *models.Portfolio, at time.Time) (models.TradeRecord, models.PriceSource, error) {
		if _, _, err := checkSellable(p, stockInstrument, symbol, qty); err != nil {
			return models.TradeRecord{}, "", err
		}
		price, source, err := s.stockPrice(ctx, symbol)
		if err != nil {
			return models.TradeRecord{}, "", err
		}
		record, err := applySell(p, stockInstrument, symbol, qty, price, at)
		return record, source, err
	})
}

// BuyOption opens or adds to an option position. premium <= 0 means discover it.
func (s *Service) BuyOption(ctx context.Context, ledgerID, contract string, quantity, premium float64) (*models.TradeResult, error) {
	ledgerID, contract, qty, err := s.prepareTrade(ledgerID, contract, quantity, true)
	if err != nil {
		return nil, err
	}

	return s.execute(ctx, ledgerID, contract, func(ctx context.Context, p *models.Portfolio, at time.Time) (models.TradeRecord, models.PriceSource, error) {
		price, source, err := s.optionPremium(ctx, contract, premium, true)
		if err != nil {
			return models.TradeRecord{}, "", err
		}
		record, err := applyBuy(p, optionInstrument, contract, qty, price, at, s.config.Currency)
		return record, source, err
	})
}

// SellOption reduces an option position. premium <= 0 means discover it.
func (s *Service) SellOption(ctx context.Context, ledgerID, contract string, quantity, premium float64) (*models.TradeResult, error) {
	ledgerID, contract, qty, err := s.prepareTrade(ledgerID, contract, quantity, true)
	if err != nil {
		return nil, err
	}

	return s.execute(ctx, ledgerID, contract, func(ctx context.Context, p *models.Portfolio, at time.Time) (models.TradeRecord, models.PriceSource, error) {
		if _, _, err := checkSellable(p, optionInstrument, contract, qty); err != nil {
			return models.TradeRecord{}, "", err
		}
		price, source, err := s.optionPremium(ctx, contract, premium, false)
		if err != nil {
			return models.TradeRecord{}, "", err
		}
		record, err := applySell(p, optionInstrument, contract, qty, price, at)
		return record, source, err
	})
}

// prepareTrade validates everything that does not need ledger state.
func (s *Service) prepareTrade(ledgerID, symbol string, quantity float64, wholeContracts bool) (string, string, decimal.Decimal, error) {
	ledgerID, err := s.resolveLedgerID(ledgerID)
	if err != nil {
		return "", "", decimal.Zero, err
	}
	symbol, err = normalizeSymbol(symbol)
	if err != nil {
		return "", "", decimal.Zero, err
	}
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity <= 0 {
		return "", "", decimal.Zero, models.NewValidationError(symbol, "quantity must be a positive number, got %v", quantity)
	}
	if wholeContracts && quantity != math.Trunc(quantity) {
		return "", "", decimal.Zero, models.NewValidationError(symbol, "option quantity must be a whole number of contracts, got %v", quantity)
	}
	return ledgerID, symbol, decimal.NewFromFloat(quantity), nil
}

// execute runs one trade as a critical section: load, mutate a copy, persist,
// snapshot. Any failure leaves the stored ledger untouched.
func (s *Service) execute(ctx context.Context, ledgerID, symbol string, trade tradeFunc) (*models.TradeResult, error) {
	mu := s.ledgerLock(ledgerID)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.load(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	p := current.Clone()
	record, source, err := trade(ctx, p, s.now())
	if err != nil {
		s.logger.Info().Err(err).Str("ledger", ledgerID).Str("symbol", symbol).Msg("Trade rejected")
		return nil, err
	}

	if err := s.storage.LedgerStore().Save(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("ledger", ledgerID).Str("symbol", symbol).Msg("Failed to persist trade")
		return nil, &models.TradeError{Kind: models.ErrPersistence, Symbol: symbol, Msg: "trade was not saved"}
	}

	s.recordSnapshot(ctx, p)

	s.logger.Info().
		Str("ledger", ledgerID).
		Str("type", string(record.Type)).
		Str("symbol", symbol).
		Str("quantity", record.Quantity.String()).
		Str("price", record.Price.String()).
		Str("total", record.Total.String()).
		Str("cash", p.Cash.String()).
		Str("source", string(source)).
		Msg("Trade executed")

	return &models.TradeResult{
		LedgerID: ledgerID,
		Trade:    record,
		Cash:     p.Cash,
		Source:   source,
	}, nil
}

// stockPrice resolves the execution price for an equity: the live price,
// else the previous close.
func (s *Service) stockPrice(ctx context.Context, symbol string) (decimal.Decimal, models.PriceSource, error) {
	ctx, cancel := s.priceContext(ctx)
	defer cancel()

	q, err := s.prices.GetQuote(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Quote request failed")
		return decimal.Zero, "", &models.TradeError{Kind: models.ErrPriceUnavailable, Symbol: symbol, Msg: "quote request failed"}
	}
	if q == nil {
		return decimal.Zero, "", &models.TradeError{Kind: models.ErrPriceUnavailable, Symbol: symbol}
	}

	switch {
	case models.ValidPrice(q.Price):
		return decimal.NewFromFloat(q.Price), models.PriceSourceQuote, nil
	case models.ValidPrice(q.PreviousClose):
		s.logger.Warn().Str("symbol", symbol).Float64("previous_close", q.PreviousClose).Msg("No live price, executing at previous close")
		return decimal.NewFromFloat(q.PreviousClose), models.PriceSourcePreviousClose, nil
	}
	return decimal.Zero, "", &models.TradeError{Kind: models.ErrPriceUnavailable, Symbol: symbol, Msg: "no usable quote"}
}

// optionPremium returns the caller's premium when positive, otherwise the
// quoted ask (buys) or bid (sells), then last.
func (s *Service) optionPremium(ctx context.Context, contract string, premium float64, buying bool) (decimal.Decimal, models.PriceSource, error) {
	if math.IsNaN(premium) || math.IsInf(premium, 0) || premium < 0 {
		return decimal.Zero, "", &models.TradeError{Kind: models.ErrInvalidPremium, Symbol: contract, Msg: "premium must be a positive number"}
	}
	if premium > 0 {
		return decimal.NewFromFloat(premium), models.PriceSourceCaller, nil
	}

	ctx, cancel := s.priceContext(ctx)
	defer cancel()

	q, err := s.prices.GetOptionQuote(ctx, contract)
	if err != nil || q == nil {
		s.logger.Warn().Err(err).Str("contract", contract).Msg("Option quote unavailable for premium discovery")
		return decimal.Zero, "", &models.TradeError{Kind: models.ErrInvalidPremium, Symbol: contract, Msg: "no premium supplied and none quoted"}
	}

	first, firstSource := q.Bid, models.PriceSourceBid
	if buying {
		first, firstSource = q.Ask, models.PriceSourceAsk
	}
	if models.ValidPrice(first) {
		return decimal.NewFromFloat(first), firstSource, nil
	}
	if models.ValidPrice(q.Last) {
		return decimal.NewFromFloat(q.Last), models.PriceSourceLast, nil
	}
	return decimal.Zero, "", &models.TradeError{Kind: models.ErrInvalidPremium, Symbol: contract, Msg: "quoted premium is zero"}
}
