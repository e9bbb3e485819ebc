package portfolio

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/models"
)

// instrument describes how one asset class is booked in a Portfolio.
type instrument struct {
	buy        models.TransactionType
	sell       models.TransactionType
	multiplier decimal.Decimal
	unit       string
}

var (
	stockInstrument = instrument{
		buy:        models.TxBuy,
		sell:       models.TxSell,
		multiplier: decimal.NewFromInt(1),
		unit:       "shares",
	}
	optionInstrument = instrument{
		buy:        models.TxBuyOption,
		sell:       models.TxSellOption,
		multiplier: decimal.NewFromInt(models.OptionMultiplier),
		unit:       "contracts",
	}
)

func (in instrument) holding(p *models.Portfolio, symbol string) (qty, avgCost decimal.Decimal, ok bool) {
	if in.buy.IsOption() {
		pos, ok := p.OptionPositions[symbol]
		return pos.Quantity, pos.AvgCost, ok
	}
	pos, ok := p.Positions[symbol]
	return pos.Shares, pos.AvgCost, ok
}

func (in instrument) set(p *models.Portfolio, symbol string, qty, avgCost decimal.Decimal) {
	if in.buy.IsOption() {
		p.OptionPositions[symbol] = models.OptionPosition{Quantity: qty, AvgCost: avgCost}
		return
	}
	p.Positions[symbol] = models.StockPosition{Shares: qty, AvgCost: avgCost}
}

func (in instrument) remove(p *models.Portfolio, symbol string) {
	if in.buy.IsOption() {
		delete(p.OptionPositions, symbol)
		return
	}
	delete(p.Positions, symbol)
}

// applyBuy books a purchase of qty units at price, debiting cash and
// re-weighting the average cost. p is left untouched on rejection.
func applyBuy(p *models.Portfolio, in instrument, symbol string, qty, price decimal.Decimal, at time.Time, currency string) (models.TradeRecord, error) {
	cost := qty.Mul(price).Mul(in.multiplier)
	if cost.GreaterThan(p.Cash) {
		return models.TradeRecord{}, &models.TradeError{
			Kind:      models.ErrInsufficientCash,
			Symbol:    symbol,
			Required:  common.FormatMoney(cost, currency),
			Available: common.FormatMoney(p.Cash, currency),
		}
	}

	oldQty, oldAvg, _ := in.holding(p, symbol)
	newQty := oldQty.Add(qty)
	newAvg := oldAvg.Mul(oldQty).Add(qty.Mul(price)).Div(newQty)

	in.set(p, symbol, newQty, newAvg)
	p.Cash = p.Cash.Sub(cost)

	return appendTrade(p, in.buy, symbol, qty, price, cost, nil, at), nil
}

// applySell books a disposal of qty units at price, crediting cash. A position
// sold down to exactly zero is removed.
// checkSellable rejects a sale the position cannot cover. It needs no price,
// so callers run it before asking the gateway.
func checkSellable(p *models.Portfolio, in instrument, symbol string, qty decimal.Decimal) (held, avgCost decimal.Decimal, err error) {
	held, avgCost, ok := in.holding(p, symbol)
	if !ok {
		return decimal.Zero, decimal.Zero, &models.TradeError{Kind: models.ErrNoPosition, Symbol: symbol}
	}
	if qty.GreaterThan(held) {
		return decimal.Zero, decimal.Zero, &models.TradeError{
			Kind:      models.ErrInsufficientShares,
			Symbol:    symbol,
			Required:  qty.String() + " " + in.unit,
			Available: held.String() + " " + in.unit,
		}
	}
	return held, avgCost, nil
}

func applySell(p *models.Portfolio, in instrument, symbol string, qty, price decimal.Decimal, at time.Time) (models.TradeRecord, error) {
	held, avgCost, err := checkSellable(p, in, symbol, qty)
	if err != nil {
		return models.TradeRecord{}, err
	}

	proceeds := qty.Mul(price).Mul(in.multiplier)
	profit := proceeds.Sub(qty.Mul(avgCost).Mul(in.multiplier))

	remaining := held.Sub(qty)
	if remaining.IsZero() {
		in.remove(p, symbol)
	} else {
		in.set(p, symbol, remaining, avgCost)
	}
	p.Cash = p.Cash.Add(proceeds)

	return appendTrade(p, in.sell, symbol, qty, price, proceeds, &profit, at), nil
}

func appendTrade(p *models.Portfolio, txType models.TransactionType, symbol string, qty, price, total decimal.Decimal, profit *decimal.Decimal, at time.Time) models.TradeRecord {
	p.Transactions = append(p.Transactions, models.Transaction{
		Date:   at.UTC().Format(models.DateLayout),
		Type:   txType,
		Symbol: symbol,
		Shares: qty,
		Price:  price,
		Total:  total,
	})
	record := models.TradeRecord{
		ID:        uuid.NewString(),
		Type:      txType,
		Symbol:    symbol,
		Quantity:  qty,
		Price:     price,
		Total:     total,
		Profit:    profit,
		Timestamp: at,
	}
	p.TradeHistory = append(p.TradeHistory, record)
	p.UpdatedAt = at
	return record
}
