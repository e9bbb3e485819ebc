package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/paperledger/internal/models"
)

// seedLedger stores a ledger directly, bypassing the executor.
func seedLedger(t *testing.T, env *testEnv, mutate func(p *models.Portfolio)) {
	t.Helper()
	p := models.NewPortfolio("paper", dec(100000), env.clock)
	mutate(p)
	require.NoError(t, env.ledgers.Save(context.Background(), p))
}

func TestGetValuation_MarksStocksToMarket(t *testing.T) {
	env := newTestEnv(t)
	seedLedger(t, env, func(p *models.Portfolio) {
		p.Cash = dec(90000)
		p.Positions["AAA"] = models.StockPosition{Shares: dec(100), AvgCost: dec(50)}
		p.Positions["BBB"] = models.StockPosition{Shares: dec(10), AvgCost: dec(200)}
	})
	env.gateway.setPrice("AAA", 60, 58)
	env.gateway.setPrice("BBB", 190, 0)

	v, err := env.svc.GetValuation(context.Background(), "paper")
	require.NoError(t, err)

	assert.Equal(t, 1, env.gateway.batchCalls, "one batched quote per valuation")
	assert.Zero(t, env.gateway.quoteCalls)
	require.Len(t, v.Positions, 2)

	aaa := v.Positions[0]
	assert.Equal(t, "AAA", aaa.Symbol)
	assert.InDelta(t, 6000, aaa.MarketValue, 1e-9)
	assert.InDelta(t, 1000, aaa.TotalPL, 1e-9)
	assert.InDelta(t, 20, aaa.TotalPLPct, 1e-9)
	assert.InDelta(t, 200, aaa.DailyPL, 1e-9) // 100 × (60 − 58)

	bbb := v.Positions[1]
	assert.InDelta(t, 1900, bbb.MarketValue, 1e-9)
	assert.Equal(t, 190.0, bbb.PreviousClose, "missing previous close falls back to current price")
	assert.Zero(t, bbb.DailyPL)

	assert.InDelta(t, 7900, v.PositionsValue, 1e-9)
	assert.InDelta(t, 97900, v.TotalValue, 1e-9)
	assert.InDelta(t, -2100, v.TotalPL, 1e-9)
	assert.InDelta(t, -2.1, v.TotalReturnPct, 1e-9)
	assert.InDelta(t, 200, v.DailyPL, 1e-9)
	assert.Equal(t, "USD", v.Currency)
}

func TestGetValuation_FallbackMonotonicity(t *testing.T) {
	env := newTestEnv(t)
	seedLedger(t, env, func(p *models.Portfolio) {
		p.Cash = dec(99000)
		p.Positions["QUOTED"] = models.StockPosition{Shares: dec(10), AvgCost: dec(50)}
		p.Positions["SILENT"] = models.StockPosition{Shares: dec(10), AvgCost: dec(50)}
	})
	env.gateway.setPrice("QUOTED", 55, 54)

	v, err := env.svc.GetValuation(context.Background(), "paper")
	require.NoError(t, err)

	quoted, silent := v.Positions[0], v.Positions[1]
	assert.Equal(t, models.PriceSourceQuote, quoted.PriceSource)
	assert.Equal(t, 55.0, quoted.CurrentPrice)

	assert.Equal(t, models.PriceSourceCostBasis, silent.PriceSource)
	assert.Equal(t, silent.CostBasis, silent.MarketValue)
	assert.Zero(t, silent.DailyPL)
	assert.Zero(t, silent.TotalPL)
}

func TestGetValuation_StockPriceChain(t *testing.T) {
	env := newTestEnv(t)
	seedLedger(t, env, func(p *models.Portfolio) {
		p.Positions["LIVE"] = models.StockPosition{Shares: dec(10), AvgCost: dec(50)}
		p.Positions["STALE"] = models.StockPosition{Shares: dec(10), AvgCost: dec(50)}
		p.Positions["NONE"] = models.StockPosition{Shares: dec(10), AvgCost: dec(50)}
	})
	env.gateway.setPrice("LIVE", 60, 40)
	env.gateway.setPrice("STALE", 0, 45)

	v, err := env.svc.GetValuation(context.Background(), "paper")
	require.NoError(t, err)
	require.Len(t, v.Positions, 3)

	bySymbol := make(map[string]models.PositionValuation)
	for _, pv := range v.Positions {
		bySymbol[pv.Symbol] = pv
	}

	live := bySymbol["LIVE"]
	assert.Equal(t, models.PriceSourceQuote, live.PriceSource, "previous close never overrides a live price")
	assert.Equal(t, 60.0, live.CurrentPrice)

	stale := bySymbol["STALE"]
	assert.Equal(t, models.PriceSourcePreviousClose, stale.PriceSource)
	assert.InDelta(t, 450, stale.MarketValue, 1e-9)
	assert.Zero(t, stale.DailyPL)

	none := bySymbol["NONE"]
	assert.Equal(t, models.PriceSourceCostBasis, none.PriceSource)
	assert.InDelta(t, 500, none.MarketValue, 1e-9)

	env.gateway.quoteErr = errors.New("gateway down")
	v, err = env.svc.GetValuation(context.Background(), "paper")
	require.NoError(t, err)
	for _, pv := range v.Positions {
		assert.Equal(t, models.PriceSourceCostBasis, pv.PriceSource, pv.Symbol)
	}
}

func TestGetValuation_BatchErrorDegradesEverything(t *testing.T) {
	env := newTestEnv(t)
	seedLedger(t, env, func(p *models.Portfolio) {
		p.Cash = dec(99000)
		p.Positions["X"] = models.StockPosition{Shares: dec(10), AvgCost: dec(100)}
	})
	env.gateway.quoteErr = errGateway

	v, err := env.svc.GetValuation(context.Background(), "paper")
	require.NoError(t, err)
	assert.Equal(t, models.PriceSourceCostBasis, v.Positions[0].PriceSource)
	assert.InDelta(t, 100000, v.TotalValue, 1e-9)
	assert.Zero(t, v.TotalPL)
}

func TestGetValuation_ZeroStartingCash(t *testing.T) {
	env := newTestEnv(t)
	seedLedger(t, env, func(p *models.Portfolio) {
		p.StartingCash = dec(0)
		p.Cash = dec(500)
	})

	v, err := env.svc.GetValuation(context.Background(), "paper")
	require.NoError(t, err)
	assert.Zero(t, v.TotalReturnPct)
	assert.Empty(t, v.Positions)
	assert.NotNil(t, v.Options)
}

func TestGetValuation_OptionDiscoveryOrder(t *testing.T) {
	const contract = "AAPL260116C00200000"

	tests := []struct {
		name       string
		setup      func(g *fakeGateway)
		wantPrice  float64
		wantSource models.PriceSource
	}{
		{
			name: "history_first",
			setup: func(g *fakeGateway) {
				g.closes[contract] = []models.ClosePoint{
					{Date: day(2026, 3, 6), Close: 2.0},
					{Date: day(2026, 3, 9), Close: 2.4},
				}
				g.optionQuotes[contract] = &models.OptionQuote{Bid: 9}
			},
			wantPrice:  2.4,
			wantSource: models.PriceSourceHistory,
		},
		{
			name: "bid",
			setup: func(g *fakeGateway) {
				g.optionQuotes[contract] = &models.OptionQuote{Bid: 1.1, Ask: 1.3, Last: 1.2}
			},
			wantPrice:  1.1,
			wantSource: models.PriceSourceBid,
		},
		{
			name: "ask_when_no_bid",
			setup: func(g *fakeGateway) {
				g.optionQuotes[contract] = &models.OptionQuote{Ask: 1.3, Last: 1.2}
			},
			wantPrice:  1.3,
			wantSource: models.PriceSourceAsk,
		},
		{
			name: "previous_close",
			setup: func(g *fakeGateway) {
				g.optionQuotes[contract] = &models.OptionQuote{PreviousClose: 0.7}
			},
			wantPrice:  0.7,
			wantSource: models.PriceSourcePreviousClose,
		},
		{
			name: "fast_price",
			setup: func(g *fakeGateway) {
				g.historyErr = errGateway
				g.fast[contract] = 0.55
			},
			wantPrice:  0.55,
			wantSource: models.PriceSourceFast,
		},
		{
			name: "cost_basis",
			setup: func(g *fakeGateway) {
				g.historyErr = errGateway
				g.optionErr = errGateway
				g.fastErr = errGateway
			},
			wantPrice:  1.5,
			wantSource: models.PriceSourceCostBasis,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			seedLedger(t, env, func(p *models.Portfolio) {
				p.Cash = dec(99700)
				p.OptionPositions[contract] = models.OptionPosition{Quantity: dec(2), AvgCost: dec(1.5)}
			})
			tt.setup(env.gateway)

			v, err := env.svc.GetValuation(context.Background(), "paper")
			require.NoError(t, err)
			require.Len(t, v.Options, 1)

			ov := v.Options[0]
			assert.Equal(t, tt.wantSource, ov.PriceSource)
			assert.InDelta(t, tt.wantPrice, ov.CurrentPrice, 1e-9)
			assert.InDelta(t, 2*tt.wantPrice*100, ov.MarketValue, 1e-9)
			assert.InDelta(t, 300, ov.CostBasis, 1e-9)
			assert.InDelta(t, ov.MarketValue, v.OptionsValue, 1e-9)
			assert.Zero(t, v.DailyPL, "options carry no daily P&L")
		})
	}
}

func TestDiscoverPrice_StopsAtFirstSuccess(t *testing.T) {
	var calls []string
	lookup := func(name string, price float64, ok bool) priceLookup {
		return func(context.Context, string) (float64, models.PriceSource, bool) {
			calls = append(calls, name)
			return price, models.PriceSource(name), ok
		}
	}

	price, source := discoverPrice(context.Background(), "C", []priceLookup{
		lookup("a", 0, false),
		lookup("b", 3, true),
		lookup("c", 4, true),
	})
	assert.Equal(t, 3.0, price)
	assert.Equal(t, models.PriceSource("b"), source)
	assert.Equal(t, []string{"a", "b"}, calls)

	price, source = discoverPrice(context.Background(), "C", nil)
	assert.Zero(t, price)
	assert.True(t, source.Degraded())
}

func TestHistoryLookup_UsesShortHorizon(t *testing.T) {
	env := newTestEnv(t)
	_, _, ok := env.svc.historyLookup(context.Background(), "C")
	assert.False(t, ok)
	assert.True(t, env.gateway.lastHistoryTo.Equal(env.clock))
	assert.WithinDuration(t, env.clock, env.gateway.lastHistoryTo, time.Second)
}
