package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/bobmcallan/paperledger/internal/app"
	"github.com/bobmcallan/paperledger/internal/models"
	"github.com/bobmcallan/paperledger/internal/services/report"
)

type stockTrade func(a *app.App) func(ctx context.Context, ledgerID, symbol string, shares float64) (*models.TradeResult, error)

// runStockTrade parses "<symbol> <shares>" and executes the trade.
func runStockTrade(ctx context.Context, f *flag.FlagSet, trade stockTrade) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(stderr, "Error: expected <symbol> <shares>")
		return subcommands.ExitUsageError
	}
	shares, err := parsePositive("shares", f.Arg(1))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	return withApp(func(a *app.App) error {
		result, err := trade(a)(ctx, *ledgerFlag, f.Arg(0), shares)
		if err != nil {
			return err
		}
		printMarkdown(report.FormatTradeResult(result, a.Config.Ledger.Currency))
		return nil
	})
}

type buyCmd struct{}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "buy shares at the live price" }
func (*buyCmd) Usage() string {
	return `paperledger [-ledger <id>] buy <symbol> <shares>

  Buys shares at the current quote (previous close when the market is shut).
`
}
func (*buyCmd) SetFlags(*flag.FlagSet) {}

func (*buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return runStockTrade(ctx, f, func(a *app.App) func(context.Context, string, string, float64) (*models.TradeResult, error) {
		return a.PortfolioService.Buy
	})
}

type sellCmd struct{}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell shares of an open position" }
func (*sellCmd) Usage() string {
	return `paperledger [-ledger <id>] sell <symbol> <shares>

  Sells shares at the current quote. The position closes when it reaches zero.
`
}
func (*sellCmd) SetFlags(*flag.FlagSet) {}

func (*sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return runStockTrade(ctx, f, func(a *app.App) func(context.Context, string, string, float64) (*models.TradeResult, error) {
		return a.PortfolioService.Sell
	})
}

// optionFlags holds the premium override shared by both option commands.
type optionFlags struct {
	premium float64
}

func (o *optionFlags) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&o.premium, "premium", 0, "Per-share premium; 0 discovers it from the option quote")
}

type optionTrade func(a *app.App) func(ctx context.Context, ledgerID, contract string, quantity, premium float64) (*models.TradeResult, error)

func (o *optionFlags) run(ctx context.Context, f *flag.FlagSet, trade optionTrade) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(stderr, "Error: expected <contract> <contracts>")
		return subcommands.ExitUsageError
	}
	qty, err := parsePositive("contracts", f.Arg(1))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	return withApp(func(a *app.App) error {
		result, err := trade(a)(ctx, *ledgerFlag, strings.TrimSpace(f.Arg(0)), qty, o.premium)
		if err != nil {
			return err
		}
		printMarkdown(report.FormatTradeResult(result, a.Config.Ledger.Currency))
		return nil
	})
}

type buyOptionCmd struct{ optionFlags }

func (*buyOptionCmd) Name() string     { return "buy-option" }
func (*buyOptionCmd) Synopsis() string { return "buy option contracts (100 shares each)" }
func (*buyOptionCmd) Usage() string {
	return `paperledger [-ledger <id>] buy-option [-premium <p>] <contract> <contracts>

  Buys whole option contracts. Without -premium the ask (then last) is used.
`
}

func (c *buyOptionCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, f, func(a *app.App) func(context.Context, string, string, float64, float64) (*models.TradeResult, error) {
		return a.PortfolioService.BuyOption
	})
}

type sellOptionCmd struct{ optionFlags }

func (*sellOptionCmd) Name() string     { return "sell-option" }
func (*sellOptionCmd) Synopsis() string { return "sell option contracts from an open position" }
func (*sellOptionCmd) Usage() string {
	return `paperledger [-ledger <id>] sell-option [-premium <p>] <contract> <contracts>

  Sells whole option contracts. Without -premium the bid (then last) is used.
`
}

func (c *sellOptionCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, f, func(a *app.App) func(context.Context, string, string, float64, float64) (*models.TradeResult, error) {
		return a.PortfolioService.SellOption
	})
}
