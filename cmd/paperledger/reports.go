package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/bobmcallan/paperledger/internal/app"
	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/services/portfolio"
	"github.com/bobmcallan/paperledger/internal/services/report"
)

type portfolioCmd struct{}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "mark the ledger to market" }
func (*portfolioCmd) Usage() string {
	return `paperledger [-ledger <id>] portfolio

  Values every open stock and option position at current prices.
`
}
func (*portfolioCmd) SetFlags(*flag.FlagSet) {}

func (*portfolioCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app.App) error {
		v, err := a.PortfolioService.GetValuation(ctx, *ledgerFlag)
		if err != nil {
			return err
		}
		printMarkdown(report.FormatValuation(v))
		return nil
	})
}

type historyCmd struct {
	period string
	rows   int
	chart  string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "reconstruct the daily NAV series" }
func (*historyCmd) Usage() string {
	return `paperledger [-ledger <id>] history [-p <period>] [-rows <n>] [-chart <file.png>]

  Replays the transaction log against historical closes.
  Periods: 1m, 3m, 1y, ytd, all (max).
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "p", "", "Window keyword; defaults to [ledger].history_period")
	f.IntVar(&c.rows, "rows", 30, "Maximum table rows; 0 prints every day")
	f.StringVar(&c.chart, "chart", "", "Also write a PNG chart to this path")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app.App) error {
		h, err := a.PortfolioService.GetHistory(ctx, *ledgerFlag, c.period)
		if err != nil {
			return err
		}
		printMarkdown(report.FormatHistory(h, a.Config.Ledger.Currency, c.rows))

		if c.chart == "" {
			return nil
		}
		png, err := portfolio.RenderNAVChart(h)
		if err != nil {
			return err
		}
		if err := os.WriteFile(c.chart, png, 0644); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}
		fmt.Fprintf(stderr, "Chart written to %s\n", c.chart)
		return nil
	})
}

type tradesCmd struct {
	n int
}

func (*tradesCmd) Name() string     { return "trades" }
func (*tradesCmd) Synopsis() string { return "list recent trades" }
func (*tradesCmd) Usage() string {
	return `paperledger [-ledger <id>] trades [-n <count>]

  Lists the most recent trade records, newest first.
`
}

func (c *tradesCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.n, "n", 0, "Number of trades; 0 uses [ledger].recent_trades")
}

func (c *tradesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app.App) error {
		p, err := a.PortfolioService.GetPortfolio(ctx, *ledgerFlag)
		if err != nil {
			return err
		}
		trades, err := a.PortfolioService.GetRecentTrades(ctx, p.LedgerID, c.n)
		if err != nil {
			return err
		}
		printMarkdown(report.FormatTrades(p.LedgerID, trades, a.Config.Ledger.Currency))
		return nil
	})
}

type snapshotsCmd struct{}

func (*snapshotsCmd) Name() string     { return "snapshots" }
func (*snapshotsCmd) Synopsis() string { return "list the recorded book-value series" }
func (*snapshotsCmd) Usage() string {
	return `paperledger [-ledger <id>] snapshots

  Lists every book-value snapshot recorded after trades and resets.
`
}
func (*snapshotsCmd) SetFlags(*flag.FlagSet) {}

func (*snapshotsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app.App) error {
		id := *ledgerFlag
		if id == "" {
			id = a.Config.Ledger.DefaultID
		}
		snaps, err := a.PortfolioService.GetSnapshots(ctx, id)
		if err != nil {
			return err
		}
		printMarkdown(report.FormatSnapshots(id, snaps, a.Config.Ledger.Currency))
		return nil
	})
}

type resetCmd struct {
	yes bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "restore starting cash and clear the ledger" }
func (*resetCmd) Usage() string {
	return `paperledger [-ledger <id>] reset -yes

  Clears positions, trades and snapshots and restores starting cash.
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Confirm the reset")
}

func (c *resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		fmt.Fprintln(stderr, "Error: reset discards all trades; pass -yes to confirm")
		return subcommands.ExitUsageError
	}
	return withApp(func(a *app.App) error {
		p, err := a.PortfolioService.Reset(ctx, *ledgerFlag)
		if err != nil {
			return err
		}
		printMarkdown(report.FormatReset(p, a.Config.Ledger.Currency))
		return nil
	})
}

type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "print build information" }
func (*versionCmd) Usage() string          { return "paperledger version\n" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}

func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	common.LoadVersionFromFile()
	fmt.Fprintln(stdout, common.CurrentVersion().String())
	return subcommands.ExitSuccess
}
