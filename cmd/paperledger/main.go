// Command paperledger trades and reports on paper ledgers from the terminal.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

var (
	configPath = flag.String("config", "", "Path to paperledger.toml (defaults to $PAPERLEDGER_CONFIG, then the binary dir, then config/)")
	ledgerFlag = flag.String("ledger", "", "Ledger id (defaults to [ledger].default_id)")
	rawOutput  = flag.Bool("raw", false, "Print Markdown without terminal rendering")
)

// register adds every subcommand to the commander.
func register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&buyCmd{}, "trading")
	c.Register(&sellCmd{}, "trading")
	c.Register(&buyOptionCmd{}, "trading")
	c.Register(&sellOptionCmd{}, "trading")

	c.Register(&portfolioCmd{}, "reports")
	c.Register(&historyCmd{}, "reports")
	c.Register(&tradesCmd{}, "reports")
	c.Register(&snapshotsCmd{}, "reports")

	c.Register(&resetCmd{}, "admin")
	c.Register(&versionCmd{}, "admin")
}

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
