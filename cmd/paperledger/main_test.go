package main

import (
	"bytes"
	"context"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/paperledger/internal/app"
	"github.com/bobmcallan/paperledger/internal/common"
)

// cli runs commands against one shared in-memory app and captures output.
type cli struct {
	t      *testing.T
	app    *app.App
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	eodhd := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/real-time/AAPL.US" {
			w.Write([]byte(`{"code":"AAPL.US","close":100,"previousClose":98}`))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(eodhd.Close)

	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = "memory"
	cfg.Storage.SnapshotBackend = "memory"
	cfg.Clients.EODHD.BaseURL = eodhd.URL
	cfg.Clients.EODHD.APIKey = "test-key"

	a, err := app.NewAppWithConfig(cfg, common.NewSilentLogger())
	require.NoError(t, err)

	c := &cli{t: t, app: a}

	prevOpen, prevOut, prevErr, prevRaw := openApp, stdout, stderr, *rawOutput
	// the shared app outlives each command; withApp's Close is a no-op on memory stores
	openApp = func() (*app.App, error) { return a, nil }
	stdout, stderr = &c.stdout, &c.stderr
	*rawOutput = true
	t.Cleanup(func() {
		openApp, stdout, stderr, *rawOutput = prevOpen, prevOut, prevErr, prevRaw
	})
	return c
}

func (c *cli) run(args ...string) subcommands.ExitStatus {
	c.t.Helper()
	c.stdout.Reset()
	c.stderr.Reset()

	fs := flag.NewFlagSet("paperledger", flag.ContinueOnError)
	commander := subcommands.NewCommander(fs, "paperledger")
	register(commander)
	require.NoError(c.t, fs.Parse(args))
	return commander.Execute(context.Background())
}

func TestCLI_BuySellAndReport(t *testing.T) {
	c := newCLI(t)

	require.Equal(t, subcommands.ExitSuccess, c.run("buy", "AAPL", "10"), c.stderr.String())
	assert.Contains(t, c.stdout.String(), "## BUY 10 AAPL")
	assert.Contains(t, c.stdout.String(), "$99,000.00")

	require.Equal(t, subcommands.ExitSuccess, c.run("portfolio"))
	assert.Contains(t, c.stdout.String(), "| AAPL | 10 |")
	assert.Contains(t, c.stdout.String(), "**Day Change:** +$20.00")

	require.Equal(t, subcommands.ExitSuccess, c.run("sell", "AAPL", "4"))
	assert.Contains(t, c.stdout.String(), "## SELL 4 AAPL")

	require.Equal(t, subcommands.ExitSuccess, c.run("trades"))
	assert.Contains(t, c.stdout.String(), "| SELL | AAPL |")

	require.Equal(t, subcommands.ExitSuccess, c.run("snapshots"))
	assert.Contains(t, c.stdout.String(), "$100,000.00")
}

func TestCLI_Rejections(t *testing.T) {
	c := newCLI(t)

	assert.Equal(t, subcommands.ExitFailure, c.run("sell", "AAPL", "1"))
	assert.Contains(t, c.stderr.String(), "no open position")

	assert.Equal(t, subcommands.ExitUsageError, c.run("buy", "AAPL"))
	assert.Equal(t, subcommands.ExitUsageError, c.run("buy", "AAPL", "-3"))
	assert.Equal(t, subcommands.ExitUsageError, c.run("reset"), "reset needs -yes")
}

func TestCLI_OptionWithPremium(t *testing.T) {
	c := newCLI(t)

	status := c.run("buy-option", "-premium", "2.5", "AAPL260116C00200000", "2")
	require.Equal(t, subcommands.ExitSuccess, status, c.stderr.String())
	assert.Contains(t, c.stdout.String(), "$500.00")
	assert.Contains(t, c.stdout.String(), "(caller)")

	status = c.run("sell-option", "AAPL260116C00200000", "1")
	assert.Equal(t, subcommands.ExitFailure, status, "no option quote to discover a bid")
}

func TestCLI_ResetAndHistoryChart(t *testing.T) {
	c := newCLI(t)

	require.Equal(t, subcommands.ExitSuccess, c.run("buy", "AAPL", "1"))
	require.Equal(t, subcommands.ExitSuccess, c.run("reset", "-yes"))
	assert.Contains(t, c.stdout.String(), "reset to $100,000.00")

	require.Equal(t, subcommands.ExitSuccess, c.run("history", "-p", "1m"))
	assert.Contains(t, c.stdout.String(), "# NAV History: paper (1m)")

	chart := filepath.Join(t.TempDir(), "nav.png")
	assert.Equal(t, subcommands.ExitFailure, c.run("history", "-chart", chart), "empty series cannot be charted")
	_, err := os.Stat(chart)
	assert.True(t, os.IsNotExist(err))
}

func TestCLI_Version(t *testing.T) {
	c := newCLI(t)
	require.Equal(t, subcommands.ExitSuccess, c.run("version"))
	assert.Contains(t, c.stdout.String(), common.Version)
}
