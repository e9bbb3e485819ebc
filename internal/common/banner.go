package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

// StorageSummary describes the configured backends for display.
func (c *Config) StorageSummary() string {
	ledger := c.Storage.Backend
	switch ledger {
	case "file":
		ledger += ":" + c.Storage.File.Path
	case "surrealdb":
		ledger += ":" + c.Storage.SurrealDB.Address
	}
	snaps := c.Storage.SnapshotBackend
	switch snaps {
	case "sqlite":
		snaps += ":" + c.Storage.SQLite.Path
	case "surrealdb":
		snaps += ":" + c.Storage.SurrealDB.Address
	}
	return fmt.Sprintf("ledgers=%s snapshots=%s", ledger, snaps)
}

// PrintBanner displays the application startup banner to stderr.
func PrintBanner(config *Config, logger *Logger) {
	printBanner(os.Stderr, config)

	v := CurrentVersion()
	logger.Info().
		Str("version", v.Version).
		Str("build", v.Build).
		Str("commit", v.GitCommit).
		Str("environment", config.Environment).
		Str("service_url", serviceURL(config)).
		Str("storage", config.StorageSummary()).
		Str("default_ledger", config.Ledger.DefaultID).
		Msg("Application started")
}

func serviceURL(config *Config) string {
	return fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)
}

func printBanner(w io.Writer, config *Config) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 64) + banner.ColorReset

	art := []string{
		` ___  _   ___ ___ ___   _    ___ ___   ___ ___ ___ `,
		`| _ \/_\ | _ \ __| _ \ | |  | __|   \ / __| __| _ \`,
		`|  _/ _ \|  _/ _||   / | |__| _|| |) | (_ | _||   /`,
		`|_|/_/ \_\_| |___|_|_\ |____|___|___/ \___|___|_|_\`,
	}

	fmt.Fprintf(w, "\n%s\n\n", hr)
	for _, line := range art {
		fmt.Fprintf(w, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s  Paper trading ledger%s\n\n%s\n\n", textColor, banner.ColorReset, hr)

	v := CurrentVersion()
	kvLines := [][2]string{
		{"Version", v.Version},
		{"Build", v.Build},
		{"Commit", v.GitCommit},
		{"Environment", config.Environment},
		{"Service URL", serviceURL(config)},
		{"Storage", config.StorageSummary()},
		{"Ledger", fmt.Sprintf("%s (%s)", config.Ledger.DefaultID, config.Ledger.Currency)},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-16s %s%s\n", textColor, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n\n", hr)
}

// PrintShutdownBanner displays the application shutdown banner to stderr.
func PrintShutdownBanner(logger *Logger) {
	hr := banner.ColorCyan + strings.Repeat("═", 42) + banner.ColorReset
	fmt.Fprintf(os.Stderr, "\n%s\n%s  PAPER LEDGER SHUTTING DOWN%s\n%s\n\n",
		hr, banner.ColorBold+banner.ColorWhite, banner.ColorReset, hr)

	logger.Info().Msg("Application shutting down")
}
