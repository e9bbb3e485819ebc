// Package common provides shared utilities for paperledger
package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for paperledger
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Ledger      LedgerConfig  `toml:"ledger"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LedgerConfig holds paper ledger behaviour
type LedgerConfig struct {
	DefaultID      string             `toml:"default_id"`
	StartingCash   float64            `toml:"starting_cash"`
	Currency       string             `toml:"currency"`       // display currency for amounts, e.g. "USD"
	RecentTrades   int                `toml:"recent_trades"`  // cap on trade records surfaced
	HistoryPeriod  string             `toml:"history_period"` // default NAV window keyword
	PriceTimeout   string             `toml:"price_timeout"`  // per gateway call
	StartingCashBy map[string]float64 `toml:"starting_cash_by_ledger"`
}

// GetPriceTimeout parses and returns the per-call gateway timeout
func (c *LedgerConfig) GetPriceTimeout() time.Duration {
	d, err := time.ParseDuration(c.PriceTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// StartingCashFor returns the starting balance for a ledger id, honouring per-ledger overrides.
func (c *LedgerConfig) StartingCashFor(ledgerID string) float64 {
	if v, ok := c.StartingCashBy[ledgerID]; ok && v > 0 {
		return v
	}
	return c.StartingCash
}

// StorageConfig selects the ledger and snapshot backends.
type StorageConfig struct {
	Backend         string          `toml:"backend"`          // ledger store: "file", "surrealdb", "memory"
	SnapshotBackend string          `toml:"snapshot_backend"` // snapshot series: "sqlite", "surrealdb", "memory"
	File            FileConfig      `toml:"file"`
	SQLite          SQLiteConfig    `toml:"sqlite"`
	SurrealDB       SurrealDBConfig `toml:"surrealdb"`
}

// FileConfig holds the directory for JSON ledger documents.
type FileConfig struct {
	Path     string `toml:"path"`
	Versions int    `toml:"versions"` // previous copies kept per ledger, 0 disables
}

// SQLiteConfig holds the snapshot database location.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// SurrealDBConfig holds SurrealDB connection settings.
type SurrealDBConfig struct {
	Address   string `toml:"address"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	RateLimit  int    `toml:"rate_limit"`
	Timeout    string `toml:"timeout"`
	Exchange   string `toml:"exchange"`    // suffix applied to bare symbols, e.g. "US"
	OptionPath string `toml:"option_path"` // options quote endpoint
	QuoteBatch int    `toml:"quote_batch"` // tickers per /real-time request, 0 = all
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Format   string   `toml:"format"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Ledger: LedgerConfig{
			DefaultID:     "paper",
			StartingCash:  100000,
			Currency:      "USD",
			RecentTrades:  50,
			HistoryPeriod: "ytd",
			PriceTimeout:  "10s",
			StartingCashBy: map[string]float64{
				"predictions": 10000,
			},
		},
		Storage: StorageConfig{
			Backend:         "file",
			SnapshotBackend: "sqlite",
			File:            FileConfig{Path: "data/ledgers", Versions: 3},
			SQLite:          SQLiteConfig{Path: "data/paperledger.db"},
			SurrealDB: SurrealDBConfig{
				Address:   "ws://localhost:8000/rpc",
				Username:  "root",
				Password:  "root",
				Namespace: "paperledger",
				Database:  "ledger",
			},
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:    "https://eodhd.com/api",
				RateLimit:  10,
				Timeout:    "30s",
				Exchange:   "US",
				OptionPath: "/mp/unicornbay/options/contracts",
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "console",
			Outputs:  []string{"console"},
			FilePath: "./logs/paperledger.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// A .env file in the working directory is loaded first; it never overrides
// variables already set in the process environment.
func LoadConfig(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	validateLedger(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PAPERLEDGER_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("PAPERLEDGER_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("PAPERLEDGER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("PAPERLEDGER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("PAPERLEDGER_DATA_PATH"); path != "" {
		config.Storage.File.Path = filepath.Join(path, "ledgers")
		config.Storage.SQLite.Path = filepath.Join(path, "paperledger.db")
	}

	if backend := os.Getenv("PAPERLEDGER_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = strings.ToLower(backend)
	}

	if backend := os.Getenv("PAPERLEDGER_SNAPSHOT_BACKEND"); backend != "" {
		config.Storage.SnapshotBackend = strings.ToLower(backend)
	}

	if addr := os.Getenv("PAPERLEDGER_SURREALDB_ADDRESS"); addr != "" {
		config.Storage.SurrealDB.Address = addr
	}

	if cash := os.Getenv("PAPERLEDGER_STARTING_CASH"); cash != "" {
		if v, err := strconv.ParseFloat(cash, 64); err == nil {
			config.Ledger.StartingCash = v
		}
	}

	if key := os.Getenv("EODHD_API_KEY"); key != "" {
		config.Clients.EODHD.APIKey = key
	}
}

// validateLedger normalises ledger settings that downstream code relies on.
func validateLedger(config *Config) {
	if strings.TrimSpace(config.Ledger.DefaultID) == "" {
		config.Ledger.DefaultID = "paper"
	}
	if config.Ledger.StartingCash <= 0 {
		config.Ledger.StartingCash = 100000
	}
	config.Ledger.Currency = strings.ToUpper(strings.TrimSpace(config.Ledger.Currency))
	if config.Ledger.Currency == "" {
		config.Ledger.Currency = "USD"
	}
	if config.Ledger.RecentTrades <= 0 {
		config.Ledger.RecentTrades = 50
	}
	if config.Ledger.HistoryPeriod == "" {
		config.Ledger.HistoryPeriod = "ytd"
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
