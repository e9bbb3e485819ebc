// Package app wires configuration, storage, the price gateway and the
// ledger service. It is the shared core of cmd/paperledger-server and
// cmd/paperledger.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/paperledger/internal/clients/eodhd"
	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/interfaces"
	"github.com/bobmcallan/paperledger/internal/services/portfolio"
	"github.com/bobmcallan/paperledger/internal/storage"
)

// ConfigEnvVar names the environment variable holding an explicit config path.
const ConfigEnvVar = "PAPERLEDGER_CONFIG"

// App holds all initialized services and clients.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	Prices           interfaces.PriceGateway
	PortfolioService interfaces.PortfolioService
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath picks the config file: explicit path, PAPERLEDGER_CONFIG,
// paperledger.toml next to the binary, then config/paperledger.toml.
func resolveConfigPath(configPath, binDir string) string {
	if configPath == "" {
		configPath = os.Getenv(ConfigEnvVar)
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "paperledger.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = filepath.Join("config", "paperledger.toml")
		}
	}
	return configPath
}

// resolvePaths anchors relative data and log paths to dir.
func resolvePaths(config *common.Config, dir string) {
	for _, p := range []*string{
		&config.Storage.File.Path,
		&config.Storage.SQLite.Path,
		&config.Logging.FilePath,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// NewApp loads configuration and initializes every component.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	binDir := getBinaryDir()
	config, err := common.LoadConfig(resolveConfigPath(configPath, binDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	resolvePaths(config, binDir)

	return NewAppWithConfig(config, common.NewLoggerFromConfig(config.Logging))
}

// NewAppWithConfig initializes every component from an already loaded config.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if config.Clients.EODHD.APIKey == "" {
		logger.Warn().Msg("EODHD API key not configured - live prices will be unavailable and trades will be rejected")
	}
	prices := eodhd.NewClientFromConfig(&config.Clients.EODHD, logger)

	portfolioService := portfolio.NewService(storageManager, prices, &config.Ledger, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		Prices:           prices,
		PortfolioService: portfolioService,
		StartupTime:      startupStart,
	}

	logger.Info().
		Str("storage", config.StorageSummary()).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// Close releases storage handles.
func (a *App) Close() {
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}
