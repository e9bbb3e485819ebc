package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/interfaces"
	"github.com/bobmcallan/paperledger/internal/models"
)

// FileLedgerStore keeps one JSON document per ledger under basePath, with
// optional rotated backups (<id>.json.v1 .. vN).
type FileLedgerStore struct {
	basePath string
	versions int
	logger   *common.Logger
}

// NewFileLedgerStore creates the store directory if needed.
func NewFileLedgerStore(logger *common.Logger, config *common.FileConfig) (*FileLedgerStore, error) {
	versions := config.Versions
	if versions < 0 {
		versions = 0
	}
	if err := os.MkdirAll(config.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", config.Path, err)
	}

	logger.Debug().Str("path", config.Path).Int("versions", versions).Msg("File ledger store opened")
	return &FileLedgerStore{basePath: config.Path, versions: versions, logger: logger}, nil
}

// sanitizeKey makes a ledger id safe for use as a filename.
func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func (fs *FileLedgerStore) filePath(ledgerID string) string {
	return filepath.Join(fs.basePath, sanitizeKey(ledgerID)+".json")
}

func (fs *FileLedgerStore) Get(_ context.Context, ledgerID string) (*models.Portfolio, error) {
	path := fs.filePath(ledgerID)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("ledger '%s': %w", ledgerID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("ledger '%s' is empty: %w", ledgerID, models.ErrNotFound)
	}

	var p models.Portfolio
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	p.Normalize()
	if p.LedgerID == "" {
		p.LedgerID = ledgerID
	}
	return &p, nil
}

// Save writes the ledger atomically: temp file in the same directory, then rename.
func (fs *FileLedgerStore) Save(_ context.Context, portfolio *models.Portfolio) error {
	if portfolio.LedgerID == "" {
		return fmt.Errorf("ledger id is required")
	}
	target := fs.filePath(portfolio.LedgerID)

	jsonData, err := json.MarshalIndent(portfolio, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	tmpFile, err := os.CreateTemp(fs.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if fs.versions > 0 {
		fs.rotateVersions(target)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// rotateVersions shifts backups up by one and copies the current document to v1.
// The current file stays in place until the rename in Save replaces it.
func (fs *FileLedgerStore) rotateVersions(target string) {
	os.Remove(fmt.Sprintf("%s.v%d", target, fs.versions))

	for i := fs.versions; i > 1; i-- {
		os.Rename(fmt.Sprintf("%s.v%d", target, i-1), fmt.Sprintf("%s.v%d", target, i))
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return
	}
	if err := os.WriteFile(target+".v1", data, 0644); err != nil {
		fs.logger.Warn().Err(err).Str("path", target).Msg("Failed to write ledger backup")
	}
}

// List returns ledger ids with a stored document, sorted.
func (fs *FileLedgerStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(fs.basePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", fs.basePath, err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		// Only .json files, not .json.vN backups or .tmp-* files
		if strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".tmp-") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (fs *FileLedgerStore) Close() error { return nil }

var _ interfaces.LedgerStore = (*FileLedgerStore)(nil)
