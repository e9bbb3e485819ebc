package models

import "time"

// LedgerRecord is the stored document form of a Portfolio. Value holds the
// JSON-encoded ledger; Version increments on every save.
type LedgerRecord struct {
	LedgerID string    `json:"ledger_id"`
	Value    string    `json:"value"`
	Version  int       `json:"version"`
	DateTime time.Time `json:"datetime"`
}

// Snapshot is one sample of the per-ledger total value series.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}
