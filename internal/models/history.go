package models

import (
	"math"
	"strconv"
	"time"
)

// Percent is a percentage that may be unbounded. Non-finite values encode as JSON null.
type Percent float64

// IsFinite reports whether the percentage is a real number.
func (p Percent) IsFinite() bool {
	f := float64(p)
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.IsFinite() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(p), 'f', -1, 64), nil
}

// NAVPoint is the reconstructed total value on one calendar day.
type NAVPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// NAVSummary describes the return over a reconstructed window.
// NetContributions is always zero; external deposits are not tracked.
type NAVSummary struct {
	Period              string    `json:"period"`
	StartDate           time.Time `json:"start_date"`
	EndDate             time.Time `json:"end_date"`
	Days                int       `json:"days"`
	StartValue          float64   `json:"start_value"`
	EndValue            float64   `json:"end_value"`
	NetContributions    float64   `json:"net_contributions"`
	WealthGenerated     float64   `json:"wealth_generated"`
	CumulativeReturnPct Percent   `json:"cumulative_return_pct"`
	AnnualizedReturnPct Percent   `json:"annualized_return_pct"`
	Unbounded           bool      `json:"unbounded"` // start value 0 with wealth generated
}

// NAVHistory is a reconstructed daily NAV series with its summary.
type NAVHistory struct {
	LedgerID string     `json:"ledger_id"`
	Summary  NAVSummary `json:"summary"`
	Points   []NAVPoint `json:"points"`
}
