package portfolio

import (
	"bytes"
	"testing"

	"github.com/bobmcallan/paperledger/internal/models"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G'}

func TestRenderNAVChart(t *testing.T) {
	h := &models.NAVHistory{
		LedgerID: "paper",
		Summary:  models.NAVSummary{Period: "1m", StartValue: 100000},
		Points: []models.NAVPoint{
			{Date: day(2026, 3, 1), Value: 100000},
			{Date: day(2026, 3, 2), Value: 100450},
			{Date: day(2026, 3, 3), Value: 99800},
		},
	}

	png, err := RenderNAVChart(h)
	if err != nil {
		t.Fatalf("RenderNAVChart: %v", err)
	}
	if !bytes.HasPrefix(png, pngHeader) {
		t.Error("output is not a PNG")
	}
}

func TestRenderNAVChart_FlatSeries(t *testing.T) {
	h := &models.NAVHistory{
		LedgerID: "paper",
		Summary:  models.NAVSummary{Period: "ytd", StartValue: 100000},
		Points: []models.NAVPoint{
			{Date: day(2026, 3, 1), Value: 100000},
			{Date: day(2026, 3, 2), Value: 100000},
		},
	}

	if _, err := RenderNAVChart(h); err != nil {
		t.Fatalf("flat series should render: %v", err)
	}
}

func TestRenderNAVChart_TooFewPoints(t *testing.T) {
	h := &models.NAVHistory{Points: []models.NAVPoint{{Date: day(2026, 3, 1), Value: 1}}}
	if _, err := RenderNAVChart(h); err == nil {
		t.Error("expected error for a single point")
	}
}
