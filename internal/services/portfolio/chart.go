package portfolio

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/paperledger/internal/models"
)

// RenderNAVChart renders a PNG line chart of a reconstructed NAV series.
// Two series: NAV (blue solid) and the window's start value (gray dashed).
func RenderNAVChart(history *models.NAVHistory) ([]byte, error) {
	points := history.Points
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(points))
	}

	xValues := make([]time.Time, len(points))
	navY := make([]float64, len(points))
	baseY := make([]float64, len(points))

	for i, p := range points {
		xValues[i] = p.Date
		navY[i] = p.Value
		baseY[i] = history.Summary.StartValue
	}

	navSeries := chart.TimeSeries{
		Name: "NAV",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"),
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: navY,
	}

	baseSeries := chart.TimeSeries{
		Name: "Start Value",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"),
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: xValues,
		YValues: baseY,
	}

	dateFormat := "Jan 02"
	if len(points) > 120 {
		dateFormat = "Jan 06"
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s NAV (%s)", history.LedgerID, history.Summary.Period),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format(dateFormat)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1fk", f/1000)
				}
				return ""
			},
		},
		Series: []chart.Series{navSeries, baseSeries},
	}

	// a flat series has a zero-height range, which go-chart refuses to draw
	if lo, hi := valueBounds(navY, baseY); hi-lo < 1e-9 {
		graph.YAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func valueBounds(series ...[]float64) (lo, hi float64) {
	first := true
	for _, ys := range series {
		for _, y := range ys {
			if first || y < lo {
				lo = y
			}
			if first || y > hi {
				hi = y
			}
			first = false
		}
	}
	return lo, hi
}
