package portfolio

import (
	"math"

	"github.com/bobmcallan/paperledger/internal/models"
)

// cumulativeReturn is wealthGenerated / startValue × 100. A zero start value
// yields 0 when nothing was generated and ±Inf otherwise.
func cumulativeReturn(startValue, wealthGenerated float64) models.Percent {
	if startValue == 0 {
		switch {
		case wealthGenerated > 0:
			return models.Percent(math.Inf(1))
		case wealthGenerated < 0:
			return models.Percent(math.Inf(-1))
		default:
			return 0
		}
	}
	return models.Percent(wealthGenerated / startValue * 100)
}

// annualizedReturn scales a cumulative return to a yearly rate: unchanged for
// windows of zero days, linear below a year, compound from a year upward.
func annualizedReturn(cumulative models.Percent, days int) models.Percent {
	if days <= 0 || !cumulative.IsFinite() {
		return cumulative
	}
	c := float64(cumulative)
	if days < 365 {
		return models.Percent(c * 365 / float64(days))
	}
	growth := 1 + c/100
	if growth <= 0 {
		return -100
	}
	return models.Percent((math.Pow(growth, 365/float64(days)) - 1) * 100)
}

// summarize builds the NAV summary for a reconstructed series.
func summarize(w Window, startValue float64, points []models.NAVPoint) models.NAVSummary {
	endValue := startValue
	if len(points) > 0 {
		endValue = points[len(points)-1].Value
	}

	const netContributions = 0.0
	wealth := endValue - startValue - netContributions
	cumulative := cumulativeReturn(startValue, wealth)

	return models.NAVSummary{
		Period:              w.Period,
		StartDate:           w.Start,
		EndDate:             w.End,
		Days:                w.Days(),
		StartValue:          startValue,
		EndValue:            endValue,
		NetContributions:    netContributions,
		WealthGenerated:     wealth,
		CumulativeReturnPct: cumulative,
		AnnualizedReturnPct: annualizedReturn(cumulative, w.Days()),
		Unbounded:           !cumulative.IsFinite(),
	}
}
