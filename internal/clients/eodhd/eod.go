package eodhd

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"time"

	"github.com/bobmcallan/paperledger/internal/models"
)

// occContract matches OCC option symbols such as AAPL260116C00200000.
var occContract = regexp.MustCompile(`^[A-Z]{1,6}\d{6}[CP]\d{8}$`)

// IsOptionContract reports whether symbol is an OCC option contract.
func IsOptionContract(symbol string) bool {
	return occContract.MatchString(symbol)
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date  string      `json:"date"`
	Close flexFloat64 `json:"close"`
}

// GetHistoricalCloses returns ascending daily closes per symbol over [from, to].
// Option contracts are read from the options EOD endpoint. A symbol whose
// request fails is logged and omitted; the call fails only when every symbol fails.
func (c *Client) GetHistoricalCloses(ctx context.Context, symbols []string, from, to time.Time) (map[string][]models.ClosePoint, error) {
	result := make(map[string][]models.ClosePoint, len(symbols))
	var lastErr error

	for _, sym := range symbols {
		var (
			points []models.ClosePoint
			err    error
		)
		if IsOptionContract(sym) {
			points, err = c.optionCloses(ctx, sym, from, to)
		} else {
			points, err = c.stockCloses(ctx, sym, from, to)
		}
		if err != nil {
			lastErr = err
			c.logger.Warn().Err(err).Str("symbol", sym).Msg("Historical closes unavailable")
			continue
		}
		result[sym] = points
	}

	if len(result) == 0 && lastErr != nil {
		return nil, fmt.Errorf("historical closes unavailable: %w", lastErr)
	}
	return result, nil
}

func (c *Client) stockCloses(ctx context.Context, symbol string, from, to time.Time) ([]models.ClosePoint, error) {
	params := url.Values{}
	params.Set("period", "d")
	params.Set("order", "a")
	if !from.IsZero() {
		params.Set("from", from.Format(models.DateLayout))
	}
	if !to.IsZero() {
		params.Set("to", to.Format(models.DateLayout))
	}

	var bars []eodBarResponse
	if err := c.get(ctx, "/eod/"+url.PathEscape(c.ticker(symbol)), params, &bars); err != nil {
		return nil, err
	}
	return toClosePoints(bars), nil
}

// toClosePoints drops malformed or non-positive rows and sorts ascending.
func toClosePoints(bars []eodBarResponse) []models.ClosePoint {
	points := make([]models.ClosePoint, 0, len(bars))
	for _, bar := range bars {
		date, err := time.Parse(models.DateLayout, bar.Date)
		if err != nil || !models.ValidPrice(float64(bar.Close)) {
			continue
		}
		points = append(points, models.ClosePoint{Date: date, Close: float64(bar.Close)})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}
