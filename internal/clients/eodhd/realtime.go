package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/models"
)

// realTimeResponse is one element of the /real-time payload
type realTimeResponse struct {
	Code          string      `json:"code"`
	Timestamp     flexInt64   `json:"timestamp"`
	Close         flexFloat64 `json:"close"`
	PreviousClose flexFloat64 `json:"previousClose"`
}

type cachedQuote struct {
	quote   models.Quote
	fetched time.Time
}

// decodeRealTime accepts both the single-object and array response shapes.
func decodeRealTime(raw json.RawMessage) ([]realTimeResponse, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var many []realTimeResponse
		if err := json.Unmarshal(raw, &many); err != nil {
			return nil, fmt.Errorf("failed to decode real-time array: %w", err)
		}
		return many, nil
	}
	var one realTimeResponse
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("failed to decode real-time object: %w", err)
	}
	return []realTimeResponse{one}, nil
}

// GetQuote retrieves the live quote for one symbol
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	quotes, err := c.GetQuotes(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	q, ok := quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("no quote returned for %s", symbol)
	}
	return q, nil
}

// GetQuotes retrieves live quotes in a single /real-time request, or one per
// quoteBatch tickers when a batch size is configured. Fresh cached quotes are
// served without a request.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) (map[string]*models.Quote, error) {
	result := make(map[string]*models.Quote, len(symbols))
	byTicker := make(map[string]string)
	var pending []string

	c.cacheMu.Lock()
	for _, sym := range symbols {
		if _, seen := byTicker[c.ticker(sym)]; seen {
			continue
		}
		if cq, ok := c.quotes[sym]; ok && common.IsFresh(cq.fetched, common.FreshnessQuote) {
			q := cq.quote
			result[sym] = &q
			continue
		}
		tk := c.ticker(sym)
		byTicker[tk] = sym
		pending = append(pending, tk)
	}
	c.cacheMu.Unlock()

	size := c.quoteBatch
	if size <= 0 || size > len(pending) {
		size = len(pending)
	}
	for start := 0; start < len(pending); start += size {
		end := start + size
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		params := url.Values{}
		if len(batch) > 1 {
			params.Set("s", strings.Join(batch[1:], ","))
		}

		var raw json.RawMessage
		if err := c.get(ctx, "/real-time/"+url.PathEscape(batch[0]), params, &raw); err != nil {
			return nil, err
		}
		rows, err := decodeRealTime(raw)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		for _, row := range rows {
			sym, ok := byTicker[row.Code]
			if !ok && len(batch) == 1 && row.Code == "" {
				sym, ok = byTicker[batch[0]], true
			}
			if !ok {
				c.logger.Debug().Str("code", row.Code).Msg("Ignoring unrequested real-time row")
				continue
			}
			q := models.Quote{
				Symbol:        sym,
				Price:         float64(row.Close),
				PreviousClose: float64(row.PreviousClose),
				Timestamp:     now,
			}
			if row.Timestamp > 0 {
				q.Timestamp = time.Unix(int64(row.Timestamp), 0)
			}
			result[sym] = &q

			c.cacheMu.Lock()
			c.quotes[sym] = cachedQuote{quote: q, fetched: now}
			c.cacheMu.Unlock()
		}
	}

	return result, nil
}

// GetFastLastPrice reads the real-time close for a contract ticker. It is the
// cheapest lookup and often empty for options; 0 means absent.
func (c *Client) GetFastLastPrice(ctx context.Context, contract string) (float64, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/real-time/"+url.PathEscape(c.ticker(contract)), nil, &raw); err != nil {
		return 0, err
	}
	rows, err := decodeRealTime(raw)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	price := float64(rows[0].Close)
	if !models.ValidPrice(price) {
		return 0, nil
	}
	return price, nil
}
