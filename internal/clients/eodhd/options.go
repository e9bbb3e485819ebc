package eodhd

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/bobmcallan/paperledger/internal/models"
)

// optionContractResponse is the JSON:API envelope of the options endpoints
type optionContractResponse struct {
	Data []struct {
		Attributes optionAttributes `json:"attributes"`
	} `json:"data"`
}

type optionAttributes struct {
	Contract      string      `json:"contract"`
	Bid           flexFloat64 `json:"bid"`
	Ask           flexFloat64 `json:"ask"`
	Last          flexFloat64 `json:"last"`
	Close         flexFloat64 `json:"close"`
	PreviousClose flexFloat64 `json:"previous_close"`
	Previous      flexFloat64 `json:"previous"`
	TradeTime     string      `json:"tradetime"`
	Date          string      `json:"date"`
}

// GetOptionQuote retrieves bid/ask/last/previous close for one contract
func (c *Client) GetOptionQuote(ctx context.Context, contract string) (*models.OptionQuote, error) {
	params := url.Values{}
	params.Set("filter[contract]", contract)

	var resp optionContractResponse
	if err := c.get(ctx, c.optionPath, params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no option quote returned for %s", contract)
	}

	a := resp.Data[0].Attributes
	prev := float64(a.PreviousClose)
	if prev == 0 {
		prev = float64(a.Previous)
	}
	return &models.OptionQuote{
		Contract:      contract,
		Bid:           float64(a.Bid),
		Ask:           float64(a.Ask),
		Last:          float64(a.Last),
		PreviousClose: prev,
		Timestamp:     time.Now(),
	}, nil
}

// optionCloses reads the contract's daily history from the options EOD endpoint,
// a sibling of the contracts endpoint.
func (c *Client) optionCloses(ctx context.Context, contract string, from, to time.Time) ([]models.ClosePoint, error) {
	params := url.Values{}
	params.Set("filter[contract]", contract)
	if !from.IsZero() {
		params.Set("filter[tradetime_from]", from.Format(models.DateLayout))
	}
	if !to.IsZero() {
		params.Set("filter[tradetime_to]", to.Format(models.DateLayout))
	}

	var resp optionContractResponse
	if err := c.get(ctx, path.Join(path.Dir(c.optionPath), "eod"), params, &resp); err != nil {
		return nil, err
	}

	bars := make([]eodBarResponse, 0, len(resp.Data))
	for _, d := range resp.Data {
		a := d.Attributes
		date := a.Date
		if date == "" && len(a.TradeTime) >= len(models.DateLayout) {
			date = a.TradeTime[:len(models.DateLayout)]
		}
		price := a.Close
		if price == 0 {
			price = a.Last
		}
		bars = append(bars, eodBarResponse{Date: date, Close: price})
	}
	return toClosePoints(bars), nil
}
