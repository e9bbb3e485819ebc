package models

import (
	"math"
	"time"
)

// Quote is the live price for an equity symbol
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`          // current/last price, 0 when absent
	PreviousClose float64   `json:"previous_close"` // previous session close, 0 when absent
	Timestamp     time.Time `json:"timestamp"`
}

// ReferencePrice is the price a trade executes at: the live price, else the
// previous close, else 0 (unavailable).
func (q Quote) ReferencePrice() float64 {
	if ValidPrice(q.Price) {
		return q.Price
	}
	if ValidPrice(q.PreviousClose) {
		return q.PreviousClose
	}
	return 0
}

// OptionQuote is a live quote for one option contract. Zero fields are absent.
type OptionQuote struct {
	Contract      string    `json:"contract"`
	Bid           float64   `json:"bid"`
	Ask           float64   `json:"ask"`
	Last          float64   `json:"last"`
	PreviousClose float64   `json:"previous_close"`
	Timestamp     time.Time `json:"timestamp"`
}

// ClosePoint is one daily closing price
type ClosePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// ValidPrice reports whether p is a usable positive finite price.
func ValidPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}
