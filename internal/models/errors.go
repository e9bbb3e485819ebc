package models

import (
	"errors"
	"fmt"
)

// Error kinds returned by the ledger. Match with errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrPriceUnavailable   = errors.New("price unavailable")
	ErrInsufficientCash   = errors.New("insufficient cash")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrNoPosition         = errors.New("no open position")
	ErrInvalidPremium     = errors.New("invalid option premium")
	ErrPersistence        = errors.New("persistence error")
	ErrNotFound           = errors.New("not found")
)

// TradeError explains why a trade was rejected. Required and Available are
// pre-formatted amounts (money or quantities) so callers can display them as-is.
type TradeError struct {
	Kind      error
	Symbol    string
	Required  string
	Available string
	Msg       string
}

func (e *TradeError) Error() string {
	switch {
	case e.Required != "" || e.Available != "":
		return fmt.Sprintf("%s for %s: required %s, available %s", e.Kind, e.Symbol, e.Required, e.Available)
	case e.Msg != "" && e.Symbol != "":
		return fmt.Sprintf("%s for %s: %s", e.Kind, e.Symbol, e.Msg)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Symbol != "":
		return fmt.Sprintf("%s for %s", e.Kind, e.Symbol)
	default:
		return e.Kind.Error()
	}
}

func (e *TradeError) Unwrap() error { return e.Kind }

// NewValidationError returns a TradeError of kind ErrValidation.
func NewValidationError(symbol, format string, args ...any) *TradeError {
	return &TradeError{Kind: ErrValidation, Symbol: symbol, Msg: fmt.Sprintf(format, args...)}
}

// IsBusinessError reports whether err is a rejection the caller can act on,
// as opposed to an internal persistence or gateway failure.
func IsBusinessError(err error) bool {
	for _, kind := range []error{ErrValidation, ErrInsufficientCash, ErrInsufficientShares, ErrNoPosition, ErrInvalidPremium, ErrNotFound} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
