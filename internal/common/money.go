package common

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount in the given ISO currency using its symbol,
// grouping and minor-unit precision. Unknown codes fall back to USD.
func FormatMoney(amount decimal.Decimal, code string) string {
	cur := currencyFor(code)
	return cur.Formatter().Format(amount.Shift(int32(cur.Fraction)).Round(0).IntPart())
}

// FormatMoneyFloat is FormatMoney for float valuations. Non-finite values render as "n/a".
func FormatMoneyFloat(amount float64, code string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "n/a"
	}
	return FormatMoney(decimal.NewFromFloat(amount), code)
}

func currencyFor(code string) *money.Currency {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || money.GetCurrency(code) == nil {
		code = money.USD
	}
	return money.New(0, code).Currency()
}

// FormatSignedMoney is FormatMoneyFloat with an explicit "+" on gains.
func FormatSignedMoney(amount float64, code string) string {
	s := FormatMoneyFloat(amount, code)
	if amount > 0 && s != "n/a" {
		return "+" + s
	}
	return s
}

// FormatSignedPct renders a percentage with two decimals and an explicit sign.
// Non-finite values render as "n/a".
func FormatSignedPct(pct float64) string {
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return "n/a"
	}
	if pct > 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}
