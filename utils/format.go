package utils

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const DefaultCurrency = money.BRL

// FormatAmount renders value with the currency's symbol and separators, e.g. "R$1.234,50".
func FormatAmount(value float64, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	cur := money.New(0, currency).Currency()
	minor := decimal.NewFromFloat(value).Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}
