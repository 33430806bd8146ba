package payments

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currencies without a minor unit (ISO 4217 exponent 0).
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "ISK": {}, "JPY": {}, "KMF": {}, "KRW": {},
	"MGA": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {}, "VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

func currencyExponent(currency string) int32 {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(currency)]; ok {
		return 0
	}
	return 2
}

// formatAmount renders a major-unit amount with two decimals, e.g. "150.00".
func formatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// toMinorUnits converts a major-unit amount into the integer minor units
// Paystack and Razorpay expect (kobo, paise), rounding half away from zero.
func toMinorUnits(amount decimal.Decimal, currency string) int64 {
	exp := currencyExponent(currency)
	return amount.Shift(exp).Round(0).IntPart()
}

func toFloat(amount decimal.Decimal) float64 {
	f, _ := amount.Round(2).Float64()
	return f
}
