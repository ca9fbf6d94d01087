// Package format renders money and dates for terminal output.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when neither the invoice nor the config names one
const DefaultCurrency = "NGN"

type Currency struct {
	Code   string
	Name   string
	Symbol string
}

// Currencies supported by the hosted service
var Currencies = []Currency{
	{Code: "NGN", Name: "Nigerian Naira", Symbol: "₦"},
	{Code: "USD", Name: "US Dollar", Symbol: "$"},
	{Code: "EUR", Name: "Euro", Symbol: "€"},
	{Code: "GBP", Name: "British Pound", Symbol: "£"},
	{Code: "CAD", Name: "Canadian Dollar", Symbol: "CA$"},
	{Code: "AUD", Name: "Australian Dollar", Symbol: "A$"},
	{Code: "ZAR", Name: "South African Rand", Symbol: "R"},
	{Code: "KES", Name: "Kenyan Shilling", Symbol: "KSh"},
	{Code: "GHS", Name: "Ghanaian Cedi", Symbol: "GH₵"},
}

// LookupCurrency finds a currency by ISO code, case-insensitively
func LookupCurrency(code string) (Currency, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range Currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

// Symbol returns the currency symbol, or the code itself when unknown
func Symbol(code string) string {
	if code == "" {
		code = DefaultCurrency
	}
	if c, ok := LookupCurrency(code); ok {
		return c.Symbol
	}
	return strings.ToUpper(code)
}

// Money formats amount as "₦1,234.56" using the symbol of currency
func Money(amount decimal.Decimal, currency string) string {
	negative := amount.IsNegative()
	s := amount.Abs().StringFixed(2)

	// Split at decimal point
	dotPos := len(s) - 3
	intPart := s[:dotPos]
	decPart := s[dotPos:]

	prefix := Symbol(currency)
	if negative {
		prefix = "-" + prefix
	}
	return prefix + groupThousands(intPart) + decPart
}

// MoneyFloat formats a float amount; used for draft totals which are not rounded until shown
func MoneyFloat(amount float64, currency string) string {
	return Money(decimal.NewFromFloat(amount), currency)
}

// MoneyCode formats amount as "NGN 1,234.56" for outputs whose fonts lack
// the currency glyphs
func MoneyCode(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	negative := amount.IsNegative()
	s := amount.Abs().StringFixed(2)
	dotPos := len(s) - 3
	out := strings.ToUpper(currency) + " " + groupThousands(s[:dotPos]) + s[dotPos:]
	if negative {
		return "-" + out
	}
	return out
}

// Number formats a quantity without a currency symbol, dropping trailing zeros
func Number(v decimal.Decimal) string {
	if v.IsInteger() {
		return groupThousands(v.StringFixed(0))
	}
	return v.String()
}

// Percent formats a tax rate such as 7.5 as "7.5%"
func Percent(rate decimal.Decimal) string {
	return rate.String() + "%"
}

func groupThousands(intPart string) string {
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}
	result := make([]byte, 0, len(intPart)+len(intPart)/3)
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, intPart[i])
	}
	return sign + string(result)
}
