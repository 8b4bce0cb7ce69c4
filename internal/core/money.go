// Package core provides the recurrence and forecast engine and money handling.
//
// This file contains the currency table and the functions that render decimal
// amounts as currency strings and parse them back.
package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is assumed for state files that predate the currency field.
const DefaultCurrency = "EUR"

var ErrUnknownCurrency = errors.New("unknown currency")

// CurrencyFormat describes how amounts of one currency are displayed.
type CurrencyFormat struct {
	Symbol             string
	Code               string
	DecimalPlaces      int32
	DecimalSeparator   string
	ThousandsSeparator string
}

// currencyFormats is read-only after initialization; callers get copies
// through LookupCurrency.
var currencyFormats = map[string]CurrencyFormat{
	"EUR": {Symbol: "€", Code: "EUR", DecimalPlaces: 2, DecimalSeparator: ".", ThousandsSeparator: ","},
	"USD": {Symbol: "$", Code: "USD", DecimalPlaces: 2, DecimalSeparator: ".", ThousandsSeparator: ","},
	"GBP": {Symbol: "£", Code: "GBP", DecimalPlaces: 2, DecimalSeparator: ".", ThousandsSeparator: ","},
	"JPY": {Symbol: "¥", Code: "JPY", DecimalPlaces: 0, DecimalSeparator: ".", ThousandsSeparator: ","},
	"CAD": {Symbol: "C$", Code: "CAD", DecimalPlaces: 2, DecimalSeparator: ".", ThousandsSeparator: ","},
	"AUD": {Symbol: "A$", Code: "AUD", DecimalPlaces: 2, DecimalSeparator: ".", ThousandsSeparator: ","},
	"BRL": {Symbol: "R$", Code: "BRL", DecimalPlaces: 2, DecimalSeparator: ",", ThousandsSeparator: "."},
	"TL":  {Symbol: "₺", Code: "TL", DecimalPlaces: 2, DecimalSeparator: ",", ThousandsSeparator: "."},
}

// LookupCurrency returns the format registered for code.
func LookupCurrency(code string) (CurrencyFormat, bool) {
	f, ok := currencyFormats[code]
	return f, ok
}

// CurrencyCodes returns all registered currency codes, sorted.
func CurrencyCodes() []string {
	codes := make([]string, 0, len(currencyFormats))
	for code := range currencyFormats {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// IsKnownCurrency reports whether code has a registered format.
func IsKnownCurrency(code string) bool {
	_, ok := currencyFormats[code]
	return ok
}

// FormatCurrency renders amount with the symbol and separators of currencyCode.
//
// The amount is rounded half away from zero to the currency's decimal places.
// The sign follows the symbol:
//
//	FormatCurrency(1234.56, "EUR") -> "€1,234.56"
//	FormatCurrency(1234.56, "JPY") -> "¥1,235"
//	FormatCurrency(1234.56, "BRL") -> "R$1.234,56"
//	FormatCurrency(-100.5, "EUR")  -> "€-100.50"
func FormatCurrency(amount decimal.Decimal, currencyCode string) (string, error) {
	f, ok := LookupCurrency(currencyCode)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, currencyCode)
	}
	return f.Format(amount), nil
}

// Format renders amount according to f.
func (f CurrencyFormat) Format(amount decimal.Decimal) string {
	fixed := amount.StringFixed(f.DecimalPlaces)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(f.Symbol)
	b.WriteString(sign)
	b.WriteString(groupThousands(intPart, f.ThousandsSeparator))
	if f.DecimalPlaces > 0 {
		b.WriteString(f.DecimalSeparator)
		b.WriteString(fracPart)
	}
	return b.String()
}

// ParseCurrency is the inverse of FormatCurrency: it strips the symbol and
// thousands separators, normalizes the decimal separator and parses the
// remainder as an exact decimal.
func ParseCurrency(text, currencyCode string) (decimal.Decimal, error) {
	f, ok := LookupCurrency(currencyCode)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownCurrency, currencyCode)
	}
	return f.Parse(text)
}

// Parse reads an amount rendered with f.
func (f CurrencyFormat) Parse(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, f.Symbol, "")
	if f.ThousandsSeparator != "" {
		s = strings.ReplaceAll(s, f.ThousandsSeparator, "")
	}
	if f.DecimalSeparator != "." {
		s = strings.ReplaceAll(s, f.DecimalSeparator, ".")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	return d, nil
}

// ParseAmount parses a plain decimal amount as typed by a user, accepting
// either a dot or a comma as the decimal separator.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-5")    -> -5, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

func groupThousands(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
