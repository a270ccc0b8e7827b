// Package format renders derived ratios and monetary inputs as display strings.
package format

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Fixed renders value with exactly places decimals, rounding half away from zero.
// Negative zero renders without a sign.
func Fixed(value float64, places int32) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return strconv.FormatFloat(value, 'f', int(places), 64)
	}
	return decimal.NewFromFloat(value).StringFixed(places)
}

// Ratio renders a plain ratio with two decimals (e.g., "1.67").
func Ratio(value float64) string {
	return Fixed(value, 2)
}

// Percent renders a percentage with two decimals and a trailing % (e.g., "60.00%").
func Percent(value float64) string {
	return Fixed(value, 2) + "%"
}

// PercentShort renders a percentage with one decimal (e.g., "20.0%").
func PercentShort(value float64) string {
	return Fixed(value, 1) + "%"
}

// Currency returns symbol-prefixed currency with thousands separators (e.g., "-₵1,234.56").
func Currency(amount float64, symbol string) string {
	formatted := NumericCurrency(math.Abs(amount))
	if amount < 0 && formatted != "0.00" {
		return "-" + symbol + formatted
	}
	return symbol + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return strconv.FormatFloat(amount, 'f', 2, 64)
	}
	rounded, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	if rounded == 0 {
		rounded = 0 // drop negative zero
	}
	return printer.Sprintf("%.2f", rounded)
}
