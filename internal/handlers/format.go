package handlers

import (
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var displayLocale = language.English

// formatMoney renders v with two decimals and locale thousand separators.
func formatMoney(v float64) string {
	return "$" + formatFloat(v, 2)
}

// formatFloat rounds half away from zero before printing so that display
// values agree with the decimal sums behind them.
func formatFloat(v float64, places int32) string {
	rounded := decimal.NewFromFloat(v).Round(places).InexactFloat64()
	// Printers carry an internal buffer and are not shared between requests.
	verb := "%." + strconv.Itoa(int(places)) + "f"
	return message.NewPrinter(displayLocale).Sprintf(verb, rounded)
}
