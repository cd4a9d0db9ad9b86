package findata

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders an amount with its ISO currency code and grouping
// separators, e.g. "SEK 12,345.67". Unknown codes are passed through as-is.
func FormatAmount(code string, amount float64) string {
	if unit, err := currency.ParseISO(code); err == nil {
		code = unit.String()
	}
	return amountPrinter.Sprintf("%s %.2f", code, amount)
}
