package reports

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Indonesian)

// FormatAmount renders a rupiah amount with Indonesian digit grouping,
// e.g. 1500000 -> "Rp 1.500.000".
func FormatAmount(v float64) string {
	return printer.Sprintf("Rp %v", number.Decimal(v, number.MaxFractionDigits(2)))
}
