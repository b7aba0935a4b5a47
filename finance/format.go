package finance

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Dollars renders an amount rounded to the dollar with thousands
// separators, e.g. 3200 -> "3,200".
func Dollars(amount float64) string {
	whole := decimal.NewFromFloat(amount).Round(0).IntPart()
	return message.NewPrinter(language.English).Sprintf("%d", whole)
}
