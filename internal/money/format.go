package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idrPrinter = message.NewPrinter(language.Indonesian)

// FormatIDR renders a rupiah amount for documents and emails, with
// Indonesian digit grouping: 1953600 becomes "Rp 1.953.600".
func FormatIDR(amount int64) string {
	return idrPrinter.Sprintf("Rp %d", amount)
}
