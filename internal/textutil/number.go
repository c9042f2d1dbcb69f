package textutil

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numberPrinter = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators, e.g. 1234567 as "1,234,567".
func FormatCount(n int64) string {
	return numberPrinter.Sprintf("%d", n)
}

// FormatSignedCount is FormatCount with an explicit sign for positive values.
func FormatSignedCount(n int64) string {
	if n > 0 {
		return "+" + FormatCount(n)
	}
	return FormatCount(n)
}
