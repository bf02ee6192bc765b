package presentation

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders numbers for display with thousands separators.
// A Formatter is not shared between requests.
type Formatter struct {
	currency string
	printer  *message.Printer
}

// NewFormatter creates a formatter that prefixes money with currencySymbol
func NewFormatter(currencySymbol string) *Formatter {
	return &Formatter{
		currency: currencySymbol,
		printer:  message.NewPrinter(language.English),
	}
}

// Currency formats money as "Rp 1,234.56"
func (f *Formatter) Currency(v float64) string {
	s := f.printer.Sprintf("%.2f", v)
	if f.currency == "" {
		return s
	}
	return f.currency + " " + s
}

// Count formats an integer as "1,234"
func (f *Formatter) Count(n int) string {
	return f.printer.Sprintf("%d", n)
}

// Percent formats a share as "75.0%"
func (f *Formatter) Percent(p float64) string {
	return f.printer.Sprintf("%.1f", p) + "%"
}

// Axis formats a tick value, keeping decimals only for small ranges
func (f *Formatter) Axis(v, span float64) string {
	switch {
	case span >= 100 || v == math.Trunc(v):
		return f.printer.Sprintf("%.0f", v)
	case span >= 10:
		return f.printer.Sprintf("%.1f", v)
	default:
		return f.printer.Sprintf("%.2f", v)
	}
}
