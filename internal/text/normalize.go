// Package text normalizes workbook cell values so header labels and item keys
// compare reliably across files saved by different tools.
package text

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a cell value for comparison: Unicode NFC, then all
// whitespace removed. Korean composed and decomposed forms collapse to the
// same key.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeValue trims a cell value without collapsing interior spaces, for
// values that are stored rather than compared.
func NormalizeValue(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// ParseNumber parses a numeric cell that may carry thousands separators, like
// "1,200" or " 15,000.50 ". Returns false for empty or non-numeric values.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
