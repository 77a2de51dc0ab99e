package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/unicode/norm"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips surrounding space", "  품명  ", "품명"},
		{"strips interior space", "품 명", "품명"},
		{"strips tabs and newlines", "단\t가\n", "단가"},
		{"empty", "", ""},
		{"latin untouched", "Spec-01", "Spec-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeComposesDecomposedHangul(t *testing.T) {
	decomposed := norm.NFD.String("품명")
	assert.Equal(t, "품명", Normalize(decomposed))
}

func TestNormalizeValue(t *testing.T) {
	assert.Equal(t, "Acme Co", NormalizeValue("  Acme Co  "))
	assert.Equal(t, "a b", NormalizeValue("a b"))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
		ok   bool
	}{
		{"plain integer", "1200", 1200, true},
		{"thousands separator", "15,000", 15000, true},
		{"decimal with separator", "1,234.5", 1234.5, true},
		{"surrounding space", " 42 ", 42, true},
		{"empty", "", 0, false},
		{"text", "TBD", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}
