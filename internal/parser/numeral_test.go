package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"thousands separators", "1.050.050,00", 1050050.00},
		{"percentage suffix", "0,00%", 0.0},
		{"empty string", "", 0},
		{"unicode minus", "−15,30", -15.30},
		{"currency code prefix", "BRL 10,50", 10.50},
		{"plain float", "42.5", 42.5},
		{"plain integer", "7", 7},
		{"negative percentage", "-1,25%", -1.25},
		{"garbage", "n/d", 0},
		{"whitespace only", "   ", 0},
		{"embedded spaces", " 1.234,56 ", 1234.56},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ParseFloat(tt.input), 1e-9)
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"1.234.567", 1234567},
		{"500", 500},
		{"", 0},
		{"abc", 0},
		{"12a34", 1234},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseInt(tt.input), "input %q", tt.input)
	}
}
