// Package parser converts locale-formatted numeric text from the B3
// bulletin into machine values. Parsing never fails: malformed cells
// default to zero so a single bad cell cannot abort a batch.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	currencyCodeRe = regexp.MustCompile(`[A-Z]{3}`)
	leadingFloatRe = regexp.MustCompile(`^[+-]?[0-9]*\.?[0-9]+`)
	digitsRe       = regexp.MustCompile(`[0-9]+`)
)

// minusReplacer maps unicode minus-sign variants to ASCII '-'.
var minusReplacer = strings.NewReplacer(
	"−", "-", // minus sign
	"‒", "-", // figure dash
	"－", "-", // fullwidth hyphen-minus
)

// ParseFloat converts a locale-formatted numeric string to a float64.
// Strings containing a comma are treated as pt-BR numerals: dots are
// thousands separators and the comma is the decimal point. Otherwise the
// leading numeric prefix is parsed, so trailing noise like "%" is ignored.
// Unparseable or empty input yields 0.
func ParseFloat(s string) float64 {
	s = minusReplacer.Replace(s)
	s = currencyCodeRe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return 0
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	prefix := leadingFloatRe.FindString(s)
	if prefix == "" {
		return 0
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseInt extracts the digits of s and parses them as a non-negative
// integer. Everything else, including an empty string, yields 0.
func ParseInt(s string) int64 {
	digits := strings.Join(digitsRe.FindAllString(s, -1), "")
	if digits == "" {
		return 0
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
