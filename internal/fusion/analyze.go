// Package fusion turns several OCR readings of the same region into one numeric answer.
package fusion

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Reading range considered plausible for the meter.
const (
	MinReasonable = 0
	MaxReasonable = 10000
)

var (
	// A zero in front of another digit, e.g. "0123" but not "0.123".
	leadingZeroPattern = regexp.MustCompile(`^0\d+\.?\d*$`)

	// One to three fraction digits after a single decimal point.
	canonicalPattern = regexp.MustCompile(`^\d+\.\d{1,3}$`)
)

// Analysis describes how a recognised string parses as a reading.
type Analysis struct {
	CleanText             string  // Digits and at most one '.', before leading zeros are stripped
	Normalized            string  // CleanText with spurious leading zeros removed; this is what is parsed
	HasDecimalPoint       bool    // CleanText contains a '.'
	DecimalCount          int     // Number of '.' seen before extra dots were dropped
	Value                 float64 // Parsed value, NaN when unparsable
	IsValidNumber         bool    // Parsed and finite
	IsReasonableRange     bool    // Within [MinReasonable, MaxReasonable]
	HasLeadingZeroAnomaly bool    // CleanText looks like "0123"
	IsCanonicalDecimal    bool    // CleanText looks like "12.345"
	Length                int     // len(CleanText)
}

// Analyze cleans and parses raw OCR output.
func Analyze(raw string) Analysis {
	// Everything but ASCII digits and '.' goes, whitespace included.
	clean := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw)

	a := Analysis{DecimalCount: strings.Count(clean, ".")}
	if a.DecimalCount > 1 {
		first := strings.IndexByte(clean, '.')
		clean = clean[:first+1] + strings.ReplaceAll(clean[first+1:], ".", "")
	}

	a.CleanText = clean
	a.Length = len(clean)
	a.HasDecimalPoint = strings.Contains(clean, ".")
	a.HasLeadingZeroAnomaly = leadingZeroPattern.MatchString(clean) && !strings.HasPrefix(clean, "0.")
	a.IsCanonicalDecimal = canonicalPattern.MatchString(clean)
	a.Normalized = stripLeadingZeros(clean)

	a.Value = math.NaN()
	if v, err := strconv.ParseFloat(a.Normalized, 64); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
		a.Value = v
		a.IsValidNumber = true
		a.IsReasonableRange = v >= MinReasonable && v <= MaxReasonable
	}
	return a
}

// stripLeadingZeros drops zeros in front of another digit, keeping a bare
// "0" and the zero of "0.xxx".
func stripLeadingZeros(s string) string {
	for len(s) > 1 && s[0] == '0' && s[1] != '.' {
		s = s[1:]
	}
	return s
}
