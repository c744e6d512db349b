package fusion

// Scoring weights. The positive terms sum to 1.1 before clamping.
const (
	weightConfidence   = 0.25
	weightValidNumber  = 0.35
	weightReasonable   = 0.15
	weightCanonical    = 0.25
	weightSingleDot    = 0.15
	weightShortLength  = 0.10
	penaltyExtraDots   = 0.20
	penaltyLeadingZero = 0.10
	penaltyEmpty       = 0.50

	maxReadingLength = 8
)

// Score rates an analysed reading together with its OCR confidence (0-100).
// The result is clamped to [0, 1] and never decreases as confidence rises.
func Score(a Analysis, confidence float64) float64 {
	s := weightConfidence * (confidence / 100)

	if a.IsValidNumber {
		s += weightValidNumber
	}
	if a.IsReasonableRange {
		s += weightReasonable
	}
	if a.IsCanonicalDecimal {
		s += weightCanonical
	} else if a.HasDecimalPoint && a.DecimalCount == 1 {
		s += weightSingleDot
	}
	if a.Length >= 1 && a.Length <= maxReadingLength {
		s += weightShortLength
	}

	if a.DecimalCount > 1 {
		s -= penaltyExtraDots
	}
	if a.HasLeadingZeroAnomaly {
		s -= penaltyLeadingZero
	}
	if a.Length == 0 {
		s -= penaltyEmpty
	}

	return clamp(s, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
