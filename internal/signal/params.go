package signal

import "strings"

// Strength selects how aggressively the brightness series is filtered.
type Strength int

const (
	StrengthMedium Strength = iota
	StrengthLight
	StrengthStrong
)

func (s Strength) String() string {
	switch s {
	case StrengthLight:
		return "light"
	case StrengthStrong:
		return "strong"
	default:
		return "medium"
	}
}

// ParseStrength maps a config string onto a Strength. Unknown values yield
// StrengthMedium and ok=false so the caller can warn.
func ParseStrength(s string) (Strength, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return StrengthLight, true
	case "medium":
		return StrengthMedium, true
	case "strong":
		return StrengthStrong, true
	default:
		return StrengthMedium, false
	}
}

// FilterParams holds the window sizes of the three conditioning passes.
type FilterParams struct {
	MedianWindow  int     // Median filter window (samples)
	Sigma         float64 // Gaussian standard deviation (samples)
	AverageWindow int     // Moving-average window (samples)
}

// Params returns the filter parameters for a strength.
func (s Strength) Params() FilterParams {
	switch s {
	case StrengthLight:
		return FilterParams{MedianWindow: 3, Sigma: 0.8, AverageWindow: 3}
	case StrengthStrong:
		return FilterParams{MedianWindow: 7, Sigma: 2.0, AverageWindow: 9}
	default:
		return FilterParams{MedianWindow: 5, Sigma: 1.2, AverageWindow: 5}
	}
}

// Sensitivity selects how readily a brightness bump counts as a peak.
type Sensitivity int

const (
	SensitivityMedium Sensitivity = iota
	SensitivityLow
	SensitivityHigh
)

func (s Sensitivity) String() string {
	switch s {
	case SensitivityLow:
		return "low"
	case SensitivityHigh:
		return "high"
	default:
		return "medium"
	}
}

// ParseSensitivity maps a config string onto a Sensitivity. Unknown values
// yield SensitivityMedium and ok=false.
func ParseSensitivity(s string) (Sensitivity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SensitivityLow, true
	case "medium":
		return SensitivityMedium, true
	case "high":
		return SensitivityHigh, true
	default:
		return SensitivityMedium, false
	}
}

// DetectionParams is the threshold policy derived from a series and a sensitivity.
type DetectionParams struct {
	Mean        float64
	StdDev      float64
	Threshold   float64 // Minimum conditioned value for a peak
	MinDistance int     // Minimum index separation between accepted peaks, always >= 1
}

// policy returns the standard-deviation multiplier and the divisor of the
// series length that gives the minimum peak distance.
func (s Sensitivity) policy() (k float64, divisor int) {
	switch s {
	case SensitivityLow:
		return 1.5, 10
	case SensitivityHigh:
		return 0.5, 25
	default:
		return 1.0, 15
	}
}

// WithSeries computes the detection parameters for a series of length n with
// the given mean and population standard deviation.
func (s Sensitivity) WithSeries(n int, mean, stdDev float64) DetectionParams {
	k, divisor := s.policy()
	// n/15 is 0 for short series, which would disable separation entirely.
	minDist := max(1, n/divisor)
	return DetectionParams{
		Mean:        mean,
		StdDev:      stdDev,
		Threshold:   mean + k*stdDev,
		MinDistance: minDist,
	}
}
