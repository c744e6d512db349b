package pipeline

import "strings"

// Rate is the brightness sampling policy.
type Rate int

const (
	RateAuto Rate = iota // Chosen from the video duration
	RateHigh
	RateMedium
	RateLow
)

// Samples per second for the fixed rates.
const (
	highRate   = 30
	mediumRate = 20
	lowRate    = 15
)

func (r Rate) String() string {
	switch r {
	case RateHigh:
		return "high"
	case RateMedium:
		return "medium"
	case RateLow:
		return "low"
	default:
		return "auto"
	}
}

// ParseRate parses a rate name. Unknown names give RateAuto and false.
func ParseRate(s string) (Rate, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "":
		return RateAuto, true
	case "high":
		return RateHigh, true
	case "medium":
		return RateMedium, true
	case "low":
		return RateLow, true
	default:
		return RateAuto, false
	}
}

// SamplesPerSecond resolves the policy for a video of the given length.
// Short clips are sampled densely and long ones sparsely.
func (r Rate) SamplesPerSecond(duration float64) float64 {
	switch r {
	case RateHigh:
		return highRate
	case RateMedium:
		return mediumRate
	case RateLow:
		return lowRate
	}
	switch {
	case duration <= 60:
		return highRate
	case duration <= 300:
		return mediumRate
	default:
		return lowRate
	}
}

// SampleTimes returns the timestamps i/perSecond in [0, duration).
func SampleTimes(duration, perSecond float64) []float64 {
	if duration <= 0 || perSecond <= 0 {
		return nil
	}
	n := int(duration * perSecond)
	if float64(n)/perSecond < duration {
		n++
	}
	times := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) / perSecond
		if t >= duration {
			break
		}
		times = append(times, t)
	}
	return times
}
