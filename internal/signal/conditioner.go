package signal

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// noiseFloor is the mean noise below which a series counts as noiseless.
const noiseFloor = 1e-12

// Condition filters a raw brightness series with a median filter, Gaussian
// smoothing and a moving average, in that order, and reports the quality of
// the result. The input is not modified.
func Condition(raw []float64, strength Strength) ([]float64, Report) {
	if len(raw) == 0 {
		return nil, Report{Tier: TierPoor}
	}

	p := strength.Params()
	out := MedianFilter(raw, p.MedianWindow)
	out = GaussianSmooth(out, p.Sigma)
	out = MovingAverage(out, p.AverageWindow)

	return out, Assess(raw, out)
}

// ConditionSamples conditions the Raw values of samples and returns copies
// with Conditioned filled in.
func ConditionSamples(samples []Sample, strength Strength) ([]Sample, Report) {
	raw := make([]float64, len(samples))
	for i, s := range samples {
		raw[i] = s.Raw
	}
	cond, report := Condition(raw, strength)

	out := make([]Sample, len(samples))
	for i, s := range samples {
		s.Conditioned = cond[i]
		out[i] = s
	}
	return out, report
}

// MedianFilter replaces each value with the median of the window centred on
// it. Windows are clipped at the series bounds; for an even clipped window the
// upper middle element is used.
func MedianFilter(series []float64, window int) []float64 {
	n := len(series)
	out := make([]float64, n)
	half := window / 2
	buf := make([]float64, 0, window)

	for i := range series {
		lo := max(0, i-half)
		hi := min(n-1, i+half)
		buf = append(buf[:0], series[lo:hi+1]...)
		sort.Float64s(buf)
		out[i] = buf[len(buf)/2]
	}
	return out
}

// GaussianKernel returns unnormalised weights exp(-k²/2σ²) for k in
// [-radius, radius], with radius = ⌈6σ⌉.
func GaussianKernel(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	radius := int(math.Ceil(6 * sigma))
	kernel := make([]float64, 2*radius+1)
	for k := -radius; k <= radius; k++ {
		kernel[k+radius] = math.Exp(-float64(k*k) / (2 * sigma * sigma))
	}
	return kernel
}

// GaussianSmooth convolves the series with a Gaussian kernel. Near the
// bounds the kernel is truncated and the result divided by the weight that
// was actually available, so a constant series is left unchanged.
func GaussianSmooth(series []float64, sigma float64) []float64 {
	n := len(series)
	kernel := GaussianKernel(sigma)
	radius := len(kernel) / 2
	out := make([]float64, n)

	for i := range series {
		var sum, weight float64
		for k := -radius; k <= radius; k++ {
			j := i + k
			if j < 0 || j >= n {
				continue
			}
			w := kernel[k+radius]
			sum += w * series[j]
			weight += w
		}
		out[i] = sum / weight
	}
	return out
}

// MovingAverage replaces each value with the mean of the window centred on
// it, clipped at the series bounds.
func MovingAverage(series []float64, window int) []float64 {
	n := len(series)
	out := make([]float64, n)
	half := window / 2

	for i := range series {
		lo := max(0, i-half)
		hi := min(n-1, i+half)
		out[i] = stat.Mean(series[lo:hi+1], nil)
	}
	return out
}

// Assess compares a raw series with its conditioned version.
func Assess(raw, conditioned []float64) Report {
	n := min(len(raw), len(conditioned))
	if n == 0 {
		return Report{Tier: TierPoor}
	}

	noise := make([]float64, n)
	for i := 0; i < n; i++ {
		noise[i] = math.Abs(raw[i] - conditioned[i])
	}
	avgNoise := stat.Mean(noise, nil)

	snr := math.Inf(1)
	if avgNoise > noiseFloor {
		snr = stat.Mean(conditioned[:n], nil) / avgNoise
	}

	var smoothness float64
	if n > 1 {
		var total float64
		for i := 1; i < n; i++ {
			total += math.Abs(conditioned[i] - conditioned[i-1])
		}
		smoothness = total / float64(n-1)
	}

	return Report{
		SignalToNoise: snr,
		AverageNoise:  avgNoise,
		Smoothness:    smoothness,
		DynamicRange:  floats.Max(conditioned[:n]) - floats.Min(conditioned[:n]),
		Tier:          tierForSNR(snr),
	}
}
