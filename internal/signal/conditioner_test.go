package signal

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionConstantSeriesIsUnchanged(t *testing.T) {
	for _, strength := range []Strength{StrengthLight, StrengthMedium, StrengthStrong} {
		raw := make([]float64, 40)
		for i := range raw {
			raw[i] = 123.5
		}

		cond, report := Condition(raw, strength)

		require.Len(t, cond, len(raw))
		for i, v := range cond {
			assert.InDelta(t, 123.5, v, 1e-9, "strength %s index %d", strength, i)
		}
		assert.True(t, math.IsInf(report.SignalToNoise, 1))
		assert.Equal(t, TierExcellent, report.Tier)
		assert.InDelta(t, 0, report.DynamicRange, 1e-9)
	}
}

func TestConditionEmpty(t *testing.T) {
	cond, report := Condition(nil, StrengthMedium)
	assert.Empty(t, cond)
	assert.Equal(t, TierPoor, report.Tier)
}

func TestConditionDoesNotModifyInput(t *testing.T) {
	raw := []float64{1, 9, 2, 8, 3, 7, 4, 6, 5}
	orig := append([]float64(nil), raw...)
	Condition(raw, StrengthStrong)
	assert.Equal(t, orig, raw)
}

func TestMedianFilterRemovesImpulse(t *testing.T) {
	out := MedianFilter([]float64{10, 10, 10, 200, 10, 10, 10}, 3)
	assert.Equal(t, []float64{10, 10, 10, 10, 10, 10, 10}, out)
}

func TestMedianFilterStaysWithinWindowBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	series := make([]float64, 200)
	for i := range series {
		series[i] = rng.Float64() * 255
	}

	for _, window := range []int{3, 5, 7} {
		out := MedianFilter(series, window)
		half := window / 2
		for i, v := range out {
			lo, hi := max(0, i-half), min(len(series)-1, i+half)
			wMin, wMax := math.Inf(1), math.Inf(-1)
			for _, x := range series[lo : hi+1] {
				wMin = math.Min(wMin, x)
				wMax = math.Max(wMax, x)
			}
			assert.GreaterOrEqual(t, v, wMin)
			assert.LessOrEqual(t, v, wMax)
		}
	}
}

func TestGaussianKernelRadius(t *testing.T) {
	assert.Len(t, GaussianKernel(1.2), 2*8+1) // ⌈7.2⌉ = 8
	assert.Len(t, GaussianKernel(0.8), 2*5+1) // ⌈4.8⌉ = 5
	assert.Equal(t, []float64{1}, GaussianKernel(0))
}

func TestGaussianSmoothPreservesMeanAwayFromEdges(t *testing.T) {
	series := make([]float64, 101)
	series[50] = 100

	out := GaussianSmooth(series, 1.2)

	var total float64
	for _, v := range out {
		total += v
	}
	assert.InDelta(t, 100, total, 1e-6)
	assert.Less(t, out[50], 100.0)
	assert.Greater(t, out[50], out[49])
	assert.InDelta(t, out[49], out[51], 1e-12)
}

func TestMovingAverageClipsAtBounds(t *testing.T) {
	out := MovingAverage([]float64{0, 3, 6, 9}, 3)
	assert.InDelta(t, 1.5, out[0], 1e-12)
	assert.InDelta(t, 3.0, out[1], 1e-12)
	assert.InDelta(t, 6.0, out[2], 1e-12)
	assert.InDelta(t, 7.5, out[3], 1e-12)
}

func TestAssessTiers(t *testing.T) {
	tests := []struct {
		name string
		raw  []float64
		cond []float64
		want QualityTier
	}{
		{"excellent", []float64{101, 99}, []float64{100, 100}, TierExcellent},
		{"good", []float64{110, 90}, []float64{100, 100}, TierGood},
		{"fair", []float64{125, 75}, []float64{100, 100}, TierFair},
		{"poor", []float64{200, 0}, []float64{100, 100}, TierPoor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Assess(tt.raw, tt.cond).Tier)
		})
	}
}

func TestAssessMetrics(t *testing.T) {
	r := Assess([]float64{12, 18, 30}, []float64{10, 20, 30})
	assert.InDelta(t, 4.0/3.0, r.AverageNoise, 1e-12)
	assert.InDelta(t, 20/(4.0/3.0), r.SignalToNoise, 1e-9)
	assert.InDelta(t, 10, r.Smoothness, 1e-12)
	assert.InDelta(t, 20, r.DynamicRange, 1e-12)
}

func TestConditionSamplesCopies(t *testing.T) {
	samples := []Sample{{Index: 0, Time: 0, Raw: 5}, {Index: 1, Time: 0.1, Raw: 5}, {Index: 2, Time: 0.2, Raw: 5}}
	out, _ := ConditionSamples(samples, StrengthLight)
	require.Len(t, out, 3)
	for i := range out {
		assert.InDelta(t, 5, out[i].Conditioned, 1e-9)
		assert.Zero(t, samples[i].Conditioned)
		assert.Equal(t, samples[i].Time, out[i].Time)
	}
}

func TestReportJSONWithInfiniteSNR(t *testing.T) {
	b, err := Report{SignalToNoise: math.Inf(1), Tier: TierExcellent}.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"signal_to_noise":null`)
	assert.Contains(t, string(b), `"quality_tier":"excellent"`)
}

func TestParseStrengthFallsBackToMedium(t *testing.T) {
	s, ok := ParseStrength("STRONG")
	assert.True(t, ok)
	assert.Equal(t, StrengthStrong, s)

	s, ok = ParseStrength("extreme")
	assert.False(t, ok)
	assert.Equal(t, StrengthMedium, s)
	assert.Equal(t, FilterParams{MedianWindow: 5, Sigma: 1.2, AverageWindow: 5}, s.Params())
}
