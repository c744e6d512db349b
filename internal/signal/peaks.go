package signal

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	// MinSeriesLength is the shortest series Detect will search.
	MinSeriesLength = 10
	// MaxPeaks caps the number of peaks Detect returns.
	MaxPeaks = 20
)

// Analyze computes the detection parameters for a conditioned series.
func Analyze(series []float64, sensitivity Sensitivity) DetectionParams {
	mean, std := stat.PopMeanStdDev(series, nil)
	return sensitivity.WithSeries(len(series), mean, std)
}

// Detect finds significant, mutually separated local maxima in a
// conditioned series. Peaks are returned in index order with Time unset; use
// DetectSamples to carry sample times through.
//
// Candidacy is decided in scan order and acceptance in significance order,
// so a weaker peak can lose to a stronger one anywhere within MinDistance.
func Detect(series []float64, sensitivity Sensitivity) []Peak {
	n := len(series)
	if n < MinSeriesLength {
		return nil
	}

	params := Analyze(series, sensitivity)
	if params.StdDev == 0 {
		return nil
	}

	candidates := findCandidates(series, params)
	accepted := suppress(candidates, params.MinDistance, MaxPeaks)

	peaks := make([]Peak, len(accepted))
	for i, c := range accepted {
		peaks[i] = Peak{
			SampleIndex:  c.index,
			Value:        c.value,
			Significance: c.significance,
		}
	}
	return peaks
}

// DetectSamples runs Detect over the Conditioned values of samples and fills
// in each peak's time.
func DetectSamples(samples []Sample, sensitivity Sensitivity) []Peak {
	series := make([]float64, len(samples))
	for i, s := range samples {
		series[i] = s.Conditioned
	}
	peaks := Detect(series, sensitivity)
	for i := range peaks {
		peaks[i].Time = samples[peaks[i].SampleIndex].Time
	}
	return peaks
}

// findCandidates scans [d, n-d) for values at or above the threshold that
// are strictly greater than every other value within distance d. Equal
// neighbours disqualify each other.
func findCandidates(series []float64, params DetectionParams) []candidate {
	n := len(series)
	d := params.MinDistance

	var out []candidate
	for i := d; i < n-d; i++ {
		v := series[i]
		if v < params.Threshold {
			continue
		}
		if !strictMax(series, i, d) {
			continue
		}
		out = append(out, candidate{
			index:        i,
			value:        v,
			significance: (v - params.Mean) / params.StdDev,
		})
	}
	return out
}

func strictMax(series []float64, i, d int) bool {
	lo := max(0, i-d)
	hi := min(len(series)-1, i+d)
	for j := lo; j <= hi; j++ {
		if j != i && series[j] >= series[i] {
			return false
		}
	}
	return true
}

// suppress accepts candidates in descending significance, skipping any
// within minDist of an already accepted one, and returns them by index.
func suppress(candidates []candidate, minDist, limit int) []candidate {
	ranked := make([]candidate, len(candidates))
	copy(ranked, candidates)
	// Stable: equal significance keeps scan order, so the earlier index wins.
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].significance > ranked[b].significance
	})

	var accepted []candidate
	for _, c := range ranked {
		if len(accepted) >= limit {
			break
		}
		if tooClose(c, accepted, minDist) {
			continue
		}
		accepted = append(accepted, c)
	}

	sort.Slice(accepted, func(a, b int) bool {
		return accepted[a].index < accepted[b].index
	})
	return accepted
}

func tooClose(c candidate, accepted []candidate, minDist int) bool {
	for _, a := range accepted {
		d := c.index - a.index
		if d < 0 {
			d = -d
		}
		if d < minDist {
			return true
		}
	}
	return false
}
