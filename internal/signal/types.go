// Package signal conditions the per-frame brightness series and finds the flash peaks in it.
package signal

import (
	"encoding/json"
	"math"
)

// Sample is one brightness measurement taken from the video.
type Sample struct {
	Index       int     `json:"index"`
	Time        float64 `json:"time"`        // Seconds from the start of the video
	Raw         float64 `json:"raw"`         // Mean luminance of the brightness ROI
	Conditioned float64 `json:"conditioned"` // Filled in once by ConditionSamples
}

// QualityTier grades a conditioning run by its signal-to-noise ratio.
type QualityTier int

const (
	TierPoor QualityTier = iota
	TierFair
	TierGood
	TierExcellent
)

func (q QualityTier) String() string {
	switch q {
	case TierExcellent:
		return "excellent"
	case TierGood:
		return "good"
	case TierFair:
		return "fair"
	default:
		return "poor"
	}
}

// MarshalText encodes the tier by name.
func (q QualityTier) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// tierForSNR maps a signal-to-noise ratio onto a tier. +Inf (a noiseless
// signal) is excellent.
func tierForSNR(snr float64) QualityTier {
	switch {
	case snr > 10:
		return TierExcellent
	case snr > 5:
		return TierGood
	case snr > 2:
		return TierFair
	default:
		return TierPoor
	}
}

// Report summarises one conditioning run.
type Report struct {
	SignalToNoise float64     // mean(conditioned) / mean(|raw-conditioned|), +Inf when noiseless
	AverageNoise  float64     // mean(|raw-conditioned|)
	Smoothness    float64     // mean(|conditioned[i+1]-conditioned[i]|)
	DynamicRange  float64     // max-min of the conditioned series
	Tier          QualityTier // Grade derived from SignalToNoise
}

// MarshalJSON writes a non-finite SNR as null; encoding/json rejects Inf.
func (r Report) MarshalJSON() ([]byte, error) {
	var snr *float64
	if !math.IsInf(r.SignalToNoise, 0) && !math.IsNaN(r.SignalToNoise) {
		v := r.SignalToNoise
		snr = &v
	}
	return json.Marshal(struct {
		SignalToNoise *float64    `json:"signal_to_noise"`
		AverageNoise  float64     `json:"average_noise"`
		Smoothness    float64     `json:"smoothness"`
		DynamicRange  float64     `json:"dynamic_range"`
		Tier          QualityTier `json:"quality_tier"`
	}{snr, r.AverageNoise, r.Smoothness, r.DynamicRange, r.Tier})
}

// Peak is an accepted flash peak in the conditioned series.
type Peak struct {
	SampleIndex  int     `json:"sample_index"`
	Time         float64 `json:"time"`
	Value        float64 `json:"value"`
	Significance float64 `json:"significance"` // Standard score against the whole series
}

// candidate is a local maximum that passed the threshold test but has not
// yet been through suppression.
type candidate struct {
	index        int
	value        float64
	significance float64
}
