package fusion

import (
	"encoding/json"
	"math"
	"sort"
)

// NoStrategy marks a result that no candidate contributed to.
const NoStrategy = -1

// Selection thresholds for the first two tiers.
const (
	decimalTierMinScore = 0.3
	validTierMinScore   = 0.2
)

// Candidate is one OCR reading of a preprocessed variant.
type Candidate struct {
	Strategy   int     `json:"strategy"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0-100
}

// Scored is a candidate with its analysis and score.
type Scored struct {
	Candidate
	Analysis Analysis
	Score    float64
}

// Result is the fused reading for one peak.
type Result struct {
	Occurrence      int     // Position of the peak in time order, from 0
	FrameTime       float64 // Seconds
	Value           float64 // NaN when nothing parsed
	RawText         string  // OCR text of the chosen candidate
	Confidence      float64 // OCR confidence of the chosen candidate
	Strategy        int     // Chosen strategy ID, or NoStrategy
	HasDecimalPoint bool
	Score           float64
}

// Valid reports whether the result carries a number.
func (r Result) Valid() bool {
	return !math.IsNaN(r.Value)
}

// MarshalJSON writes a NaN value as null.
func (r Result) MarshalJSON() ([]byte, error) {
	var value *float64
	if r.Valid() {
		v := r.Value
		value = &v
	}
	return json.Marshal(struct {
		Occurrence      int      `json:"occurrence"`
		FrameTime       float64  `json:"frame_time"`
		Value           *float64 `json:"value"`
		RawText         string   `json:"raw_text"`
		Confidence      float64  `json:"confidence"`
		Strategy        int      `json:"strategy"`
		HasDecimalPoint bool     `json:"has_decimal_point"`
		Score           float64  `json:"score"`
	}{r.Occurrence, r.FrameTime, value, r.RawText, r.Confidence, r.Strategy, r.HasDecimalPoint, r.Score})
}

// Empty returns the result used when there is nothing to fuse.
func Empty() Result {
	return Result{Value: math.NaN(), Strategy: NoStrategy}
}

// Evaluate analyses and scores each candidate. The output is ordered by
// strategy ID; candidates with equal IDs keep their input order.
func Evaluate(candidates []Candidate) []Scored {
	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		a := Analyze(c.Text)
		scored[i] = Scored{Candidate: c, Analysis: a, Score: Score(a, c.Confidence)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Strategy < scored[j].Strategy
	})
	return scored
}

// Fuse picks the best reading among candidates. The first tier that has any
// member wins:
//  1. decimal, valid and scoring above 0.3
//  2. valid and scoring above 0.2
//  3. anything, even if unparsable
//
// An unparsable winner yields a NaN value with zero confidence and
// NoStrategy, like an empty candidate list.
//
// Within a tier the highest score wins; equal scores go to the lower
// strategy ID.
func Fuse(candidates []Candidate) Result {
	scored := Evaluate(candidates)
	if len(scored) == 0 {
		return Empty()
	}

	best := pick(scored, func(s Scored) bool {
		return s.Analysis.HasDecimalPoint && s.Analysis.IsValidNumber && s.Score > decimalTierMinScore
	})
	if best == nil {
		best = pick(scored, func(s Scored) bool {
			return s.Analysis.IsValidNumber && s.Score > validTierMinScore
		})
	}
	if best == nil {
		best = pick(scored, func(Scored) bool { return true })
	}

	if !best.Analysis.IsValidNumber {
		// Nothing parsed: keep the text for diagnostics but claim no source.
		r := Empty()
		r.RawText = best.Text
		r.Score = best.Score
		return r
	}

	return Result{
		Value:           best.Analysis.Value,
		RawText:         best.Text,
		Confidence:      best.Confidence,
		Strategy:        best.Strategy,
		HasDecimalPoint: best.Analysis.HasDecimalPoint,
		Score:           best.Score,
	}
}

func pick(scored []Scored, keep func(Scored) bool) *Scored {
	var best *Scored
	for i := range scored {
		if !keep(scored[i]) {
			continue
		}
		if best == nil || scored[i].Score > best.Score {
			best = &scored[i]
		}
	}
	return best
}
