package pipeline

import (
	"encoding/json"
	"math"
	"time"

	"meterflash/internal/fusion"
	"meterflash/internal/signal"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stage names where a failure happened.
type Stage string

const (
	StageSampling   Stage = "sampling"   // Brightness frame grab or crop
	StageFrame      Stage = "frame"      // Frame grab or crop at a peak
	StagePreprocess Stage = "preprocess" // One preprocessing strategy
	StageOCR        Stage = "ocr"        // One recognizer call
)

// Failure is a recoverable problem recorded during a run.
type Failure struct {
	Stage      Stage   `json:"stage"`
	Occurrence int     `json:"occurrence"` // Peak occurrence, -1 during sampling
	Strategy   int     `json:"strategy"`   // Strategy ID, or fusion.NoStrategy
	Time       float64 `json:"time"`
	Err        string  `json:"error"`
}

// Run is the outcome of one extraction.
type Run struct {
	ID         string          `json:"id"`
	Started    time.Time       `json:"started"`
	Elapsed    time.Duration   `json:"elapsed"`
	Duration   float64         `json:"duration"`    // Seconds of footage
	SampleRate float64         `json:"sample_rate"` // Samples per second
	Samples    []signal.Sample `json:"samples"`
	Report     signal.Report   `json:"report"`
	Peaks      []signal.Peak   `json:"peaks"`
	Results    []fusion.Result `json:"results"` // One per completed peak, by occurrence
	Failures   []Failure       `json:"failures"`
	Summary    Summary         `json:"summary"`
}

// Summary condenses a run into counts and reading statistics.
type Summary struct {
	Samples  int
	Peaks    int
	Readings int // Results that carry a number
	Failures int
	Tier     signal.QualityTier
	Mean     float64 // Over valid readings; NaN when there are none
	Min      float64
	Max      float64
}

// Summarize computes the summary of run.
func Summarize(run *Run) Summary {
	s := Summary{
		Samples:  len(run.Samples),
		Peaks:    len(run.Peaks),
		Failures: len(run.Failures),
		Tier:     run.Report.Tier,
		Mean:     math.NaN(),
		Min:      math.NaN(),
		Max:      math.NaN(),
	}

	var values []float64
	for _, r := range run.Results {
		if r.Valid() {
			values = append(values, r.Value)
		}
	}
	s.Readings = len(values)
	if len(values) > 0 {
		s.Mean = stat.Mean(values, nil)
		s.Min = floats.Min(values)
		s.Max = floats.Max(values)
	}
	return s
}

// MarshalJSON writes the statistics as null when there are no readings.
func (s Summary) MarshalJSON() ([]byte, error) {
	num := func(v float64) *float64 {
		if math.IsNaN(v) {
			return nil
		}
		return &v
	}
	return json.Marshal(struct {
		Samples  int                `json:"samples"`
		Peaks    int                `json:"peaks"`
		Readings int                `json:"readings"`
		Failures int                `json:"failures"`
		Tier     signal.QualityTier `json:"tier"`
		Mean     *float64           `json:"mean"`
		Min      *float64           `json:"min"`
		Max      *float64           `json:"max"`
	}{s.Samples, s.Peaks, s.Readings, s.Failures, s.Tier, num(s.Mean), num(s.Min), num(s.Max)})
}
