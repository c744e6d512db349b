// Package preprocess binarizes a cropped meter region several different ways
// so that the OCR stage has qualitatively different variants to compare.
package preprocess

import "image"

// Strategy identifies one preprocessing method. The numeric value is the
// strategy ID carried through OCR and fusion.
type Strategy int

const (
	StrategyBasic Strategy = iota
	StrategyOtsu
	StrategyAdaptive
	StrategyMorphological
	StrategyContrastSharpen

	numStrategies
)

func (s Strategy) String() string {
	switch s {
	case StrategyBasic:
		return "basic"
	case StrategyOtsu:
		return "otsu"
	case StrategyAdaptive:
		return "adaptive"
	case StrategyMorphological:
		return "morphological"
	case StrategyContrastSharpen:
		return "contrast-sharpen"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	return s >= 0 && s < numStrategies
}

// All returns every strategy in ID order.
func All() []Strategy {
	out := make([]Strategy, 0, numStrategies)
	for s := Strategy(0); s < numStrategies; s++ {
		out = append(out, s)
	}
	return out
}

// Params holds the tunable constants of the strategies.
type Params struct {
	// Basic threshold: mean brightness minus offset, kept within [Min, Max]
	BasicOffset float64
	BasicMin    float64
	BasicMax    float64

	// Adaptive threshold: local mean minus C. The large block is used when
	// both sides of the region exceed SizeCutoff pixels.
	AdaptiveC          int
	AdaptiveLargeBlock int
	AdaptiveSmallBlock int
	AdaptiveSizeCutoff int

	// Threshold applied after contrast stretch and sharpening
	SharpenThreshold float64
}

// DefaultParams returns the parameters tuned for dark seven-segment or LCD
// digits on a light background.
func DefaultParams() Params {
	return Params{
		BasicOffset:        10,
		BasicMin:           140,
		BasicMax:           180,
		AdaptiveC:          8,
		AdaptiveLargeBlock: 11,
		AdaptiveSmallBlock: 7,
		AdaptiveSizeCutoff: 20,
		SharpenThreshold:   128,
	}
}

// Stats describes a binarized variant.
type Stats struct {
	Threshold float64 `json:"threshold"` // Global threshold used, -1 for per-pixel thresholds
	White     int     `json:"white"`     // Pixels set to 255
	Black     int     `json:"black"`     // Pixels set to 0
	Mean      float64 `json:"mean"`      // Mean grayscale of the input region
}

// Variant is one strategy's output for a region.
type Variant struct {
	Strategy Strategy
	Image    *image.Gray
	Stats    Stats
}

// Name returns the strategy's display name.
func (v Variant) Name() string {
	return v.Strategy.String()
}
