package preprocess

import (
	"math"

	"gocv.io/x/gocv"
)

// basicThreshold keeps the global threshold within the range where dark
// digits on a lit background separate cleanly.
func basicThreshold(mean float64, p Params) float64 {
	return min(max(mean-p.BasicOffset, p.BasicMin), p.BasicMax)
}

// binarize sets pixels above t to 255 and the rest to 0. For 8-bit pixels
// v > t holds exactly when v > floor(t).
func binarize(src gocv.Mat, dst *gocv.Mat, t float64) {
	gocv.Threshold(src, dst, float32(math.Floor(t)), 255, gocv.ThresholdBinary)
}

// otsu binarizes at the threshold that maximises the between-class variance
// and returns that threshold.
func otsu(src gocv.Mat, dst *gocv.Mat) float64 {
	return float64(gocv.Threshold(src, dst, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu))
}

func adaptiveBlock(m gocv.Mat, p Params) int {
	if min(m.Rows(), m.Cols()) > p.AdaptiveSizeCutoff {
		return p.AdaptiveLargeBlock
	}
	return p.AdaptiveSmallBlock
}

// adaptive compares each pixel with the mean of the block around it minus C.
// Blocks are padded by replicating the edge pixels.
func adaptive(src gocv.Mat, dst *gocv.Mat, p Params) {
	gocv.AdaptiveThreshold(src, dst, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinary,
		adaptiveBlock(src, p), float32(p.AdaptiveC))
}
