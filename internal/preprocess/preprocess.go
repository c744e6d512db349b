package preprocess

import (
	"errors"
	"fmt"
	"image"

	"meterflash/pkg/colorutil"

	"gocv.io/x/gocv"
)

var (
	// ErrEmptyImage is returned for a nil image or one with no pixels.
	ErrEmptyImage = errors.New("preprocess: empty image")
	// ErrUnknownStrategy is returned for a strategy ID outside All().
	ErrUnknownStrategy = errors.New("preprocess: unknown strategy")
)

// Preprocess runs one strategy with the default parameters.
func Preprocess(img image.Image, s Strategy) (Variant, error) {
	return PreprocessWithParams(img, s, DefaultParams())
}

// PreprocessWithParams converts img to grayscale and applies strategy s.
// The input is never modified.
func PreprocessWithParams(img image.Image, s Strategy, p Params) (Variant, error) {
	if !s.Valid() {
		return Variant{}, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(s))
	}
	gray := colorutil.ToGray(img)
	if gray == nil {
		return Variant{}, ErrEmptyImage
	}

	borrowed, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return Variant{}, fmt.Errorf("failed to convert region: %w", err)
	}
	// The converted Mat may point at gray's pixels; work on an owned copy.
	src := borrowed.Clone()
	borrowed.Close()
	defer src.Close()

	mean := src.Mean().Val1
	binary := gocv.NewMat()
	defer binary.Close()

	threshold := -1.0
	switch s {
	case StrategyBasic:
		threshold = basicThreshold(mean, p)
		binarize(src, &binary, threshold)
	case StrategyOtsu:
		threshold = otsu(src, &binary)
	case StrategyAdaptive:
		adaptive(src, &binary, p)
	case StrategyMorphological:
		threshold = basicThreshold(mean, p)
		binarize(src, &binary, threshold)
		closeDark(binary, &binary)
	case StrategyContrastSharpen:
		stretched := gocv.NewMat()
		defer stretched.Close()
		sharpened := gocv.NewMat()
		defer sharpened.Close()

		stretchContrast(src, &stretched)
		sharpen(stretched, &sharpened)
		threshold = p.SharpenThreshold
		binarize(sharpened, &binary, threshold)
	}

	out, err := matToGray(binary)
	if err != nil {
		return Variant{}, fmt.Errorf("failed to convert %s variant: %w", s, err)
	}
	white := gocv.CountNonZero(binary)
	return Variant{
		Strategy: s,
		Image:    out,
		Stats: Stats{
			Threshold: threshold,
			White:     white,
			Black:     binary.Rows()*binary.Cols() - white,
			Mean:      mean,
		},
	}, nil
}

// PreprocessAll runs every strategy over img. The slice is indexed by
// strategy ID; errs[i] is non-nil when strategy i failed.
func PreprocessAll(img image.Image) ([]Variant, []error) {
	strategies := All()
	variants := make([]Variant, len(strategies))
	errs := make([]error, len(strategies))
	for i, s := range strategies {
		variants[i], errs[i] = Preprocess(img, s)
	}
	return variants, errs
}

// matToGray copies a single-channel 8-bit Mat into a new image.Gray.
func matToGray(m gocv.Mat) (*image.Gray, error) {
	img, err := m.ToImage()
	if err != nil {
		return nil, err
	}
	g, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected image type %T", img)
	}
	return g, nil
}
