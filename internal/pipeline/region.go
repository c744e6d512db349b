package pipeline

import (
	"context"
	"fmt"
	"image"

	"meterflash/internal/fusion"
	"meterflash/internal/ocr"
	"meterflash/internal/preprocess"
)

// RegionRead is every strategy's attempt at one digit region.
type RegionRead struct {
	// Variants and Candidates are indexed by strategy ID. A strategy that
	// failed leaves a zero Variant and an empty, zero-confidence Candidate.
	Variants   []preprocess.Variant
	Candidates []fusion.Candidate
	// Failures carry Stage, Strategy and Err; Occurrence and Time are left
	// for the caller.
	Failures []Failure
}

// Fuse picks the reading from the candidates.
func (r *RegionRead) Fuse() fusion.Result {
	return fusion.Fuse(r.Candidates)
}

// ReadRegion preprocesses a cropped digit region with every strategy and
// recognises each variant in turn, converting panics in either step into
// failures. It returns ctx.Err() when the context ends before all
// strategies have run.
func ReadRegion(ctx context.Context, recognizer ocr.Recognizer, region image.Image, opts Options) (*RegionRead, error) {
	if recognizer == nil {
		return nil, ErrMissingCollaborator
	}
	strategies := preprocess.All()
	read := &RegionRead{
		Variants:   make([]preprocess.Variant, len(strategies)),
		Candidates: placeholders(),
	}
	fail := func(stage Stage, s preprocess.Strategy, err error) {
		read.Failures = append(read.Failures, Failure{
			Stage:      stage,
			Occurrence: -1,
			Strategy:   int(s),
			Err:        err.Error(),
		})
	}

	for i, s := range strategies {
		if err := ctx.Err(); err != nil {
			return read, err
		}

		var variant preprocess.Variant
		err := guard(func() (err error) {
			variant, err = preprocess.PreprocessWithParams(region, s, opts.Preprocess)
			return err
		})
		if err != nil {
			fail(StagePreprocess, s, err)
			continue
		}
		read.Variants[i] = variant

		var rec ocr.Recognition
		err = guard(func() (err error) {
			rec, err = recognizer.Recognize(ctx, variant.Image, opts.OCR)
			return err
		})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return read, ctxErr
		}
		if err != nil {
			fail(StageOCR, s, err)
			continue
		}
		read.Candidates[i].Text = rec.Text
		read.Candidates[i].Confidence = ocr.ClampConfidence(rec.Confidence)
	}
	return read, nil
}

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
