package pipeline

import (
	"context"
	"errors"
	"image"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"meterflash/internal/config"
	"meterflash/internal/fusion"
	"meterflash/internal/logging"
	"meterflash/internal/ocr"
	"meterflash/internal/signal"
	"meterflash/internal/video"
	"meterflash/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testFPS       = 10
	testFrames    = 60 // 6 s of footage, sampled at 30/s
	frameW        = 64
	frameH        = 48
	baseLevel     = 20
	flashLevel    = 220
	strategyCount = 5
)

var (
	brightROI = geometry.NewRectInt(0, 0, 16, 16)
	digitROI  = geometry.NewRectInt(32, 16, 24, 16)
)

// flashFrames builds footage whose brightness ROI flashes on the given frames.
func flashFrames(flashes ...int) []image.Image {
	lit := make(map[int]bool, len(flashes))
	for _, f := range flashes {
		lit[f] = true
	}
	frames := make([]image.Image, testFrames)
	for i := range frames {
		img := image.NewGray(image.Rect(0, 0, frameW, frameH))
		for j := range img.Pix {
			img.Pix[j] = 255
		}
		level := uint8(baseLevel)
		if lit[i] {
			level = flashLevel
		}
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				img.Pix[y*img.Stride+x] = level
			}
		}
		frames[i] = img
	}
	return frames
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.BrightnessROI = brightROI
	opts.OCRROI = digitROI
	opts.Logger = logging.Discard()
	return opts
}

func newTestPipeline(t *testing.T, src video.FrameSource, rec ocr.Recognizer, opts Options) *Pipeline {
	t.Helper()
	p, err := New(src, rec, opts)
	require.NoError(t, err)
	return p
}

func sequence(t *testing.T, flashes ...int) *video.Sequence {
	t.Helper()
	seq, err := video.NewSequence(flashFrames(flashes...), testFPS)
	require.NoError(t, err)
	return seq
}

// scripted answers by call number; with one worker calls for a peak are
// consecutive.
type scripted struct {
	calls  atomic.Int64
	answer func(call int) (ocr.Recognition, error)
}

func (s *scripted) Recognize(_ context.Context, _ image.Image, _ ocr.Config) (ocr.Recognition, error) {
	call := int(s.calls.Add(1) - 1)
	return s.answer(call)
}

func constant(text string, conf float64) ocr.Recognizer {
	return ocr.RecognizerFunc(func(context.Context, image.Image, ocr.Config) (ocr.Recognition, error) {
		return ocr.Recognition{Text: text, Confidence: conf}, nil
	})
}

func TestNewRejectsMissingROI(t *testing.T) {
	opts := testOptions()
	opts.OCRROI = geometry.RectInt{}
	_, err := New(sequence(t), constant("1", 90), opts)
	assert.ErrorIs(t, err, ErrMissingROI)

	opts = testOptions()
	opts.BrightnessROI = geometry.NewRectInt(0, 0, 0, 5)
	_, err = New(sequence(t), constant("1", 90), opts)
	assert.ErrorIs(t, err, ErrMissingROI)
}

func TestNewRejectsMissingCollaborators(t *testing.T) {
	_, err := New(nil, constant("1", 90), testOptions())
	assert.ErrorIs(t, err, ErrMissingCollaborator)

	_, err = New(sequence(t), nil, testOptions())
	assert.ErrorIs(t, err, ErrMissingCollaborator)
}

func TestRunReadsEachFlash(t *testing.T) {
	rec := &scripted{answer: func(call int) (ocr.Recognition, error) {
		if call < strategyCount {
			return ocr.Recognition{Text: "7", Confidence: 80}, nil
		}
		return ocr.Recognition{Text: "42.5", Confidence: 90}, nil
	}}
	p := newTestPipeline(t, sequence(t, 15, 40), rec, testOptions())

	run, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 180, len(run.Samples))
	assert.Equal(t, 30.0, run.SampleRate)
	require.Len(t, run.Peaks, 2)
	require.Len(t, run.Results, 2)

	assert.InDelta(t, 1.5, run.Peaks[0].Time, 0.1)
	assert.InDelta(t, 4.0, run.Peaks[1].Time, 0.1)

	first, second := run.Results[0], run.Results[1]
	assert.Equal(t, 0, first.Occurrence)
	assert.Equal(t, 7.0, first.Value)
	assert.Equal(t, run.Peaks[0].Time, first.FrameTime)
	assert.Equal(t, 1, second.Occurrence)
	assert.Equal(t, 42.5, second.Value)
	assert.True(t, second.HasDecimalPoint)
	assert.Equal(t, 0, second.Strategy)

	assert.Empty(t, run.Failures)
	assert.Equal(t, 2, run.Summary.Readings)
	assert.InDelta(t, 24.75, run.Summary.Mean, 1e-9)
	assert.Equal(t, 7.0, run.Summary.Min)
	assert.Equal(t, 42.5, run.Summary.Max)
	assert.Equal(t, int64(2*strategyCount), rec.calls.Load())
}

func TestRunOrdersResultsWithManyWorkers(t *testing.T) {
	opts := testOptions()
	opts.Workers = 4
	p := newTestPipeline(t, sequence(t, 5, 20, 35, 50), constant("12.5", 90), opts)

	run, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, run.Results, len(run.Peaks))
	require.NotEmpty(t, run.Results)

	for i, r := range run.Results {
		assert.Equal(t, i, r.Occurrence)
		assert.Equal(t, run.Peaks[i].Time, r.FrameTime)
		assert.Equal(t, 12.5, r.Value)
	}
}

func TestRunBoundsConcurrentRecognition(t *testing.T) {
	var inFlight, peak atomic.Int64
	rec := ocr.RecognizerFunc(func(context.Context, image.Image, ocr.Config) (ocr.Recognition, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		return ocr.Recognition{Text: "3.1", Confidence: 70}, nil
	})

	opts := testOptions()
	opts.Workers = 2
	p := newTestPipeline(t, sequence(t, 5, 20, 35, 50), rec, opts)

	run, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, run.Results)
	// One call per peak at a time, so never more than the worker count.
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestRunReplacesFailedStrategiesWithPlaceholders(t *testing.T) {
	rec := &scripted{answer: func(call int) (ocr.Recognition, error) {
		switch call % strategyCount {
		case 0:
			return ocr.Recognition{}, errors.New("engine busy")
		case 1:
			panic("bad image")
		default:
			return ocr.Recognition{Text: "88.2", Confidence: 75}, nil
		}
	}}
	p := newTestPipeline(t, sequence(t, 30), rec, testOptions())

	run, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, run.Results, 1)

	r := run.Results[0]
	assert.Equal(t, 88.2, r.Value)
	assert.Equal(t, 2, r.Strategy)

	require.Len(t, run.Failures, 2)
	for _, f := range run.Failures {
		assert.Equal(t, StageOCR, f.Stage)
		assert.Equal(t, 0, f.Occurrence)
	}
	assert.Contains(t, run.Failures[1].Err, "panic")
}

func TestRunAllStrategiesFailing(t *testing.T) {
	rec := ocr.RecognizerFunc(func(context.Context, image.Image, ocr.Config) (ocr.Recognition, error) {
		return ocr.Recognition{}, errors.New("no engine")
	})
	p := newTestPipeline(t, sequence(t, 30), rec, testOptions())

	run, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, run.Results, 1)

	r := run.Results[0]
	assert.True(t, math.IsNaN(r.Value))
	assert.Equal(t, fusion.NoStrategy, r.Strategy)
	assert.Equal(t, 0.0, r.Confidence)
	assert.Len(t, run.Failures, strategyCount)
	assert.Equal(t, 0, run.Summary.Readings)
	assert.True(t, math.IsNaN(run.Summary.Mean))
}

// flaky fails every frame grab whose sample falls on a multiple of every.
type flaky struct {
	video.FrameSource
	calls atomic.Int64
	every int64
}

func (f *flaky) FrameAt(ctx context.Context, t float64) (image.Image, error) {
	if n := f.calls.Add(1); n%f.every == 0 {
		return nil, errors.New("decoder hiccup")
	}
	return f.FrameSource.FrameAt(ctx, t)
}

func TestRunSkipsFailedSamples(t *testing.T) {
	src := &flaky{FrameSource: sequence(t), every: 10}
	p := newTestPipeline(t, src, constant("1", 90), testOptions())

	run, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, run.Samples, 162)
	assert.Len(t, run.Failures, 18)
	for i, s := range run.Samples {
		assert.Equal(t, i, s.Index)
		if i > 0 {
			assert.Greater(t, s.Time, run.Samples[i-1].Time)
		}
	}
	assert.Equal(t, StageSampling, run.Failures[0].Stage)
	assert.Equal(t, -1, run.Failures[0].Occurrence)
}

func TestRunFlatSignalHasNoPeaks(t *testing.T) {
	p := newTestPipeline(t, sequence(t), constant("1", 90), testOptions())

	run, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, run.Peaks)
	assert.Empty(t, run.Results)
	assert.Equal(t, signal.TierExcellent, run.Report.Tier)
}

func TestRunCancelledDuringRecognition(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := ocr.RecognizerFunc(func(ctx context.Context, _ image.Image, _ ocr.Config) (ocr.Recognition, error) {
		cancel()
		return ocr.Recognition{}, ctx.Err()
	})
	p := newTestPipeline(t, sequence(t, 15, 40), rec, testOptions())

	run, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, run)
	assert.Len(t, run.Peaks, 2)
	assert.Empty(t, run.Results)
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(t, sequence(t, 15), constant("1", 90), testOptions())
	run, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, run.Samples)
	assert.Empty(t, run.Results)
}

func TestGuardRecoversPanic(t *testing.T) {
	err := guard(func() error { panic("boom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	assert.NoError(t, guard(func() error { return nil }))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ROI.Brightness = brightROI
	cfg.ROI.OCR = digitROI
	cfg.Sampling.Rate = "low"
	cfg.Signal.Strength = "extreme"
	cfg.Signal.Sensitivity = "high"
	cfg.Pipeline.Workers = 3

	opts := OptionsFromConfig(cfg, logging.Discard())
	assert.Equal(t, RateLow, opts.Rate)
	assert.Equal(t, signal.StrengthMedium, opts.Strength)
	assert.Equal(t, signal.SensitivityHigh, opts.Sensitivity)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, brightROI, opts.BrightnessROI)
	assert.Equal(t, ocr.DigitChars, opts.OCR.Whitelist)
}
