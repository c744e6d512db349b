// Package pipeline runs the flash-synchronised reading extraction: sample the
// brightness ROI, condition the series, find the flashes and read the digits
// at each one.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"time"

	"meterflash/internal/fusion"
	"meterflash/internal/ocr"
	"meterflash/internal/preprocess"
	"meterflash/internal/signal"
	"meterflash/internal/video"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrMissingROI is returned before any sampling when a region is not set.
	ErrMissingROI = errors.New("pipeline: region of interest not set")

	// ErrMissingCollaborator is returned when the frame source or recognizer is nil.
	ErrMissingCollaborator = errors.New("pipeline: frame source or recognizer not set")
)

// Pipeline extracts readings from one frame source.
type Pipeline struct {
	source     video.FrameSource
	recognizer ocr.Recognizer
	opts       Options
	log        *slog.Logger
}

// New checks the options and returns a pipeline ready to run.
func New(source video.FrameSource, recognizer ocr.Recognizer, opts Options) (*Pipeline, error) {
	if source == nil || recognizer == nil {
		return nil, ErrMissingCollaborator
	}
	if opts.BrightnessROI.Empty() {
		return nil, fmt.Errorf("%w: brightness", ErrMissingROI)
	}
	if opts.OCRROI.Empty() {
		return nil, fmt.Errorf("%w: ocr", ErrMissingROI)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{source: source, recognizer: recognizer, opts: opts, log: log}, nil
}

// Run performs one extraction. When ctx is cancelled it stops scheduling
// peaks and returns the readings completed so far together with ctx.Err().
func (p *Pipeline) Run(ctx context.Context) (*Run, error) {
	run := &Run{
		ID:       uuid.NewString(),
		Started:  time.Now(),
		Duration: p.source.Duration(),
	}
	run.SampleRate = p.opts.Rate.SamplesPerSecond(run.Duration)
	log := p.log.With("run", run.ID)

	log.Info("sampling brightness",
		"duration", run.Duration,
		"rate", p.opts.Rate.String(),
		"samples_per_second", run.SampleRate)

	samples, failures, err := p.sample(ctx, log, SampleTimes(run.Duration, run.SampleRate))
	run.Failures = append(run.Failures, failures...)
	if err != nil {
		run.Samples = samples
		return p.finish(run), err
	}

	run.Samples, run.Report = signal.ConditionSamples(samples, p.opts.Strength)
	log.Info("conditioned signal",
		"samples", len(run.Samples),
		"strength", p.opts.Strength.String(),
		"snr", run.Report.SignalToNoise,
		"tier", run.Report.Tier.String())
	if run.Report.Tier == signal.TierPoor && len(run.Samples) > 0 {
		log.Warn("brightness signal is noisy, peaks may be unreliable")
	}

	run.Peaks = signal.DetectSamples(run.Samples, p.opts.Sensitivity)
	log.Info("detected peaks", "count", len(run.Peaks), "sensitivity", p.opts.Sensitivity.String())

	err = p.readPeaks(ctx, log, run)
	return p.finish(run), err
}

func (p *Pipeline) finish(run *Run) *Run {
	sort.SliceStable(run.Failures, func(i, j int) bool {
		return run.Failures[i].Occurrence < run.Failures[j].Occurrence
	})
	run.Elapsed = time.Since(run.Started)
	run.Summary = Summarize(run)
	return run
}

// sample measures the brightness ROI at each time. Frames that cannot be
// read or cropped are skipped and recorded.
func (p *Pipeline) sample(ctx context.Context, log *slog.Logger, times []float64) ([]signal.Sample, []Failure, error) {
	samples := make([]signal.Sample, 0, len(times))
	var failures []Failure

	for _, t := range times {
		if err := ctx.Err(); err != nil {
			return samples, failures, err
		}

		frame, err := p.source.FrameAt(ctx, t)
		if err == nil {
			var b float64
			b, err = video.RegionBrightness(frame, p.opts.BrightnessROI)
			if err == nil {
				samples = append(samples, signal.Sample{Index: len(samples), Time: t, Raw: b})
				continue
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return samples, failures, ctxErr
		}

		log.Warn("skipping sample", "time", t, "error", err)
		failures = append(failures, Failure{
			Stage:      StageSampling,
			Occurrence: -1,
			Strategy:   fusion.NoStrategy,
			Time:       t,
			Err:        err.Error(),
		})
	}
	return samples, failures, nil
}

// peakOutcome is what a worker hands to the collector.
type peakOutcome struct {
	result   fusion.Result
	failures []Failure
}

// readPeaks recognises the digits at every peak with bounded parallelism.
// Workers send finished peaks to a single collector; peaks abandoned because
// of cancellation produce nothing.
func (p *Pipeline) readPeaks(ctx context.Context, log *slog.Logger, run *Run) error {
	outcomes := make(chan peakOutcome)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for o := range outcomes {
			run.Results = append(run.Results, o.result)
			run.Failures = append(run.Failures, o.failures...)
		}
	}()

	var g errgroup.Group
	g.SetLimit(p.opts.Workers)
	for occurrence, peak := range run.Peaks {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if o, ok := p.readPeak(ctx, log, occurrence, peak); ok {
				outcomes <- o
			}
			return nil
		})
	}
	_ = g.Wait()
	close(outcomes)
	<-done

	sort.Slice(run.Results, func(i, j int) bool {
		return run.Results[i].Occurrence < run.Results[j].Occurrence
	})
	if err := ctx.Err(); err != nil {
		log.Warn("run cancelled", "read", len(run.Results), "peaks", len(run.Peaks))
		return err
	}
	return nil
}

// readPeak grabs the frame at a peak and fuses one candidate per strategy.
// It reports false when the context ends before the peak is complete.
func (p *Pipeline) readPeak(ctx context.Context, log *slog.Logger, occurrence int, peak signal.Peak) (peakOutcome, bool) {
	if ctx.Err() != nil {
		return peakOutcome{}, false
	}
	log = log.With("occurrence", occurrence, "time", peak.Time)

	var out peakOutcome
	record := func(f Failure) {
		f.Occurrence = occurrence
		f.Time = peak.Time
		log.Warn("peak stage failed", "stage", string(f.Stage), "strategy", f.Strategy, "error", f.Err)
		out.failures = append(out.failures, f)
	}

	crop, err := p.grab(ctx, peak.Time)
	if err != nil {
		if ctx.Err() != nil {
			return peakOutcome{}, false
		}
		record(Failure{Stage: StageFrame, Strategy: fusion.NoStrategy, Err: err.Error()})
		out.result = fusion.Fuse(placeholders())
	} else {
		read, err := ReadRegion(ctx, p.recognizer, crop, p.opts)
		if err != nil {
			return peakOutcome{}, false
		}
		for _, f := range read.Failures {
			record(f)
		}
		for _, c := range read.Candidates {
			log.Debug("candidate", "strategy", preprocess.Strategy(c.Strategy).String(), "text", c.Text, "confidence", c.Confidence)
		}
		out.result = read.Fuse()
	}

	out.result.Occurrence = occurrence
	out.result.FrameTime = peak.Time
	if out.result.Valid() {
		log.Info("reading", "value", out.result.Value, "score", out.result.Score, "strategy", out.result.Strategy)
	} else {
		log.Warn("no reading", "raw_text", out.result.RawText)
	}
	return out, true
}

// placeholders returns an empty candidate for every strategy.
func placeholders() []fusion.Candidate {
	strategies := preprocess.All()
	candidates := make([]fusion.Candidate, len(strategies))
	for i, s := range strategies {
		candidates[i] = fusion.Candidate{Strategy: int(s)}
	}
	return candidates
}

func (p *Pipeline) grab(ctx context.Context, t float64) (image.Image, error) {
	frame, err := p.source.FrameAt(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("grab frame: %w", err)
	}
	crop, err := video.Crop(frame, p.opts.OCRROI)
	if err != nil {
		return nil, fmt.Errorf("crop ocr region: %w", err)
	}
	return crop, nil
}
