package config

import (
	"errors"
	"fmt"
	"strings"
)

// validateRanges checks values that are wrong regardless of how the run is
// started.
func (c *Config) validateRanges() error {
	var errs []error
	if c.Input.FPS <= 0 {
		errs = append(errs, fmt.Errorf("input.fps must be > 0"))
	}
	if c.OCR.MinScaleDim < 0 {
		errs = append(errs, fmt.Errorf("ocr.min_scale_dim must be >= 0"))
	}
	if c.Pipeline.Workers <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.workers must be >= 1"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Validate checks that the configuration is complete enough to start a run.
// Unknown sampling, strength and sensitivity names are not errors; the
// pipeline falls back to its defaults for them.
func (c *Config) Validate() error {
	var errs []error
	if err := c.validateRanges(); err != nil {
		errs = append(errs, err)
	}

	hasVideo := strings.TrimSpace(c.Input.Video) != ""
	hasFrames := strings.TrimSpace(c.Input.Frames) != ""
	switch {
	case !hasVideo && !hasFrames:
		errs = append(errs, fmt.Errorf("input.video or input.frames is required"))
	case hasVideo && hasFrames:
		errs = append(errs, fmt.Errorf("input.video and input.frames are mutually exclusive"))
	}

	if c.ROI.Brightness.Empty() {
		errs = append(errs, fmt.Errorf("roi.brightness is required"))
	}
	if c.ROI.OCR.Empty() {
		errs = append(errs, fmt.Errorf("roi.ocr is required"))
	}
	return errors.Join(errs...)
}
