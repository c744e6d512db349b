package pipeline

import (
	"log/slog"

	"meterflash/internal/config"
	"meterflash/internal/ocr"
	"meterflash/internal/preprocess"
	"meterflash/internal/signal"
	"meterflash/pkg/geometry"
)

// Options configures a pipeline run.
type Options struct {
	BrightnessROI geometry.RectInt // Region whose mean luma forms the signal
	OCRROI        geometry.RectInt // Region holding the digits

	Rate        Rate
	Strength    signal.Strength
	Sensitivity signal.Sensitivity

	// Workers bounds how many peaks are recognised at once. Strategies for
	// one peak always run one after another.
	Workers int

	Preprocess preprocess.Params
	OCR        ocr.Config

	Logger *slog.Logger
}

// DefaultOptions returns options with medium settings and no ROIs.
func DefaultOptions() Options {
	return Options{
		Rate:        RateAuto,
		Strength:    signal.StrengthMedium,
		Sensitivity: signal.SensitivityMedium,
		Workers:     1,
		Preprocess:  preprocess.DefaultParams(),
		OCR:         ocr.DigitConfig(),
	}
}

// OptionsFromConfig converts a loaded configuration. Unrecognised rate,
// strength and sensitivity names fall back to their defaults with a warning.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	if logger == nil {
		logger = slog.Default()
	}
	opts := DefaultOptions()
	opts.BrightnessROI = cfg.ROI.Brightness
	opts.OCRROI = cfg.ROI.OCR
	opts.Workers = max(1, cfg.Pipeline.Workers)
	opts.Logger = logger

	if rate, ok := ParseRate(cfg.Sampling.Rate); ok {
		opts.Rate = rate
	} else {
		logger.Warn("unknown sampling rate, using auto", "rate", cfg.Sampling.Rate)
	}
	if strength, ok := signal.ParseStrength(cfg.Signal.Strength); ok {
		opts.Strength = strength
	} else {
		logger.Warn("unknown filter strength, using medium", "strength", cfg.Signal.Strength)
	}
	if sensitivity, ok := signal.ParseSensitivity(cfg.Signal.Sensitivity); ok {
		opts.Sensitivity = sensitivity
	} else {
		logger.Warn("unknown peak sensitivity, using medium", "sensitivity", cfg.Signal.Sensitivity)
	}
	return opts
}
