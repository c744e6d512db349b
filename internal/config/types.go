// Package config loads the meterflash run configuration from YAML.
package config

import (
	"strings"

	"meterflash/pkg/geometry"
)

// Config is the full run configuration.
type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	ROI      ROIConfig      `mapstructure:"roi"`
	Sampling SamplingConfig `mapstructure:"sampling"`
	Signal   SignalConfig   `mapstructure:"signal"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Output   OutputConfig   `mapstructure:"output"`
	Log      LogConfig      `mapstructure:"log"`
}

// InputConfig names the footage. Exactly one of Video and Frames is used.
type InputConfig struct {
	Video  string  `mapstructure:"video"`  // Video file decoded with OpenCV
	Frames string  `mapstructure:"frames"` // Directory of still frames
	FPS    float64 `mapstructure:"fps"`    // Frame rate of Frames
}

// ROIConfig holds the two regions of interest. Either form is accepted:
//
//	brightness: "10,10,40,40"
//	brightness: {x: 10, y: 10, width: 40, height: 40}
type ROIConfig struct {
	Brightness geometry.RectInt `mapstructure:"brightness"`
	OCR        geometry.RectInt `mapstructure:"ocr"`
}

// SamplingConfig selects how densely brightness is sampled.
type SamplingConfig struct {
	Rate string `mapstructure:"rate"` // auto, high, medium or low
}

// SignalConfig tunes conditioning and peak detection.
type SignalConfig struct {
	Strength    string `mapstructure:"strength"`    // light, medium or strong
	Sensitivity string `mapstructure:"sensitivity"` // low, medium or high
}

// OCRConfig configures the Tesseract backend.
type OCRConfig struct {
	Language       string `mapstructure:"language"`
	TessdataPrefix string `mapstructure:"tessdata_prefix"`
	MinScaleDim    int    `mapstructure:"min_scale_dim"`
}

// PipelineConfig controls run parallelism.
type PipelineConfig struct {
	Workers int `mapstructure:"workers"` // Peaks processed at once
}

// OutputConfig lists report destinations; empty paths are skipped.
type OutputConfig struct {
	CSV   string `mapstructure:"csv"`
	JSON  string `mapstructure:"json"`
	Chart string `mapstructure:"chart"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn or error
	Format string `mapstructure:"format"` // text or json
}

// keySet records which dotted keys the config files set explicitly.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}
