package config

import "strings"

const (
	defaultFPS         = 30
	defaultRate        = "auto"
	defaultStrength    = "medium"
	defaultSensitivity = "medium"
	defaultLanguage    = "eng"
	defaultMinScaleDim = 150
	defaultWorkers     = 1
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
)

// fieldDefault describes how one key gets its default value.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

func (c *Config) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "input.fps",
			need:  func() bool { return c.Input.FPS <= 0 },
			apply: func() { c.Input.FPS = defaultFPS },
		},
		stringFieldDefault("sampling.rate", &c.Sampling.Rate, defaultRate),
		stringFieldDefault("signal.strength", &c.Signal.Strength, defaultStrength),
		stringFieldDefault("signal.sensitivity", &c.Signal.Sensitivity, defaultSensitivity),
		stringFieldDefault("ocr.language", &c.OCR.Language, defaultLanguage),
		// An explicit 0 disables upscaling.
		fieldDefault{
			key:   "ocr.min_scale_dim",
			need:  func() bool { return c.OCR.MinScaleDim <= 0 },
			apply: func() { c.OCR.MinScaleDim = defaultMinScaleDim },
		},
		fieldDefault{
			key:   "pipeline.workers",
			need:  func() bool { return c.Pipeline.Workers <= 0 },
			apply: func() { c.Pipeline.Workers = defaultWorkers },
		},
		stringFieldDefault("log.level", &c.Log.Level, defaultLogLevel),
		stringFieldDefault("log.format", &c.Log.Format, defaultLogFormat),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return strings.TrimSpace(*target) == "" },
		apply: func() { *target = def },
	}
}
