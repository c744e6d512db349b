// Package ocr defines the text recognition service used on preprocessed
// meter crops. Backends live in subpackages.
package ocr

import (
	"context"
	"errors"
	"image"
)

// DigitChars is the whitelist for meter readings.
const DigitChars = "0123456789."

// ErrEmptyImage is returned when there is nothing to recognise.
var ErrEmptyImage = errors.New("ocr: empty image")

// PageSegMode tells the engine how the text in the image is laid out.
type PageSegMode int

const (
	SegSingleLine  PageSegMode = iota // One line of text
	SegSingleWord                     // One word
	SegSingleBlock                    // A uniform block of text
	SegRawLine                        // One line, bypassing engine-specific layout hacks
)

func (m PageSegMode) String() string {
	switch m {
	case SegSingleLine:
		return "single-line"
	case SegSingleWord:
		return "single-word"
	case SegSingleBlock:
		return "single-block"
	case SegRawLine:
		return "raw-line"
	default:
		return "unknown"
	}
}

// Config is applied to every call; a backend must not carry it over from a
// previous call.
type Config struct {
	Whitelist   string      // Characters the engine may emit; empty allows all
	PageSegMode PageSegMode // Layout hint
}

// DigitConfig returns the configuration used for meter digits.
func DigitConfig() Config {
	return Config{Whitelist: DigitChars, PageSegMode: SegSingleLine}
}

// Recognition is the engine's answer for one image.
type Recognition struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0-100
}

// Recognizer turns an image into text. Implementations must be safe to call
// from several goroutines; calls may block on a shared engine.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, cfg Config) (Recognition, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, img image.Image, cfg Config) (Recognition, error)

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, img image.Image, cfg Config) (Recognition, error) {
	return f(ctx, img, cfg)
}

// ClampConfidence limits a confidence to [0, 100].
func ClampConfidence(c float64) float64 {
	switch {
	case c != c: // NaN
		return 0
	case c < 0:
		return 0
	case c > 100:
		return 100
	default:
		return c
	}
}
