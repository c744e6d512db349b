// Package tesseract provides an ocr.Recognizer backed by Tesseract.
package tesseract

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"meterflash/internal/ocr"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// Options configures the engine.
type Options struct {
	Language       string // Tesseract language, "eng" when empty
	TessdataPrefix string // Directory holding traineddata files, engine default when empty
	MinScaleDim    int    // Upscale crops whose smaller side is below this; 0 disables
	Border         int    // White border added around each crop, in pixels
}

// DefaultOptions returns options suited to meter digits.
func DefaultOptions() Options {
	return Options{
		Language:    "eng",
		MinScaleDim: ocr.DefaultMinScaleDim,
		Border:      10,
	}
}

// Engine runs Tesseract through a single long-lived client. Calls are
// serialised and each one sets its own whitelist and segmentation mode.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
	opts   Options
}

// NewEngine creates a new OCR engine.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Language == "" {
		opts.Language = "eng"
	}

	client := gosseract.NewClient()
	if opts.TessdataPrefix != "" {
		client.TessdataPrefix = opts.TessdataPrefix
	}

	if err := client.SetLanguage(opts.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Meter readings are not words; keep the dictionaries from "correcting" them.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")
	_ = client.SetVariable("language_model_penalty_non_dict_word", "0")
	_ = client.SetVariable("language_model_penalty_non_freq_dict_word", "0")

	return &Engine{client: client, opts: opts}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		err := e.client.Close()
		e.client = nil
		return err
	}
	return nil
}

// Recognize implements ocr.Recognizer.
func (e *Engine) Recognize(ctx context.Context, img image.Image, cfg ocr.Config) (ocr.Recognition, error) {
	if img == nil || img.Bounds().Empty() {
		return ocr.Recognition{}, ocr.ErrEmptyImage
	}

	png, err := e.encode(img)
	if err != nil {
		return ocr.Recognition{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// The lock may have been held by a slow call; honour cancellation first.
	if err := ctx.Err(); err != nil {
		return ocr.Recognition{}, err
	}
	if e.client == nil {
		return ocr.Recognition{}, fmt.Errorf("OCR engine closed")
	}

	if err := e.client.SetPageSegMode(pageSegMode(cfg.PageSegMode)); err != nil {
		return ocr.Recognition{}, fmt.Errorf("failed to set PSM: %w", err)
	}
	// An empty whitelist clears the previous call's restriction.
	if err := e.client.SetWhitelist(cfg.Whitelist); err != nil && cfg.Whitelist != "" {
		return ocr.Recognition{}, fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := e.client.SetImageFromBytes(png); err != nil {
		return ocr.Recognition{}, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return ocr.Recognition{}, fmt.Errorf("OCR failed: %w", err)
	}
	text = strings.Join(strings.Fields(text), " ")

	return ocr.Recognition{Text: text, Confidence: e.meanWordConfidence()}, nil
}

// meanWordConfidence averages the positive word confidences of the last
// recognised image. A failure to read boxes yields zero.
func (e *Engine) meanWordConfidence() float64 {
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return 0
	}
	var total float64
	var n int
	for _, box := range boxes {
		if box.Confidence > 0 {
			total += box.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return ocr.ClampConfidence(total / float64(n))
}

// encode upscales and pads the crop, then encodes it as PNG for Tesseract.
func (e *Engine) encode(img image.Image) ([]byte, error) {
	prepared := ocr.Pad(ocr.Upscale(img, e.opts.MinScaleDim), e.opts.Border, color.Gray{Y: 255})

	mat, err := gocv.ImageGrayToMatGray(prepared)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases native memory released by Close.
	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

func pageSegMode(m ocr.PageSegMode) gosseract.PageSegMode {
	switch m {
	case ocr.SegSingleWord:
		return gosseract.PSM_SINGLE_WORD
	case ocr.SegSingleBlock:
		return gosseract.PSM_SINGLE_BLOCK
	case ocr.SegRawLine:
		return gosseract.PSM_RAW_LINE
	default:
		return gosseract.PSM_SINGLE_LINE
	}
}

var _ ocr.Recognizer = (*Engine)(nil)
