package ocr

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpscaleSmallImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 40, 20))
	out := Upscale(img, DefaultMinScaleDim)

	assert.Equal(t, 300, out.Bounds().Dx())
	assert.Equal(t, 150, out.Bounds().Dy())
}

func TestUpscaleLeavesLargeImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 400, 200))
	assert.Same(t, img, Upscale(img, DefaultMinScaleDim))
}

func TestPad(t *testing.T) {
	img := image.NewGray(image.Rect(5, 5, 7, 6))
	img.SetGray(5, 5, color.Gray{Y: 10})

	out := Pad(img, 3, color.Gray{Y: 255})

	assert.Equal(t, image.Rect(0, 0, 8, 7), out.Bounds())
	assert.Equal(t, uint8(255), out.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(10), out.GrayAt(3, 3).Y)
}

func TestRecognizerFunc(t *testing.T) {
	var seen Config
	r := RecognizerFunc(func(_ context.Context, _ image.Image, cfg Config) (Recognition, error) {
		seen = cfg
		return Recognition{Text: "12.5", Confidence: 88}, nil
	})

	got, err := r.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1)), DigitConfig())
	require.NoError(t, err)
	assert.Equal(t, "12.5", got.Text)
	assert.Equal(t, DigitChars, seen.Whitelist)
	assert.Equal(t, SegSingleLine, seen.PageSegMode)
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-3))
	assert.Equal(t, 100.0, ClampConfidence(140))
	assert.Equal(t, 55.5, ClampConfidence(55.5))
	assert.Equal(t, 0.0, ClampConfidence(math.NaN()))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("12.5", "12.5"))
	assert.Equal(t, 1.0, Similarity(" 12.5\n", "12.5"))
	assert.Equal(t, 0.0, Similarity("", "12.5"))
	assert.Equal(t, 0.0, Similarity("12.5", ""))
	assert.InDelta(t, 0.75, Similarity("125", "12.5"), 1e-9)

	// A single wrong digit beats the right digits in the wrong order.
	assert.Greater(t, Similarity("12.4", "12.5"), Similarity("52.1", "12.5"))
}
