// Package video provides frame access for the pipeline: the FrameSource
// interface, region cropping and brightness measurement.
package video

import (
	"context"
	"errors"
	"fmt"
	"image"

	"meterflash/pkg/colorutil"
	"meterflash/pkg/geometry"
)

var (
	// ErrEmptyRegion is returned when a crop rectangle does not overlap the frame.
	ErrEmptyRegion = errors.New("video: region does not overlap frame")

	// ErrOutOfRange is returned for a timestamp outside [0, Duration()].
	ErrOutOfRange = errors.New("video: time out of range")
)

// FrameSource yields full frames by timestamp. Seeks may block; callers
// treat FrameAt as synchronous.
type FrameSource interface {
	// FrameAt returns the frame shown at t seconds.
	FrameAt(ctx context.Context, t float64) (image.Image, error)
	// Duration returns the length of the footage in seconds.
	Duration() float64
	Close() error
}

// Crop returns the part of img inside r, clipped to the frame. The result
// has its origin at (0,0) and does not share pixels with img.
func Crop(img image.Image, r geometry.RectInt) (image.Image, error) {
	if img == nil {
		return nil, ErrEmptyRegion
	}
	b := img.Bounds()
	clipped := r.Clip(b)
	if clipped.Empty() {
		return nil, fmt.Errorf("%w: %s in %dx%d", ErrEmptyRegion, r, b.Dx(), b.Dy())
	}

	out := image.NewRGBA(image.Rect(0, 0, clipped.Width, clipped.Height))
	for dy := 0; dy < clipped.Height; dy++ {
		for dx := 0; dx < clipped.Width; dx++ {
			out.Set(dx, dy, img.At(clipped.X+dx, clipped.Y+dy))
		}
	}
	return out, nil
}

// Brightness returns the mean luma of img in [0, 255]. An empty image is 0.
func Brightness(img image.Image) float64 {
	if img == nil || img.Bounds().Empty() {
		return 0
	}
	g := colorutil.ToGray(img)
	w, h := g.Rect.Dx(), g.Rect.Dy()
	var sum int
	for y := 0; y < h; y++ {
		for _, v := range g.Pix[y*g.Stride : y*g.Stride+w] {
			sum += int(v)
		}
	}
	return float64(sum) / float64(w*h)
}

// RegionBrightness crops r out of img and measures it.
func RegionBrightness(img image.Image, r geometry.RectInt) (float64, error) {
	region, err := Crop(img, r)
	if err != nil {
		return 0, err
	}
	return Brightness(region), nil
}
