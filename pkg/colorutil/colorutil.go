// Package colorutil provides shared color utilities for meterflash.
package colorutil

import (
	"image"
	"image/color"
	"math"
)

// Rec. 601 luma weights.
const (
	weightR = 0.299
	weightG = 0.587
	weightB = 0.114
)

// LumaRGB returns the rounded luma of an 8-bit RGB triple.
func LumaRGB(r, g, b uint8) uint8 {
	return uint8(math.Min(255, math.Round(weightR*float64(r)+weightG*float64(g)+weightB*float64(b))))
}

// Luma returns the 8-bit luma of c. Alpha is ignored.
func Luma(c color.Color) uint8 {
	switch v := c.(type) {
	case color.Gray:
		return v.Y
	case color.RGBA:
		return LumaRGB(v.R, v.G, v.B)
	}
	r, g, b, _ := c.RGBA()
	// RGBA returns 16-bit channels.
	l := (weightR*float64(r) + weightG*float64(g) + weightB*float64(b)) / 257
	return uint8(math.Min(255, math.Round(l)))
}

// ToGray returns a luma copy of img with origin (0,0). It returns nil for a
// nil or empty image.
func ToGray(img image.Image) *image.Gray {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	if b.Empty() {
		return nil
	}

	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.Gray); ok {
		for y := 0; y < b.Dy(); y++ {
			copy(gray.Pix[y*gray.Stride:y*gray.Stride+b.Dx()], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return gray
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			gray.Pix[y*gray.Stride+x] = Luma(img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return gray
}
