package ocr

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// DefaultMinScaleDim is the smallest side, in pixels, handed to the engine.
// Tesseract reads small digits poorly below about 150 pixels.
const DefaultMinScaleDim = 150

// Upscale enlarges img with Catmull-Rom resampling so that its smaller side
// is at least minDim pixels. Images that are already large enough are
// returned unchanged. The result is grayscale.
func Upscale(img image.Image, minDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	small := min(w, h)
	if small <= 0 || minDim <= 0 || small >= minDim {
		return img
	}

	scale := float64(minDim) / float64(small)
	dst := image.NewGray(image.Rect(0, 0, int(float64(w)*scale+0.5), int(float64(h)*scale+0.5)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Pad surrounds img with a border of the given colour. Tesseract loses
// characters that touch the image edge.
func Pad(img image.Image, border int, c color.Gray) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()+2*border, b.Dy()+2*border))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(border, border, border+b.Dx(), border+b.Dy()), img, b.Min, draw.Src)
	return dst
}
