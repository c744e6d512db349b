package preprocess

import (
	"image"

	"gocv.io/x/gocv"
)

// closeDark performs a binary closing of the dark (digit) pixels with a 3×3
// cross: the digits are grown, then shrunk. Short breaks across a stroke are
// bridged and isolated dots such as the decimal point are kept. Pixels
// outside the image do not take part.
func closeDark(src gocv.Mat, dst *gocv.Mat) {
	kernel := gocv.GetStructuringElement(gocv.MorphCross, image.Pt(3, 3))
	defer kernel.Close()

	gocv.BitwiseNot(src, dst)
	gocv.MorphologyEx(*dst, dst, gocv.MorphClose, kernel)
	gocv.BitwiseNot(*dst, dst)
}

// stretchContrast maps the darkest pixel to 0 and the brightest to 255. A
// uniform image is copied unchanged.
func stretchContrast(src gocv.Mat, dst *gocv.Mat) {
	lo, hi, _, _ := gocv.MinMaxLoc(src)
	if lo == hi {
		src.CopyTo(dst)
		return
	}
	gocv.Normalize(src, dst, 0, 255, gocv.NormMinMax)
}

// sharpen applies the kernel [0 -1 0; -1 5 -1; 0 -1 0], replicating edge
// pixels for missing neighbours and saturating to [0, 255].
func sharpen(src gocv.Mat, dst *gocv.Mat) {
	kernel := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	kernel.SetFloatAt(1, 1, 5)
	kernel.SetFloatAt(0, 1, -1)
	kernel.SetFloatAt(1, 0, -1)
	kernel.SetFloatAt(1, 2, -1)
	kernel.SetFloatAt(2, 1, -1)

	gocv.Filter2D(src, dst, -1, kernel, image.Pt(-1, -1), 0, gocv.BorderReplicate)
}
