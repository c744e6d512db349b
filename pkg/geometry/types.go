// Package geometry provides the region-of-interest rectangles used throughout the application.
package geometry

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// RectInt represents a rectangle with integer pixel coordinates.
type RectInt struct {
	X      int `json:"x" mapstructure:"x"`
	Y      int `json:"y" mapstructure:"y"`
	Width  int `json:"width" mapstructure:"width"`
	Height int `json:"height" mapstructure:"height"`
}

// NewRectInt creates a new RectInt.
func NewRectInt(x, y, width, height int) RectInt {
	return RectInt{X: x, Y: y, Width: width, Height: height}
}

// Empty reports whether the rectangle covers no pixels.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Area returns the number of pixels covered.
func (r RectInt) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// ToImage converts to an image.Rectangle.
func (r RectInt) ToImage() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// FromImage converts an image.Rectangle to RectInt.
func FromImage(r image.Rectangle) RectInt {
	return RectInt{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Clip returns the part of the rectangle inside bounds.
// The result is empty when they do not overlap.
func (r RectInt) Clip(bounds image.Rectangle) RectInt {
	return FromImage(r.ToImage().Intersect(bounds))
}

// String formats the rectangle as "x,y,w,h", the same form ParseRect accepts.
func (r RectInt) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X, r.Y, r.Width, r.Height)
}

// ParseRect parses "x,y,w,h" into a RectInt.
func ParseRect(s string) (RectInt, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return RectInt{}, fmt.Errorf("rectangle %q: want x,y,w,h", s)
	}
	var vals [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return RectInt{}, fmt.Errorf("rectangle %q: %w", s, err)
		}
		vals[i] = v
	}
	r := RectInt{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
	if r.Empty() {
		return RectInt{}, fmt.Errorf("rectangle %q: width and height must be positive", s)
	}
	return r, nil
}
