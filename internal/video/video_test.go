package video

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"meterflash/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestCropClipsToFrame(t *testing.T) {
	img := solid(10, 10, 0)
	img.SetGray(9, 9, color.Gray{Y: 200})

	out, err := Crop(img, geometry.NewRectInt(8, 8, 5, 5))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), out.Bounds())

	r, _, _, _ := out.At(1, 1).RGBA()
	assert.Equal(t, uint32(200*257), r)
}

func TestCropOutsideFrame(t *testing.T) {
	_, err := Crop(solid(10, 10, 0), geometry.NewRectInt(20, 20, 5, 5))
	assert.ErrorIs(t, err, ErrEmptyRegion)

	_, err = Crop(nil, geometry.NewRectInt(0, 0, 5, 5))
	assert.ErrorIs(t, err, ErrEmptyRegion)
}

func TestCropDoesNotAlias(t *testing.T) {
	img := solid(4, 4, 50)
	out, err := Crop(img, geometry.NewRectInt(0, 0, 4, 4))
	require.NoError(t, err)

	img.SetGray(0, 0, color.Gray{Y: 255})
	r, _, _, _ := out.At(0, 0).RGBA()
	assert.Equal(t, uint32(50*257), r)
}

func TestBrightness(t *testing.T) {
	img := solid(4, 2, 100)
	img.SetGray(0, 0, color.Gray{Y: 180})

	assert.InDelta(t, 110.0, Brightness(img), 1e-9)
	assert.Equal(t, 0.0, Brightness(image.NewGray(image.Rectangle{})))
}

func TestRegionBrightness(t *testing.T) {
	img := solid(10, 10, 20)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			img.SetGray(x, y, color.Gray{Y: 220})
		}
	}

	v, err := RegionBrightness(img, geometry.NewRectInt(0, 0, 5, 5))
	require.NoError(t, err)
	assert.InDelta(t, 220.0, v, 1e-9)
}

func TestSequenceFrameAt(t *testing.T) {
	frames := []image.Image{solid(2, 2, 10), solid(2, 2, 20), solid(2, 2, 30)}
	seq, err := NewSequence(frames, 10)
	require.NoError(t, err)
	defer seq.Close()

	assert.InDelta(t, 0.3, seq.Duration(), 1e-12)

	ctx := context.Background()
	for _, tc := range []struct {
		t    float64
		want float64
	}{
		{0, 10},
		{0.15, 20},
		{0.29, 30},
		{0.3, 30},
	} {
		img, err := seq.FrameAt(ctx, tc.t)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, Brightness(img), 1e-9, "t=%v", tc.t)
	}

	_, err = seq.FrameAt(ctx, -0.1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = seq.FrameAt(ctx, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestSequenceHonoursCancellation(t *testing.T) {
	seq, err := NewSequence([]image.Image{solid(1, 1, 0)}, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = seq.FrameAt(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenSequenceFromDirectory(t *testing.T) {
	dir := t.TempDir()
	for i, v := range []uint8{40, 80} {
		path := filepath.Join(dir, []string{"frame_001.png", "frame_002.png"}[i])
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, solid(3, 3, v)))
		require.NoError(t, f.Close())
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	seq, err := OpenSequence(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, seq.Len())
	assert.InDelta(t, 1.0, seq.Duration(), 1e-12)

	img, err := seq.FrameAt(context.Background(), 0.6)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, Brightness(img), 1e-9)
}

func TestOpenSequenceErrors(t *testing.T) {
	_, err := OpenSequence(t.TempDir(), 30)
	assert.Error(t, err)

	_, err = OpenSequence(t.TempDir(), 0)
	assert.Error(t, err)

	_, err = NewSequence(nil, 30)
	assert.Error(t, err)
}
