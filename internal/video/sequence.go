package video

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/tiff"
)

// frameExtensions lists the file types a Sequence picks up.
var frameExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
}

// Sequence is a FrameSource over still frames taken at a fixed rate, either
// files in a directory or images held in memory. Frame i covers the time
// [i/fps, (i+1)/fps).
type Sequence struct {
	fps    float64
	paths  []string
	frames []image.Image
}

// OpenSequence lists the frame files in dir, ordered by name.
func OpenSequence(dir string, fps float64) (*Sequence, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("invalid frame rate %g", fps)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no frames found in %s", dir)
	}
	sort.Strings(paths)

	return &Sequence{fps: fps, paths: paths}, nil
}

// NewSequence wraps in-memory frames.
func NewSequence(frames []image.Image, fps float64) (*Sequence, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("invalid frame rate %g", fps)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames")
	}
	return &Sequence{fps: fps, frames: frames}, nil
}

// Len returns the number of frames.
func (s *Sequence) Len() int {
	if s.frames != nil {
		return len(s.frames)
	}
	return len(s.paths)
}

// Duration implements FrameSource.
func (s *Sequence) Duration() float64 {
	return float64(s.Len()) / s.fps
}

// FrameAt implements FrameSource.
func (s *Sequence) FrameAt(ctx context.Context, t float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t < 0 || t > s.Duration() || math.IsNaN(t) {
		return nil, fmt.Errorf("%w: %.3fs", ErrOutOfRange, t)
	}

	// Sample times such as i/30 land a hair below a frame boundary.
	i := min(int(math.Floor(t*s.fps+1e-9)), s.Len()-1)
	if s.frames != nil {
		return s.frames[i], nil
	}
	return loadFrame(s.paths[i])
}

// Close implements FrameSource.
func (s *Sequence) Close() error {
	return nil
}

func loadFrame(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

var _ FrameSource = (*Sequence)(nil)
