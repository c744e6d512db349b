// Package capture provides a video.FrameSource backed by OpenCV.
package capture

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"meterflash/internal/video"

	"gocv.io/x/gocv"
)

// File reads frames from a video file by seeking to millisecond positions.
// Seeks share one decoder and are serialised.
type File struct {
	mu       sync.Mutex
	capture  *gocv.VideoCapture
	frame    gocv.Mat
	fps      float64
	duration float64
}

// Open opens a video file and reads its frame rate and length.
func Open(path string) (*File, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video capture: %w", err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video capture is not opened: %s", path)
	}

	fps := capture.Get(gocv.VideoCaptureFPS)
	frames := capture.Get(gocv.VideoCaptureFrameCount)
	if fps <= 0 || math.IsNaN(fps) || frames <= 0 {
		capture.Close()
		return nil, fmt.Errorf("video %s reports no frame rate or length", path)
	}

	return &File{
		capture:  capture,
		frame:    gocv.NewMat(),
		fps:      fps,
		duration: frames / fps,
	}, nil
}

// FPS returns the container frame rate.
func (f *File) FPS() float64 {
	return f.fps
}

// Duration implements video.FrameSource.
func (f *File) Duration() float64 {
	return f.duration
}

// FrameAt implements video.FrameSource.
func (f *File) FrameAt(ctx context.Context, t float64) (image.Image, error) {
	if t < 0 || t > f.duration || math.IsNaN(t) {
		return nil, fmt.Errorf("%w: %.3fs", video.ErrOutOfRange, t)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.capture == nil {
		return nil, fmt.Errorf("video capture closed")
	}

	f.capture.Set(gocv.VideoCapturePosMsec, t*1000)
	if !f.capture.Read(&f.frame) || f.frame.Empty() {
		return nil, fmt.Errorf("failed to read frame at %.3fs", t)
	}

	img, err := f.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame at %.3fs: %w", t, err)
	}
	return img, nil
}

// Close releases the decoder.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.capture == nil {
		return nil
	}
	f.frame.Close()
	err := f.capture.Close()
	f.capture = nil
	if err != nil {
		return fmt.Errorf("failed to close video capture: %w", err)
	}
	return nil
}

var _ video.FrameSource = (*File)(nil)
