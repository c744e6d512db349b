// Command ocrprobe runs every preprocessing strategy and OCR over the digit
// region of a single still frame and shows how each candidate scores. Use it
// to choose an OCR ROI before a full run.
//
// Usage: ocrprobe -image frame.png [-config run.yaml] [-ocr-roi x,y,w,h] [-expect 12.5] [-save dir]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"meterflash/internal/config"
	"meterflash/internal/fusion"
	"meterflash/internal/logging"
	"meterflash/internal/ocr"
	"meterflash/internal/ocr/tesseract"
	"meterflash/internal/pipeline"
	"meterflash/internal/preprocess"
	"meterflash/internal/video"
	"meterflash/pkg/geometry"

	_ "golang.org/x/image/tiff"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command and returns the process exit code.
func run(args []string) int {
	flags := flag.NewFlagSet("ocrprobe", flag.ContinueOnError)
	imagePath := flags.String("image", "", "Frame image (PNG, JPEG or TIFF)")
	configPath := flags.String("config", "", "YAML config file; supplies the OCR ROI and engine settings")
	roi := flags.String("ocr-roi", "", "Digit region x,y,w,h (config ROI, else whole image)")
	expect := flags.String("expect", "", "Expected reading; adds a similarity column")
	saveDir := flags.String("save", "", "Directory to write each variant as PNG")
	language := flags.String("lang", "", "Tesseract language (overrides config)")
	minScale := flags.Int("min-scale", -1, "Upscale crops smaller than this (overrides config)")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *imagePath == "" {
		fmt.Println("Usage: ocrprobe -image <frame> [-config run.yaml] [-ocr-roi x,y,w,h] [-expect value] [-save dir]")
		return 1
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *language != "" {
		cfg.OCR.Language = *language
	}
	if *minScale >= 0 {
		cfg.OCR.MinScaleDim = *minScale
	}

	img, err := loadImage(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	fmt.Printf("Loaded image: %dx%d pixels\n", img.Bounds().Dx(), img.Bounds().Dy())

	region := cfg.ROI.OCR
	if *roi != "" {
		if region, err = geometry.ParseRect(*roi); err != nil {
			fmt.Fprintf(os.Stderr, "Bad -ocr-roi: %v\n", err)
			return 1
		}
	}
	if region.Empty() {
		region = geometry.FromImage(img.Bounds())
	}
	crop, err := video.Crop(img, region)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to crop: %v\n", err)
		return 1
	}
	fmt.Printf("OCR region: %s (mean brightness %.1f)\n", region, video.Brightness(crop))

	engineOpts := tesseract.DefaultOptions()
	engineOpts.Language = cfg.OCR.Language
	engineOpts.TessdataPrefix = cfg.OCR.TessdataPrefix
	engineOpts.MinScaleDim = cfg.OCR.MinScaleDim
	engine, err := tesseract.NewEngine(engineOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start OCR: %v\n", err)
		return 1
	}
	defer engine.Close()

	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	read, err := pipeline.ReadRegion(context.Background(), engine, crop, pipeline.OptionsFromConfig(cfg, logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read region: %v\n", err)
		return 1
	}
	for _, f := range read.Failures {
		fmt.Printf("  %s: %s failed: %v\n", preprocess.Strategy(f.Strategy), f.Stage, f.Err)
	}

	if *saveDir != "" {
		if err := saveVariants(*saveDir, read.Variants); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
	}

	printScores(read, *expect)

	result := read.Fuse()
	if !result.Valid() {
		fmt.Printf("\nNo reading (best text %q)\n", result.RawText)
		return 2
	}
	fmt.Printf("\nReading: %g from %s (score %.3f)\n", result.Value, preprocess.Strategy(result.Strategy), result.Score)
	return 0
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func printScores(read *pipeline.RegionRead, expect string) {
	fmt.Printf("\n%-17s %9s %6s %6s %-12s %10s %6s %6s\n", "Strategy", "Threshold", "Black", "White", "Text", "Confidence", "Score", "Match")
	fmt.Println(strings.Repeat("-", 81))
	for _, s := range fusion.Evaluate(read.Candidates) {
		v := read.Variants[s.Strategy]
		threshold := "-"
		if v.Image != nil && v.Stats.Threshold >= 0 {
			threshold = fmt.Sprintf("%.1f", v.Stats.Threshold)
		}
		match := "-"
		if expect != "" {
			match = fmt.Sprintf("%.2f", ocr.Similarity(s.Text, expect))
		}
		fmt.Printf("%-17s %9s %6d %6d %-12q %10.1f %6.3f %6s\n",
			preprocess.Strategy(s.Strategy), threshold, v.Stats.Black, v.Stats.White,
			s.Text, s.Confidence, s.Score, match)
	}
}

func saveVariants(dir string, variants []preprocess.Variant) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for _, v := range variants {
		if v.Image == nil {
			continue
		}
		if err := savePNG(filepath.Join(dir, v.Name()+".png"), v.Image); err != nil {
			return err
		}
	}
	return nil
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
