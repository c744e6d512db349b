// Command meterflash reads a meter value from a video at every flash of a
// brightness indicator and writes the readings as CSV, JSON or an HTML chart.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"meterflash/internal/config"
	"meterflash/internal/logging"
	"meterflash/internal/ocr/tesseract"
	"meterflash/internal/pipeline"
	"meterflash/internal/report"
	"meterflash/internal/version"
	"meterflash/internal/video"
	"meterflash/internal/video/capture"
	"meterflash/pkg/geometry"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command and returns the process exit code.
func run(args []string) int {
	flags := flag.NewFlagSet("meterflash", flag.ContinueOnError)
	configPath := flags.String("config", "", "YAML config file")
	videoPath := flags.String("video", "", "Video file to read")
	framesDir := flags.String("frames", "", "Directory of still frames (instead of -video)")
	fps := flags.Float64("fps", 30, "Frame rate of -frames")
	brightnessROI := flags.String("brightness-roi", "", "Brightness region x,y,w,h")
	ocrROI := flags.String("ocr-roi", "", "Digit region x,y,w,h")
	rate := flags.String("rate", "auto", "Sampling rate: auto, high, medium or low")
	strength := flags.String("strength", "medium", "Filter strength: light, medium or strong")
	sensitivity := flags.String("sensitivity", "medium", "Peak sensitivity: low, medium or high")
	workers := flags.Int("j", 1, "Peaks recognised in parallel")
	csvPath := flags.String("csv", "", "Write readings to this CSV file")
	jsonPath := flags.String("json", "", "Write the full run to this JSON file")
	chartPath := flags.String("chart", "", "Write an HTML chart to this file")
	verbose := flags.Bool("v", false, "Debug logging")
	showVersion := flags.Bool("version", false, "Print version and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Println(version.String())
		return 0
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

	// Flags given on the command line win over the config file.
	var flagErrs []error
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "video":
			cfg.Input.Video = *videoPath
		case "frames":
			cfg.Input.Frames = *framesDir
		case "fps":
			cfg.Input.FPS = *fps
		case "brightness-roi":
			flagErrs = append(flagErrs, setRect(&cfg.ROI.Brightness, *brightnessROI))
		case "ocr-roi":
			flagErrs = append(flagErrs, setRect(&cfg.ROI.OCR, *ocrROI))
		case "rate":
			cfg.Sampling.Rate = *rate
		case "strength":
			cfg.Signal.Strength = *strength
		case "sensitivity":
			cfg.Signal.Sensitivity = *sensitivity
		case "j":
			cfg.Pipeline.Workers = *workers
		case "csv":
			cfg.Output.CSV = *csvPath
		case "json":
			cfg.Output.JSON = *jsonPath
		case "chart":
			cfg.Output.Chart = *chartPath
		case "v":
			if *verbose {
				cfg.Log.Level = "debug"
			}
		}
	})
	if err := errors.Join(append(flagErrs, cfg.Validate())...); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration:\n%v\n\n", err)
		fmt.Println("Usage: meterflash (-video <file> | -frames <dir>) -brightness-roi x,y,w,h -ocr-roi x,y,w,h [-config run.yaml]")
		return 1
	}

	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := openSource(cfg.Input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open input: %v\n", err)
		return 1
	}
	defer source.Close()

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

	p, err := pipeline.New(source, engine, pipeline.OptionsFromConfig(cfg, logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up pipeline: %v\n", err)
		return 1
	}

	fmt.Printf("meterflash %s\n", version.Version)
	fmt.Printf("Input: %s (%.1fs)\n", inputName(cfg.Input), source.Duration())
	fmt.Printf("Brightness ROI: %s  OCR ROI: %s\n", cfg.ROI.Brightness, cfg.ROI.OCR)

	result, runErr := p.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Run failed: %v\n", runErr)
		return 1
	}

	printRun(result)

	if err := report.WriteFiles(result, cfg.Output); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write reports: %v\n", err)
		return 1
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Run interrupted after %d of %d peaks\n", len(result.Results), len(result.Peaks))
		return 130
	}
	return 0
}

func setRect(dst *geometry.RectInt, s string) error {
	r, err := geometry.ParseRect(s)
	if err != nil {
		return err
	}
	*dst = r
	return nil
}

func openSource(in config.InputConfig) (video.FrameSource, error) {
	if in.Frames != "" {
		return video.OpenSequence(in.Frames, in.FPS)
	}
	return capture.Open(in.Video)
}

func inputName(in config.InputConfig) string {
	if in.Frames != "" {
		return in.Frames
	}
	return in.Video
}

func printRun(run *pipeline.Run) {
	fmt.Printf("\nSignal: %d samples at %.0f/s, quality %s\n", len(run.Samples), run.SampleRate, run.Report.Tier)
	fmt.Printf("Detected %d peaks\n\n", len(run.Peaks))

	fmt.Printf("%-6s %9s %12s %-12s %10s %-17s %6s\n",
		"#", "Time", "Value", "Text", "Confidence", "Strategy", "Score")
	fmt.Println(strings.Repeat("-", 80))
	for _, r := range run.Results {
		value := "-"
		if r.Valid() {
			value = fmt.Sprintf("%g", r.Value)
		}
		fmt.Printf("%-6d %8.2fs %12s %-12q %10.1f %-17s %6.3f\n",
			r.Occurrence, r.FrameTime, value, r.RawText, r.Confidence, report.StrategyName(r.Strategy), r.Score)
	}

	s := run.Summary
	fmt.Printf("\nRead %d of %d peaks", s.Readings, s.Peaks)
	if !math.IsNaN(s.Mean) {
		fmt.Printf(" (mean %g, min %g, max %g)", s.Mean, s.Min, s.Max)
	}
	fmt.Println()
	if s.Failures > 0 {
		fmt.Printf("%d recoverable failures, see log\n", s.Failures)
	}
}
