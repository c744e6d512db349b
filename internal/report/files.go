package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"meterflash/internal/config"
	"meterflash/internal/pipeline"
)

// WriteFiles writes every report whose path is set in out. Parent
// directories are created. All outputs are attempted; errors are joined.
func WriteFiles(run *pipeline.Run, out config.OutputConfig) error {
	var errs []error
	if out.CSV != "" {
		errs = append(errs, writeFile(out.CSV, func(w io.Writer) error { return WriteCSV(w, run.Results) }))
	}
	if out.JSON != "" {
		errs = append(errs, writeFile(out.JSON, func(w io.Writer) error { return WriteJSON(w, run) }))
	}
	if out.Chart != "" {
		errs = append(errs, writeFile(out.Chart, func(w io.Writer) error { return WriteChart(w, run) }))
	}
	return errors.Join(errs...)
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
