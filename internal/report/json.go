package report

import (
	"encoding/json"
	"fmt"
	"io"

	"meterflash/internal/pipeline"
)

// WriteJSON writes the whole run, samples included, as indented JSON.
func WriteJSON(w io.Writer, run *pipeline.Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	return nil
}
