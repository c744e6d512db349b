// Package report writes a finished run as a CSV table, a JSON document or
// an HTML chart.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"meterflash/internal/fusion"
	"meterflash/internal/preprocess"
)

var csvHeader = []string{"occurrence", "time", "value", "raw_text", "confidence", "strategy", "score"}

// WriteCSV writes one row per result. A missing value is an empty cell.
func WriteCSV(w io.Writer, results []fusion.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		value := ""
		if r.Valid() {
			value = strconv.FormatFloat(r.Value, 'f', -1, 64)
		}
		row := []string{
			strconv.Itoa(r.Occurrence),
			strconv.FormatFloat(r.FrameTime, 'f', 3, 64),
			value,
			r.RawText,
			strconv.FormatFloat(r.Confidence, 'f', 1, 64),
			StrategyName(r.Strategy),
			strconv.FormatFloat(r.Score, 'f', 3, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.Occurrence, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// StrategyName names a result's strategy ID, or "none".
func StrategyName(id int) string {
	s := preprocess.Strategy(id)
	if id == fusion.NoStrategy || !s.Valid() {
		return "none"
	}
	return s.String()
}
