package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"meterflash/internal/pipeline"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	colorRaw         = "#9ca3af"
	colorConditioned = "#3b82f6"
	colorPeak        = "#f87171"
	colorReading     = "#34d399"

	chartWidthPx  = 1200
	signalHeight  = 420
	readingHeight = 320
)

// WriteChart renders the brightness signal with its peaks and the readings
// taken at them as a self-contained HTML page.
func WriteChart(w io.Writer, run *pipeline.Run) error {
	page := components.NewPage()
	page.PageTitle = "meterflash " + run.ID
	page.AddCharts(signalChart(run), readingChart(run))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func initOpts(height int) opts.Initialization {
	return opts.Initialization{
		Width:  fmt.Sprintf("%dpx", chartWidthPx),
		Height: fmt.Sprintf("%dpx", height),
	}
}

func signalChart(run *pipeline.Run) *charts.Line {
	n := len(run.Samples)
	xAxis := make([]string, n)
	raw := make([]opts.LineData, n)
	cond := make([]opts.LineData, n)
	for i, s := range run.Samples {
		xAxis[i] = strconv.FormatFloat(s.Time, 'f', 2, 64)
		raw[i] = opts.LineData{Value: round(s.Raw, 3)}
		cond[i] = opts.LineData{Value: round(s.Conditioned, 3)}
	}

	// Scatter points share the category axis, so every sample gets a slot.
	peaks := make([]opts.ScatterData, n)
	for i := range peaks {
		peaks[i] = opts.ScatterData{Value: nil}
	}
	for _, p := range run.Peaks {
		if p.SampleIndex >= 0 && p.SampleIndex < n {
			peaks[p.SampleIndex] = opts.ScatterData{Value: round(p.Value, 3), SymbolSize: 12}
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(signalHeight)),
		charts.WithTitleOpts(opts.Title{
			Title:    "Brightness",
			Subtitle: fmt.Sprintf("%d samples, %d peaks, quality %s", n, len(run.Peaks), run.Report.Tier),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{Name: "s", Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "luma", Scale: opts.Bool(true)}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("raw", raw,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorRaw, Width: 1}))
	line.AddSeries("conditioned", cond,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorConditioned, Width: 2}))

	scatter := charts.NewScatter()
	scatter.AddSeries("peaks", peaks, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorPeak}))
	line.Overlap(scatter)
	return line
}

func readingChart(run *pipeline.Run) *charts.Line {
	xAxis := make([]string, len(run.Results))
	values := make([]opts.LineData, len(run.Results))
	for i, r := range run.Results {
		xAxis[i] = strconv.FormatFloat(r.FrameTime, 'f', 2, 64)
		if r.Valid() {
			values[i] = opts.LineData{Value: r.Value, Name: r.RawText}
		} else {
			values[i] = opts.LineData{Value: nil}
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(readingHeight)),
		charts.WithTitleOpts(opts.Title{
			Title:    "Readings",
			Subtitle: fmt.Sprintf("%d of %d peaks read", run.Summary.Readings, len(run.Peaks)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "s", Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "value", Scale: opts.Bool(true)}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("value", values,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true), ConnectNulls: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorReading, Width: 2}))
	return line
}

func round(v float64, digits int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
