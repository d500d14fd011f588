package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"glucosewatch/internal/classify"
	"glucosewatch/internal/logstore"
)

type sample struct {
	At    time.Time
	Value float64
}

// Export renders one month of the log as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store := a.openStore()
	defer store.Close()

	month := store.CurrentMonth()
	if opts.Month != nil {
		month = *opts.Month
	}

	start, records, err := store.ScanMonth(month)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.Logger.Info().Str("month", month.String()).Msg("no readings logged for export month")
		return nil
	}

	samples := make([]sample, len(records))
	for i, rec := range records {
		samples[i] = sample{At: rec.Time(start), Value: rec.Value}
	}

	downsampled := downsampleSamples(samples, opts.MaxPoints)
	a.Logger.Info().Str("month", month.String()).Int("total", len(samples)).Int("exported", len(downsampled)).Msg("exporting readings")

	if opts.CSVPath != "" {
		if err := writeSamplesCSV(opts.CSVPath, start, downsampled, a.thresholds()); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeSamplesPNG(opts.PNGPath, month, downsampled, a.thresholds()); err != nil {
			return err
		}
	}

	return nil
}

func downsampleSamples(samples []sample, max int) []sample {
	if max <= 0 || len(samples) <= max {
		return samples
	}
	if max == 1 {
		return samples[len(samples)-1:]
	}

	result := make([]sample, 0, max)
	step := float64(len(samples)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(samples) {
			idx = len(samples) - 1
		}
		result = append(result, samples[idx])
	}
	return result
}

func writeSamplesCSV(path string, monthStart time.Time, samples []sample, th classify.Thresholds) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"timestamp", "offset_seconds", "value", "range"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, s := range samples {
		record := []string{
			s.At.Format(time.RFC3339),
			strconv.FormatInt(int64(s.At.Sub(monthStart)/time.Second), 10),
			strconv.FormatFloat(s.Value, 'f', -1, 64),
			classify.ClassifyValue(s.Value, th).String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeSamplesPNG(path string, month logstore.Month, samples []sample, th classify.Thresholds) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(samples))
	values := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = s.At
		values[i] = s.Value
	}
	bounds := []time.Time{x[0], x[len(x)-1]}

	valueFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.1f")
	}
	graph := chart.Chart{
		Title:  "Glucose " + month.String(),
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Glucose",
			ValueFormatter: valueFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Reading",
				XValues: x,
				YValues: values,
			},
			chart.TimeSeries{
				Name:    "Low",
				XValues: bounds,
				YValues: []float64{th.Low, th.Low},
				Style: chart.Style{
					StrokeColor:     chart.ColorRed,
					StrokeDashArray: []float64{5, 5},
				},
			},
			chart.TimeSeries{
				Name:    "High",
				XValues: bounds,
				YValues: []float64{th.High, th.High},
				Style: chart.Style{
					StrokeColor:     chart.ColorOrange,
					StrokeDashArray: []float64{5, 5},
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
