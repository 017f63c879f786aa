package alert

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
)

// RenderBarChart draws one bar per month and writes the PNG into the
// working directory under filename, returning the full path. The file is
// transient: the caller deletes it once the alert is dispatched, success
// or failure.
func RenderBarChart(title, filename string, months []string, values []float64) (string, error) {
	if len(months) == 0 || len(months) != len(values) {
		return "", fmt.Errorf("cannot chart series with %d months and %d values", len(months), len(values))
	}

	bars := make([]chart.Value, len(months))
	for i := range months {
		bars[i] = chart.Value{Label: months[i], Value: values[i]}
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    800,
		Height:   480,
		BarWidth: 50,
		XAxis:    chart.Style{TextRotationDegrees: 0},
		Bars:     bars,
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	path := filepath.Join(cwd, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create chart file %s: %w", path, err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to render chart: %w", err)
	}

	return path, nil
}
