package dashboard

import (
	"io"

	"github.com/leyiUPM/emotion/pkg/stats"
	"github.com/m-mizutani/goerr/v2"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartWidth  = 640
	chartHeight = 320
)

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorOrange,
	chart.ColorGreen,
	chart.ColorRed,
	chart.ColorCyan,
	chart.ColorYellow,
	chart.ColorAlternateGray,
}

// RenderDistribution draws one bar per label as PNG
func RenderDistribution(w io.Writer, counts []stats.LabelCount) error {
	if len(counts) == 0 {
		return goerr.New("no data to chart")
	}

	maxCount := 1.0
	bars := make([]chart.Value, len(counts))
	for i, c := range counts {
		bars[i] = chart.Value{Value: float64(c.Count), Label: c.Label}
		if float64(c.Count) > maxCount {
			maxCount = float64(c.Count)
		}
	}

	bc := chart.BarChart{
		Title:      "Emotion distribution (Top K)",
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   barWidth(len(bars)),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.Style{TextRotationDegrees: 45},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxCount},
		},
		Bars: bars,
	}

	if err := bc.Render(chart.PNG, w); err != nil {
		return goerr.Wrap(err, "failed to render distribution chart", goerr.V("bars", len(bars)))
	}
	return nil
}

// RenderTrend draws one line per label over the trend points as PNG
func RenderTrend(w io.Writer, labels []string, points []stats.TrendPoint) error {
	if len(labels) == 0 || len(points) == 0 {
		return goerr.New("no data to chart")
	}

	maxCount := 1.0
	series := make([]chart.Series, 0, len(labels))
	for i, label := range labels {
		xs := make([]float64, len(points))
		ys := make([]float64, len(points))
		for j, p := range points {
			xs[j] = float64(p.Index)
			ys[j] = float64(p.Counts[label])
			if ys[j] > maxCount {
				maxCount = ys[j]
			}
		}

		color := palette[i%len(palette)]
		series = append(series, chart.ContinuousSeries{
			Name:    label,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}

	// a single point still needs a non-empty x range
	maxIndex := float64(max(len(points), 2))

	ch := chart.Chart{
		Title:      "Emotion trend (rolling window)",
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "prediction",
			Range: &chart.ContinuousRange{Min: 1, Max: maxIndex},
		},
		YAxis: chart.YAxis{
			Name:  "count",
			Range: &chart.ContinuousRange{Min: 0, Max: maxCount},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return goerr.Wrap(err, "failed to render trend chart", goerr.V("labels", len(labels)), goerr.V("points", len(points)))
	}
	return nil
}

func barWidth(n int) int {
	w := (chartWidth - 80) / max(n, 1) / 2
	return min(max(w, 8), 60)
}
