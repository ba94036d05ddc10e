package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	chartWidthCm  = 25
	chartHeightCm = 12
	chartDPI      = 96
)

// clientSeries holds one client's bar values, aligned index-for-index
// with the chart's concurrency levels. A configuration the client never
// ran is a zero bar.
type clientSeries struct {
	name   string
	color  color.Color
	values []float64
}

// renderBarChart draws a grouped bar chart, one group per concurrency
// level and one bar per client within the group, and returns it as a
// base64 PNG data URI ready for embedding in HTML.
func renderBarChart(title, yLabel string, concurrencies []int, series []clientSeries) (string, error) {
	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = "Concurrent Connections"
	pl.Y.Label.Text = yLabel
	pl.Legend.Top = true

	groupWidth := vg.Points(40)
	barWidth := groupWidth / vg.Length(len(series))
	for i, s := range series {
		bars, err := plotter.NewBarChart(plotter.Values(s.values), barWidth)
		if err != nil {
			return "", fmt.Errorf("bar chart series %q: %w", s.name, err)
		}
		bars.LineStyle.Width = 0
		bars.Color = s.color
		bars.Offset = barWidth*vg.Length(i) - groupWidth/2 + barWidth/2
		pl.Add(bars)
		pl.Legend.Add(s.name, bars)
	}

	labels := make([]string, len(concurrencies))
	for i, c := range concurrencies {
		labels[i] = strconv.Itoa(c)
	}
	pl.NominalX(labels...)

	can := vgimg.PngCanvas{Canvas: vgimg.NewWith(
		vgimg.UseWH(chartWidthCm*vg.Centimeter, chartHeightCm*vg.Centimeter),
		vgimg.UseDPI(chartDPI),
		vgimg.UseBackgroundColor(color.White),
	)}
	pl.Draw(draw.New(can))

	var buf bytes.Buffer
	if _, err := can.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("encoding chart %q: %w", title, err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func allZero(series []clientSeries) bool {
	for _, s := range series {
		for _, v := range s.values {
			if v != 0 {
				return false
			}
		}
	}
	return true
}
