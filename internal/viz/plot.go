package viz

import (
	"github.com/guptarohit/asciigraph"
)

// PlotSeries renders one series as an ASCII line chart. Series longer than
// width are resampled by asciigraph.
func PlotSeries(series []float64, caption string, width, height int) string {
	if len(series) == 0 {
		return ""
	}
	return asciigraph.Plot(series,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(caption),
	)
}

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Green, asciigraph.Cyan, asciigraph.Yellow,
	asciigraph.Magenta, asciigraph.Red, asciigraph.Blue,
}

// PlotMany overlays several series, one color each.
func PlotMany(series [][]float64, caption string, width, height int) string {
	nonEmpty := make([][]float64, 0, len(series))
	for _, s := range series {
		if len(s) > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		return ""
	}

	colors := make([]asciigraph.AnsiColor, len(nonEmpty))
	for i := range colors {
		colors[i] = seriesColors[i%len(seriesColors)]
	}
	return asciigraph.PlotMany(nonEmpty,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
	)
}
