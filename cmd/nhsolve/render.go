package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/notargets/nhsolve/partitions"
	"github.com/notargets/nhsolve/timeloop"
)

var (
	panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)
	title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ccff"))
	label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899")).
		Width(16)
	value = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ffffff"))
)

func row(name, format string, args ...any) string {
	return label.Render(name) + value.Render(fmt.Sprintf(format, args...))
}

func renderReport(r *Report) string {
	rows := []string{
		title.Render("nonhydrostatic run"),
		row("backend", "%s", r.Backend),
		row("ranks", "%d", r.Ranks),
		row("cells", "%d (%d owned, %d halo)", r.Shape.NCells, r.Owned, r.Halo),
		row("edges", "%d", r.Shape.NEdges),
		row("levels", "%d", r.Shape.NLevels),
	}
	if r.Result != nil {
		rows = append(rows,
			row("steps", "%d (%d substeps)", r.Result.Steps, r.Result.Substeps),
			row("simulated", "%gs", r.Result.SimulatedTime),
			row("elapsed", "%s", r.Result.Elapsed))
	}
	if n := len(r.Samples); n > 0 {
		last := r.Samples[n-1]
		rows = append(rows,
			row("max |w|", "%.4e m/s", last.MaxW),
			row("max |vn|", "%.4e m/s", last.MaxVn),
			row("mean rho", "%.6f kg/m3", last.MeanRho))
	}
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderSeries plots one diagnostic over the outer steps. Fewer than two
// samples give nothing to plot.
func renderSeries(samples []timeloop.Sample, caption string, pick func(timeloop.Sample) float64) string {
	if len(samples) < 2 {
		return ""
	}
	d := timeloop.Diagnostics{Samples: samples}
	return asciigraph.Plot(d.Series(pick),
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Caption(caption))
}

func renderPartitions(stats partitions.PartitionStats, layout *partitions.PartitionLayout, hx *partitions.HaloExchange) string {
	rows := []string{
		title.Render("partition layout"),
		row("partitions", "%d", stats.NumPartitions),
		row("cells", "min %d, max %d, avg %.1f", stats.MinElements, stats.MaxElements, stats.AvgElements),
		row("imbalance", "%.3f", stats.Imbalance),
		row("cut edges", "%d", stats.CutEdges),
	}
	if hx != nil {
		cells, edges := hx.Volume()
		rows = append(rows, row("exchange", "%d cells, %d edges", cells, edges))
	}
	sizes := make([]string, len(layout.Partitions))
	for i, p := range layout.Partitions {
		sizes[i] = fmt.Sprint(p.NumElements)
	}
	rows = append(rows, row("sizes", "%s", strings.Join(sizes, " ")))
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
