package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/sondr3/git-anger-management/internal/anger"
)

const (
	plotWidth   = "100%"
	plotHeight  = "600px"
	plotStack   = "curses"
	xAxisRotate = 30
)

// Plot writes an HTML page with a stacked bar chart: one bar per naughty
// author, one series per flagged word.
func Plot(w io.Writer, repo *anger.Repo, o Options) error {
	naughty := repo.NaughtyAuthors()

	names := make([]string, len(naughty))
	for i, author := range naughty {
		names[i] = author.Name
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: repo.Name, Width: plotWidth, Height: plotHeight}),
		charts.WithTitleOpts(opts.Title{Title: repo.Name, Subtitle: Summary(repo)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: xAxisRotate, Interval: "0"}}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Occurrences"}),
	)
	bar.SetXAxis(names)

	for _, word := range Words(repo, o.Sort) {
		data := make([]opts.BarData, len(naughty))
		for i, author := range naughty {
			data[i] = opts.BarData{Value: author.Curses[word]}
		}

		bar.AddSeries(word, data, charts.WithBarChartOpts(opts.BarChart{Stack: plotStack}))
	}

	err := bar.Render(w)
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}

	return nil
}
