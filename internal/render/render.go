// Package render converts the chart-ready series structure and its
// derived options into go-echarts charts on a standalone HTML page.
// This is the downstream rendering collaborator of the pipeline; the
// series/options contract it consumes is schema-validated upstream.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/Sumatoshi-tech/geochart/internal/chartconfig"
	"github.com/Sumatoshi-tech/geochart/internal/locale"
	"github.com/Sumatoshi-tech/geochart/internal/series"
)

const (
	chartWidth  = "100%"
	chartHeight = "500px"

	doughnutInnerRadius = "45%"
	doughnutOuterRadius = "75%"
)

// HTML renders the chart as a standalone HTML page. loc formats
// temporal category labels; nil falls back to English.
func HTML(
	w io.Writer,
	cfg *chartconfig.Config,
	data *series.Data,
	options *series.Options,
	loc *locale.Formatter,
	theme string,
) error {
	if loc == nil {
		loc = locale.New("en")
	}

	page := components.NewPage()
	page.PageTitle = cfg.Title

	switch cfg.Kind {
	case chartconfig.KindLine:
		page.AddCharts(buildLine(cfg, data, options, theme))
	case chartconfig.KindBar:
		page.AddCharts(buildBar(cfg, data, options, loc, theme))
	case chartconfig.KindPie, chartconfig.KindDoughnut:
		page.AddCharts(buildPie(cfg, data, options, theme))
	default:
		return fmt.Errorf("%w: %q", chartconfig.ErrUnsupportedKind, cfg.Kind)
	}

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render chart page: %w", err)
	}

	return nil
}

func globalOptions(cfg *chartconfig.Config, options *series.Options, theme string) []charts.GlobalOpts {
	legend := options.Plugins.Legend != nil && options.Plugins.Legend.Display

	tooltip := opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}

	if options.Plugins.Tooltip != nil && options.Plugins.Tooltip.Suffix != "" {
		tooltip.ValueFormatter = types.FuncStr(fmt.Sprintf(
			"function (value) { return value + %q; }", options.Plugins.Tooltip.Suffix))
	}

	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  theme,
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: cfg.Title, Subtitle: cfg.UI.Description}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(legend)}),
		charts.WithTooltipOpts(tooltip),
	}
}

// echartsAxisType maps the configured axis type onto echarts axis types.
func echartsAxisType(t chartconfig.AxisType) string {
	switch t {
	case chartconfig.AxisTime, chartconfig.AxisTimeseries:
		return "time"
	case chartconfig.AxisCategory:
		return "category"
	case chartconfig.AxisLogarithmic:
		return "log"
	default:
		return "value"
	}
}

// xValue converts a series x value into an echarts-compatible value.
// Temporal values are emitted as epoch milliseconds.
func xValue(x any) any {
	t, ok := x.(time.Time)
	if ok {
		return t.UnixMilli()
	}

	return x
}

func buildLine(cfg *chartconfig.Config, data *series.Data, options *series.Options, theme string) *charts.Line {
	line := charts.NewLine()

	global := globalOptions(cfg, options, theme)
	global = append(global,
		charts.WithXAxisOpts(opts.XAxis{Type: echartsAxisType(cfg.Axes.X.Type)}),
		charts.WithYAxisOpts(opts.YAxis{Type: echartsAxisType(cfg.Axes.Y.Type)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetGlobalOptions(global...)

	for _, ds := range data.Datasets {
		points := make([]opts.LineData, 0, len(ds.Points))

		for _, p := range ds.Points {
			var y any
			if p.Y != nil {
				y = *p.Y
			}

			points = append(points, opts.LineData{Value: []any{xValue(p.X), y}})
		}

		step := ""
		if ds.Stepped {
			step = "start"
		}

		line.AddSeries(ds.Label, points,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: ds.BorderColor}),
			charts.WithLineStyleOpts(opts.LineStyle{Width: float32(ds.BorderWidth)}),
			charts.WithLineChartOpts(opts.LineChart{Step: step}),
		)
	}

	return line
}

func buildBar(
	cfg *chartconfig.Config,
	data *series.Data,
	options *series.Options,
	loc *locale.Formatter,
	theme string,
) *charts.Bar {
	bar := charts.NewBar()

	global := globalOptions(cfg, options, theme)
	global = append(global,
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Type: echartsAxisType(cfg.Axes.Y.Type)}),
	)
	bar.SetGlobalOptions(global...)

	labels, valueRows := alignBars(data, loc)
	bar.SetXAxis(labels)

	for i, ds := range data.Datasets {
		values := make([]opts.BarData, len(labels))

		for j, v := range valueRows[i] {
			if v != nil {
				values[j] = opts.BarData{Value: *v}
			}
		}

		bar.AddSeries(ds.Label, values,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: ds.BackgroundColor}),
		)
	}

	return bar
}

// alignBars projects {x, y} points onto a shared category axis so all
// bar series share label slots.
func alignBars(data *series.Data, loc *locale.Formatter) ([]string, [][]*float64) {
	labels := make([]string, 0)
	index := make(map[string]int)

	for _, ds := range data.Datasets {
		for _, p := range ds.Points {
			key := xLabel(p.X, loc)
			if _, seen := index[key]; !seen {
				index[key] = len(labels)

				labels = append(labels, key)
			}
		}
	}

	rows := make([][]*float64, len(data.Datasets))

	for i, ds := range data.Datasets {
		row := make([]*float64, len(labels))

		for _, p := range ds.Points {
			row[index[xLabel(p.X, loc)]] = p.Y
		}

		rows[i] = row
	}

	return labels, rows
}

// xLabel renders an x value as a category label. Temporal values get
// the locale-short date instead of Go's verbose timestamp form.
func xLabel(x any, loc *locale.Formatter) string {
	t, ok := x.(time.Time)
	if ok {
		return loc.ShortDate(t)
	}

	return fmt.Sprint(x)
}

func buildPie(cfg *chartconfig.Config, data *series.Data, options *series.Options, theme string) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(globalOptions(cfg, options, theme)...)

	for _, ds := range data.Datasets {
		slices := make([]opts.PieData, 0, len(data.Labels))

		for i, label := range data.Labels {
			if i >= len(ds.Values) || ds.Values[i] == nil {
				continue
			}

			slice := opts.PieData{Name: label, Value: *ds.Values[i]}

			if i < len(ds.SharedBackground) {
				slice.ItemStyle = &opts.ItemStyle{Color: ds.SharedBackground[i]}
			}

			slices = append(slices, slice)
		}

		seriesOpts := make([]charts.SeriesOpts, 0, 1)

		if cfg.Kind == chartconfig.KindDoughnut {
			seriesOpts = append(seriesOpts, charts.WithPieChartOpts(opts.PieChart{
				Radius: []string{doughnutInnerRadius, doughnutOuterRadius},
			}))
		}

		pie.AddSeries(ds.Label, slices, seriesOpts...)
	}

	return pie
}
