package series

import (
	"fmt"
	"sort"
	"time"

	"github.com/Sumatoshi-tech/geochart/internal/chartconfig"
	"github.com/Sumatoshi-tech/geochart/internal/locale"
	"github.com/Sumatoshi-tech/geochart/internal/record"
	"github.com/Sumatoshi-tech/geochart/internal/registry"
)

// Build converts the filtered record subset into the chart-ready
// series structure and derived render options. datasetReg drives which
// categories become datasets and their colors; labelReg drives the
// shared slice palette for pie and doughnut. An unrecognized chart
// kind fails fast.
func Build(
	cfg *chartconfig.Config,
	datasetReg, labelReg *registry.Registry,
	stepped bool,
	records record.Set,
	loc *locale.Formatter,
) (*Data, *Options, error) {
	var (
		data *Data
		err  error
	)

	switch cfg.Kind {
	case chartconfig.KindLine, chartconfig.KindBar:
		data = buildCartesian(cfg, datasetReg, stepped, records, loc)
	case chartconfig.KindPie, chartconfig.KindDoughnut:
		data = buildCompressed(cfg, datasetReg, labelReg, records)
	default:
		err = fmt.Errorf("%w: %q", chartconfig.ErrUnsupportedKind, cfg.Kind)
	}

	if err != nil {
		return nil, nil, err
	}

	return data, deriveOptions(cfg, loc), nil
}

// groupRecords splits records by the distinct values of field,
// preserving first-seen group order.
func groupRecords(records record.Set, field string) ([]string, map[string]record.Set) {
	order := make([]string, 0)
	groups := make(map[string]record.Set)

	for _, rec := range records {
		key := record.String(rec[field])
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}

		groups[key] = append(groups[key], rec)
	}

	return order, groups
}

func buildCartesian(
	cfg *chartconfig.Config,
	datasetReg *registry.Registry,
	stepped bool,
	records record.Set,
	loc *locale.Formatter,
) *Data {
	temporal := cfg.Axes.X.Type.Temporal()
	line := cfg.Kind == chartconfig.KindLine

	var datasets []Dataset

	if cfg.Categorization != nil && cfg.Categorization.Property != "" {
		order, groups := groupRecords(records, cfg.Categorization.Property)

		for _, key := range order {
			if !datasetReg.Checked(key) {
				continue
			}

			entry, _ := datasetReg.Get(key)
			ds := Dataset{
				Label:           key,
				Points:          buildPoints(groups[key], cfg.Axes, temporal),
				BackgroundColor: entry.BackgroundColor,
				BorderColor:     entry.BorderColor,
				BorderWidth:     cfg.UI.BorderWidth,
			}

			if line {
				ds.Stepped = stepped
				ds.Tension = cfg.UI.Tension
			}

			datasets = append(datasets, ds)
		}
	} else {
		ds := Dataset{
			Points:          buildPoints(records, cfg.Axes, temporal),
			BackgroundColor: registry.DefaultColor,
			BorderColor:     registry.DefaultColor,
			BorderWidth:     cfg.UI.BorderWidth,
		}

		if line {
			ds.Stepped = stepped
			ds.Tension = cfg.UI.Tension
		}

		datasets = append(datasets, ds)
	}

	sort.SliceStable(datasets, func(i, j int) bool {
		return loc.Compare(datasets[i].Label, datasets[j].Label) < 0
	})

	if temporal {
		for i := range datasets {
			sortPoints(datasets[i].Points, loc)
		}
	}

	if datasets == nil {
		datasets = []Dataset{}
	}

	return &Data{Datasets: datasets}
}

// buildPoints converts records to {x, y} points. Temporal x values
// become time.Time when parseable; otherwise the raw value is kept as
// a number or string. Y values that cannot be coerced become nil.
func buildPoints(records record.Set, axes chartconfig.Axes, temporal bool) []Point {
	points := make([]Point, 0, len(records))

	for _, rec := range records {
		points = append(points, Point{
			X: convertX(rec[axes.X.Property], temporal),
			Y: coerceY(rec[axes.Y.Property]),
		})
	}

	return points
}

func convertX(v any, temporal bool) any {
	if temporal {
		t, ok := record.Time(v)
		if ok {
			return t
		}

		return record.String(v)
	}

	n, ok := record.Number(v)
	if ok {
		return n
	}

	return record.String(v)
}

func coerceY(v any) *float64 {
	n, ok := record.Number(v)
	if !ok {
		return nil
	}

	return &n
}

// sortPoints orders points ascending by x: date comparison for dates,
// numeric for numbers, locale string compare as last resort, absent
// values first.
func sortPoints(points []Point, loc *locale.Formatter) {
	sort.SliceStable(points, func(i, j int) bool {
		return lessX(points[i].X, points[j].X, loc)
	})
}

func lessX(a, b any, loc *locale.Formatter) bool {
	if a == nil || a == "" {
		return b != nil && b != ""
	}

	if b == nil || b == "" {
		return false
	}

	at, aIsTime := a.(time.Time)

	bt, bIsTime := b.(time.Time)
	if aIsTime && bIsTime {
		return at.Before(bt)
	}

	an, aIsNum := a.(float64)

	bn, bIsNum := b.(float64)
	if aIsNum && bIsNum {
		return an < bn
	}

	return loc.Compare(record.String(a), record.String(b)) < 0
}

func buildCompressed(
	cfg *chartconfig.Config,
	datasetReg, labelReg *registry.Registry,
	records record.Set,
) *Data {
	// The shared label axis derives from all records, checked or not;
	// unchecking a category blanks its values only.
	labels := make([]string, 0)
	index := make(map[string]int)

	for _, rec := range records {
		key := record.String(rec[cfg.Axes.X.Property])
		if _, seen := index[key]; !seen {
			index[key] = len(labels)

			labels = append(labels, key)
		}
	}

	shared := make([]string, len(labels))

	for i, label := range labels {
		entry, ok := labelReg.Get(label)
		if ok {
			shared[i] = entry.BackgroundColor
		} else {
			shared[i] = registry.DefaultColor
		}
	}

	compress := func(subset record.Set) []*float64 {
		values := make([]*float64, len(labels))

		for _, rec := range subset {
			idx, ok := index[record.String(rec[cfg.Axes.X.Property])]
			if !ok {
				continue
			}

			values[idx] = coerceY(rec[cfg.Axes.Y.Property])
		}

		return values
	}

	var datasets []Dataset

	if cfg.Categorization != nil && cfg.Categorization.Property != "" {
		order, groups := groupRecords(records, cfg.Categorization.Property)

		for _, key := range order {
			if !datasetReg.Checked(key) {
				continue
			}

			datasets = append(datasets, Dataset{
				Label:            key,
				Values:           compress(groups[key]),
				SharedBackground: shared,
				BorderWidth:      cfg.UI.BorderWidth,
			})
		}
	} else {
		datasets = append(datasets, Dataset{
			Values:           compress(records),
			SharedBackground: shared,
			BorderWidth:      cfg.UI.BorderWidth,
		})
	}

	if datasets == nil {
		datasets = []Dataset{}
	}

	return &Data{Labels: labels, Datasets: datasets}
}

func deriveOptions(cfg *chartconfig.Config, loc *locale.Formatter) *Options {
	opts := &Options{Responsive: true}

	categorized := cfg.Categorization != nil && cfg.Categorization.Property != ""
	cartesian := cfg.Kind == chartconfig.KindLine || cfg.Kind == chartconfig.KindBar

	opts.Plugins.Legend = &Legend{Display: categorized || !cartesian}

	if cfg.UI.TooltipSuffix != "" {
		opts.Plugins.Tooltip = &Tooltip{Suffix: cfg.UI.TooltipSuffix}
		opts.TooltipFormatter = tooltipFormatter(cfg.UI.TooltipSuffix)
	}

	if cartesian {
		scales := map[string]Scale{
			"x": {Type: string(cfg.Axes.X.Type)},
		}

		if cfg.Axes.Y.Type != "" {
			scales["y"] = Scale{Type: string(cfg.Axes.Y.Type)}
		}

		opts.Scales = scales

		if cfg.Axes.X.Type.Temporal() {
			opts.TickFormatter = NewTickFormatter(loc)
		}
	}

	return opts
}
