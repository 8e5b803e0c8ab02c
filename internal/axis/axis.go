// Package axis computes numeric and temporal bounds for slider-driven
// axis filters and derives per-axis slider state from configuration,
// computed bounds, and prior user interaction.
package axis

import (
	"math"

	"github.com/Sumatoshi-tech/geochart/internal/chartconfig"
	"github.com/Sumatoshi-tech/geochart/internal/record"
)

// Bounds holds the resolved slider bounds per axis. A nil field means
// the corresponding slider is not displayed, not numeric/temporal, or
// the record set was empty; callers must not render a slider from nil
// bounds.
type Bounds struct {
	XMin *float64
	XMax *float64
	YMin *float64
	YMax *float64
}

// Resolve computes slider bounds for both axes over records. Explicit
// configuration min/max take precedence per side; otherwise the record
// values are scanned and floored/ceiled. Temporal x axes resolve to
// Unix epoch milliseconds. Y sliders are numeric-only: no code path
// computes date bounds for a y slider.
func Resolve(cfg *chartconfig.Config, records record.Set) Bounds {
	var b Bounds

	if cfg.UI.XSlider.Display {
		b.XMin, b.XMax = resolveAxis(cfg.UI.XSlider, records, cfg.Axes.X.Property, cfg.Axes.X.Type.Temporal())
	}

	if cfg.UI.YSlider.Display {
		b.YMin, b.YMax = resolveAxis(cfg.UI.YSlider, records, cfg.Axes.Y.Property, false)
	}

	return b
}

func resolveAxis(slider chartconfig.Slider, records record.Set, field string, temporal bool) (*float64, *float64) {
	if slider.Min != nil && slider.Max != nil {
		return slider.Min, slider.Max
	}

	scannedMin, scannedMax, ok := scan(records, field, temporal)

	minBound := slider.Min
	if minBound == nil && ok {
		floored := math.Floor(scannedMin)
		minBound = &floored
	}

	maxBound := slider.Max
	if maxBound == nil && ok {
		ceiled := math.Ceil(scannedMax)
		maxBound = &ceiled
	}

	if minBound == nil || maxBound == nil {
		return nil, nil
	}

	return minBound, maxBound
}

func scan(records record.Set, field string, temporal bool) (scannedMin, scannedMax float64, ok bool) {
	for _, rec := range records {
		raw, exists := rec[field]
		if !exists {
			continue
		}

		var value float64

		if temporal {
			t, valid := record.Time(raw)
			if !valid {
				continue
			}

			value = float64(t.UnixMilli())
		} else {
			n, valid := record.Number(raw)
			if !valid {
				continue
			}

			value = n
		}

		if !ok {
			scannedMin, scannedMax, ok = value, value, true

			continue
		}

		scannedMin = math.Min(scannedMin, value)
		scannedMax = math.Max(scannedMax, value)
	}

	return scannedMin, scannedMax, ok
}

// defaultStep is used when the configuration supplies no slider step.
const defaultStep = 1

// Value is a slider position: a single number or a [from, to] range.
type Value struct {
	From   float64
	To     float64
	Ranged bool
}

// Range returns the two-element range, valid only when Ranged.
func (v Value) Range() (float64, float64) {
	return v.From, v.To
}

// SliderState is the renderable state of one axis slider.
type SliderState struct {
	Min   float64
	Max   float64
	Step  float64
	Value Value
}

// StateFor derives slider state for one axis. Prior user interaction
// takes precedence once set; otherwise the value spans the full
// computed range. Nil bounds yield nil state.
func StateFor(slider chartconfig.Slider, minBound, maxBound *float64, prior *SliderState) *SliderState {
	if prior != nil {
		return prior
	}

	if minBound == nil || maxBound == nil {
		return nil
	}

	step := float64(defaultStep)
	if slider.Step != nil {
		step = *slider.Step
	}

	return &SliderState{
		Min:   *minBound,
		Max:   *maxBound,
		Step:  step,
		Value: Value{From: *minBound, To: *maxBound, Ranged: true},
	}
}
