// Package series converts filtered records plus visual registries into
// the chart-ready series structure and its derived render options.
// This is the contract with the downstream rendering component; both
// outputs validate against fixed schemas.
package series

import (
	"encoding/json"
	"strconv"
)

// Point is one {x, y} sample of a line or bar dataset. X may be a
// float64, a string, or a time.Time (temporal axes). A nil Y marks an
// uncoercible value.
type Point struct {
	X any      `json:"x"`
	Y *float64 `json:"y"`
}

// Dataset is one renderable series. Line and bar datasets carry
// Points and per-dataset colors; pie and doughnut datasets carry
// Values compressed over the shared label axis plus one shared
// background palette.
type Dataset struct {
	Label            string
	Points           []Point
	Values           []*float64
	BackgroundColor  string
	BorderColor      string
	SharedBackground []string
	BorderWidth      float64
	Stepped          bool
	Tension          float64
}

type datasetJSON struct {
	Label           string  `json:"label,omitempty"`
	Data            any     `json:"data"`
	BackgroundColor any     `json:"backgroundColor,omitempty"`
	BorderColor     string  `json:"borderColor,omitempty"`
	BorderWidth     float64 `json:"borderWidth,omitempty"`
	Stepped         bool    `json:"stepped,omitempty"`
	Tension         float64 `json:"tension,omitempty"`
}

// MarshalJSON emits the dataset in the renderable wire shape: Points
// for line/bar, Values for pie/doughnut, and a string or string-array
// background color depending on which is set.
func (d Dataset) MarshalJSON() ([]byte, error) {
	out := datasetJSON{
		Label:       d.Label,
		BorderColor: d.BorderColor,
		BorderWidth: d.BorderWidth,
		Stepped:     d.Stepped,
		Tension:     d.Tension,
	}

	if d.Values != nil {
		out.Data = d.Values
	} else {
		out.Data = d.Points
	}

	switch {
	case len(d.SharedBackground) > 0:
		out.BackgroundColor = d.SharedBackground
	case d.BackgroundColor != "":
		out.BackgroundColor = d.BackgroundColor
	}

	return json.Marshal(out)
}

// Data is the full chart-ready series structure: the shared label axis
// (pie/doughnut only) plus all datasets.
type Data struct {
	Labels   []string  `json:"labels,omitempty"`
	Datasets []Dataset `json:"datasets"`
}

// Scale configures one chart axis.
type Scale struct {
	Type string   `json:"type,omitempty"`
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
}

// Legend configures the chart legend.
type Legend struct {
	Display bool `json:"display"`
}

// Tooltip configures tooltip value formatting.
type Tooltip struct {
	Suffix string `json:"suffix,omitempty"`
}

// Plugins groups the plugin configuration blocks.
type Plugins struct {
	Legend  *Legend  `json:"legend,omitempty"`
	Tooltip *Tooltip `json:"tooltip,omitempty"`
}

// Options is the derived render configuration. The formatter fields
// are callbacks for the rendering host and are not part of the wire
// shape.
type Options struct {
	Responsive bool             `json:"responsive"`
	Plugins    Plugins          `json:"plugins,omitempty"`
	Scales     map[string]Scale `json:"scales,omitempty"`

	TickFormatter    *TickFormatter       `json:"-"`
	TooltipFormatter func(float64) string `json:"-"`
}

// tooltipFormatter appends the configured suffix to the formatted
// value.
func tooltipFormatter(suffix string) func(float64) string {
	return func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64) + suffix
	}
}
