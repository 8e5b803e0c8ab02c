// Package chartconfig defines the declarative chart configuration
// document: chart kind, axis mapping, categorization, query descriptor,
// datasources, and UI toggles. The document is externally supplied and
// treated as read-only for one render cycle, except for the narrow
// in-place defaulting done by Normalize.
package chartconfig

import (
	"errors"

	"github.com/Sumatoshi-tech/geochart/internal/record"
)

// Kind identifies the chart kind.
type Kind string

// Supported chart kinds.
const (
	KindLine     Kind = "line"
	KindBar      Kind = "bar"
	KindPie      Kind = "pie"
	KindDoughnut Kind = "doughnut"
)

// AxisType identifies the semantic type of an axis field.
type AxisType string

// Supported axis types.
const (
	AxisLinear      AxisType = "linear"
	AxisLogarithmic AxisType = "logarithmic"
	AxisCategory    AxisType = "category"
	AxisTime        AxisType = "time"
	AxisTimeseries  AxisType = "timeseries"
)

// Temporal reports whether the axis type carries date semantics.
func (t AxisType) Temporal() bool {
	return t == AxisTime || t == AxisTimeseries
}

// QueryType identifies the query backend dialect.
type QueryType string

// Supported query backend dialects.
const (
	QueryEsriRegular    QueryType = "esriRegular"
	QueryOGCAPIFeatures QueryType = "ogcAPIFeatures"
	QueryJSON           QueryType = "json"
)

// Axis names one record field and its semantic type.
type Axis struct {
	Property string   `json:"property"`
	Type     AxisType `json:"type"`
}

// Axes maps the x and y chart axes onto record fields.
type Axes struct {
	X Axis `json:"x"`
	Y Axis `json:"y"`
}

// Palettes holds the explicit color palettes for categorized series.
// Either list may be empty, in which case Normalize fills it with the
// library default palette.
type Palettes struct {
	Background []string `json:"backgroundColors,omitempty"`
	Border     []string `json:"borderColors,omitempty"`
}

// Categorization names the record field whose distinct values become
// series, plus optional explicit palettes.
type Categorization struct {
	Property string    `json:"property"`
	Colors   *Palettes `json:"colors,omitempty"`
}

// WhereClause is one fragment of a query filter. The value comes from
// ValueIs (literal) or by looking up ValueFrom in the source item; a
// clause with neither resolvable is skipped.
type WhereClause struct {
	Field     string `json:"field"`
	Prefix    string `json:"prefix,omitempty"`
	Suffix    string `json:"suffix,omitempty"`
	ValueIs   string `json:"valueIs,omitempty"`
	ValueFrom string `json:"valueFrom,omitempty"`
}

// QueryOptions holds the ordered where-clause fragments and order-by
// field for a query descriptor.
type QueryOptions struct {
	WhereClauses []WhereClause `json:"whereClauses,omitempty"`
	OrderByField string        `json:"orderByField,omitempty"`
}

// Query describes how to fetch records from a remote service.
type Query struct {
	Type    QueryType     `json:"type"`
	URL     string        `json:"url"`
	Options *QueryOptions `json:"queryOptions,omitempty"`
}

// Datasource is one user-selectable entry: a source item that
// parametrizes the query, plus optionally pre-loaded items that make a
// fetch unnecessary.
type Datasource struct {
	Name       string          `json:"name"`
	SourceItem record.Record   `json:"sourceItem,omitempty"`
	Items      []record.Record `json:"items,omitempty"`
}

// Slider configures one axis range slider. Min and Max override the
// computed bounds when both are present.
type Slider struct {
	Display bool     `json:"display,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Step    *float64 `json:"step,omitempty"`
}

// UI holds the interactive toggles outside the chart canvas.
type UI struct {
	XSlider          Slider  `json:"xSlider,omitempty"`
	YSlider          Slider  `json:"ySlider,omitempty"`
	SteppedSwitcher  bool    `json:"steppedSwitcher,omitempty"`
	ResetButton      bool    `json:"resetButton,omitempty"`
	Description      string  `json:"description,omitempty"`
	DownloadButton   bool    `json:"downloadButton,omitempty"`
	DownloadFilename string  `json:"downloadFilename,omitempty"`
	TooltipSuffix    string  `json:"tooltipSuffix,omitempty"`
	BorderWidth      float64 `json:"borderWidth,omitempty"`
	Tension          float64 `json:"tension,omitempty"`
	Stepped          bool    `json:"stepped,omitempty"`
}

// Config is the full declarative chart configuration.
type Config struct {
	Kind           Kind            `json:"chartType"`
	Title          string          `json:"title,omitempty"`
	Axes           Axes            `json:"axes"`
	Categorization *Categorization `json:"category,omitempty"`
	Query          Query           `json:"query"`
	Datasources    []Datasource    `json:"datasources"`
	UI             UI              `json:"ui,omitempty"`
}

// DefaultDownloadFilename is used when no download filename is configured.
const DefaultDownloadFilename = "chart-data.json"

// DefaultPalette is the fallback palette applied by Normalize when the
// configuration supplies none.
var DefaultPalette = []string{
	"#36a2eb",
	"#ff6384",
	"#ff9f40",
	"#ffcd56",
	"#4bc0c0",
	"#9966ff",
	"#c9cbcf",
}

// Sentinel errors for configuration checks outside the schema gate.
var (
	// ErrUnsupportedKind indicates an unrecognized chart kind.
	ErrUnsupportedKind = errors.New("unsupported chart kind")
	// ErrUnsupportedQueryType indicates an unrecognized query backend.
	ErrUnsupportedQueryType = errors.New("unsupported query type")
	// ErrNoDatasources indicates the configuration names no datasource.
	ErrNoDatasources = errors.New("configuration has no datasources")
)

// Normalize fills missing palette fields in place. This is the one
// deliberate mutation of the caller-owned configuration.
func (c *Config) Normalize() {
	if c.Categorization == nil {
		return
	}

	if c.Categorization.Colors == nil {
		c.Categorization.Colors = &Palettes{}
	}

	if len(c.Categorization.Colors.Background) == 0 {
		c.Categorization.Colors.Background = DefaultPalette
	}

	if len(c.Categorization.Colors.Border) == 0 {
		c.Categorization.Colors.Border = DefaultPalette
	}
}

// Validate checks invariants the schema gate cannot express.
func (c *Config) Validate() error {
	switch c.Kind {
	case KindLine, KindBar, KindPie, KindDoughnut:
	default:
		return ErrUnsupportedKind
	}

	switch c.Query.Type {
	case QueryEsriRegular, QueryOGCAPIFeatures, QueryJSON:
	default:
		return ErrUnsupportedQueryType
	}

	if len(c.Datasources) == 0 {
		return ErrNoDatasources
	}

	return nil
}

// DownloadFilename returns the configured download filename or the
// default when none is supplied.
func (c *Config) DownloadFilename() string {
	if c.UI.DownloadFilename == "" {
		return DefaultDownloadFilename
	}

	return c.UI.DownloadFilename
}
