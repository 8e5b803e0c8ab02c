// Package session owns one chart session: a validated configuration,
// the currently selected datasource and its record set, the color and
// visibility registries, and the slider state. All recomputation is
// triggered by discrete serialized events; registries are immutable
// snapshots swapped under the session lock.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Sumatoshi-tech/geochart/internal/axis"
	"github.com/Sumatoshi-tech/geochart/internal/chartconfig"
	"github.com/Sumatoshi-tech/geochart/internal/filter"
	"github.com/Sumatoshi-tech/geochart/internal/locale"
	"github.com/Sumatoshi-tech/geochart/internal/query"
	"github.com/Sumatoshi-tech/geochart/internal/record"
	"github.com/Sumatoshi-tech/geochart/internal/registry"
	"github.com/Sumatoshi-tech/geochart/internal/schema"
	"github.com/Sumatoshi-tech/geochart/internal/series"
)

// Sentinel errors for session operations.
var (
	// ErrDatasourceIndex indicates an out-of-range datasource index.
	ErrDatasourceIndex = errors.New("datasource index out of range")
	// ErrStaleFetch indicates a fetch result was discarded because a
	// newer datasource selection superseded it.
	ErrStaleFetch = errors.New("stale fetch result discarded")
	// ErrDerivedOutput indicates the builder's own output failed its
	// schema check; this is a pipeline defect, not bad user input.
	ErrDerivedOutput = errors.New("derived output failed schema validation")
)

// AxisID selects one of the two chart axes.
type AxisID string

// The two axis roles.
const (
	AxisX AxisID = "x"
	AxisY AxisID = "y"
)

// Session is the pipeline instance for one configuration. It is safe
// for use from multiple goroutines; all state changes are serialized.
type Session struct {
	mu sync.Mutex

	cfg     *chartconfig.Config
	querier *query.Builder
	logger  *slog.Logger
	onError func(error)
	loc     *locale.Formatter
	lang    string

	datasetReg *registry.Registry
	labelReg   *registry.Registry

	sliders map[AxisID]*axis.SliderState
	stepped bool

	records    record.Set
	datasource int
	seq        uint64
	loading    int
}

// Option configures a Session.
type Option func(*Session)

// WithQuerier sets the query builder used for datasource fetches.
func WithQuerier(q *query.Builder) Option {
	return func(s *Session) { s.querier = q }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithErrorHandler sets the callback invoked with every fetch error.
func WithErrorHandler(handler func(error)) Option {
	return func(s *Session) { s.onError = handler }
}

// WithLanguage sets the active language code.
func WithLanguage(lang string) Option {
	return func(s *Session) { s.lang = lang }
}

// New creates a session for a configuration that already passed the
// inputs-schema gate (see chartconfig.Parse). Registries and slider
// state start empty and persist until the configuration changes, at
// which point the caller discards the session and builds a new one.
func New(cfg *chartconfig.Config, opts ...Option) (*Session, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:        cfg,
		logger:     slog.New(slog.DiscardHandler),
		lang:       "en",
		datasetReg: registry.New(),
		labelReg:   registry.New(),
		sliders:    map[AxisID]*axis.SliderState{},
		stepped:    cfg.UI.Stepped,
		datasource: -1,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.querier == nil {
		s.querier = query.New(query.WithLogger(s.logger))
	}

	s.loc = locale.New(s.lang)

	return s, nil
}

// Loading reports whether any datasource fetch is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loading > 0
}

// Records returns the current full record set.
func (s *Session) Records() record.Set {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.records.Clone()
}

// SelectDatasource makes the datasource at index current and loads its
// records, fetching unless items were pre-supplied. A result arriving
// after a newer selection is discarded (last-write-wins by sequence,
// not by fetch completion order). The loading flag is cleared in both
// success and failure paths.
func (s *Session) SelectDatasource(ctx context.Context, index int) error {
	s.mu.Lock()

	if index < 0 || index >= len(s.cfg.Datasources) {
		s.mu.Unlock()

		return fmt.Errorf("%w: %d", ErrDatasourceIndex, index)
	}

	s.seq++
	seq := s.seq
	s.datasource = index
	s.records = nil

	ds := s.cfg.Datasources[index]

	if len(ds.Items) > 0 {
		s.records = record.Set(ds.Items).Clone()
		s.mu.Unlock()

		return nil
	}

	s.loading++
	lang := s.lang
	s.mu.Unlock()

	records, fetchErr := s.querier.Fetch(ctx, s.cfg.Query, ds.SourceItem, lang)

	s.mu.Lock()
	s.loading--

	if seq != s.seq {
		s.mu.Unlock()
		s.logger.InfoContext(ctx, "session: discarding superseded fetch", "datasource", ds.Name)

		return ErrStaleFetch
	}

	if fetchErr != nil {
		s.mu.Unlock()
		s.reportError(fmt.Errorf("load datasource %q: %w", ds.Name, fetchErr))

		return fetchErr
	}

	s.records = records
	s.mu.Unlock()

	return nil
}

func (s *Session) reportError(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}

// SliderBounds resolves the current slider bounds over the full record
// set.
func (s *Session) SliderBounds() axis.Bounds {
	s.mu.Lock()
	defer s.mu.Unlock()

	return axis.Resolve(s.cfg, s.records)
}

// SliderState returns the renderable state for one axis slider, nil
// when the slider is not displayed or has no resolvable bounds.
func (s *Session) SliderState(id AxisID) *axis.SliderState {
	s.mu.Lock()
	defer s.mu.Unlock()

	bounds := axis.Resolve(s.cfg, s.records)

	switch id {
	case AxisX:
		return axis.StateFor(s.cfg.UI.XSlider, bounds.XMin, bounds.XMax, s.sliders[AxisX])
	case AxisY:
		return axis.StateFor(s.cfg.UI.YSlider, bounds.YMin, bounds.YMax, s.sliders[AxisY])
	default:
		return nil
	}
}

// SetSliderValue records a slider interaction. Once set, the value
// takes precedence over config and computed bounds until Reset.
func (s *Session) SetSliderValue(id AxisID, value axis.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bounds := axis.Resolve(s.cfg, s.records)

	var state *axis.SliderState

	switch id {
	case AxisX:
		state = axis.StateFor(s.cfg.UI.XSlider, bounds.XMin, bounds.XMax, s.sliders[AxisX])
	case AxisY:
		state = axis.StateFor(s.cfg.UI.YSlider, bounds.YMin, bounds.YMax, s.sliders[AxisY])
	}

	if state == nil {
		return
	}

	next := *state
	next.Value = value
	s.sliders[id] = &next
}

// SetCategoryChecked toggles a category's checkbox.
func (s *Session) SetCategoryChecked(category string, checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.datasetReg, _ = s.datasetReg.SetChecked(category, checked)
}

// SetLabelChecked toggles a pie/doughnut label's checkbox.
func (s *Session) SetLabelChecked(label string, checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.labelReg, _ = s.labelReg.SetChecked(label, checked)
}

// SetStepped flips the step-interpolation switcher.
func (s *Session) SetStepped(stepped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stepped = stepped
}

// SetLanguage changes the active language. Temporal formatting
// re-derives on the next recompute; the record set is not re-fetched.
func (s *Session) SetLanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lang = lang
	s.loc = locale.New(lang)
}

// Reset clears slider interaction state and restores the configured
// step-interpolation default. Registries keep their color assignments.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sliders = map[AxisID]*axis.SliderState{}
	s.stepped = s.cfg.UI.Stepped
}

// Recompute runs the deterministic pipeline over the current state:
// filter by sliders, reconcile registries, build series and options,
// and gate both outputs on their schemas. Registry merges are
// idempotent, so recomputing after a superseded fetch is harmless.
func (s *Session) Recompute() (*series.Data, *series.Options, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subset := filter.Apply(s.cfg.Kind, s.cfg.Axes, s.records, s.sliderValue(AxisX), s.sliderValue(AxisY))

	background, border := s.palettes()

	if s.cfg.Categorization != nil && s.cfg.Categorization.Property != "" {
		s.datasetReg, _ = s.datasetReg.Update(subset, s.cfg.Categorization.Property, background, border)
	}

	if s.cfg.Kind == chartconfig.KindPie || s.cfg.Kind == chartconfig.KindDoughnut {
		s.labelReg, _ = s.labelReg.Update(subset, s.cfg.Axes.X.Property, background, border)
	}

	data, opts, err := series.Build(s.cfg, s.datasetReg, s.labelReg, s.stepped, subset, s.loc)
	if err != nil {
		return nil, nil, err
	}

	validationErr := validateOutputs(data, opts)
	if validationErr != nil {
		return nil, nil, validationErr
	}

	return data, opts, nil
}

func (s *Session) sliderValue(id AxisID) *axis.Value {
	state, ok := s.sliders[id]
	if !ok {
		return nil
	}

	return &state.Value
}

func (s *Session) palettes() (background, border []string) {
	if s.cfg.Categorization == nil || s.cfg.Categorization.Colors == nil {
		return nil, nil
	}

	return s.cfg.Categorization.Colors.Background, s.cfg.Categorization.Colors.Border
}

// validateOutputs gates the builder's outputs on the series and
// options schemas. A failure here is a bug in the pipeline itself.
func validateOutputs(data *series.Data, opts *series.Options) error {
	seriesResult, err := schema.Validate(schema.KindSeries, data)
	if err != nil {
		return err
	}

	optionsResult, err := schema.Validate(schema.KindOptions, opts)
	if err != nil {
		return err
	}

	if seriesResult.Valid && optionsResult.Valid {
		return nil
	}

	return fmt.Errorf("%w:\n%s", ErrDerivedOutput, schema.Join(seriesResult, optionsResult))
}

// Download serializes the current record subset as indented JSON and
// returns it with the configured download filename. When filtered is
// true the slider- and category-filtered subset is exported; otherwise
// the full unfiltered set.
func (s *Session) Download(filtered bool) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subset := s.records.Clone()

	if filtered {
		subset = filter.Apply(s.cfg.Kind, s.cfg.Axes, s.records, s.sliderValue(AxisX), s.sliderValue(AxisY))
		subset = s.categoryFiltered(subset)
	}

	payload, err := json.MarshalIndent(subset, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("serialize download: %w", err)
	}

	return payload, s.cfg.DownloadFilename(), nil
}

// categoryFiltered drops records whose category is unchecked.
func (s *Session) categoryFiltered(records record.Set) record.Set {
	if s.cfg.Categorization == nil || s.cfg.Categorization.Property == "" {
		return records
	}

	out := make(record.Set, 0, len(records))

	for _, rec := range records {
		key := record.String(rec[s.cfg.Categorization.Property])

		entry, known := s.datasetReg.Get(key)
		if !known || entry.Checked {
			out = append(out, rec)
		}
	}

	return out
}
