package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/geochart/internal/axis"
	"github.com/Sumatoshi-tech/geochart/internal/chartconfig"
	"github.com/Sumatoshi-tech/geochart/internal/query"
	"github.com/Sumatoshi-tech/geochart/internal/record"
	"github.com/Sumatoshi-tech/geochart/internal/session"
)

func preloadedConfig() *chartconfig.Config {
	cfg := &chartconfig.Config{
		Kind: chartconfig.KindLine,
		Axes: chartconfig.Axes{
			X: chartconfig.Axis{Property: "t", Type: chartconfig.AxisLinear},
			Y: chartconfig.Axis{Property: "v", Type: chartconfig.AxisLinear},
		},
		Categorization: &chartconfig.Categorization{Property: "cat"},
		Query:          chartconfig.Query{Type: chartconfig.QueryJSON, URL: "https://example.test/data.geojson"},
		Datasources: []chartconfig.Datasource{
			{
				Name: "preloaded",
				Items: []record.Record{
					{"t": 1.0, "v": 5.0, "cat": "A"},
					{"t": 2.0, "v": 7.0, "cat": "A"},
					{"t": 1.0, "v": 3.0, "cat": "B"},
				},
			},
		},
	}
	cfg.Normalize()

	return cfg
}

func fetchConfig(url string) *chartconfig.Config {
	cfg := preloadedConfig()
	cfg.Query.URL = url
	cfg.Datasources = []chartconfig.Datasource{
		{Name: "remote", SourceItem: record.Record{"city": "Saskatoon"}},
	}

	return cfg
}

func geoJSONBody(t *testing.T) []byte {
	t.Helper()

	payload := map[string]any{
		"features": []map[string]any{
			{"properties": map[string]any{"t": 1.0, "v": 5.0, "cat": "A"}},
			{"properties": map[string]any{"t": 1.0, "v": 3.0, "cat": "B"}},
		},
	}

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	return body
}

func TestSelectDatasource_UsesPreloadedItems(t *testing.T) {
	t.Parallel()

	sess, err := session.New(preloadedConfig())
	require.NoError(t, err)

	require.NoError(t, sess.SelectDatasource(context.Background(), 0))
	assert.Len(t, sess.Records(), 3)
	assert.False(t, sess.Loading())
}

func TestSelectDatasource_IndexOutOfRange(t *testing.T) {
	t.Parallel()

	sess, err := session.New(preloadedConfig())
	require.NoError(t, err)

	err = sess.SelectDatasource(context.Background(), 5)
	assert.ErrorIs(t, err, session.ErrDatasourceIndex)
}

func TestSelectDatasource_Fetches(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(geoJSONBody(t))
	}))
	defer server.Close()

	sess, err := session.New(fetchConfig(server.URL),
		session.WithQuerier(query.New(query.WithClient(server.Client()))))
	require.NoError(t, err)

	require.NoError(t, sess.SelectDatasource(context.Background(), 0))
	assert.Len(t, sess.Records(), 2)
	assert.False(t, sess.Loading())
}

func TestSelectDatasource_FailureClearsLoadingAndReports(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	var reported atomic.Int32

	sess, err := session.New(fetchConfig(server.URL),
		session.WithQuerier(query.New(query.WithClient(server.Client()))),
		session.WithErrorHandler(func(error) { reported.Add(1) }),
	)
	require.NoError(t, err)

	err = sess.SelectDatasource(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, query.ErrUnexpectedStatus)
	assert.False(t, sess.Loading())
	assert.Equal(t, int32(1), reported.Load())
	assert.Empty(t, sess.Records())
}

func TestSelectDatasource_StaleFetchDiscarded(t *testing.T) {
	t.Parallel()

	arrived := make(chan struct{})
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(arrived)
		<-release

		_, _ = w.Write(geoJSONBody(t))
	}))
	defer server.Close()

	cfg := fetchConfig(server.URL)
	cfg.Datasources = append(cfg.Datasources, chartconfig.Datasource{
		Name:  "instant",
		Items: []record.Record{{"t": 9.0, "v": 9.0, "cat": "Z"}},
	})

	sess, err := session.New(cfg,
		session.WithQuerier(query.New(query.WithClient(server.Client()))))
	require.NoError(t, err)

	done := make(chan error, 1)

	go func() {
		done <- sess.SelectDatasource(context.Background(), 0)
	}()

	<-arrived

	// A newer selection supersedes the in-flight fetch.
	require.NoError(t, sess.SelectDatasource(context.Background(), 1))

	close(release)

	err = <-done
	assert.ErrorIs(t, err, session.ErrStaleFetch)

	// The stale result must not clobber the newer datasource's records.
	records := sess.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Z", records[0]["cat"])
	assert.False(t, sess.Loading())
}

func TestRecompute_EndToEnd(t *testing.T) {
	t.Parallel()

	sess, err := session.New(preloadedConfig())
	require.NoError(t, err)
	require.NoError(t, sess.SelectDatasource(context.Background(), 0))

	data, options, err := sess.Recompute()
	require.NoError(t, err)

	require.Len(t, data.Datasets, 2)
	assert.Equal(t, "A", data.Datasets[0].Label)
	assert.Equal(t, "B", data.Datasets[1].Label)
	assert.True(t, options.Responsive)
}

func TestRecompute_IsIdempotent(t *testing.T) {
	t.Parallel()

	sess, err := session.New(preloadedConfig())
	require.NoError(t, err)
	require.NoError(t, sess.SelectDatasource(context.Background(), 0))

	first, _, err := sess.Recompute()
	require.NoError(t, err)

	second, _, err := sess.Recompute()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRecompute_HonorsSliderAndCheckbox(t *testing.T) {
	t.Parallel()

	cfg := preloadedConfig()
	cfg.UI.XSlider.Display = true

	sess, err := session.New(cfg)
	require.NoError(t, err)
	require.NoError(t, sess.SelectDatasource(context.Background(), 0))

	// Establish registry entries, then uncheck B and narrow x to [2, 2].
	_, _, err = sess.Recompute()
	require.NoError(t, err)

	sess.SetCategoryChecked("B", false)
	sess.SetSliderValue(session.AxisX, axis.Value{From: 2, To: 2, Ranged: true})

	data, _, err := sess.Recompute()
	require.NoError(t, err)

	require.Len(t, data.Datasets, 1)
	assert.Equal(t, "A", data.Datasets[0].Label)
	require.Len(t, data.Datasets[0].Points, 1)
	assert.InDelta(t, 2.0, data.Datasets[0].Points[0].X, 1e-9)
}

func TestReset_RestoresSliderDefaults(t *testing.T) {
	t.Parallel()

	cfg := preloadedConfig()
	cfg.UI.XSlider.Display = true

	sess, err := session.New(cfg)
	require.NoError(t, err)
	require.NoError(t, sess.SelectDatasource(context.Background(), 0))

	sess.SetSliderValue(session.AxisX, axis.Value{From: 2, To: 2, Ranged: true})

	state := sess.SliderState(session.AxisX)
	require.NotNil(t, state)
	assert.InDelta(t, 2.0, state.Value.From, 1e-9)

	sess.Reset()

	state = sess.SliderState(session.AxisX)
	require.NotNil(t, state)
	assert.InDelta(t, state.Min, state.Value.From, 1e-9)
	assert.InDelta(t, state.Max, state.Value.To, 1e-9)
}

func TestSetLanguage_DoesNotRefetch(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)

		_, _ = w.Write(geoJSONBody(t))
	}))
	defer server.Close()

	sess, err := session.New(fetchConfig(server.URL),
		session.WithQuerier(query.New(query.WithClient(server.Client()))))
	require.NoError(t, err)
	require.NoError(t, sess.SelectDatasource(context.Background(), 0))

	sess.SetLanguage("fr")

	_, _, err = sess.Recompute()
	require.NoError(t, err)

	assert.Equal(t, int32(1), requests.Load())
	assert.Len(t, sess.Records(), 2)
}

func TestDownload(t *testing.T) {
	t.Parallel()

	cfg := preloadedConfig()
	cfg.UI.DownloadFilename = "precipitation.json"

	sess, err := session.New(cfg)
	require.NoError(t, err)
	require.NoError(t, sess.SelectDatasource(context.Background(), 0))

	_, _, err = sess.Recompute()
	require.NoError(t, err)

	sess.SetCategoryChecked("B", false)

	payload, name, err := sess.Download(true)
	require.NoError(t, err)
	assert.Equal(t, "precipitation.json", name)

	var filtered []record.Record

	require.NoError(t, json.Unmarshal(payload, &filtered))
	require.Len(t, filtered, 2)

	for _, rec := range filtered {
		assert.Equal(t, "A", rec["cat"])
	}

	// The unfiltered variant exports the full set.
	payload, _, err = sess.Download(false)
	require.NoError(t, err)

	var full []record.Record

	require.NoError(t, json.Unmarshal(payload, &full))
	assert.Len(t, full, 3)
}

func TestDownload_DefaultFilename(t *testing.T) {
	t.Parallel()

	sess, err := session.New(preloadedConfig())
	require.NoError(t, err)
	require.NoError(t, sess.SelectDatasource(context.Background(), 0))

	_, name, err := sess.Download(false)
	require.NoError(t, err)
	assert.Equal(t, chartconfig.DefaultDownloadFilename, name)
}
