// Package commands implements CLI command handlers for geochart.
package commands

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Sumatoshi-tech/geochart/internal/cache"
	"github.com/Sumatoshi-tech/geochart/internal/config"
	"github.com/Sumatoshi-tech/geochart/internal/observability"
	"github.com/Sumatoshi-tech/geochart/internal/query"
)

// newLogger builds the CLI logger. Verbose mode lowers the level to
// debug; otherwise only warnings and errors reach the terminal.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newQuerier wires the query builder from application settings. One
// process-wide response cache keeps repeated datasource switches from
// re-fetching identical queries. When metrics are enabled, fetch
// counters are collected in the returned registry; otherwise the
// registry is nil.
func newQuerier(cfg *config.Config, logger *slog.Logger) (*query.Builder, *prometheus.Registry) {
	client := &http.Client{Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second}

	options := []query.Option{
		query.WithClient(client),
		query.WithLogger(logger),
		query.WithCache(cache.New(cache.DefaultMaxRecords)),
	}

	var registry *prometheus.Registry

	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		options = append(options, query.WithMetrics(observability.NewFetchMetrics(registry)))
	}

	return query.New(options...), registry
}

// reportMetrics logs the gathered fetch metrics before the command
// exits. A nil registry means metrics were disabled.
func reportMetrics(logger *slog.Logger, registry *prometheus.Registry) {
	if registry == nil {
		return
	}

	families, err := registry.Gather()
	if err != nil {
		logger.Warn("gather metrics", "error", err)

		return
	}

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			attrs := make([]any, 0, 4)

			for _, label := range metric.GetLabel() {
				attrs = append(attrs, label.GetName(), label.GetValue())
			}

			switch {
			case metric.GetCounter() != nil:
				attrs = append(attrs, "value", metric.GetCounter().GetValue())
			case metric.GetHistogram() != nil:
				attrs = append(attrs,
					"count", metric.GetHistogram().GetSampleCount(),
					"sum", metric.GetHistogram().GetSampleSum(),
				)
			}

			logger.Info(family.GetName(), attrs...)
		}
	}
}
