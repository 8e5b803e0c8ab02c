// Package query builds request URLs against the supported backend
// dialects (Esri feature services, OGC API Features, static GeoJSON)
// and parses the heterogeneous response shapes into a uniform flat
// record set. Fetching is the pipeline's only I/O-bound step; a failed
// fetch is surfaced once, never retried.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/geochart/internal/cache"
	"github.com/Sumatoshi-tech/geochart/internal/chartconfig"
	"github.com/Sumatoshi-tech/geochart/internal/observability"
	"github.com/Sumatoshi-tech/geochart/internal/record"
)

// defaultTimeout bounds a fetch when the caller supplies no client.
const defaultTimeout = 30 * time.Second

// Sentinel errors for fetch failures.
var (
	// ErrUnexpectedStatus indicates a non-200 response.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrMalformedResponse indicates a response without the expected
	// features shape.
	ErrMalformedResponse = errors.New("malformed query response")
)

// Builder fetches record sets for query descriptors.
type Builder struct {
	client  *http.Client
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.FetchMetrics
	cache   *cache.RecordCache
}

// Option configures a Builder.
type Option func(*Builder)

// WithClient sets the HTTP client.
func WithClient(client *http.Client) Option {
	return func(b *Builder) { b.client = client }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithTracer sets the tracer for fetch spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(b *Builder) { b.tracer = tracer }
}

// WithMetrics sets the fetch metrics sink.
func WithMetrics(metrics *observability.FetchMetrics) Option {
	return func(b *Builder) { b.metrics = metrics }
}

// WithCache sets a response cache keyed by the resolved request URL.
// Without one, every Fetch hits the backend.
func WithCache(c *cache.RecordCache) Option {
	return func(b *Builder) { b.cache = c }
}

// New builds a query Builder with sane defaults and the given options.
func New(opts ...Option) *Builder {
	b := &Builder{
		client: &http.Client{Timeout: defaultTimeout},
		logger: slog.New(slog.DiscardHandler),
		tracer: noop.NewTracerProvider().Tracer("geochart/query"),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// WhereClause resolves the ordered clause fragments against the source
// item and joins them with AND. Clauses whose value resolves neither
// from valueIs nor from the source item are skipped.
func WhereClause(clauses []chartconfig.WhereClause, sourceItem record.Record) string {
	fragments := make([]string, 0, len(clauses))

	for _, clause := range clauses {
		value := clause.ValueIs

		if value == "" && clause.ValueFrom != "" && sourceItem != nil {
			raw, ok := sourceItem[clause.ValueFrom]
			if ok {
				value = record.String(raw)
			}
		}

		if value == "" {
			continue
		}

		fragments = append(fragments, clause.Field+"="+clause.Prefix+value+clause.Suffix)
	}

	return strings.Join(fragments, " AND ")
}

// BuildURL constructs the request URL for a query descriptor. The
// json dialect fetches the descriptor URL as-is.
func BuildURL(q chartconfig.Query, sourceItem record.Record, lang string) (string, error) {
	var where string

	if q.Options != nil {
		where = WhereClause(q.Options.WhereClauses, sourceItem)
	}

	switch q.Type {
	case chartconfig.QueryEsriRegular:
		params := url.Values{}
		params.Set("outFields", "*")
		params.Set("f", "json")
		params.Set("where", where)

		if q.Options != nil && q.Options.OrderByField != "" {
			params.Set("orderByFields", q.Options.OrderByField)
		}

		return q.URL + "/query?" + params.Encode(), nil

	case chartconfig.QueryOGCAPIFeatures:
		params := url.Values{}
		params.Set("f", "json")
		params.Set("lang", lang)
		params.Set("skipGeometry", "true")
		params.Set("offset", "0")

		if where != "" {
			params.Set("filter-lang", "cql-text")
			params.Set("filter", where)
		}

		return q.URL + "/items?" + params.Encode(), nil

	case chartconfig.QueryJSON:
		return q.URL, nil

	default:
		return "", fmt.Errorf("%w: %q", chartconfig.ErrUnsupportedQueryType, q.Type)
	}
}

type esriResponse struct {
	Features []struct {
		Attributes record.Record `json:"attributes"`
	} `json:"features"`
}

type featureResponse struct {
	Features []struct {
		Properties record.Record `json:"properties"`
	} `json:"features"`
}

// Fetch performs one attempt against the backend and parses the
// response into a flat record set. Any network or shape failure is
// returned as-is; retrying is the caller's decision.
func (b *Builder) Fetch(
	ctx context.Context,
	q chartconfig.Query,
	sourceItem record.Record,
	lang string,
) (record.Set, error) {
	requestURL, err := BuildURL(q, sourceItem, lang)
	if err != nil {
		return nil, err
	}

	if b.cache != nil {
		cached, ok := b.cache.Get(requestURL)
		if ok {
			b.logger.DebugContext(ctx, "query: cache hit", "url", requestURL)

			return cached, nil
		}
	}

	ctx, span := b.tracer.Start(ctx, "query.Fetch", trace.WithAttributes(
		attribute.String("backend", string(q.Type)),
		attribute.String("url", requestURL),
	))
	defer span.End()

	start := time.Now()

	records, err := b.fetch(ctx, q.Type, requestURL)

	b.metrics.Observe(string(q.Type), time.Since(start), err)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		b.logger.ErrorContext(ctx, "query: fetch failed",
			"backend", q.Type, "url", requestURL, "error", err)

		return nil, err
	}

	b.logger.InfoContext(ctx, "query: fetched records",
		"backend", q.Type, "url", requestURL, "records", len(records))

	if b.cache != nil {
		b.cache.Put(requestURL, records)
	}

	return records, nil
}

func (b *Builder) fetch(ctx context.Context, backend chartconfig.QueryType, requestURL string) (record.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	return parseResponse(backend, resp.Body)
}

func parseResponse(backend chartconfig.QueryType, body io.Reader) (record.Set, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	if backend == chartconfig.QueryEsriRegular {
		var parsed esriResponse

		err := dec.Decode(&parsed)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
		}

		if parsed.Features == nil {
			return nil, fmt.Errorf("%w: missing features", ErrMalformedResponse)
		}

		records := make(record.Set, len(parsed.Features))

		for i, feature := range parsed.Features {
			records[i] = feature.Attributes
		}

		return records, nil
	}

	var parsed featureResponse

	err := dec.Decode(&parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
	}

	if parsed.Features == nil {
		return nil, fmt.Errorf("%w: missing features", ErrMalformedResponse)
	}

	records := make(record.Set, len(parsed.Features))

	for i, feature := range parsed.Features {
		records[i] = feature.Properties
	}

	return records, nil
}
