package timeseries

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/plantmetrics/plantseries/auth"
)

// sdkVersion is reported in the User-Agent of every outbound request.
const sdkVersion = "1.4.0"

const defaultTimeout = 30 * time.Second

// Client calls the PlantSeries time series API. A Client issues one
// outbound request per method call (plus retries and token refreshes)
// and holds no state beyond the optional metadata cache.
type Client struct {
	env        Environment
	httpClient *http.Client
	tokens     auth.TokenSource
	logger     *logrus.Logger
	limiter    *rate.Limiter
	metrics    *Metrics
	metaCache  *metadataCache
	userAgent  string

	maxAttempts int
	backoffBase time.Duration

	cacheSize int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (30s timeout).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger attaches a structured logger. The default discards all output.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRateLimit throttles outbound requests client-side.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst) }
}

// WithMetrics registers request counters and latency histograms on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) { c.metrics = NewMetrics(reg) }
}

// WithRetryPolicy overrides the retry budget: total attempts (including
// the first) and the base delay of the exponential backoff.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.backoffBase = baseDelay
	}
}

// WithMetadataCache enables an LRU cache for GetTimeseriesByID lookups.
// Datapoint and aggregate responses are never cached.
func WithMetadataCache(size int) Option {
	return func(c *Client) { c.cacheSize = size }
}

// WithUserAgent overrides the default SDK User-Agent string.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) { c.userAgent = userAgent }
}

// NewClient builds a Client for env, authenticating every request with
// tokens.
func NewClient(env Environment, tokens auth.TokenSource, opts ...Option) (*Client, error) {
	if env.BaseURL() == "" {
		return nil, errors.New("timeseries: environment base URL is required")
	}
	if tokens == nil {
		return nil, errors.New("timeseries: token source is required")
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		env:         env,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		tokens:      tokens,
		logger:      discard,
		userAgent:   defaultUserAgent(),
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.maxAttempts < 1 {
		return nil, errors.New("timeseries: retry policy needs at least one attempt")
	}
	if c.backoffBase <= 0 {
		return nil, errors.New("timeseries: backoff base delay must be positive")
	}
	if c.cacheSize != 0 {
		cache, err := newMetadataCache(c.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("timeseries: metadata cache: %w", err)
		}
		c.metaCache = cache
	}
	return c, nil
}

func defaultUserAgent() string {
	return fmt.Sprintf("PlantSeries Go SDK/%s (%s; %s)", sdkVersion, runtime.GOOS, runtime.Version())
}

// GetTimeseries lists series metadata, optionally narrowed by filter.
// Pages are walked with filter.ContinuationToken.
func (c *Client) GetTimeseries(ctx context.Context, filter *TimeseriesFilter) (*TimeseriesList, error) {
	const op = "GetTimeseries"
	var envelope collectionEnvelope[TimeseriesMeta]
	if err := c.do(ctx, op, http.MethodGet, "", filter.values(), nil, &envelope); err != nil {
		return nil, err
	}
	return &TimeseriesList{
		Items:             envelope.Data.Items,
		ContinuationToken: envelope.ContinuationToken,
	}, nil
}

// SearchTimeseries runs a free-text search. An empty query lists all
// series matching the filter.
func (c *Client) SearchTimeseries(ctx context.Context, query string, filter *TimeseriesFilter) (*TimeseriesList, error) {
	const op = "SearchTimeseries"
	path := "/search"
	if query != "" {
		path += "/" + url.PathEscape(query)
	}
	var envelope collectionEnvelope[TimeseriesMeta]
	if err := c.do(ctx, op, http.MethodGet, path, filter.values(), nil, &envelope); err != nil {
		return nil, err
	}
	return &TimeseriesList{
		Items:             envelope.Data.Items,
		ContinuationToken: envelope.ContinuationToken,
	}, nil
}

// GetTimeseriesByID fetches the metadata of a single series. Results are
// served from the metadata cache when one is configured.
func (c *Client) GetTimeseriesByID(ctx context.Context, id string) (*TimeseriesMeta, error) {
	const op = "GetTimeseriesByID"
	if id == "" {
		return nil, errInvalidInput(op, errors.New("missing series id"))
	}
	if meta, ok := c.metaCache.get(id); ok {
		return meta, nil
	}
	meta, err := c.fetchSingleMeta(ctx, op, http.MethodGet, "/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	c.metaCache.add(*meta)
	return meta, nil
}

// AddTimeseries registers a new series and returns its stored metadata.
func (c *Client) AddTimeseries(ctx context.Context, request TimeseriesRequest) (*TimeseriesMeta, error) {
	const op = "AddTimeseries"
	if request.Name == "" {
		return nil, errInvalidInput(op, errors.New("missing series name"))
	}
	meta, err := c.fetchSingleMeta(ctx, op, http.MethodPost, "", request)
	if err != nil {
		return nil, err
	}
	c.metaCache.add(*meta)
	return meta, nil
}

// DeleteTimeseries removes a series and all of its datapoints.
func (c *Client) DeleteTimeseries(ctx context.Context, id string) error {
	const op = "DeleteTimeseries"
	if id == "" {
		return errInvalidInput(op, errors.New("missing series id"))
	}
	var ack messageEnvelope
	if err := c.do(ctx, op, http.MethodDelete, "/"+url.PathEscape(id), nil, nil, &ack); err != nil {
		return err
	}
	c.metaCache.remove(id)
	return nil
}

// GetHistory returns the metadata revision history of a series.
func (c *Client) GetHistory(ctx context.Context, id string) ([]HistoryEntry, error) {
	const op = "GetHistory"
	if id == "" {
		return nil, errInvalidInput(op, errors.New("missing series id"))
	}
	var envelope collectionEnvelope[HistoryEntry]
	if err := c.do(ctx, op, http.MethodGet, "/"+url.PathEscape(id)+"/history", nil, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data.Items, nil
}

// GetFacilities lists the known facility facets.
func (c *Client) GetFacilities(ctx context.Context) ([]Facet, error) {
	return c.fetchFacets(ctx, "GetFacilities", "/facets/facility", nil)
}

// GetSources lists the known source facets.
func (c *Client) GetSources(ctx context.Context) ([]Facet, error) {
	return c.fetchFacets(ctx, "GetSources", "/facets/source", nil)
}

// GetSourcesByFacility lists the sources present at one facility.
func (c *Client) GetSourcesByFacility(ctx context.Context, facility string) ([]Facet, error) {
	return c.fetchFacets(ctx, "GetSourcesByFacility", "/facets/source", url.Values{"facility": {facility}})
}

// GetFacilitiesBySource lists the facilities covered by one source.
func (c *Client) GetFacilitiesBySource(ctx context.Context, source string) ([]Facet, error) {
	return c.fetchFacets(ctx, "GetFacilitiesBySource", "/facets/facility", url.Values{"source": {source}})
}

func (c *Client) fetchFacets(ctx context.Context, op, path string, query url.Values) ([]Facet, error) {
	var envelope collectionEnvelope[Facet]
	if err := c.do(ctx, op, http.MethodGet, path, query, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data.Items, nil
}

// fetchSingleMeta runs an operation whose payload is a one-item metadata
// collection.
func (c *Client) fetchSingleMeta(ctx context.Context, op, method, path string, body any) (*TimeseriesMeta, error) {
	var envelope collectionEnvelope[TimeseriesMeta]
	if err := c.do(ctx, op, method, path, nil, body, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Data.Items) == 0 {
		return nil, &Error{Op: op, Kind: KindDecode, Message: "response contained no items"}
	}
	return &envelope.Data.Items[0], nil
}
