// Package client provides the HTTP transport collections fetch through: one
// JSON round trip per Send, with classified retries, an optional shared Redis
// response cache and an optional Redis-backed rate limit tracker.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/resource-collection/pkg/cache"
	"github.com/Sternrassler/resource-collection/pkg/ratelimit"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "api_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "api_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// HTTP verbs understood by Send.
const (
	MethodGet    = http.MethodGet
	MethodPost   = http.MethodPost
	MethodPut    = http.MethodPut
	MethodPatch  = http.MethodPatch
	MethodDelete = http.MethodDelete
)

// Response is a decoded API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       map[string]any

	// FromCache is set when the body came from the Redis response cache.
	FromCache bool
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is prepended to relative targets, e.g. "https://acme.zendesk.com/api/v2".
	BaseURL string

	// UserAgent is sent with every request.
	UserAgent string

	// Token is sent as a bearer token when set.
	Token string

	// Username and Password are sent as basic auth when Token is empty.
	Username string
	Password string

	// Redis enables the shared response cache and rate limit tracking. Optional.
	Redis *redis.Client

	// CachePrefix namespaces response cache keys.
	CachePrefix string

	// Timeout bounds a single HTTP exchange.
	Timeout time.Duration

	Retry RetryConfig
}

// DefaultConfig returns a configuration for baseURL without Redis.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:     baseURL,
		UserAgent:   userAgent,
		CachePrefix: cache.DefaultPrefix,
		Timeout:     30 * time.Second,
		Retry:       DefaultRetryConfig(),
	}
}

// Client sends API requests.
type Client struct {
	http        *retryablehttp.Client
	baseURL     *url.URL
	cache       *cache.Manager
	rateLimiter *ratelimit.Tracker
	config      Config
	logger      zerolog.Logger
}

// New validates cfg and creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Retry.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must be >= 0 (got %d)", cfg.Retry.MaxRetries)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "api-client").Logger()

	c := &Client{
		http:    newRetryableClient(&http.Client{Timeout: cfg.Timeout}, cfg.Retry, logger),
		baseURL: base,
		config:  cfg,
		logger:  logger,
	}

	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis, cfg.CachePrefix)
		c.rateLimiter = ratelimit.NewTracker(cfg.Redis, logger)
	}

	return c, nil
}

// Send performs one request. Read verbs (GET, DELETE) carry params in the
// query string; write verbs carry them as a JSON body. target is either a path
// relative to the base URL or an absolute URL such as a next_page address.
func (c *Client) Send(ctx context.Context, method, target string, params map[string]any) (*Response, error) {
	method = strings.ToUpper(method)
	if method == "" {
		method = MethodGet
	}

	u, err := c.resolve(target)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if isWriteMethod(method) {
		payload, err := json.Marshal(compact(params))
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	} else {
		u.RawQuery = encodeQuery(u.Query(), params)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.Do(req)
}

// Get is Send with GET and no extra params.
func (c *Client) Get(ctx context.Context, target string) (*Response, error) {
	return c.Send(ctx, MethodGet, target, nil)
}

// Do executes a prepared request: rate limit gate, cache lookup, exchange
// with retries, cache update and body decoding.
func (c *Client) Do(req *retryablehttp.Request) (*Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	start := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	if c.rateLimiter != nil {
		allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Rate limit check failed, sending anyway")
		} else if !allowed {
			apiRequestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
			return nil, ErrRateLimited
		}
	}

	var (
		cacheKey cache.Key
		cached   *cache.Entry
	)
	if c.cache != nil && req.Method == MethodGet {
		cacheKey = cache.KeyFromURL(req.URL, c.cacheScope())
		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		cached = entry
		if cached.Revalidatable() {
			cache.AddConditionalHeaders(req.Request, cached)
			c.logger.Debug().Str("endpoint", endpoint).Str("etag", cached.ETag).Msg("Making conditional request")
		}
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	switch {
	case c.config.Token != "":
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	case c.config.Username != "":
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}

	c.logger.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("Sending request")

	resp, err := c.http.Do(req)
	if err != nil {
		class := classify(nil, err)
		apiErrorsTotal.WithLabelValues(string(class)).Inc()
		apiRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if c.config.Retry.MaxRetries > 0 {
			apiRetryExhaustedTotal.WithLabelValues(string(class)).Inc()
			c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Request failed after retries")
			return nil, fmt.Errorf("%w: %v", ErrRetryExhausted, err)
		}
		return nil, &APIError{ErrorClass: class, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if c.rateLimiter != nil {
		if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}
	}

	apiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		cache.NotModifiedResponses.Inc()
		if err := c.cache.Refresh(ctx, cacheKey, cached, cache.Expiry(resp.Header)); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
		}
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		return decode(cache.EntryToResponse(cached), true)
	}

	if class := classify(resp, nil); class != "" {
		apiErrorsTotal.WithLabelValues(string(class)).Inc()
		if shouldRetry(class) && c.config.Retry.MaxRetries > 0 {
			apiRetryExhaustedTotal.WithLabelValues(string(class)).Inc()
		}
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("API request error")
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    errorMessage(resp),
		}
	}

	if c.cache != nil && req.Method == MethodGet && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return decode(resp, false)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.HTTPClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient swaps the underlying HTTP client (tests).
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.http.HTTPClient = hc
}

func (c *Client) cacheScope() string {
	if c.config.Username != "" {
		return c.config.Username
	}
	return ""
}

// resolve turns target into an absolute URL.
func (c *Client) resolve(target string) (*url.URL, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("parse target url: %w", err)
		}
		return u, nil
	}

	rel, err := url.Parse(strings.TrimPrefix(target, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse target path: %w", err)
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + rel.Path
	u.RawQuery = rel.RawQuery
	return &u, nil
}

func decode(resp *http.Response, fromCache bool) (*Response, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       map[string]any{},
		FromCache:  fromCache,
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}

	if err := json.Unmarshal(raw, &out.Body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedBody, err)
	}
	if out.Body == nil {
		out.Body = map[string]any{}
	}

	return out, nil
}

// errorMessage extracts a readable message from an error response body.
func errorMessage(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(raw) > 0 {
		var body map[string]any
		if json.Unmarshal(raw, &body) == nil {
			for _, key := range []string{"description", "error", "message"} {
				if s, ok := body[key].(string); ok && s != "" {
					return s
				}
			}
		}
	}
	return resp.Status
}

func isWriteMethod(method string) bool {
	return method == MethodPost || method == MethodPut || method == MethodPatch
}

// compact drops nil-valued params.
func compact(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// encodeQuery merges params into q. Slices become comma-joined values.
func encodeQuery(q url.Values, params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if params[k] == nil {
			continue
		}
		q.Set(k, formatParam(params[k]))
	}
	return q.Encode()
}

func formatParam(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, ",")
	case []int:
		parts := make([]string, len(t))
		for i, n := range t {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, ",")
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = formatParam(e)
		}
		return strings.Join(parts, ",")
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
