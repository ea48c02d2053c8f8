package client

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	apiRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "api_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	apiRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.05, 0.25, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	apiRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "api_retry_exhausted_total",
		Help: "Total number of requests that failed after the last retry",
	}, []string{"error_class"})
)

// RetryConfig holds the retry budget of a Client.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first one. 0 disables retries.
	MaxRetries int

	// WaitMin is the first backoff for server errors.
	WaitMin time.Duration

	// WaitMax caps every backoff, including Retry-After hints.
	WaitMax time.Duration
}

// DefaultRetryConfig returns three retries between 1s and 30s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		WaitMin:    time.Second,
		WaitMax:    30 * time.Second,
	}
}

// classScale stretches the base backoff per failure class: rate limits wait
// longest, network errors a little longer than server errors.
func classScale(class ErrorClass) float64 {
	switch class {
	case ErrorClassRateLimit:
		return 5
	case ErrorClassNetwork:
		return 2
	default:
		return 1
	}
}

// checkRetry is the retryablehttp.CheckRetry policy: retry server, rate limit
// and network failures, never client errors, and stop on context cancellation.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return shouldRetry(classify(resp, err)), nil
}

// backoff is the retryablehttp.Backoff policy: exponential per class with
// ±20% jitter, honouring Retry-After on 429 responses.
func backoff(min, max time.Duration, attempt int, resp *http.Response) time.Duration {
	class := classify(resp, nil)

	var wait time.Duration
	if class == ErrorClassRateLimit {
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs >= 0 {
			wait = time.Duration(secs) * time.Second
		}
	}
	if wait == 0 {
		base := float64(min) * classScale(class) * math.Pow(2, float64(attempt))
		wait = time.Duration(base * (0.8 + rand.Float64()*0.4))
	}
	if wait > max {
		wait = max
	}

	apiRetriesTotal.WithLabelValues(string(class)).Inc()
	apiRetryBackoffSeconds.WithLabelValues(string(class)).Observe(wait.Seconds())

	return wait
}

// newRetryableClient builds the retryablehttp client used for every exchange.
func newRetryableClient(httpClient *http.Client, cfg RetryConfig, logger zerolog.Logger) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = cfg.WaitMin
	rc.RetryWaitMax = cfg.WaitMax
	rc.CheckRetry = checkRetry
	rc.Backoff = backoff
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledLogger{logger}
	return rc
}

// leveledLogger adapts zerolog to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger zerolog.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.logger.Error().Fields(kv).Msg(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.logger.Warn().Fields(kv).Msg(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.logger.Debug().Fields(kv).Msg(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.logger.Trace().Fields(kv).Msg(msg) }
