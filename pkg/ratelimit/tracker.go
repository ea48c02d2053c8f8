package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "api_rate_limit_remaining",
		Help: "Requests remaining in the current API rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "api_rate_limit_blocks_total",
		Help: "Total number of requests refused because the budget was critical",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "api_rate_limit_throttles_total",
		Help: "Total number of requests delayed because the budget was low",
	})
)

// Budget headers, checked in order.
var (
	remainingHeaders = []string{"X-Rate-Limit-Remaining", "X-RateLimit-Remaining"}
	resetHeaders     = []string{"Retry-After", "X-Rate-Limit-Reset", "X-RateLimit-Reset"}
)

// DefaultKey is the Redis hash holding the shared state.
const DefaultKey = "collection:rate_limit"

// Tracker reads and writes the shared budget and decides whether to send.
type Tracker struct {
	redis *redis.Client
	key   string

	// ThrottleDelay is how long a request waits in the warning band.
	ThrottleDelay time.Duration

	logger zerolog.Logger
}

// NewTracker creates a tracker storing state under DefaultKey.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:         redisClient,
		key:           DefaultKey,
		ThrottleDelay: time.Second,
		logger:        logger,
	}
}

// WithKey returns the tracker storing state under key instead.
func (t *Tracker) WithKey(key string) *Tracker {
	t.key = key
	return t
}

// GetState loads the shared state. An empty store yields a healthy default.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	fields, err := t.redis.HGetAll(ctx, t.key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load rate limit state: %w", err)
	}

	if len(fields) == 0 {
		t.logger.Debug().Msg("No rate limit state stored, assuming healthy")
		return &State{
			Remaining:  100,
			ResetAt:    time.Now().Add(DefaultWindow),
			LastUpdate: time.Now(),
			IsHealthy:  true,
		}, nil
	}

	remaining, err := strconv.Atoi(fields["remaining"])
	if err != nil {
		return nil, fmt.Errorf("parse stored remaining: %w", err)
	}
	resetUnix, err := strconv.ParseInt(fields["reset_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse stored reset_at: %w", err)
	}
	updatedUnix, err := strconv.ParseInt(fields["last_update"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse stored last_update: %w", err)
	}

	state := &State{
		Remaining:  remaining,
		ResetAt:    time.Unix(resetUnix, 0),
		LastUpdate: time.Unix(updatedUnix, 0),
	}
	state.UpdateHealth()

	return state, nil
}

// ParseHeaders extracts a State from response headers. ok is false when the
// response carries no budget information.
func ParseHeaders(headers http.Header) (state *State, ok bool, err error) {
	raw := firstHeader(headers, remainingHeaders)
	if raw == "" {
		return nil, false, nil
	}

	remaining, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false, fmt.Errorf("parse remaining header: %w", err)
	}

	window := DefaultWindow
	if rawReset := firstHeader(headers, resetHeaders); rawReset != "" {
		secs, err := strconv.Atoi(rawReset)
		if err != nil {
			return nil, false, fmt.Errorf("parse reset header: %w", err)
		}
		window = time.Duration(secs) * time.Second
	}

	now := time.Now()
	state = &State{
		Remaining:  remaining,
		ResetAt:    now.Add(window),
		LastUpdate: now,
	}
	state.UpdateHealth()

	return state, true, nil
}

// UpdateFromHeaders stores the budget reported by a response, if any.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	state, ok, err := ParseHeaders(headers)
	if err != nil || !ok {
		return err
	}

	if err := t.redis.HSet(ctx, t.key, map[string]any{
		"remaining":   state.Remaining,
		"reset_at":    state.ResetAt.Unix(),
		"last_update": state.LastUpdate.Unix(),
	}).Err(); err != nil {
		return fmt.Errorf("store rate limit state: %w", err)
	}

	rateLimitRemaining.Set(float64(state.Remaining))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().Int("remaining", state.Remaining).Time("reset_at", state.ResetAt).
			Msg("Rate limit critical - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().Int("remaining", state.Remaining).Time("reset_at", state.ResetAt).
			Msg("Rate limit low - requests will be throttled")
	default:
		t.logger.Debug().Int("remaining", state.Remaining).Bool("is_healthy", state.IsHealthy).
			Msg("Rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest returns false while the budget is critical. In the
// warning band it waits ThrottleDelay (or until ctx is done) and allows.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Rate limit critical - blocking request")
		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().Int("remaining", state.Remaining).Msg("Rate limit low - throttling request")
		rateLimitThrottlesTotal.Inc()

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(t.ThrottleDelay):
		}
	}

	return true, nil
}

func firstHeader(h http.Header, names []string) string {
	for _, name := range names {
		if v := h.Get(name); v != "" {
			return v
		}
	}
	return ""
}
