// Package ratelimit tracks the request budget an API reports in its response
// headers and gates outgoing requests before the budget runs out. State is
// kept in Redis so every process sharing the same credentials sees it.
package ratelimit

import (
	"time"
)

// Thresholds on the remaining request budget.
const (
	// ThresholdCritical blocks requests below this many remaining.
	ThresholdCritical = 5

	// ThresholdWarning throttles requests below this many remaining.
	ThresholdWarning = 20

	// ThresholdHealthy marks the state healthy at or above this many remaining.
	ThresholdHealthy = 50
)

// DefaultWindow is assumed when the server reports a budget without a reset hint.
const DefaultWindow = 60 * time.Second

// State is the last budget reported by the API.
type State struct {
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	LastUpdate time.Time `json:"last_update"`
	IsHealthy  bool      `json:"is_healthy"`
}

// IsStale reports whether the state is older than maxAge.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock reports whether requests must be refused until reset.
// A state whose reset time has passed never blocks.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining < ThresholdCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling reports whether requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < ThresholdWarning && s.TimeUntilReset() > 0 && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the time left in the current window, or 0.
func (s *State) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// UpdateHealth recomputes IsHealthy from Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= ThresholdHealthy
}
