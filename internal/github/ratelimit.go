package github

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/memohq/memomirror/internal/log"
)

// rateLimitLowWatermark is the threshold below which rate limit
// warnings are logged.
const rateLimitLowWatermark = 100

// rateLimitState tracks rate limit state for one client's requests.
type rateLimitState struct {
	mu        sync.RWMutex
	limited   bool
	resetAt   time.Time
	remaining int
	limit     int
}

// isLimited returns true if we are currently rate limited.
func (s *rateLimitState) isLimited() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.limited {
		return false
	}
	return time.Now().Before(s.resetAt)
}

// setLimited marks the client rate limited until resetAt.
func (s *rateLimitState) setLimited(resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limited = true
	s.resetAt = resetAt
}

// update refreshes state from response headers.
func (s *rateLimitState) update(remaining, limit int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = remaining
	s.limit = limit
	s.resetAt = resetAt
	if remaining == 0 {
		s.limited = true
	}
}

// rateLimitTransport wraps an http.RoundTripper to short-circuit
// requests while the client is known to be rate limited.
type rateLimitTransport struct {
	base  http.RoundTripper
	state *rateLimitState
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.state.isLimited() {
		return nil, ErrRateLimited
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	remaining, limit, resetAt := parseRateLimitHeaders(resp)
	if remaining >= 0 && limit > 0 {
		t.state.update(remaining, limit, resetAt)
	}

	if remaining <= rateLimitLowWatermark && remaining > 0 {
		log.Debug("rate limit low", "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		if resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.StatusCode == http.StatusTooManyRequests {
			t.state.setLimited(resetAt)
			_ = resp.Body.Close()
			return nil, ErrRateLimited
		}
	}

	return resp, err
}

// parseRateLimitHeaders extracts rate limit info from response headers.
func parseRateLimitHeaders(resp *http.Response) (remaining, limit int, resetAt time.Time) {
	remaining = -1
	limit = -1

	if remainingStr := resp.Header.Get("X-RateLimit-Remaining"); remainingStr != "" {
		if rem, err := strconv.Atoi(remainingStr); err == nil {
			remaining = rem
		}
	}

	if limitStr := resp.Header.Get("X-RateLimit-Limit"); limitStr != "" {
		if lim, err := strconv.Atoi(limitStr); err == nil {
			limit = lim
		}
	}

	if resetStr := resp.Header.Get("X-RateLimit-Reset"); resetStr != "" {
		if resetTime, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
			resetAt = time.Unix(resetTime, 0)
		}
	}

	return remaining, limit, resetAt
}
