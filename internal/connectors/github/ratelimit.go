package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ghminer/internal/logger"
)

const (
	// GitHubRateLimit is the authenticated rate limit (5000/hour).
	GitHubRateLimit = 5000

	// MinBuffer is the default number of remaining requests kept in reserve.
	MinBuffer = 100

	// HeaderRateLimit is the rate limit header.
	HeaderRateLimit = "X-RateLimit-Limit"

	// HeaderRateRemaining is the remaining requests header.
	HeaderRateRemaining = "X-RateLimit-Remaining"

	// HeaderRateReset is the reset timestamp header (Unix seconds).
	HeaderRateReset = "X-RateLimit-Reset"
)

// Quota is the last observed state of a token's API quota.
type Quota struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// RateLimiter guards the quota of one token. Both API generations spend the
// same quota, so every Client built from a token shares one RateLimiter.
//
// Two checks run before each request. An optional pacer spaces requests at a
// fixed rate, and once the quota drops below the reserve the limiter waits for
// the reset the server advertised.
type RateLimiter struct {
	mu      sync.Mutex
	quota   Quota
	reserve int
	pacer   *rate.Limiter
	now     func() time.Time
}

// NewRateLimiter creates a limiter. A proactiveRate of zero or less disables
// pacing; a negative minRemaining falls back to MinBuffer.
func NewRateLimiter(proactiveRate float64, minRemaining int) *RateLimiter {
	limit := rate.Inf
	if proactiveRate > 0 {
		limit = rate.Limit(proactiveRate)
	}
	if minRemaining < 0 {
		minRemaining = MinBuffer
	}
	return &RateLimiter{
		// Until the first response the full quota is assumed.
		quota:   Quota{Limit: GitHubRateLimit, Remaining: GitHubRateLimit},
		reserve: minRemaining,
		pacer:   rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

// Wait blocks until a request may be sent or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.pacer.Wait(ctx); err != nil {
		return err
	}

	d, q := r.untilReset()
	if d <= 0 {
		return nil
	}
	logger.Warn("Quota reserve reached (%d of %d left), waiting %s for reset",
		q.Remaining, q.Limit, d.Round(time.Second))

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// untilReset returns how long to hold off, zero when above the reserve.
func (r *RateLimiter) untilReset() (time.Duration, Quota) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.quota.Remaining >= r.reserve {
		return 0, r.quota
	}
	return r.quota.Reset.Sub(r.now()), r.quota
}

// UpdateFromResponse records the quota headers of a response. Absent or
// malformed headers leave the previous value in place.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}
	h := resp.Header

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := headerInt(h, HeaderRateRemaining); ok {
		r.quota.Remaining = int(v)
	}
	if v, ok := headerInt(h, HeaderRateLimit); ok {
		r.quota.Limit = int(v)
	}
	if v, ok := headerInt(h, HeaderRateReset); ok {
		r.quota.Reset = time.Unix(v, 0)
	}
}

func headerInt(h http.Header, key string) (int64, bool) {
	raw := h.Get(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	return v, err == nil
}

// Quota returns the last observed quota.
func (r *RateLimiter) Quota() Quota {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quota
}

// Remaining returns the current remaining requests.
func (r *RateLimiter) Remaining() int {
	return r.Quota().Remaining
}

// Limit returns the rate limit.
func (r *RateLimiter) Limit() int {
	return r.Quota().Limit
}

// ResetTime returns the rate limit reset time.
func (r *RateLimiter) ResetTime() time.Time {
	return r.Quota().Reset
}
