// Package throttle implements named call-admission gates.
//
// Each channel enforces a sliding window: at most MaxCalls admissions inside
// any Interval-long span. A channel that is unconfigured, or configured with a
// non-positive budget, admits immediately.
package throttle

import (
	"context"
	"sync"
	"time"
)

// ChannelStats is a snapshot of one channel.
type ChannelStats struct {
	ID       string
	MaxCalls int
	Interval time.Duration
	Admitted int64
	Waited   time.Duration
}

// Option configures a Throttle.
type Option func(*Throttle)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Throttle) { t.now = now }
}

// WithSleeper overrides how a caller is suspended while waiting for quota.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(t *Throttle) { t.sleep = sleep }
}

// Throttle is a registry of named admission channels.
// It is safe for concurrent use.
type Throttle struct {
	mu       sync.RWMutex
	channels map[string]*channel
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// channel holds the admission log of one budget.
type channel struct {
	mu       sync.Mutex
	maxCalls int
	interval time.Duration
	stamps   []time.Time // admission times inside the window, oldest first
	admitted int64
	waited   time.Duration
}

// New creates a Throttle with no configured channels.
func New(opts ...Option) *Throttle {
	t := &Throttle{
		channels: make(map[string]*channel),
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Configure sets or replaces the budget of a channel.
// maxCalls <= 0 or interval <= 0 disables throttling for the channel.
func (t *Throttle) Configure(id string, maxCalls int, interval time.Duration) {
	t.mu.Lock()
	ch, ok := t.channels[id]
	if !ok {
		ch = &channel{}
		t.channels[id] = ch
	}
	t.mu.Unlock()

	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.maxCalls = maxCalls
	ch.interval = interval
	if !ch.enabled() {
		ch.stamps = nil
	}
}

// Admit blocks until a call may proceed on the channel, then records it.
// The only error is ctx.Err() when the context ends while waiting.
func (t *Throttle) Admit(ctx context.Context, id string) error {
	t.mu.RLock()
	ch, ok := t.channels[id]
	t.mu.RUnlock()

	if !ok {
		return nil
	}

	for {
		wait, admitted := ch.tryAdmit(t.now())
		if admitted {
			return nil
		}
		if err := t.sleep(ctx, wait); err != nil {
			return err
		}
		ch.mu.Lock()
		ch.waited += wait
		ch.mu.Unlock()
	}
}

// Channel returns a snapshot of a channel.
func (t *Throttle) Channel(id string) (ChannelStats, bool) {
	t.mu.RLock()
	ch, ok := t.channels[id]
	t.mu.RUnlock()
	if !ok {
		return ChannelStats{}, false
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ChannelStats{
		ID:       id,
		MaxCalls: ch.maxCalls,
		Interval: ch.interval,
		Admitted: ch.admitted,
		Waited:   ch.waited,
	}, true
}

func (c *channel) enabled() bool {
	return c.maxCalls > 0 && c.interval > 0
}

// tryAdmit records an admission at now if the window has room. Otherwise it
// returns how long until the oldest admission leaves the window.
func (c *channel) tryAdmit(now time.Time) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled() {
		c.admitted++
		return 0, true
	}

	// An admission at s is inside the window while now-s < interval.
	cutoff := now.Add(-c.interval)
	keep := 0
	for keep < len(c.stamps) && !c.stamps[keep].After(cutoff) {
		keep++
	}
	c.stamps = c.stamps[keep:]

	if len(c.stamps) < c.maxCalls {
		c.stamps = append(c.stamps, now)
		c.admitted++
		return 0, true
	}

	wait := c.stamps[0].Add(c.interval).Sub(now)
	if wait <= 0 {
		// Never hand back a zero wait.
		wait = time.Nanosecond
	}
	return wait, false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
