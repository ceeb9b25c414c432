package throttle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manual clock whose sleeper advances time instead of blocking.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

func newFakeThrottle() (*Throttle, *fakeClock) {
	clock := newFakeClock()
	return New(WithClock(clock.Now), WithSleeper(clock.Sleep)), clock
}

// maxInWindow returns the largest number of stamps inside any half-open window
// [s, s+interval) that starts at an admission.
func maxInWindow(stamps []time.Time, interval time.Duration) int {
	most := 0
	for i, start := range stamps {
		n := 0
		for _, s := range stamps[i:] {
			if s.Sub(start) < interval {
				n++
			}
		}
		if n > most {
			most = n
		}
	}
	return most
}

func TestThrottle_SlidingWindowNeverExceedsBudget(t *testing.T) {
	tests := []struct {
		name     string
		maxCalls int
		interval time.Duration
		calls    int
		gap      time.Duration
	}{
		{"burst of one", 1, time.Second, 10, 0},
		{"burst", 5, time.Second, 23, 0},
		{"spaced below rate", 3, time.Second, 12, 100 * time.Millisecond},
		{"spaced above rate", 3, time.Second, 12, 500 * time.Millisecond},
		{"hourly quota", 60, time.Hour, 200, 7 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th, clock := newFakeThrottle()
			th.Configure("v3", tt.maxCalls, tt.interval)

			var stamps []time.Time
			for i := 0; i < tt.calls; i++ {
				require.NoError(t, th.Admit(context.Background(), "v3"))
				stamps = append(stamps, clock.Now())
				clock.Advance(tt.gap)
			}

			assert.LessOrEqual(t, maxInWindow(stamps, tt.interval), tt.maxCalls)
			stats, ok := th.Channel("v3")
			require.True(t, ok)
			assert.Equal(t, int64(tt.calls), stats.Admitted)
		})
	}
}

func TestThrottle_WaitsUntilOldestLeavesWindow(t *testing.T) {
	th, clock := newFakeThrottle()
	th.Configure("v2", 2, time.Second)
	ctx := context.Background()

	require.NoError(t, th.Admit(ctx, "v2"))
	clock.Advance(300 * time.Millisecond)
	require.NoError(t, th.Admit(ctx, "v2"))
	assert.Empty(t, clock.slept)

	require.NoError(t, th.Admit(ctx, "v2"))

	require.Len(t, clock.slept, 1)
	assert.Equal(t, 700*time.Millisecond, clock.slept[0])

	stats, _ := th.Channel("v2")
	assert.Equal(t, 700*time.Millisecond, stats.Waited)
}

func TestThrottle_BoundaryIsExclusive(t *testing.T) {
	th, clock := newFakeThrottle()
	th.Configure("v2", 1, time.Second)
	ctx := context.Background()

	require.NoError(t, th.Admit(ctx, "v2"))
	clock.Advance(time.Second)
	require.NoError(t, th.Admit(ctx, "v2"))

	assert.Empty(t, clock.slept, "an admission exactly one interval old has left the window")
}

func TestThrottle_DisabledChannelsNeverBlock(t *testing.T) {
	tests := []struct {
		name     string
		maxCalls int
		interval time.Duration
	}{
		{"zero calls", 0, time.Second},
		{"negative calls", -5, time.Second},
		{"zero interval", 10, 0},
		{"negative interval", 10, -time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th, clock := newFakeThrottle()
			th.Configure("v3", tt.maxCalls, tt.interval)

			for i := 0; i < 1000; i++ {
				require.NoError(t, th.Admit(context.Background(), "v3"))
			}

			assert.Empty(t, clock.slept)
		})
	}
}

func TestThrottle_UnknownChannelAdmitsImmediately(t *testing.T) {
	th, clock := newFakeThrottle()

	for i := 0; i < 100; i++ {
		require.NoError(t, th.Admit(context.Background(), "never-configured"))
	}

	assert.Empty(t, clock.slept)
	_, ok := th.Channel("never-configured")
	assert.False(t, ok)
}

func TestThrottle_Reconfigure(t *testing.T) {
	th, clock := newFakeThrottle()
	ctx := context.Background()

	th.Configure("v2", 1, time.Minute)
	require.NoError(t, th.Admit(ctx, "v2"))

	th.Configure("v2", 0, 0)
	require.NoError(t, th.Admit(ctx, "v2"))
	assert.Empty(t, clock.slept)

	th.Configure("v2", 1, time.Minute)
	require.NoError(t, th.Admit(ctx, "v2"))
	assert.Empty(t, clock.slept, "disabling discards the old window")

	require.NoError(t, th.Admit(ctx, "v2"))
	assert.Equal(t, []time.Duration{time.Minute}, clock.slept)
}

func TestThrottle_ChannelsAreIndependent(t *testing.T) {
	th, clock := newFakeThrottle()
	th.Configure("v2", 1, time.Second)
	th.Configure("v3", 1, time.Second)
	ctx := context.Background()

	require.NoError(t, th.Admit(ctx, "v2"))
	require.NoError(t, th.Admit(ctx, "v3"))

	assert.Empty(t, clock.slept)
}

func TestThrottle_ContextCancelled(t *testing.T) {
	th := New()
	th.Configure("v3", 1, time.Hour)

	require.NoError(t, th.Admit(context.Background(), "v3"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := th.Admit(ctx, "v3")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestThrottle_ConcurrentAdmissions(t *testing.T) {
	th := New()
	th.Configure("v3", 3, 50*time.Millisecond)

	const callers = 9
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, th.Admit(context.Background(), "v3"))
		}()
	}
	wg.Wait()

	// Nine calls at three per window need at least two full windows.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)

	stats, ok := th.Channel("v3")
	require.True(t, ok)
	assert.Equal(t, int64(callers), stats.Admitted)
}

func TestThrottle_ConcurrentFakeClockRespectsBudget(t *testing.T) {
	th, clock := newFakeThrottle()
	th.Configure("v2", 4, time.Second)

	start := clock.Now()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				if !assert.NoError(t, th.Admit(context.Background(), "v2")) {
					return
				}
			}
		}()
	}
	wg.Wait()

	stats, _ := th.Channel("v2")
	assert.Equal(t, int64(40), stats.Admitted)
	// 40 calls at 4 per second cannot finish in under 9 seconds of fake time.
	assert.GreaterOrEqual(t, clock.Now().Sub(start), 9*time.Second)
}
