package intercept

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ghminer/internal/throttle"
)

// recordingAdmitter logs admissions and optionally fails them.
type recordingAdmitter struct {
	mu       sync.Mutex
	channels []string
	err      error
}

func (a *recordingAdmitter) Admit(_ context.Context, channel string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.channels = append(a.channels, channel)
	return a.err
}

func (a *recordingAdmitter) calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.channels...)
}

// issueService is an arbitrary service shape used to check transparency.
type issueService interface {
	Titles(ctx context.Context, repo string) ([]string, error)
	Close(ctx context.Context, repo string, number int) error
}

type fakeIssues struct {
	titles   []string
	err      error
	closeErr error
	closed   []int
}

func (f *fakeIssues) Titles(_ context.Context, _ string) ([]string, error) {
	return f.titles, f.err
}

func (f *fakeIssues) Close(_ context.Context, _ string, number int) error {
	f.closed = append(f.closed, number)
	return f.closeErr
}

// throttledIssues decorates issueService with Invoke.
type throttledIssues struct {
	next    issueService
	gate    Admitter
	channel string
}

func (t *throttledIssues) Titles(ctx context.Context, repo string) ([]string, error) {
	return Invoke(ctx, t.gate, t.channel, func(ctx context.Context) ([]string, error) {
		return t.next.Titles(ctx, repo)
	})
}

func (t *throttledIssues) Close(ctx context.Context, repo string, number int) error {
	return Invoke0(ctx, t.gate, t.channel, func(ctx context.Context) error {
		return t.next.Close(ctx, repo, number)
	})
}

func TestInvoke_Transparent(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	tests := []struct {
		name string
		svc  *fakeIssues
	}{
		{"result", &fakeIssues{titles: []string{"a", "b"}}},
		{"nil result", &fakeIssues{}},
		{"fault", &fakeIssues{err: boom, closeErr: boom}},
		{"partial result with fault", &fakeIssues{titles: []string{"a"}, err: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := &recordingAdmitter{}
			var wrapped issueService = &throttledIssues{next: tt.svc, gate: gate, channel: "v2"}

			wantTitles, wantErr := tt.svc.Titles(ctx, "octo/repo")
			gotTitles, gotErr := wrapped.Titles(ctx, "octo/repo")

			assert.Equal(t, wantTitles, gotTitles)
			assert.Equal(t, wantErr, gotErr)

			wantCloseErr := tt.svc.Close(ctx, "octo/repo", 7)
			gotCloseErr := wrapped.Close(ctx, "octo/repo", 7)

			assert.Equal(t, wantCloseErr, gotCloseErr)
			assert.Equal(t, []int{7, 7}, tt.svc.closed)
			assert.Equal(t, []string{"v2", "v2"}, gate.calls())
		})
	}
}

func TestInvoke_AdmitFailureSkipsCall(t *testing.T) {
	gate := &recordingAdmitter{err: context.Canceled}
	called := false

	got, err := Invoke(context.Background(), gate, "v3", func(context.Context) (int, error) {
		called = true
		return 42, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, got)
	assert.False(t, called)
}

func TestInvoke_NilAdmitter(t *testing.T) {
	got, err := Invoke(context.Background(), nil, "v3", func(context.Context) (string, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestInvoke_UnconfiguredChannelDelegatesImmediately(t *testing.T) {
	th := throttle.New()
	start := time.Now()

	for i := 0; i < 50; i++ {
		_, err := Invoke(context.Background(), th, "unknown", func(context.Context) (int, error) {
			return i, nil
		})
		require.NoError(t, err)
	}

	assert.Less(t, time.Since(start), time.Second)
}

func TestTransport_AdmitsEveryRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "hello "+r.URL.Path)
	}))
	defer srv.Close()

	gate := &recordingAdmitter{}
	client := NewClient(srv.Client(), gate, "v3")

	for _, path := range []string{"/a", "/b", "/missing"} {
		resp, err := client.Get(srv.URL + path)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		direct, err := srv.Client().Get(srv.URL + path)
		require.NoError(t, err)
		directBody, _ := io.ReadAll(direct.Body)
		direct.Body.Close()

		assert.Equal(t, direct.StatusCode, resp.StatusCode)
		assert.Equal(t, string(directBody), string(body))
	}

	assert.Equal(t, []string{"v3", "v3", "v3"}, gate.calls())
}

func TestTransport_AdmitFailureNeverReachesServer(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
	}))
	defer srv.Close()

	client := NewClient(nil, &recordingAdmitter{err: context.DeadlineExceeded}, "v2")

	_, err := client.Get(srv.URL)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, hits)
}

func TestTransport_PacesWithThrottle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	th := throttle.New()
	th.Configure("v2", 2, 60*time.Millisecond)
	client := NewClient(srv.Client(), th, "v2")

	start := time.Now()
	for i := 0; i < 4; i++ {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	stats, ok := th.Channel("v2")
	require.True(t, ok)
	assert.Equal(t, int64(4), stats.Admitted)
}

func TestNewClient_KeepsBaseSettings(t *testing.T) {
	base := &http.Client{Timeout: 3 * time.Second}

	c := NewClient(base, nil, "v3")

	assert.Equal(t, 3*time.Second, c.Timeout)
	tr, ok := c.Transport.(*Transport)
	require.True(t, ok)
	assert.Equal(t, "v3", tr.Channel)
	assert.Nil(t, base.Transport, "base client is not modified")
}
