package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

func newTestServer(t *testing.T, inspector *mockInspector) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Inspector: inspector})
	require.NoError(t, err)
	return server
}

func TestServer_handleVertexCounts(t *testing.T) {
	ctx := context.Background()
	inspector := &mockInspector{counts: map[domain.VertexType]int{
		domain.VertexUser:  12,
		domain.VertexIssue: 30,
	}}
	server := newTestServer(t, inspector)

	t.Run("every kind, largest first", func(t *testing.T) {
		_, output, err := server.handleVertexCounts(ctx, nil, CountsInput{})

		require.NoError(t, err)
		assert.Len(t, output.Counts, len(domain.AllVertexTypes()))
		assert.Equal(t, KindCount{Kind: "ISSUE", Count: 30}, output.Counts[0])
		assert.Equal(t, KindCount{Kind: "USER", Count: 12}, output.Counts[1])
		assert.Equal(t, 42, output.Total)
	})

	t.Run("selected kinds", func(t *testing.T) {
		_, output, err := server.handleVertexCounts(ctx, nil, CountsInput{Kinds: []string{"USER", "GIST"}})

		require.NoError(t, err)
		assert.Equal(t, []KindCount{{Kind: "USER", Count: 12}, {Kind: "GIST", Count: 0}}, output.Counts)
		assert.Equal(t, 12, output.Total)
	})

	t.Run("repeated kinds counted once", func(t *testing.T) {
		_, output, err := server.handleVertexCounts(ctx, nil, CountsInput{Kinds: []string{"USER", "USER", "ISSUE"}})

		require.NoError(t, err)
		assert.Equal(t, []KindCount{{Kind: "ISSUE", Count: 30}, {Kind: "USER", Count: 12}}, output.Counts)
		assert.Equal(t, 42, output.Total)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, _, err := server.handleVertexCounts(ctx, nil, CountsInput{Kinds: []string{"COMMITTER"}})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleProjectFreshness(t *testing.T) {
	ctx := context.Background()

	t.Run("returns freshness", func(t *testing.T) {
		inspector := &mockInspector{freshness: &domain.ProjectFreshness{
			IssueComments: domain.Freshness{Total: 4, Stale: 1},
			Users:         domain.Freshness{Total: 2, Stale: 2},
		}}
		server := newTestServer(t, inspector)

		_, output, err := server.handleProjectFreshness(ctx, nil, FreshnessInput{Project: "octo/repo"})

		require.NoError(t, err)
		assert.Equal(t, "octo/repo", output.Project)
		assert.Equal(t, domain.Freshness{Total: 4, Stale: 1}, output.IssueComments)
		assert.Equal(t, domain.Freshness{Total: 2, Stale: 2}, output.Users)
		assert.Equal(t, []domain.ProjectRef{{Owner: "octo", Name: "repo"}}, inspector.asked)
	})

	t.Run("malformed project", func(t *testing.T) {
		server := newTestServer(t, &mockInspector{})

		_, _, err := server.handleProjectFreshness(ctx, nil, FreshnessInput{Project: "octo"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("inspector failure", func(t *testing.T) {
		server := newTestServer(t, &mockInspector{err: errors.New("store closed")})

		_, _, err := server.handleProjectFreshness(ctx, nil, FreshnessInput{Project: "octo/repo"})
		assert.ErrorContains(t, err, "store closed")
	})
}
