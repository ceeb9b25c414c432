package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

func TestExtractProject(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		want   domain.ProjectRef
		wantOK bool
	}{
		{"valid", "ghminer://projects/octo/repo/freshness", domain.ProjectRef{Owner: "octo", Name: "repo"}, true},
		{"invalid prefix", "file://projects/octo/repo/freshness", domain.ProjectRef{}, false},
		{"missing suffix", "ghminer://projects/octo/repo", domain.ProjectRef{}, false},
		{"missing name", "ghminer://projects/octo/freshness", domain.ProjectRef{}, false},
		{"empty", "", domain.ProjectRef{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractProject(tt.uri)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_handleKindsResource(t *testing.T) {
	server := newTestServer(t, &mockInspector{})

	result, err := server.handleKindsResource(context.Background(), readRequest("ghminer://kinds"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	var kinds []string
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &kinds))
	assert.Len(t, kinds, len(domain.AllVertexTypes()))
	assert.Contains(t, kinds, "PULLREQUESTREVIEWCOMMENT")
}

func TestServer_handleFreshnessResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns project freshness", func(t *testing.T) {
		inspector := &mockInspector{freshness: &domain.ProjectFreshness{
			IssueEvents: domain.Freshness{Total: 3},
		}}
		server := newTestServer(t, inspector)
		uri := "ghminer://projects/octo/repo/freshness"

		result, err := server.handleFreshnessResource(ctx, readRequest(uri))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, uri, result.Contents[0].URI)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, `"issue_events"`)
		assert.NotContains(t, result.Contents[0].Text, "Project")
	})

	t.Run("unknown URI", func(t *testing.T) {
		server := newTestServer(t, &mockInspector{})

		_, err := server.handleFreshnessResource(ctx, readRequest("ghminer://projects/octo"))
		assert.Error(t, err)
	})
}
