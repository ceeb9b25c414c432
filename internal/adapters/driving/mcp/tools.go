package mcp

import (
	"context"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// CountsInput is the input schema for the vertex_counts tool.
type CountsInput struct {
	Kinds []string `json:"kinds,omitempty" jsonschema:"vertex kinds to report, all kinds when empty"`
}

// CountsOutput is the output schema for the vertex_counts tool.
type CountsOutput struct {
	Counts []KindCount `json:"counts"`
	Total  int         `json:"total"`
}

// KindCount is the number of stored vertices of one kind.
type KindCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// FreshnessInput is the input schema for the project_freshness tool.
type FreshnessInput struct {
	Project string `json:"project" jsonschema:"the project as owner/name"`
}

// FreshnessOutput is the output schema for the project_freshness tool.
type FreshnessOutput struct {
	Project                string           `json:"project"`
	IssueComments          domain.Freshness `json:"issue_comments"`
	IssueEvents            domain.Freshness `json:"issue_events"`
	PullRequestDiscussions domain.Freshness `json:"pull_request_discussions"`
	Users                  domain.Freshness `json:"users"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "vertex_counts",
		Description: "Count the stored graph vertices per kind",
	}, s.handleVertexCounts)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "project_freshness",
		Description: "Report how many recorded issues, pull requests and users of a project are due for a refresh",
	}, s.handleProjectFreshness)
}

// handleVertexCounts handles the vertex_counts tool invocation.
func (s *Server) handleVertexCounts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CountsInput,
) (*mcp.CallToolResult, CountsOutput, error) {
	kinds := domain.AllVertexTypes()
	if len(input.Kinds) > 0 {
		kinds = kinds[:0]
		seen := make(map[domain.VertexType]bool, len(input.Kinds))
		for _, k := range input.Kinds {
			kind := domain.VertexType(k)
			if !kind.IsValid() {
				return nil, CountsOutput{}, fmt.Errorf("%w: unknown vertex kind %q", domain.ErrInvalidInput, k)
			}
			if seen[kind] {
				continue
			}
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}

	counts, err := s.ports.Inspector.VertexCounts(ctx)
	if err != nil {
		return nil, CountsOutput{}, err
	}

	output := CountsOutput{Counts: make([]KindCount, 0, len(kinds))}
	for _, kind := range kinds {
		output.Counts = append(output.Counts, KindCount{Kind: kind.String(), Count: counts[kind]})
		output.Total += counts[kind]
	}
	sort.SliceStable(output.Counts, func(i, j int) bool {
		return output.Counts[i].Count > output.Counts[j].Count
	})
	return nil, output, nil
}

// handleProjectFreshness handles the project_freshness tool invocation.
func (s *Server) handleProjectFreshness(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FreshnessInput,
) (*mcp.CallToolResult, FreshnessOutput, error) {
	project, err := domain.ParseProjectRef(input.Project)
	if err != nil {
		return nil, FreshnessOutput{}, err
	}
	f, err := s.ports.Inspector.ProjectFreshness(ctx, project)
	if err != nil {
		return nil, FreshnessOutput{}, err
	}
	return nil, FreshnessOutput{
		Project:                project.String(),
		IssueComments:          f.IssueComments,
		IssueEvents:            f.IssueEvents,
		PullRequestDiscussions: f.PullRequestDiscussions,
		Users:                  f.Users,
	}, nil
}
