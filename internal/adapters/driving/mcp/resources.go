package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for graph resources.
	uriScheme = "ghminer://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "kinds",
		Name:        "kinds",
		Description: "The vertex kinds of the graph schema",
		MIMEType:    "application/json",
	}, s.handleKindsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "projects/{owner}/{name}/freshness",
		Name:        "project-freshness",
		Description: "Freshness of the recorded issues, pull requests and users of a project",
		MIMEType:    "application/json",
	}, s.handleFreshnessResource)
}

// handleKindsResource lists every vertex kind.
func (s *Server) handleKindsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(domain.AllVertexTypes(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling kinds: %w", err)
	}
	return jsonResult(req.Params.URI, data), nil
}

// handleFreshnessResource returns the freshness of one project.
func (s *Server) handleFreshnessResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	project, ok := extractProject(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	f, err := s.ports.Inspector.ProjectFreshness(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("reading freshness: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling freshness: %w", err)
	}
	return jsonResult(req.Params.URI, data), nil
}

func jsonResult(uri string, data []byte) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}
}

// extractProject extracts the project from a URI like
// ghminer://projects/{owner}/{name}/freshness.
func extractProject(uri string) (domain.ProjectRef, bool) {
	const prefix = uriScheme + "projects/"
	const suffix = "/freshness"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return domain.ProjectRef{}, false
	}
	ref, err := domain.ParseProjectRef(strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix))
	if err != nil {
		return domain.ProjectRef{}, false
	}
	return ref, true
}
