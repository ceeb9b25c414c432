package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/ghminer/internal/core/domain"
	"github.com/custodia-labs/ghminer/internal/core/ports/driven"
	"github.com/custodia-labs/ghminer/internal/core/ports/driving"
)

// Ensure InspectService implements the interface.
var _ driving.GraphInspector = (*InspectService)(nil)

// InspectService answers questions about the stored graph.
type InspectService struct {
	graph  driven.GraphReader
	policy StalenessPolicy
}

// NewInspectService creates an inspection service over graph.
func NewInspectService(graph driven.GraphReader, policy StalenessPolicy) *InspectService {
	return &InspectService{graph: graph, policy: policy}
}

// VertexCounts returns the number of stored vertices per kind.
func (s *InspectService) VertexCounts(ctx context.Context) (map[domain.VertexType]int, error) {
	return s.graph.CountVertices(ctx)
}

// ProjectFreshness counts the marks recorded for project. Project users never
// fully harvested count as stale.
func (s *InspectService) ProjectFreshness(ctx context.Context, project domain.ProjectRef) (*domain.ProjectFreshness, error) {
	out := &domain.ProjectFreshness{Project: project}

	comments, err := s.graph.IssueCommentsUpdatedAt(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("reading issue comment marks: %w", err)
	}
	out.IssueComments = countStale(comments, s.policy)

	events, err := s.graph.IssueEventsUpdatedAt(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("reading issue event marks: %w", err)
	}
	out.IssueEvents = countStale(events, s.policy)

	discussions, err := s.graph.PullRequestDiscussionsUpdatedAt(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("reading pull request marks: %w", err)
	}
	out.PullRequestDiscussions = countStale(discussions, s.policy)

	users, err := s.graph.ProjectUsersLastFullUpdate(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("reading project users: %w", err)
	}
	out.Users = countStale(users, s.policy)
	return out, nil
}

func countStale[K comparable](marks map[K]time.Time, policy StalenessPolicy) domain.Freshness {
	f := domain.Freshness{Total: len(marks)}
	for _, at := range marks {
		if policy.NeedsRefresh(at, true) {
			f.Stale++
		}
	}
	return f
}
