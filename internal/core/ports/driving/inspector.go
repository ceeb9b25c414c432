package driving

import (
	"context"

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// GraphInspector reports on the stored graph without fetching anything.
type GraphInspector interface {
	// VertexCounts returns the number of stored vertices per kind.
	VertexCounts(ctx context.Context) (map[domain.VertexType]int, error)
	// ProjectFreshness counts the recorded marks of a project and how many
	// are stale under the current refresh policy.
	ProjectFreshness(ctx context.Context, project domain.ProjectRef) (*domain.ProjectFreshness, error)
}
