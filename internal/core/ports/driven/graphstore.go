package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// GraphStore persists harvested entities as typed vertices and edges.
//
// Every Save is an idempotent upsert keyed by the entity's logical identity;
// saving the same entity from the other API generation records that
// generation's properties alongside, never over, the first.
type GraphStore interface {
	SaveRepository(ctx context.Context, repo domain.Repository) error
	SaveRepositoryCollaborators(ctx context.Context, project domain.ProjectRef, users []domain.User) error
	SaveRepositoryContributors(ctx context.Context, project domain.ProjectRef, users []domain.User) error
	SaveRepositoryWatchers(ctx context.Context, project domain.ProjectRef, users []domain.User) error
	SaveRepositoryForks(ctx context.Context, project domain.ProjectRef, forks []domain.Repository) error

	SaveRepositoryIssues(ctx context.Context, project domain.ProjectRef, issues []domain.Issue) error
	// SaveIssueComments records the comments of one issue and stamps its comments mark.
	SaveIssueComments(ctx context.Context, project domain.ProjectRef, number int, comments []domain.Comment) error
	// SaveIssueEvents records the events of one issue and stamps its events mark.
	SaveIssueEvents(ctx context.Context, project domain.ProjectRef, number int, events []domain.IssueEvent) error

	SaveRepositoryPullRequests(ctx context.Context, project domain.ProjectRef, prs []domain.PullRequest) error
	// SavePullRequest records one pull request. A full save also stamps its discussion mark.
	SavePullRequest(ctx context.Context, project domain.ProjectRef, pr domain.PullRequest, full bool) error

	// SaveUser records a profile. A full save also stamps the user's full-update mark.
	SaveUser(ctx context.Context, user domain.User, full bool) error
	SaveUserFollowers(ctx context.Context, login string, followers []domain.User) error
	SaveUserFollowing(ctx context.Context, login string, following []domain.User) error
	SaveUserWatchedRepositories(ctx context.Context, login string, repos []domain.Repository) error
	SaveUserRepositories(ctx context.Context, login string, repos []domain.Repository) error
	SaveUserGists(ctx context.Context, login string, gists []domain.Gist) error

	SaveOrganization(ctx context.Context, org domain.Organization) error
	SaveOrganizationPublicMembers(ctx context.Context, org string, users []domain.User) error
	SaveOrganizationPublicRepositories(ctx context.Context, org string, repos []domain.Repository) error

	FreshnessReader

	// Close flushes and releases the store. Further calls fail with domain.ErrStoreClosed.
	Close() error
}

// FreshnessReader returns the last-recorded update times the staleness policy
// consults. Resources with no record are absent from the maps.
type FreshnessReader interface {
	IssueCommentsUpdatedAt(ctx context.Context, project domain.ProjectRef) (map[int]time.Time, error)
	IssueEventsUpdatedAt(ctx context.Context, project domain.ProjectRef) (map[int]time.Time, error)
	PullRequestDiscussionsUpdatedAt(ctx context.Context, project domain.ProjectRef) (map[int]time.Time, error)
	// ProjectUsersLastFullUpdate returns every user known for the project; users
	// never fully harvested map to the zero time.
	ProjectUsersLastFullUpdate(ctx context.Context, project domain.ProjectRef) (map[string]time.Time, error)
}

// GraphReader is the read side of the graph used for inspection.
type GraphReader interface {
	FreshnessReader
	// CountVertices returns the number of stored vertices per kind.
	CountVertices(ctx context.Context) (map[domain.VertexType]int, error)
}
