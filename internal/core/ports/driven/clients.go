package driven

import (
	"context"

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// Remote collaborators of the harvester.
//
// Every operation returns an error satisfying domain.IsAbsent when the
// resource does not exist, is disabled upstream or needs privileges the token
// lacks. Any other error is a hard fault.

// RepositoryReader resolves canonical repository identity (newer generation).
type RepositoryReader interface {
	GetRepository(ctx context.Context, owner, name string) (*domain.Repository, error)
}

// IssueReader lists issues and their sub-resources (newer generation).
type IssueReader interface {
	// ListIssues returns every issue of the repository, open and closed.
	// Pull requests are excluded. Disabled issue trackers yield domain.ErrDisabled.
	ListIssues(ctx context.Context, repo domain.ProjectRef) ([]domain.Issue, error)
	ListIssueComments(ctx context.Context, repo domain.ProjectRef, number int) ([]domain.Comment, error)
	ListIssueEvents(ctx context.Context, repo domain.ProjectRef, number int) ([]domain.IssueEvent, error)
}

// PullRequestReader lists and fetches pull requests (newer generation).
type PullRequestReader interface {
	ListPullRequests(ctx context.Context, repo domain.ProjectRef) ([]domain.PullRequest, error)
	GetPullRequest(ctx context.Context, repo domain.ProjectRef, number int) (*domain.PullRequest, error)
}

// RepositoryService exposes repository information (older generation).
type RepositoryService interface {
	GetRepository(ctx context.Context, owner, name string) (*domain.Repository, error)
	ListCollaborators(ctx context.Context, repo domain.ProjectRef) ([]domain.User, error)
	ListContributors(ctx context.Context, repo domain.ProjectRef) ([]domain.User, error)
	ListWatchers(ctx context.Context, repo domain.ProjectRef) ([]domain.User, error)
	ListForks(ctx context.Context, repo domain.ProjectRef) ([]domain.Repository, error)
	ListUserRepositories(ctx context.Context, login string) ([]domain.Repository, error)
}

// IssueService fetches issue sub-resources (older generation).
type IssueService interface {
	ListIssueComments(ctx context.Context, repo domain.ProjectRef, number int) ([]domain.Comment, error)
	ListIssueEvents(ctx context.Context, repo domain.ProjectRef, number int) ([]domain.IssueEvent, error)
}

// PullRequestService fetches one pull request (older generation).
type PullRequestService interface {
	GetPullRequest(ctx context.Context, repo domain.ProjectRef, number int) (*domain.PullRequest, error)
}

// UserService exposes user profiles and relations (older generation).
type UserService interface {
	GetUser(ctx context.Context, login string) (*domain.User, error)
	ListFollowers(ctx context.Context, login string) ([]domain.User, error)
	ListFollowing(ctx context.Context, login string) ([]domain.User, error)
	ListWatchedRepositories(ctx context.Context, login string) ([]domain.Repository, error)
}

// GistService lists gists (older generation).
type GistService interface {
	ListUserGists(ctx context.Context, login string) ([]domain.Gist, error)
}

// OrganizationService exposes public organization data (older generation).
// Team and ownership endpoints need administrative rights and are not part of it.
type OrganizationService interface {
	GetOrganization(ctx context.Context, login string) (*domain.Organization, error)
	ListPublicMembers(ctx context.Context, login string) ([]domain.User, error)
	ListPublicRepositories(ctx context.Context, login string) ([]domain.Repository, error)
}
