package legacy

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ghminer/internal/connectors/github"
	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// Client reads the older API generation as raw documents.
type Client struct {
	api *github.Client
}

// New creates a client over a GitHub API client. The API client's transport
// decides the throttle channel; it should be distinct from the newer
// generation's.
func New(api *github.Client) *Client {
	return &Client{api: api}
}

func (c *Client) get(ctx context.Context, p string) (document, error) {
	doc, err := c.api.GetDocument(ctx, p)
	if err != nil {
		return nil, err
	}
	return document(doc), nil
}

func (c *Client) list(ctx context.Context, p string) ([]document, error) {
	docs, err := c.api.ListDocuments(ctx, p)
	if err != nil {
		return nil, err
	}
	out := make([]document, len(docs))
	for i, d := range docs {
		out[i] = document(d)
	}
	return out, nil
}

func (c *Client) listUsers(ctx context.Context, p string) ([]domain.User, error) {
	docs, err := c.list(ctx, p)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, userFromDocument(d))
	}
	return users, nil
}

func (c *Client) listRepositories(ctx context.Context, p string) ([]domain.Repository, error) {
	docs, err := c.list(ctx, p)
	if err != nil {
		return nil, err
	}
	repos := make([]domain.Repository, 0, len(docs))
	for _, d := range docs {
		repos = append(repos, repositoryFromDocument(d))
	}
	return repos, nil
}

// GetRepository returns repository information.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*domain.Repository, error) {
	doc, err := c.get(ctx, path("repos", owner, name))
	if err != nil {
		return nil, err
	}
	repo := repositoryFromDocument(doc)
	return &repo, nil
}

// ListCollaborators returns the collaborators of a repository. Listing them
// needs push access, which surfaces as domain.ErrForbidden.
func (c *Client) ListCollaborators(ctx context.Context, repo domain.ProjectRef) ([]domain.User, error) {
	return c.listUsers(ctx, path("repos", repo.Owner, repo.Name, "collaborators"))
}

// ListContributors returns the contributors of a repository.
func (c *Client) ListContributors(ctx context.Context, repo domain.ProjectRef) ([]domain.User, error) {
	return c.listUsers(ctx, path("repos", repo.Owner, repo.Name, "contributors"))
}

// ListWatchers returns the users watching (starring) a repository.
func (c *Client) ListWatchers(ctx context.Context, repo domain.ProjectRef) ([]domain.User, error) {
	return c.listUsers(ctx, path("repos", repo.Owner, repo.Name, "stargazers"))
}

// ListForks returns the forks of a repository.
func (c *Client) ListForks(ctx context.Context, repo domain.ProjectRef) ([]domain.Repository, error) {
	return c.listRepositories(ctx, path("repos", repo.Owner, repo.Name, "forks"))
}

// ListUserRepositories returns the public repositories owned by a user.
func (c *Client) ListUserRepositories(ctx context.Context, login string) ([]domain.Repository, error) {
	return c.listRepositories(ctx, path("users", login, "repos"))
}

// ListIssueComments returns the comments of one issue.
func (c *Client) ListIssueComments(ctx context.Context, repo domain.ProjectRef, number int) ([]domain.Comment, error) {
	docs, err := c.list(ctx, path("repos", repo.Owner, repo.Name, "issues", number, "comments"))
	if err != nil {
		return nil, err
	}
	comments := make([]domain.Comment, 0, len(docs))
	for _, d := range docs {
		comments = append(comments, commentFromDocument(d))
	}
	return comments, nil
}

// ListIssueEvents returns the events of one issue.
func (c *Client) ListIssueEvents(ctx context.Context, repo domain.ProjectRef, number int) ([]domain.IssueEvent, error) {
	docs, err := c.list(ctx, path("repos", repo.Owner, repo.Name, "issues", number, "events"))
	if err != nil {
		return nil, err
	}
	events := make([]domain.IssueEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, domain.IssueEvent{
			ID:         d.integer("id"),
			Event:      d.str("event"),
			Actor:      d.login("actor"),
			CommitID:   d.str("commit_id"),
			CreatedAt:  d.timestamp("created_at"),
			Source:     domain.SourceV2,
			Properties: d,
		})
	}
	return events, nil
}

// GetPullRequest returns one pull request with its discussion.
func (c *Client) GetPullRequest(ctx context.Context, repo domain.ProjectRef, number int) (*domain.PullRequest, error) {
	doc, err := c.get(ctx, path("repos", repo.Owner, repo.Name, "pulls", number))
	if err != nil {
		return nil, err
	}
	pr := pullRequestFromDocument(doc)

	discussion, err := c.ListIssueComments(ctx, repo, number)
	if err != nil && !domain.IsAbsent(err) {
		return nil, fmt.Errorf("pull request discussion: %w", err)
	}
	pr.Discussion = discussion
	return &pr, nil
}

// GetUser returns a user profile.
func (c *Client) GetUser(ctx context.Context, login string) (*domain.User, error) {
	doc, err := c.get(ctx, path("users", login))
	if err != nil {
		return nil, err
	}
	user := userFromDocument(doc)
	return &user, nil
}

// ListFollowers returns the followers of a user.
func (c *Client) ListFollowers(ctx context.Context, login string) ([]domain.User, error) {
	return c.listUsers(ctx, path("users", login, "followers"))
}

// ListFollowing returns the accounts a user follows.
func (c *Client) ListFollowing(ctx context.Context, login string) ([]domain.User, error) {
	return c.listUsers(ctx, path("users", login, "following"))
}

// ListWatchedRepositories returns the repositories a user watches (stars).
func (c *Client) ListWatchedRepositories(ctx context.Context, login string) ([]domain.Repository, error) {
	return c.listRepositories(ctx, path("users", login, "starred"))
}

// ListUserGists returns the public gists of a user with their files.
func (c *Client) ListUserGists(ctx context.Context, login string) ([]domain.Gist, error) {
	docs, err := c.list(ctx, path("users", login, "gists"))
	if err != nil {
		return nil, err
	}
	gists := make([]domain.Gist, 0, len(docs))
	for _, d := range docs {
		gists = append(gists, gistFromDocument(d))
	}
	return gists, nil
}

// GetOrganization returns organization information.
func (c *Client) GetOrganization(ctx context.Context, login string) (*domain.Organization, error) {
	doc, err := c.get(ctx, path("orgs", login))
	if err != nil {
		return nil, err
	}
	return &domain.Organization{
		Login:       doc.str("login"),
		Name:        doc.str("name"),
		Description: doc.str("description"),
		CreatedAt:   doc.timestamp("created_at"),
		Source:      domain.SourceV2,
		Properties:  doc,
	}, nil
}

// ListPublicMembers returns the public members of an organization.
func (c *Client) ListPublicMembers(ctx context.Context, login string) ([]domain.User, error) {
	return c.listUsers(ctx, path("orgs", login, "public_members"))
}

// ListPublicRepositories returns the public repositories of an organization.
func (c *Client) ListPublicRepositories(ctx context.Context, login string) ([]domain.Repository, error) {
	return c.listRepositories(ctx, path("orgs", login, "repos")+"?type=public&per_page=100")
}
