package github

import (
	"context"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// GetRepository fetches a single repository. The returned owner and name are
// the canonical ones, which differ from the request after a rename or transfer.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*domain.Repository, error) {
	repo, err := call(ctx, c, "get repo", func() (*gh.Repository, *gh.Response, error) {
		return c.gh.Repositories.Get(ctx, owner, name)
	})
	if err != nil {
		return nil, err
	}
	r := repositoryFromGitHub(repo)
	return &r, nil
}

func repositoryFromGitHub(repo *gh.Repository) domain.Repository {
	return domain.Repository{
		ID:          repo.GetID(),
		Owner:       repo.GetOwner().GetLogin(),
		Name:        repo.GetName(),
		Description: repo.GetDescription(),
		Fork:        repo.GetFork(),
		HasIssues:   repo.GetHasIssues(),
		CreatedAt:   repo.GetCreatedAt().Time,
		PushedAt:    repo.GetPushedAt().Time,
		Source:      domain.SourceV3,
		Properties: map[string]any{
			"html_url":          repo.GetHTMLURL(),
			"language":          repo.GetLanguage(),
			"default_branch":    repo.GetDefaultBranch(),
			"stargazers_count":  repo.GetStargazersCount(),
			"forks_count":       repo.GetForksCount(),
			"open_issues_count": repo.GetOpenIssuesCount(),
			"archived":          repo.GetArchived(),
			"has_wiki":          repo.GetHasWiki(),
		},
	}
}
