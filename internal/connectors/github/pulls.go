package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// ListPullRequests returns every pull request of a repository, open and closed.
// The list carries summary fields only; GetPullRequest fetches the detail.
func (c *Client) ListPullRequests(ctx context.Context, repo domain.ProjectRef) ([]domain.PullRequest, error) {
	opts := &gh.PullRequestListOptions{
		State:     "all",
		Sort:      "created",
		Direction: "asc",
	}
	prs, err := collect(ctx, c, "list pull requests", func(lo gh.ListOptions) ([]*gh.PullRequest, *gh.Response, error) {
		opts.ListOptions = lo
		return c.gh.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.PullRequest, 0, len(prs))
	for _, pr := range prs {
		out = append(out, pullRequestFromGitHub(pr))
	}
	return out, nil
}

// GetPullRequest fetches one pull request with its review comments and its
// discussion thread.
func (c *Client) GetPullRequest(ctx context.Context, repo domain.ProjectRef, number int) (*domain.PullRequest, error) {
	pr, err := call(ctx, c, fmt.Sprintf("get pull request #%d", number), func() (*gh.PullRequest, *gh.Response, error) {
		return c.gh.PullRequests.Get(ctx, repo.Owner, repo.Name, number)
	})
	if err != nil {
		return nil, err
	}
	out := pullRequestFromGitHub(pr)

	reviewOpts := &gh.PullRequestListCommentsOptions{}
	reviews, err := collect(ctx, c, fmt.Sprintf("list review comments #%d", number),
		func(lo gh.ListOptions) ([]*gh.PullRequestComment, *gh.Response, error) {
			reviewOpts.ListOptions = lo
			return c.gh.PullRequests.ListComments(ctx, repo.Owner, repo.Name, number, reviewOpts)
		})
	if err != nil {
		return nil, err
	}
	for _, rc := range reviews {
		out.ReviewComments = append(out.ReviewComments, domain.ReviewComment{
			ID:        rc.GetID(),
			Author:    rc.GetUser().GetLogin(),
			Body:      rc.GetBody(),
			Path:      rc.GetPath(),
			CommitID:  rc.GetCommitID(),
			CreatedAt: rc.GetCreatedAt().Time,
		})
	}

	discussion, err := c.issueComments(ctx, repo, number)
	if err != nil {
		return nil, err
	}
	for _, comment := range discussion {
		out.Discussion = append(out.Discussion, commentFromGitHub(comment))
	}

	return &out, nil
}

func pullRequestFromGitHub(pr *gh.PullRequest) domain.PullRequest {
	return domain.PullRequest{
		Number:       pr.GetNumber(),
		Title:        pr.GetTitle(),
		Body:         pr.GetBody(),
		State:        pr.GetState(),
		Author:       pr.GetUser().GetLogin(),
		Merged:       pr.GetMerged(),
		MergedBy:     pr.GetMergedBy().GetLogin(),
		Head:         markerFromGitHub(pr.GetHead()),
		Base:         markerFromGitHub(pr.GetBase()),
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		ChangedFiles: pr.GetChangedFiles(),
		CreatedAt:    pr.GetCreatedAt().Time,
		UpdatedAt:    pr.GetUpdatedAt().Time,
		ClosedAt:     pr.GetClosedAt().Time,
		MergedAt:     pr.GetMergedAt().Time,
		Source:       domain.SourceV3,
		Properties: map[string]any{
			"html_url":  pr.GetHTMLURL(),
			"draft":     pr.GetDraft(),
			"mergeable": pr.GetMergeable(),
			"commits":   pr.GetCommits(),
		},
	}
}

func markerFromGitHub(branch *gh.PullRequestBranch) *domain.PullRequestMarker {
	if branch == nil {
		return nil
	}
	return &domain.PullRequestMarker{
		Label:      branch.GetLabel(),
		Ref:        branch.GetRef(),
		SHA:        branch.GetSHA(),
		User:       branch.GetUser().GetLogin(),
		Repository: branch.GetRepo().GetFullName(),
	}
}
