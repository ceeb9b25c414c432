package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// ListIssues returns every issue of a repository, open and closed.
// Pull requests show up in the issues endpoint too and are skipped.
// A repository with issues disabled answers 410, which maps to domain.ErrDisabled.
func (c *Client) ListIssues(ctx context.Context, repo domain.ProjectRef) ([]domain.Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:     "all",
		Sort:      "created",
		Direction: "asc",
	}
	issues, err := collect(ctx, c, "list issues", func(lo gh.ListOptions) ([]*gh.Issue, *gh.Response, error) {
		opts.ListOptions = lo
		return c.gh.Issues.ListByRepo(ctx, repo.Owner, repo.Name, opts)
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		out = append(out, issueFromGitHub(issue))
	}
	return out, nil
}

// ListIssueComments returns the comments of one issue.
func (c *Client) ListIssueComments(ctx context.Context, repo domain.ProjectRef, number int) ([]domain.Comment, error) {
	comments, err := c.issueComments(ctx, repo, number)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Comment, 0, len(comments))
	for _, comment := range comments {
		out = append(out, commentFromGitHub(comment))
	}
	return out, nil
}

func (c *Client) issueComments(ctx context.Context, repo domain.ProjectRef, number int) ([]*gh.IssueComment, error) {
	opts := &gh.IssueListCommentsOptions{}
	return collect(ctx, c, fmt.Sprintf("list comments #%d", number),
		func(lo gh.ListOptions) ([]*gh.IssueComment, *gh.Response, error) {
			opts.ListOptions = lo
			return c.gh.Issues.ListComments(ctx, repo.Owner, repo.Name, number, opts)
		})
}

// ListIssueEvents returns the timeline events of one issue.
func (c *Client) ListIssueEvents(ctx context.Context, repo domain.ProjectRef, number int) ([]domain.IssueEvent, error) {
	events, err := collect(ctx, c, fmt.Sprintf("list events #%d", number),
		func(lo gh.ListOptions) ([]*gh.IssueEvent, *gh.Response, error) {
			return c.gh.Issues.ListIssueEvents(ctx, repo.Owner, repo.Name, number, &lo)
		})
	if err != nil {
		return nil, err
	}

	out := make([]domain.IssueEvent, 0, len(events))
	for _, event := range events {
		out = append(out, domain.IssueEvent{
			ID:        event.GetID(),
			Event:     event.GetEvent(),
			Actor:     event.GetActor().GetLogin(),
			CommitID:  event.GetCommitID(),
			CreatedAt: event.GetCreatedAt().Time,
			Source:    domain.SourceV3,
			Properties: map[string]any{
				"url": event.GetURL(),
			},
		})
	}
	return out, nil
}

func issueFromGitHub(issue *gh.Issue) domain.Issue {
	labels := make([]domain.Label, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, domain.Label{Name: l.GetName(), Color: l.GetColor()})
	}

	assignees := make([]string, 0, len(issue.Assignees))
	for _, a := range issue.Assignees {
		assignees = append(assignees, a.GetLogin())
	}

	var milestone *domain.Milestone
	if m := issue.GetMilestone(); m != nil {
		milestone = &domain.Milestone{Number: m.GetNumber(), Title: m.GetTitle(), State: m.GetState()}
	}

	return domain.Issue{
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		Body:      issue.GetBody(),
		State:     issue.GetState(),
		Author:    issue.GetUser().GetLogin(),
		Assignees: assignees,
		Labels:    labels,
		Milestone: milestone,
		Comments:  issue.GetComments(),
		CreatedAt: issue.GetCreatedAt().Time,
		UpdatedAt: issue.GetUpdatedAt().Time,
		ClosedAt:  issue.GetClosedAt().Time,
		Source:    domain.SourceV3,
		Properties: map[string]any{
			"html_url":           issue.GetHTMLURL(),
			"locked":             issue.GetLocked(),
			"author_association": issue.GetAuthorAssociation(),
		},
	}
}

func commentFromGitHub(comment *gh.IssueComment) domain.Comment {
	return domain.Comment{
		ID:        comment.GetID(),
		Author:    comment.GetUser().GetLogin(),
		Body:      comment.GetBody(),
		CreatedAt: comment.GetCreatedAt().Time,
		UpdatedAt: comment.GetUpdatedAt().Time,
		Source:    domain.SourceV3,
		Properties: map[string]any{
			"html_url":           comment.GetHTMLURL(),
			"author_association": comment.GetAuthorAssociation(),
		},
	}
}
