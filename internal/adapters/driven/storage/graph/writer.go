package graph

import (
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// writer maps entities onto one transaction. A non-empty project records
// every user it touches as a member of that project.
type writer struct {
	tx      Tx
	project string
	now     time.Time
}

func (w *writer) vertex(kind domain.VertexType, key string) (string, error) {
	id, err := w.tx.UpsertVertex(kind, key)
	if err != nil {
		return "", fmt.Errorf("upsert %s %q: %w", kind, key, err)
	}
	return id, nil
}

func (w *writer) entity(kind domain.VertexType, key string, source domain.Source, props map[string]any) (string, error) {
	id, err := w.vertex(kind, key)
	if err != nil {
		return "", err
	}
	if err := w.tx.SetProperties(id, source, props); err != nil {
		return "", fmt.Errorf("properties of %s %q: %w", kind, key, err)
	}
	return id, nil
}

func (w *writer) link(src, dst string, label domain.EdgeLabel) error {
	if err := w.tx.Link(src, dst, label); err != nil {
		return fmt.Errorf("link %s: %w", label, err)
	}
	return nil
}

func (w *writer) mark(kind domain.VertexType, key, mark string) error {
	if err := w.tx.Mark(kind, key, mark, w.now); err != nil {
		return fmt.Errorf("mark %s %q %s: %w", kind, key, mark, err)
	}
	return nil
}

// user upserts a user vertex without touching its properties; only SaveUser
// records a profile.
func (w *writer) user(login string) (string, error) {
	id, err := w.vertex(domain.VertexUser, login)
	if err != nil {
		return "", err
	}
	if w.project != "" {
		if err := w.tx.AddProjectUser(w.project, login); err != nil {
			return "", fmt.Errorf("project user %q: %w", login, err)
		}
	}
	return id, nil
}

// linkUser links src to the user login. An empty login, e.g. a deleted
// account, is skipped.
func (w *writer) linkUser(src, login string, label domain.EdgeLabel) error {
	if login == "" {
		return nil
	}
	userID, err := w.user(login)
	if err != nil {
		return err
	}
	return w.link(src, userID, label)
}

func (w *writer) repository(repo domain.Repository) (string, error) {
	id, err := w.entity(domain.VertexRepository, repo.FullName(), repo.Source, withFields(repo.Properties, map[string]any{
		"id":          repo.ID,
		"owner":       repo.Owner,
		"name":        repo.Name,
		"description": repo.Description,
		"fork":        repo.Fork,
		"has_issues":  repo.HasIssues,
		"created_at":  timestamp(repo.CreatedAt),
		"pushed_at":   timestamp(repo.PushedAt),
	}))
	if err != nil {
		return "", err
	}
	if err := w.linkUser(id, repo.Owner, domain.EdgeOwner); err != nil {
		return "", err
	}
	return id, nil
}

func (w *writer) issue(repoID string, issue domain.Issue) error {
	project := w.project
	key := fmt.Sprintf("%s#%d", project, issue.Number)

	props := withFields(issue.Properties, map[string]any{
		"number":     issue.Number,
		"title":      issue.Title,
		"body":       issue.Body,
		"state":      issue.State,
		"comments":   issue.Comments,
		"created_at": timestamp(issue.CreatedAt),
		"updated_at": timestamp(issue.UpdatedAt),
		"closed_at":  timestamp(issue.ClosedAt),
	})
	issueID, err := w.entity(domain.VertexIssue, key, issue.Source, props)
	if err != nil {
		return err
	}
	if err := w.link(repoID, issueID, domain.EdgeIssue); err != nil {
		return err
	}
	if err := w.linkUser(issueID, issue.Author, domain.EdgeIssueOwner); err != nil {
		return err
	}
	for _, assignee := range issue.Assignees {
		if err := w.linkUser(issueID, assignee, domain.EdgeIssueAssignee); err != nil {
			return err
		}
	}
	for _, label := range issue.Labels {
		labelID, err := w.entity(domain.VertexLabel, project+":"+label.Name, issue.Source, map[string]any{
			"name":  label.Name,
			"color": label.Color,
		})
		if err != nil {
			return err
		}
		if err := w.link(issueID, labelID, domain.EdgeIssueLabel); err != nil {
			return err
		}
	}
	if m := issue.Milestone; m != nil {
		milestoneID, err := w.entity(domain.VertexMilestone, project+":"+strconv.Itoa(m.Number), issue.Source,
			map[string]any{
				"number": m.Number,
				"title":  m.Title,
				"state":  m.State,
			})
		if err != nil {
			return err
		}
		if err := w.link(issueID, milestoneID, domain.EdgeIssueMilestone); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) comment(kind domain.VertexType, c domain.Comment) (string, error) {
	id, err := w.entity(kind, strconv.FormatInt(c.ID, 10), c.Source, withFields(c.Properties, map[string]any{
		"id":         c.ID,
		"user":       c.Author,
		"body":       c.Body,
		"created_at": timestamp(c.CreatedAt),
		"updated_at": timestamp(c.UpdatedAt),
	}))
	if err != nil {
		return "", err
	}
	if err := w.linkUser(id, c.Author, domain.EdgeCommentOwner); err != nil {
		return "", err
	}
	return id, nil
}

func (w *writer) pullRequest(repoID string, project domain.ProjectRef, pr domain.PullRequest) (string, error) {
	key := numberedKey(project, pr.Number)
	prID, err := w.entity(domain.VertexPullRequest, key, pr.Source, withFields(pr.Properties, map[string]any{
		"number":        pr.Number,
		"title":         pr.Title,
		"body":          pr.Body,
		"state":         pr.State,
		"merged":        pr.Merged,
		"additions":     pr.Additions,
		"deletions":     pr.Deletions,
		"changed_files": pr.ChangedFiles,
		"created_at":    timestamp(pr.CreatedAt),
		"updated_at":    timestamp(pr.UpdatedAt),
		"closed_at":     timestamp(pr.ClosedAt),
		"merged_at":     timestamp(pr.MergedAt),
	}))
	if err != nil {
		return "", err
	}
	if err := w.link(repoID, prID, domain.EdgePullRequest); err != nil {
		return "", err
	}

	// Every pull request is also an issue with the same number.
	issueID, err := w.vertex(domain.VertexIssue, key)
	if err != nil {
		return "", err
	}
	if err := w.link(prID, issueID, domain.EdgePullRequestIssue); err != nil {
		return "", err
	}

	if err := w.linkUser(prID, pr.Author, domain.EdgePullRequestOwner); err != nil {
		return "", err
	}
	if err := w.linkUser(prID, pr.MergedBy, domain.EdgeMergedBy); err != nil {
		return "", err
	}

	for _, m := range []struct {
		name   string
		marker *domain.PullRequestMarker
		label  domain.EdgeLabel
	}{
		{"head", pr.Head, domain.EdgeHead},
		{"base", pr.Base, domain.EdgeBase},
	} {
		if m.marker == nil {
			continue
		}
		markerID, err := w.entity(domain.VertexPullRequestMarker, key+":"+m.name, pr.Source, map[string]any{
			"label": m.marker.Label,
			"ref":   m.marker.Ref,
			"sha":   m.marker.SHA,
			"user":  m.marker.User,
		})
		if err != nil {
			return "", err
		}
		if err := w.link(prID, markerID, m.label); err != nil {
			return "", err
		}
		if m.marker.Repository != "" {
			markerRepoID, err := w.vertex(domain.VertexRepository, m.marker.Repository)
			if err != nil {
				return "", err
			}
			if err := w.link(markerID, markerRepoID, domain.EdgeMarkerRepository); err != nil {
				return "", err
			}
		}
	}
	return prID, nil
}

// numberedKey is the vertex key of an issue or pull request.
func numberedKey(project domain.ProjectRef, number int) string {
	return fmt.Sprintf("%s#%d", project, number)
}

func userProperties(u domain.User) map[string]any {
	return withFields(u.Properties, map[string]any{
		"login":      u.Login,
		"name":       u.Name,
		"email":      u.Email,
		"company":    u.Company,
		"location":   u.Location,
		"created_at": timestamp(u.CreatedAt),
	})
}

// withFields copies a raw property set and overlays the typed fields.
func withFields(base, fields map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(fields))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func timestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
