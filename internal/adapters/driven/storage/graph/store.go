package graph

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/ghminer/internal/core/domain"
	"github.com/custodia-labs/ghminer/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.GraphStore = (*Store)(nil)

// Store maps harvested entities onto typed vertices and labelled edges.
type Store struct {
	backend Backend
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp freshness marks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a graph store over a backend. The store owns the backend
// and closes it on Close.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the backend. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.backend.Close()
}

// CountVertices returns the number of stored vertices per kind.
func (s *Store) CountVertices(ctx context.Context) (map[domain.VertexType]int, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.backend.CountVertices(ctx)
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	return nil
}

func (s *Store) update(ctx context.Context, project string, fn func(w *writer) error) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	now := s.now().UTC()
	return s.backend.Update(ctx, func(tx Tx) error {
		return fn(&writer{tx: tx, project: project, now: now})
	})
}

// ==================== Repositories ====================

// SaveRepository records a repository and its owner.
func (s *Store) SaveRepository(ctx context.Context, repo domain.Repository) error {
	return s.update(ctx, repo.FullName(), func(w *writer) error {
		_, err := w.repository(repo)
		return err
	})
}

func (s *Store) saveRepositoryUsers(
	ctx context.Context, project domain.ProjectRef, users []domain.User, label domain.EdgeLabel,
) error {
	return s.update(ctx, project.String(), func(w *writer) error {
		repoID, err := w.vertex(domain.VertexRepository, project.String())
		if err != nil {
			return err
		}
		for _, u := range users {
			userID, err := w.user(u.Login)
			if err != nil {
				return err
			}
			if err := w.link(repoID, userID, label); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveRepositoryCollaborators records the collaborators of a repository.
func (s *Store) SaveRepositoryCollaborators(ctx context.Context, project domain.ProjectRef, users []domain.User) error {
	return s.saveRepositoryUsers(ctx, project, users, domain.EdgeCollaborator)
}

// SaveRepositoryContributors records the contributors of a repository.
func (s *Store) SaveRepositoryContributors(ctx context.Context, project domain.ProjectRef, users []domain.User) error {
	return s.saveRepositoryUsers(ctx, project, users, domain.EdgeContributor)
}

// SaveRepositoryWatchers records the watchers of a repository.
func (s *Store) SaveRepositoryWatchers(ctx context.Context, project domain.ProjectRef, users []domain.User) error {
	return s.saveRepositoryUsers(ctx, project, users, domain.EdgeWatcher)
}

// SaveRepositoryForks records the forks of a repository.
func (s *Store) SaveRepositoryForks(ctx context.Context, project domain.ProjectRef, forks []domain.Repository) error {
	return s.update(ctx, project.String(), func(w *writer) error {
		repoID, err := w.vertex(domain.VertexRepository, project.String())
		if err != nil {
			return err
		}
		for _, fork := range forks {
			forkID, err := w.repository(fork)
			if err != nil {
				return err
			}
			if err := w.link(repoID, forkID, domain.EdgeFork); err != nil {
				return err
			}
		}
		return nil
	})
}

// ==================== Issues ====================

// SaveRepositoryIssues records issues with their authors, assignees, labels
// and milestones.
func (s *Store) SaveRepositoryIssues(ctx context.Context, project domain.ProjectRef, issues []domain.Issue) error {
	return s.update(ctx, project.String(), func(w *writer) error {
		repoID, err := w.vertex(domain.VertexRepository, project.String())
		if err != nil {
			return err
		}
		for _, issue := range issues {
			if err := w.issue(repoID, issue); err != nil {
				return fmt.Errorf("issue #%d: %w", issue.Number, err)
			}
		}
		return nil
	})
}

// SaveIssueComments records the comments of one issue and stamps its comments mark.
func (s *Store) SaveIssueComments(
	ctx context.Context, project domain.ProjectRef, number int, comments []domain.Comment,
) error {
	return s.update(ctx, project.String(), func(w *writer) error {
		key := numberedKey(project, number)
		issueID, err := w.vertex(domain.VertexIssue, key)
		if err != nil {
			return err
		}
		for _, c := range comments {
			commentID, err := w.comment(domain.VertexComment, c)
			if err != nil {
				return err
			}
			if err := w.link(issueID, commentID, domain.EdgeIssueComment); err != nil {
				return err
			}
		}
		return w.mark(domain.VertexIssue, key, MarkComments)
	})
}

// SaveIssueEvents records the events of one issue and stamps its events mark.
func (s *Store) SaveIssueEvents(
	ctx context.Context, project domain.ProjectRef, number int, events []domain.IssueEvent,
) error {
	return s.update(ctx, project.String(), func(w *writer) error {
		key := numberedKey(project, number)
		issueID, err := w.vertex(domain.VertexIssue, key)
		if err != nil {
			return err
		}
		for _, e := range events {
			eventID, err := w.entity(domain.VertexIssueEvent, strconv.FormatInt(e.ID, 10), e.Source,
				withFields(e.Properties, map[string]any{
					"id":         e.ID,
					"event":      e.Event,
					"actor":      e.Actor,
					"commit_id":  e.CommitID,
					"created_at": timestamp(e.CreatedAt),
				}))
			if err != nil {
				return err
			}
			if err := w.link(issueID, eventID, domain.EdgeIssueEvent); err != nil {
				return err
			}
			if err := w.linkUser(eventID, e.Actor, domain.EdgeEventActor); err != nil {
				return err
			}
			if e.CommitID != "" {
				commitID, err := w.vertex(domain.VertexCommit, e.CommitID)
				if err != nil {
					return err
				}
				if err := w.link(eventID, commitID, domain.EdgeIssueEvent); err != nil {
					return err
				}
			}
		}
		return w.mark(domain.VertexIssue, key, MarkEvents)
	})
}

// ==================== Pull requests ====================

// SaveRepositoryPullRequests records the pull request list of a repository.
func (s *Store) SaveRepositoryPullRequests(
	ctx context.Context, project domain.ProjectRef, prs []domain.PullRequest,
) error {
	return s.update(ctx, project.String(), func(w *writer) error {
		repoID, err := w.vertex(domain.VertexRepository, project.String())
		if err != nil {
			return err
		}
		for _, pr := range prs {
			if _, err := w.pullRequest(repoID, project, pr); err != nil {
				return fmt.Errorf("pull request #%d: %w", pr.Number, err)
			}
		}
		return nil
	})
}

// SavePullRequest records one pull request with its markers, review comments
// and discussion. A full save also stamps its discussion mark.
func (s *Store) SavePullRequest(ctx context.Context, project domain.ProjectRef, pr domain.PullRequest, full bool) error {
	return s.update(ctx, project.String(), func(w *writer) error {
		repoID, err := w.vertex(domain.VertexRepository, project.String())
		if err != nil {
			return err
		}
		prID, err := w.pullRequest(repoID, project, pr)
		if err != nil {
			return err
		}

		for _, rc := range pr.ReviewComments {
			rcID, err := w.entity(domain.VertexPullRequestReviewComment, strconv.FormatInt(rc.ID, 10), pr.Source,
				map[string]any{
					"id":         rc.ID,
					"user":       rc.Author,
					"body":       rc.Body,
					"path":       rc.Path,
					"commit_id":  rc.CommitID,
					"created_at": timestamp(rc.CreatedAt),
				})
			if err != nil {
				return err
			}
			if err := w.link(prID, rcID, domain.EdgeReviewComment); err != nil {
				return err
			}
			if err := w.linkUser(rcID, rc.Author, domain.EdgeCommentOwner); err != nil {
				return err
			}
		}

		for _, c := range pr.Discussion {
			cID, err := w.comment(domain.VertexDiscussion, c)
			if err != nil {
				return err
			}
			if err := w.link(prID, cID, domain.EdgeDiscussion); err != nil {
				return err
			}
		}

		if !full {
			return nil
		}
		return w.mark(domain.VertexPullRequest, numberedKey(project, pr.Number), MarkDiscussion)
	})
}

// ==================== Users ====================

// SaveUser records a profile. A full save also stamps the full-update mark.
func (s *Store) SaveUser(ctx context.Context, user domain.User, full bool) error {
	return s.update(ctx, "", func(w *writer) error {
		if _, err := w.entity(domain.VertexUser, user.Login, user.Source, userProperties(user)); err != nil {
			return err
		}
		for _, field := range []struct {
			kind  domain.VertexType
			value string
		}{
			{domain.VertexEmail, user.Email},
			{domain.VertexName, user.Name},
		} {
			if field.value == "" {
				continue
			}
			userID, err := w.vertex(domain.VertexUser, user.Login)
			if err != nil {
				return err
			}
			valueID, err := w.vertex(field.kind, field.value)
			if err != nil {
				return err
			}
			if err := w.link(userID, valueID, domain.EdgeLabel(field.kind)); err != nil {
				return err
			}
		}
		if !full {
			return nil
		}
		return w.mark(domain.VertexUser, user.Login, MarkFull)
	})
}

func (s *Store) saveUserUsers(ctx context.Context, login string, users []domain.User, label domain.EdgeLabel) error {
	return s.update(ctx, "", func(w *writer) error {
		userID, err := w.user(login)
		if err != nil {
			return err
		}
		for _, u := range users {
			otherID, err := w.user(u.Login)
			if err != nil {
				return err
			}
			if err := w.link(userID, otherID, label); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveUserFollowers records who follows a user.
func (s *Store) SaveUserFollowers(ctx context.Context, login string, followers []domain.User) error {
	return s.saveUserUsers(ctx, login, followers, domain.EdgeFollower)
}

// SaveUserFollowing records whom a user follows.
func (s *Store) SaveUserFollowing(ctx context.Context, login string, following []domain.User) error {
	return s.saveUserUsers(ctx, login, following, domain.EdgeFollowing)
}

func (s *Store) saveUserRepositories(
	ctx context.Context, login string, repos []domain.Repository, label domain.EdgeLabel,
) error {
	return s.update(ctx, "", func(w *writer) error {
		userID, err := w.user(login)
		if err != nil {
			return err
		}
		for _, repo := range repos {
			repoID, err := w.repository(repo)
			if err != nil {
				return err
			}
			if err := w.link(userID, repoID, label); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveUserWatchedRepositories records the repositories a user watches.
func (s *Store) SaveUserWatchedRepositories(ctx context.Context, login string, repos []domain.Repository) error {
	return s.saveUserRepositories(ctx, login, repos, domain.EdgeWatched)
}

// SaveUserRepositories records the repositories a user owns.
func (s *Store) SaveUserRepositories(ctx context.Context, login string, repos []domain.Repository) error {
	return s.saveUserRepositories(ctx, login, repos, domain.EdgeRepoOwner)
}

// SaveUserGists records a user's gists and their files.
func (s *Store) SaveUserGists(ctx context.Context, login string, gists []domain.Gist) error {
	return s.update(ctx, "", func(w *writer) error {
		userID, err := w.user(login)
		if err != nil {
			return err
		}
		for _, g := range gists {
			gistID, err := w.entity(domain.VertexGist, g.ID, g.Source, withFields(g.Properties, map[string]any{
				"id":          g.ID,
				"owner":       g.Owner,
				"description": g.Description,
				"public":      g.Public,
				"created_at":  timestamp(g.CreatedAt),
				"updated_at":  timestamp(g.UpdatedAt),
			}))
			if err != nil {
				return err
			}
			if err := w.link(userID, gistID, domain.EdgeGist); err != nil {
				return err
			}
			for _, f := range g.Files {
				fileID, err := w.entity(domain.VertexGistFile, g.ID+"/"+f.Filename, g.Source, map[string]any{
					"filename": f.Filename,
					"language": f.Language,
					"size":     f.Size,
					"raw_url":  f.RawURL,
				})
				if err != nil {
					return err
				}
				if err := w.link(gistID, fileID, domain.EdgeGistFile); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ==================== Organizations ====================

// SaveOrganization records organization information.
func (s *Store) SaveOrganization(ctx context.Context, org domain.Organization) error {
	return s.update(ctx, "", func(w *writer) error {
		_, err := w.entity(domain.VertexOrganization, org.Login, org.Source, withFields(org.Properties, map[string]any{
			"login":       org.Login,
			"name":        org.Name,
			"description": org.Description,
			"created_at":  timestamp(org.CreatedAt),
		}))
		return err
	})
}

// SaveOrganizationPublicMembers records the public members of an organization.
func (s *Store) SaveOrganizationPublicMembers(ctx context.Context, org string, users []domain.User) error {
	return s.update(ctx, "", func(w *writer) error {
		orgID, err := w.vertex(domain.VertexOrganization, org)
		if err != nil {
			return err
		}
		for _, u := range users {
			userID, err := w.user(u.Login)
			if err != nil {
				return err
			}
			if err := w.link(orgID, userID, domain.EdgeMember); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveOrganizationPublicRepositories records the public repositories of an organization.
func (s *Store) SaveOrganizationPublicRepositories(ctx context.Context, org string, repos []domain.Repository) error {
	return s.update(ctx, "", func(w *writer) error {
		orgID, err := w.vertex(domain.VertexOrganization, org)
		if err != nil {
			return err
		}
		for _, repo := range repos {
			repoID, err := w.repository(repo)
			if err != nil {
				return err
			}
			if err := w.link(orgID, repoID, domain.EdgeOrgRepository); err != nil {
				return err
			}
		}
		return nil
	})
}

// ==================== Freshness ====================

func (s *Store) numberedMarks(
	ctx context.Context, kind domain.VertexType, project domain.ProjectRef, mark string,
) (map[int]time.Time, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	prefix := project.String() + "#"
	marks, err := s.backend.Marks(ctx, kind, prefix, mark)
	if err != nil {
		return nil, err
	}
	out := make(map[int]time.Time, len(marks))
	for key, at := range marks {
		n, err := strconv.Atoi(strings.TrimPrefix(key, prefix))
		if err != nil {
			continue
		}
		out[n] = at
	}
	return out, nil
}

// IssueCommentsUpdatedAt returns when the comments of each issue were last saved.
func (s *Store) IssueCommentsUpdatedAt(ctx context.Context, project domain.ProjectRef) (map[int]time.Time, error) {
	return s.numberedMarks(ctx, domain.VertexIssue, project, MarkComments)
}

// IssueEventsUpdatedAt returns when the events of each issue were last saved.
func (s *Store) IssueEventsUpdatedAt(ctx context.Context, project domain.ProjectRef) (map[int]time.Time, error) {
	return s.numberedMarks(ctx, domain.VertexIssue, project, MarkEvents)
}

// PullRequestDiscussionsUpdatedAt returns when each pull request was last fully saved.
func (s *Store) PullRequestDiscussionsUpdatedAt(
	ctx context.Context, project domain.ProjectRef,
) (map[int]time.Time, error) {
	return s.numberedMarks(ctx, domain.VertexPullRequest, project, MarkDiscussion)
}

// ProjectUsersLastFullUpdate returns every user known for a project with the
// time of their last full update; users never fully updated map to zero.
func (s *Store) ProjectUsersLastFullUpdate(ctx context.Context, project domain.ProjectRef) (map[string]time.Time, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	logins, err := s.backend.ProjectUsers(ctx, project.String())
	if err != nil {
		return nil, err
	}
	marks, err := s.backend.Marks(ctx, domain.VertexUser, "", MarkFull)
	if err != nil {
		return nil, err
	}
	out := make(map[string]time.Time, len(logins))
	for _, login := range logins {
		out[login] = marks[login]
	}
	return out, nil
}
