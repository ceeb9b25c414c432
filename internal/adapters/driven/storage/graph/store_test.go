package graph_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ghminer/internal/adapters/driven/storage/graph"
	"github.com/custodia-labs/ghminer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ghminer/internal/core/domain"
)

var octoRepo = domain.ProjectRef{Owner: "octo", Name: "repo"}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func setupStore(t *testing.T) (*graph.Store, *memory.Backend, *clock) {
	t.Helper()
	backend := memory.NewBackend()
	clk := &clock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	store := graph.NewStore(backend, graph.WithClock(clk.Now))
	t.Cleanup(func() { _ = store.Close() })
	return store, backend, clk
}

func TestStore_SaveRepository_BothSources(t *testing.T) {
	store, backend, _ := setupStore(t)
	ctx := context.Background()

	v3 := domain.Repository{Owner: "octo", Name: "repo", Source: domain.SourceV3,
		Properties: map[string]any{"language": "Go"}}
	v2 := domain.Repository{Owner: "octo", Name: "repo", Source: domain.SourceV2,
		Properties: map[string]any{"network_count": 4}}

	require.NoError(t, store.SaveRepository(ctx, v3))
	require.NoError(t, store.SaveRepository(ctx, v2))
	require.NoError(t, store.SaveRepository(ctx, v3))

	props := backend.Properties(domain.VertexRepository, "octo/repo")
	require.Len(t, props, 2, "one property set per source, never merged")
	assert.Equal(t, "Go", props[domain.SourceV3]["language"])
	assert.NotContains(t, props[domain.SourceV3], "network_count")
	assert.Equal(t, 4, props[domain.SourceV2]["network_count"])

	counts, err := store.CountVertices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.VertexRepository], "upserts are idempotent")
	assert.True(t, backend.HasEdge(domain.VertexRepository, "octo/repo", domain.EdgeOwner, domain.VertexUser, "octo"))
}

func TestStore_RepositoryRelations(t *testing.T) {
	store, backend, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRepositoryCollaborators(ctx, octoRepo, []domain.User{{Login: "alice"}}))
	require.NoError(t, store.SaveRepositoryContributors(ctx, octoRepo, []domain.User{{Login: "bob"}}))
	require.NoError(t, store.SaveRepositoryWatchers(ctx, octoRepo, []domain.User{{Login: "carol"}}))
	require.NoError(t, store.SaveRepositoryForks(ctx, octoRepo, []domain.Repository{{Owner: "dave", Name: "repo", Fork: true}}))

	assert.True(t, backend.HasEdge(domain.VertexRepository, "octo/repo", domain.EdgeCollaborator, domain.VertexUser, "alice"))
	assert.True(t, backend.HasEdge(domain.VertexRepository, "octo/repo", domain.EdgeContributor, domain.VertexUser, "bob"))
	assert.True(t, backend.HasEdge(domain.VertexRepository, "octo/repo", domain.EdgeWatcher, domain.VertexUser, "carol"))
	assert.True(t, backend.HasEdge(domain.VertexRepository, "octo/repo", domain.EdgeFork, domain.VertexRepository, "dave/repo"))

	users, err := store.ProjectUsersLastFullUpdate(ctx, octoRepo)
	require.NoError(t, err)
	assert.Len(t, users, 4, "alice, bob, carol and the fork owner dave")
	for login, at := range users {
		assert.True(t, at.IsZero(), "%s never fully updated", login)
	}
}

func TestStore_Issues(t *testing.T) {
	store, backend, clk := setupStore(t)
	ctx := context.Background()

	issues := []domain.Issue{
		{
			Number:    7,
			Title:     "crash",
			Author:    "alice",
			Assignees: []string{"bob"},
			Labels:    []domain.Label{{Name: "bug", Color: "f00"}},
			Milestone: &domain.Milestone{Number: 1, Title: "v1"},
			Source:    domain.SourceV3,
		},
		{Number: 8, Author: "carol", Source: domain.SourceV3},
	}
	require.NoError(t, store.SaveRepositoryIssues(ctx, octoRepo, issues))

	assert.True(t, backend.HasEdge(domain.VertexRepository, "octo/repo", domain.EdgeIssue, domain.VertexIssue, "octo/repo#7"))
	assert.True(t, backend.HasEdge(domain.VertexIssue, "octo/repo#7", domain.EdgeIssueOwner, domain.VertexUser, "alice"))
	assert.True(t, backend.HasEdge(domain.VertexIssue, "octo/repo#7", domain.EdgeIssueAssignee, domain.VertexUser, "bob"))
	assert.True(t, backend.HasEdge(domain.VertexIssue, "octo/repo#7", domain.EdgeIssueLabel, domain.VertexLabel, "octo/repo:bug"))
	assert.True(t, backend.HasEdge(domain.VertexIssue, "octo/repo#7", domain.EdgeIssueMilestone, domain.VertexMilestone, "octo/repo:1"))

	marks, err := store.IssueCommentsUpdatedAt(ctx, octoRepo)
	require.NoError(t, err)
	assert.Empty(t, marks, "saving the list stamps no comments mark")

	comments := []domain.Comment{{ID: 100, Author: "dave", Source: domain.SourceV2}}
	require.NoError(t, store.SaveIssueComments(ctx, octoRepo, 7, comments))
	assert.True(t, backend.HasEdge(domain.VertexIssue, "octo/repo#7", domain.EdgeIssueComment, domain.VertexComment, "100"))
	assert.True(t, backend.HasEdge(domain.VertexComment, "100", domain.EdgeCommentOwner, domain.VertexUser, "dave"))

	clk.now = clk.now.Add(time.Hour)
	events := []domain.IssueEvent{{ID: 5, Event: "referenced", Actor: "erin", CommitID: "abc123", Source: domain.SourceV3}}
	require.NoError(t, store.SaveIssueEvents(ctx, octoRepo, 8, events))
	assert.True(t, backend.HasEdge(domain.VertexIssueEvent, "5", domain.EdgeEventActor, domain.VertexUser, "erin"))
	assert.True(t, backend.HasEdge(domain.VertexIssueEvent, "5", domain.EdgeIssueEvent, domain.VertexCommit, "abc123"))

	commentMarks, err := store.IssueCommentsUpdatedAt(ctx, octoRepo)
	require.NoError(t, err)
	assert.Equal(t, map[int]time.Time{7: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}, commentMarks)

	eventMarks, err := store.IssueEventsUpdatedAt(ctx, octoRepo)
	require.NoError(t, err)
	assert.Equal(t, map[int]time.Time{8: time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)}, eventMarks)

	users, err := store.ProjectUsersLastFullUpdate(ctx, octoRepo)
	require.NoError(t, err)
	for _, login := range []string{"alice", "bob", "carol", "dave", "erin"} {
		assert.Contains(t, users, login)
	}
}

func TestStore_MarksAreScopedToProject(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()

	other := domain.ProjectRef{Owner: "octo", Name: "repo2"}
	require.NoError(t, store.SaveIssueComments(ctx, octoRepo, 1, nil))
	require.NoError(t, store.SaveIssueComments(ctx, other, 2, nil))

	marks, err := store.IssueCommentsUpdatedAt(ctx, octoRepo)
	require.NoError(t, err)
	assert.Len(t, marks, 1)
	assert.Contains(t, marks, 1)
}

func TestStore_PullRequests(t *testing.T) {
	store, backend, _ := setupStore(t)
	ctx := context.Background()

	pr := domain.PullRequest{
		Number:   11,
		Author:   "dave",
		MergedBy: "octo",
		Head:     &domain.PullRequestMarker{Ref: "topic", Repository: "dave/repo"},
		Base:     &domain.PullRequestMarker{Ref: "main", Repository: "octo/repo"},
		ReviewComments: []domain.ReviewComment{
			{ID: 31, Author: "erin", Path: "main.go"},
		},
		Discussion: []domain.Comment{{ID: 32, Author: "frank"}},
		Source:     domain.SourceV3,
	}

	require.NoError(t, store.SaveRepositoryPullRequests(ctx, octoRepo, []domain.PullRequest{{Number: 11, Source: domain.SourceV3}}))
	marks, err := store.PullRequestDiscussionsUpdatedAt(ctx, octoRepo)
	require.NoError(t, err)
	assert.Empty(t, marks)

	require.NoError(t, store.SavePullRequest(ctx, octoRepo, pr, false))
	marks, err = store.PullRequestDiscussionsUpdatedAt(ctx, octoRepo)
	require.NoError(t, err)
	assert.Empty(t, marks, "partial saves leave the discussion mark alone")

	require.NoError(t, store.SavePullRequest(ctx, octoRepo, pr, true))
	marks, err = store.PullRequestDiscussionsUpdatedAt(ctx, octoRepo)
	require.NoError(t, err)
	assert.Contains(t, marks, 11)

	key := "octo/repo#11"
	assert.True(t, backend.HasEdge(domain.VertexRepository, "octo/repo", domain.EdgePullRequest, domain.VertexPullRequest, key))
	assert.True(t, backend.HasEdge(domain.VertexPullRequest, key, domain.EdgePullRequestIssue, domain.VertexIssue, key))
	assert.True(t, backend.HasEdge(domain.VertexPullRequest, key, domain.EdgeMergedBy, domain.VertexUser, "octo"))
	assert.True(t, backend.HasEdge(domain.VertexPullRequest, key, domain.EdgeHead, domain.VertexPullRequestMarker, key+":head"))
	assert.True(t, backend.HasEdge(domain.VertexPullRequestMarker, key+":head", domain.EdgeMarkerRepository, domain.VertexRepository, "dave/repo"))
	assert.True(t, backend.HasEdge(domain.VertexPullRequest, key, domain.EdgeReviewComment, domain.VertexPullRequestReviewComment, "31"))
	assert.True(t, backend.HasEdge(domain.VertexPullRequest, key, domain.EdgeDiscussion, domain.VertexDiscussion, "32"))
}

func TestStore_Users(t *testing.T) {
	store, backend, clk := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRepositoryContributors(ctx, octoRepo, []domain.User{{Login: "alice"}}))

	profile := domain.User{Login: "alice", Name: "Alice", Email: "a@example.com", Source: domain.SourceV2,
		Properties: map[string]any{"hireable": true}}
	require.NoError(t, store.SaveUser(ctx, profile, true))

	// Relation lists never overwrite a recorded profile.
	require.NoError(t, store.SaveUserFollowers(ctx, "bob", []domain.User{{Login: "alice", Source: domain.SourceV2}}))
	props := backend.Properties(domain.VertexUser, "alice")
	assert.Equal(t, true, props[domain.SourceV2]["hireable"])
	assert.Equal(t, "Alice", props[domain.SourceV2]["name"])

	assert.True(t, backend.HasEdge(domain.VertexUser, "alice", domain.EdgeLabel(domain.VertexEmail), domain.VertexEmail, "a@example.com"))
	assert.True(t, backend.HasEdge(domain.VertexUser, "bob", domain.EdgeFollower, domain.VertexUser, "alice"))

	users, err := store.ProjectUsersLastFullUpdate(ctx, octoRepo)
	require.NoError(t, err)
	assert.Equal(t, clk.now, users["alice"])
	_, bobIsMember := users["bob"]
	assert.False(t, bobIsMember, "followers are not project users")

	require.NoError(t, store.SaveUserFollowing(ctx, "alice", []domain.User{{Login: "carol"}}))
	require.NoError(t, store.SaveUserWatchedRepositories(ctx, "alice", []domain.Repository{{Owner: "octo", Name: "repo"}}))
	require.NoError(t, store.SaveUserRepositories(ctx, "alice", []domain.Repository{{Owner: "alice", Name: "dotfiles"}}))
	require.NoError(t, store.SaveUserGists(ctx, "alice", []domain.Gist{{
		ID: "g1", Owner: "alice", Files: []domain.GistFile{{Filename: "a.go"}},
	}}))

	assert.True(t, backend.HasEdge(domain.VertexUser, "alice", domain.EdgeFollowing, domain.VertexUser, "carol"))
	assert.True(t, backend.HasEdge(domain.VertexUser, "alice", domain.EdgeWatched, domain.VertexRepository, "octo/repo"))
	assert.True(t, backend.HasEdge(domain.VertexUser, "alice", domain.EdgeRepoOwner, domain.VertexRepository, "alice/dotfiles"))
	assert.True(t, backend.HasEdge(domain.VertexGist, "g1", domain.EdgeGistFile, domain.VertexGistFile, "g1/a.go"))
}

func TestStore_Organizations(t *testing.T) {
	store, backend, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveOrganization(ctx, domain.Organization{Login: "acme", Name: "Acme", Source: domain.SourceV2}))
	require.NoError(t, store.SaveOrganizationPublicMembers(ctx, "acme", []domain.User{{Login: "erin"}}))
	require.NoError(t, store.SaveOrganizationPublicRepositories(ctx, "acme", []domain.Repository{{Owner: "acme", Name: "site"}}))

	assert.Equal(t, "Acme", backend.Properties(domain.VertexOrganization, "acme")[domain.SourceV2]["name"])
	assert.True(t, backend.HasEdge(domain.VertexOrganization, "acme", domain.EdgeMember, domain.VertexUser, "erin"))
	assert.True(t, backend.HasEdge(domain.VertexOrganization, "acme", domain.EdgeOrgRepository, domain.VertexRepository, "acme/site"))
}

func TestStore_Close(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "close is idempotent")

	err := store.SaveRepository(ctx, domain.Repository{Owner: "octo", Name: "repo"})
	assert.True(t, errors.Is(err, domain.ErrStoreClosed))

	_, err = store.IssueCommentsUpdatedAt(ctx, octoRepo)
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
}

func TestMemoryBackend_RollsBackFailedTransaction(t *testing.T) {
	backend := memory.NewBackend()
	ctx := context.Background()

	boom := errors.New("boom")
	err := backend.Update(ctx, func(tx graph.Tx) error {
		if _, err := tx.UpsertVertex(domain.VertexUser, "ghost"); err != nil {
			return err
		}
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.False(t, backend.HasVertex(domain.VertexUser, "ghost"))
}

func TestMemoryBackend_SeesOwnWrites(t *testing.T) {
	backend := memory.NewBackend()

	var first, second string
	require.NoError(t, backend.Update(context.Background(), func(tx graph.Tx) error {
		var err error
		first, err = tx.UpsertVertex(domain.VertexUser, "alice")
		if err != nil {
			return err
		}
		second, err = tx.UpsertVertex(domain.VertexUser, "alice")
		return err
	}))

	assert.Equal(t, first, second)
}
