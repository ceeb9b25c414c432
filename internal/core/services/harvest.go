package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ghminer/internal/core/domain"
	"github.com/custodia-labs/ghminer/internal/core/ports/driven"
	"github.com/custodia-labs/ghminer/internal/core/ports/driving"
	"github.com/custodia-labs/ghminer/internal/logger"
)

// Ensure Harvester implements the interface.
var _ driving.Harvester = (*Harvester)(nil)

// Phase names used in logs and report counters.
const (
	PhaseRepository         = "repository"
	PhaseRepositoryMetadata = "repository_metadata"
	PhaseCollaborators      = "collaborators"
	PhaseContributors       = "contributors"
	PhaseWatchers           = "watchers"
	PhaseForks              = "forks"
	PhaseIssues             = "issues"
	PhaseIssueComments      = "issue_comments"
	PhaseIssueEvents        = "issue_events"
	PhasePullRequests       = "pull_requests"
	PhasePullRequest        = "pull_request"
	PhaseProjectUsers       = "project_users"
	PhaseFollowers          = "user_followers"
	PhaseFollowing          = "user_following"
	PhaseWatched            = "user_watched"
	PhaseUserRepositories   = "user_repositories"
	PhaseGists              = "user_gists"
	PhaseUser               = "user"
	PhaseOrganization       = "organization"
	PhaseOrgMembers         = "organization_members"
	PhaseOrgRepositories    = "organization_repositories"
)

// HarvestClients groups the remote collaborators of both API generations.
// Each is expected to be built over a throttled transport for its generation.
type HarvestClients struct {
	// Newer generation.
	Repositories driven.RepositoryReader
	Issues       driven.IssueReader
	PullRequests driven.PullRequestReader

	// Older generation.
	LegacyRepositories driven.RepositoryService
	LegacyIssues       driven.IssueService
	LegacyPullRequests driven.PullRequestService
	Users              driven.UserService
	Gists              driven.GistService
	Organizations      driven.OrganizationService
}

// Harvester sequences the per-resource miners over the configured targets.
type Harvester struct {
	clients HarvestClients
	store   driven.GraphStore
	targets domain.HarvestConfig
	miners  domain.MinerToggles
	policy  StalenessPolicy
	newID   func() string
}

// NewHarvester creates a harvester. The store is borrowed, not owned: the
// caller closes it.
func NewHarvester(
	clients HarvestClients,
	store driven.GraphStore,
	targets domain.HarvestConfig,
	miners domain.MinerToggles,
	policy StalenessPolicy,
) *Harvester {
	return &Harvester{
		clients: clients,
		store:   store,
		targets: targets,
		miners:  miners,
		policy:  policy,
		newID:   uuid.NewString,
	}
}

// Run performs one harvesting pass: projects first, then explicitly listed
// users, then organizations, each in configuration order.
func (h *Harvester) Run(ctx context.Context) (*domain.HarvestReport, error) {
	if h.store == nil {
		return nil, errors.New("graph store not configured")
	}

	report := domain.NewHarvestReport(h.newID(), h.policy.now())
	logger.Info("Starting harvest %s: %d projects, %d users, %d organizations",
		report.RunID, len(h.targets.Projects), len(h.targets.Users), len(h.targets.Organizations))

	if h.miners.Repositories {
		for _, project := range h.targets.Projects {
			if interrupted(ctx, "projects", project.String()) {
				return h.finish(report), ctx.Err()
			}
			h.harvestProject(ctx, project, report)
		}
	}

	// Explicitly configured users are always fetched, regardless of freshness.
	if h.miners.Users {
		for _, login := range h.targets.Users {
			if interrupted(ctx, "users", login) {
				return h.finish(report), ctx.Err()
			}
			h.harvestUser(ctx, login, report)
		}
	}

	if h.miners.Organizations {
		for _, org := range h.targets.Organizations {
			if interrupted(ctx, "organizations", org) {
				return h.finish(report), ctx.Err()
			}
			h.harvestOrganization(ctx, org, report)
		}
	}

	// Cancellation inside the last target leaves the loops above without an error.
	if err := ctx.Err(); err != nil {
		return h.finish(report), err
	}

	h.finish(report)
	logger.Info("Harvest %s complete: %d saved, %d skipped, %d absent, %d failed",
		report.RunID,
		report.Total(domain.OutcomeSaved),
		report.Total(domain.OutcomeSkipped),
		report.Total(domain.OutcomeAbsent),
		report.Total(domain.OutcomeFailed))
	return report, nil
}

func (h *Harvester) finish(report *domain.HarvestReport) *domain.HarvestReport {
	report.FinishedAt = h.policy.now()
	return report
}

// harvestProject runs every enabled repository phase for one project.
func (h *Harvester) harvestProject(ctx context.Context, project domain.ProjectRef, report *domain.HarvestReport) {
	logger.Section(project.String())

	// The newer generation supplies the canonical identity every later lookup keys off.
	repo, err := h.clients.Repositories.GetRepository(ctx, project.Owner, project.Name)
	if err != nil {
		h.fault(report, PhaseRepository, project.String(), err)
		return
	}
	ref := repo.Ref()

	if err := h.store.SaveRepository(ctx, *repo); err != nil {
		h.fault(report, PhaseRepository, ref.String(), fmt.Errorf("save repository: %w", err))
		return
	}
	report.Record(PhaseRepository, domain.OutcomeSaved)

	h.step(report, PhaseRepositoryMetadata, ref.String(), func() error {
		info, err := h.clients.LegacyRepositories.GetRepository(ctx, ref.Owner, ref.Name)
		if err != nil {
			return err
		}
		return h.store.SaveRepository(ctx, *info)
	})

	if h.miners.Collaborators {
		h.step(report, PhaseCollaborators, ref.String(), func() error {
			users, err := h.clients.LegacyRepositories.ListCollaborators(ctx, ref)
			if err != nil {
				return err
			}
			return h.store.SaveRepositoryCollaborators(ctx, ref, users)
		})
	}
	if h.miners.Contributors {
		h.step(report, PhaseContributors, ref.String(), func() error {
			users, err := h.clients.LegacyRepositories.ListContributors(ctx, ref)
			if err != nil {
				return err
			}
			return h.store.SaveRepositoryContributors(ctx, ref, users)
		})
	}
	if h.miners.Watchers {
		h.step(report, PhaseWatchers, ref.String(), func() error {
			users, err := h.clients.LegacyRepositories.ListWatchers(ctx, ref)
			if err != nil {
				return err
			}
			return h.store.SaveRepositoryWatchers(ctx, ref, users)
		})
	}
	if h.miners.Forks {
		h.step(report, PhaseForks, ref.String(), func() error {
			forks, err := h.clients.LegacyRepositories.ListForks(ctx, ref)
			if err != nil {
				return err
			}
			return h.store.SaveRepositoryForks(ctx, ref, forks)
		})
	}

	if h.miners.Issues {
		h.harvestIssues(ctx, ref, report)
	}
	if h.miners.PullRequests {
		h.harvestPullRequests(ctx, ref, report)
	}
	if h.miners.ProjectUsers {
		h.harvestProjectUsers(ctx, ref, report)
	}
}

// harvestIssues saves the issue list, then comments and events of every stale issue.
func (h *Harvester) harvestIssues(ctx context.Context, ref domain.ProjectRef, report *domain.HarvestReport) {
	issues, err := h.clients.Issues.ListIssues(ctx, ref)
	if err != nil {
		if domain.IsAbsent(err) {
			logger.Warn("No issues for repository %s - probably disabled", ref)
			report.Record(PhaseIssues, domain.OutcomeAbsent)
			return
		}
		h.fault(report, PhaseIssues, ref.String(), err)
		return
	}

	if err := h.store.SaveRepositoryIssues(ctx, ref, issues); err != nil {
		h.fault(report, PhaseIssues, ref.String(), fmt.Errorf("save issues: %w", err))
	} else {
		report.Record(PhaseIssues, domain.OutcomeSaved)
	}

	commentsAt := h.freshness(ctx, ref, "issue comments", h.store.IssueCommentsUpdatedAt)
	for _, issue := range issues {
		issueID := fmt.Sprintf("%s:%d", ref, issue.Number)
		if interrupted(ctx, PhaseIssueComments, issueID) {
			return
		}
		last := commentsAt[issue.Number]
		if !h.policy.NeedsRefresh(last, true) {
			logger.Debug("Skipping fetching comments for issue %s - recently updated %s", issueID, last)
			report.Record(PhaseIssueComments, domain.OutcomeSkipped)
			continue
		}
		logger.Debug("Pulling comments for issue: %s - %s", issueID, last)
		h.item(report, PhaseIssueComments, issueID, func() error {
			return h.fetchIssueComments(ctx, ref, issue.Number)
		})
	}

	eventsAt := h.freshness(ctx, ref, "issue events", h.store.IssueEventsUpdatedAt)
	for _, issue := range issues {
		issueID := fmt.Sprintf("%s:%d", ref, issue.Number)
		if interrupted(ctx, PhaseIssueEvents, issueID) {
			return
		}
		last := eventsAt[issue.Number]
		if !h.policy.NeedsRefresh(last, true) {
			logger.Debug("Skipping fetching events for issue %s - recently updated %s", issueID, last)
			report.Record(PhaseIssueEvents, domain.OutcomeSkipped)
			continue
		}
		logger.Debug("Pulling events for issue: %s - %s", issueID, last)
		h.item(report, PhaseIssueEvents, issueID, func() error {
			return h.fetchIssueEvents(ctx, ref, issue.Number)
		})
	}
}

// fetchIssueComments fetches the comments from both generations before
// persisting either, so a failed fetch leaves the comments mark untouched.
func (h *Harvester) fetchIssueComments(ctx context.Context, ref domain.ProjectRef, number int) error {
	v2, err := h.clients.LegacyIssues.ListIssueComments(ctx, ref, number)
	if err != nil && !domain.IsAbsent(err) {
		return fmt.Errorf("fetch v2 comments: %w", err)
	}
	v3, err3 := h.clients.Issues.ListIssueComments(ctx, ref, number)
	if err3 != nil && !domain.IsAbsent(err3) {
		return fmt.Errorf("fetch v3 comments: %w", err3)
	}
	if err != nil && err3 != nil {
		return errors.Join(err, err3)
	}

	if err == nil {
		if err := h.store.SaveIssueComments(ctx, ref, number, v2); err != nil {
			return fmt.Errorf("save v2 comments: %w", err)
		}
	}
	if err3 == nil {
		if err := h.store.SaveIssueComments(ctx, ref, number, v3); err != nil {
			return fmt.Errorf("save v3 comments: %w", err)
		}
	}
	return nil
}

// fetchIssueEvents mirrors fetchIssueComments for the events timeline.
func (h *Harvester) fetchIssueEvents(ctx context.Context, ref domain.ProjectRef, number int) error {
	v2, err := h.clients.LegacyIssues.ListIssueEvents(ctx, ref, number)
	if err != nil && !domain.IsAbsent(err) {
		return fmt.Errorf("fetch v2 events: %w", err)
	}
	v3, err3 := h.clients.Issues.ListIssueEvents(ctx, ref, number)
	if err3 != nil && !domain.IsAbsent(err3) {
		return fmt.Errorf("fetch v3 events: %w", err3)
	}
	if err != nil && err3 != nil {
		return errors.Join(err, err3)
	}
	logger.Trace("issue %s:%d events: v2=%d v3=%d", ref, number, len(v2), len(v3))

	if err == nil {
		if err := h.store.SaveIssueEvents(ctx, ref, number, v2); err != nil {
			return fmt.Errorf("save v2 events: %w", err)
		}
	}
	if err3 == nil {
		if err := h.store.SaveIssueEvents(ctx, ref, number, v3); err != nil {
			return fmt.Errorf("save v3 events: %w", err)
		}
	}
	return nil
}

// harvestPullRequests saves the pull request list, then the full detail of
// every pull request whose discussion is stale or was never recorded.
func (h *Harvester) harvestPullRequests(ctx context.Context, ref domain.ProjectRef, report *domain.HarvestReport) {
	requests, err := h.clients.PullRequests.ListPullRequests(ctx, ref)
	if err != nil {
		if domain.IsAbsent(err) {
			logger.Warn("No pull requests for repository %s - probably disabled", ref)
			report.Record(PhasePullRequests, domain.OutcomeAbsent)
			return
		}
		h.fault(report, PhasePullRequests, ref.String(), err)
		return
	}

	if err := h.store.SaveRepositoryPullRequests(ctx, ref, requests); err != nil {
		h.fault(report, PhasePullRequests, ref.String(), fmt.Errorf("save pull requests: %w", err))
	} else {
		report.Record(PhasePullRequests, domain.OutcomeSaved)
	}

	discussedAt := h.freshness(ctx, ref, "pull request discussions", h.store.PullRequestDiscussionsUpdatedAt)
	for _, request := range requests {
		requestID := fmt.Sprintf("%s:%d", ref, request.Number)
		if interrupted(ctx, PhasePullRequest, requestID) {
			return
		}
		if last, known := discussedAt[request.Number]; known && !h.policy.NeedsRefresh(last, true) {
			logger.Debug("Skipping fetching pull request %s - recently updated %s", requestID, last)
			report.Record(PhasePullRequest, domain.OutcomeSkipped)
			continue
		}
		h.item(report, PhasePullRequest, requestID, func() error {
			return h.fetchPullRequest(ctx, ref, request.Number)
		})
	}
}

// fetchPullRequest fetches one pull request from both generations; they carry
// different information, so both are persisted.
func (h *Harvester) fetchPullRequest(ctx context.Context, ref domain.ProjectRef, number int) error {
	v2, err := h.clients.LegacyPullRequests.GetPullRequest(ctx, ref, number)
	if err != nil && !domain.IsAbsent(err) {
		return fmt.Errorf("fetch v2 pull request: %w", err)
	}
	v3, err3 := h.clients.PullRequests.GetPullRequest(ctx, ref, number)
	if err3 != nil && !domain.IsAbsent(err3) {
		return fmt.Errorf("fetch v3 pull request: %w", err3)
	}
	if err != nil && err3 != nil {
		return errors.Join(err, err3)
	}

	if v2 != nil {
		if err := h.store.SavePullRequest(ctx, ref, *v2, true); err != nil {
			return fmt.Errorf("save v2 pull request: %w", err)
		}
	}
	if v3 != nil {
		if err := h.store.SavePullRequest(ctx, ref, *v3, true); err != nil {
			return fmt.Errorf("save v3 pull request: %w", err)
		}
	}
	return nil
}

// freshness reads a staleness map. A read failure is logged and treated as an
// empty map, which makes every item stale.
func (h *Harvester) freshness(
	ctx context.Context,
	ref domain.ProjectRef,
	what string,
	read func(context.Context, domain.ProjectRef) (map[int]time.Time, error),
) map[int]time.Time {
	saved, err := read(ctx, ref)
	if err != nil {
		logger.Error("Unable to read %s freshness for %s, refetching all: %v", what, ref, err)
		return map[int]time.Time{}
	}
	logger.Trace("%s freshness for %s: %d records", what, ref, len(saved))
	return saved
}

// step runs one independently failable fetch-and-save. Absent data is logged
// as a warning; other faults are logged as errors. Neither stops the caller.
func (h *Harvester) step(report *domain.HarvestReport, phase, subject string, fn func() error) domain.Outcome {
	err := fn()
	switch {
	case err == nil:
		report.Record(phase, domain.OutcomeSaved)
		return domain.OutcomeSaved
	case domain.IsAbsent(err):
		logger.Warn("No %s for %s: %v", phase, subject, err)
		report.Record(phase, domain.OutcomeAbsent)
		return domain.OutcomeAbsent
	default:
		h.fault(report, phase, subject, err)
		return domain.OutcomeFailed
	}
}

// item is step for per-item loops. It also contains panics raised while
// decoding a malformed response, so the loop moves on to the next item.
func (h *Harvester) item(report *domain.HarvestReport, phase, subject string, fn func() error) (out domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			h.fault(report, phase, subject, fmt.Errorf("panic: %v", r))
			out = domain.OutcomeFailed
		}
	}()
	return h.step(report, phase, subject, fn)
}

// interrupted reports whether ctx is done, naming the first item left unprocessed.
func interrupted(ctx context.Context, phase, next string) bool {
	if ctx.Err() == nil {
		return false
	}
	logger.Info("Harvest interrupted in %s before %s", phase, next)
	return true
}

func (h *Harvester) fault(report *domain.HarvestReport, phase, subject string, err error) {
	logger.Error("Error in %s for %s: %v", phase, subject, err)
	report.Record(phase, domain.OutcomeFailed)
}
