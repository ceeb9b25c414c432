package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/ghminer/internal/core/domain"
	"github.com/custodia-labs/ghminer/internal/logger"
)

// harvestProjectUsers refreshes every user already known for the project whose
// last full update is stale or missing.
func (h *Harvester) harvestProjectUsers(ctx context.Context, ref domain.ProjectRef, report *domain.HarvestReport) {
	known, err := h.store.ProjectUsersLastFullUpdate(ctx, ref)
	if err != nil {
		h.fault(report, PhaseProjectUsers, ref.String(), fmt.Errorf("read project users: %w", err))
		return
	}

	logins := make([]string, 0, len(known))
	for login := range known {
		logins = append(logins, login)
	}
	sort.Strings(logins)

	for i, login := range logins {
		if interrupted(ctx, PhaseProjectUsers, login) {
			return
		}
		if strings.TrimSpace(login) == "" {
			logger.Warn("null/empty username for %s! continuing", ref)
			continue
		}
		last := known[login]
		if !h.policy.NeedsRefresh(last, true) {
			logger.Debug("Fetching %s user %d/%d: %s needs no update", ref, i+1, len(logins), login)
			report.Record(PhaseProjectUsers, domain.OutcomeSkipped)
			continue
		}
		logger.Debug("Fetching %s user %d/%d: %s", ref, i+1, len(logins), login)
		report.Record(PhaseProjectUsers, h.harvestUser(ctx, login, report))
	}
}

// harvestUser fetches a user's relations, repositories and gists, then the
// profile. The profile is the user's last-updated marker, so it is saved last
// and only when every earlier sub-fetch succeeded or was merely absent. The
// returned outcome is that of the profile.
func (h *Harvester) harvestUser(ctx context.Context, login string, report *domain.HarvestReport) domain.Outcome {
	failed := false
	track := func(phase string, fn func() error) {
		if h.item(report, phase, login, fn) == domain.OutcomeFailed {
			failed = true
		}
	}

	track(PhaseFollowers, func() error {
		followers, err := h.clients.Users.ListFollowers(ctx, login)
		if err != nil {
			return err
		}
		return h.store.SaveUserFollowers(ctx, login, followers)
	})

	track(PhaseFollowing, func() error {
		following, err := h.clients.Users.ListFollowing(ctx, login)
		if err != nil {
			return err
		}
		return h.store.SaveUserFollowing(ctx, login, following)
	})

	track(PhaseWatched, func() error {
		watched, err := h.clients.Users.ListWatchedRepositories(ctx, login)
		if err != nil {
			return err
		}
		return h.store.SaveUserWatchedRepositories(ctx, login, watched)
	})

	track(PhaseUserRepositories, func() error {
		repos, err := h.clients.LegacyRepositories.ListUserRepositories(ctx, login)
		if err != nil {
			return err
		}
		return h.store.SaveUserRepositories(ctx, login, repos)
	})

	if h.miners.Gists {
		track(PhaseGists, func() error {
			gists, err := h.clients.Gists.ListUserGists(ctx, login)
			if err != nil {
				return err
			}
			return h.store.SaveUserGists(ctx, login, gists)
		})
	}

	if failed {
		logger.Warn("Not marking user %s as updated: an earlier fetch failed", login)
		report.Record(PhaseUser, domain.OutcomeFailed)
		return domain.OutcomeFailed
	}

	return h.item(report, PhaseUser, login, func() error {
		user, err := h.clients.Users.GetUser(ctx, login)
		if err != nil {
			return err
		}
		return h.store.SaveUser(ctx, *user, true)
	})
}

// harvestOrganization saves organization info, public members and public
// repositories. Teams and owners need administrative rights and are never fetched.
func (h *Harvester) harvestOrganization(ctx context.Context, org string, report *domain.HarvestReport) {
	logger.Info("Fetching organization: %s", org)

	h.step(report, PhaseOrganization, org, func() error {
		info, err := h.clients.Organizations.GetOrganization(ctx, org)
		if err != nil {
			return err
		}
		return h.store.SaveOrganization(ctx, *info)
	})

	h.step(report, PhaseOrgMembers, org, func() error {
		members, err := h.clients.Organizations.ListPublicMembers(ctx, org)
		if err != nil {
			return err
		}
		return h.store.SaveOrganizationPublicMembers(ctx, org, members)
	})

	h.step(report, PhaseOrgRepositories, org, func() error {
		repos, err := h.clients.Organizations.ListPublicRepositories(ctx, org)
		if err != nil {
			return err
		}
		return h.store.SaveOrganizationPublicRepositories(ctx, org, repos)
	})
}
