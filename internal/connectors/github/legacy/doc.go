// Package legacy implements the older generation of the GitHub API clients.
//
// The older generation exposes untyped documents: every response is decoded
// into an open map and kept whole as the entity's Properties, so nothing the
// API returns is lost. Identity fields are lifted out into the domain types.
// Every entity is tagged [domain.SourceV2].
//
// The client satisfies [driven.RepositoryService], [driven.IssueService],
// [driven.PullRequestService], [driven.UserService], [driven.GistService] and
// [driven.OrganizationService]. Every list follows the Link header to the last
// page.
package legacy
