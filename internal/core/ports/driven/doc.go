// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// Newer API generation (typed records):
//
//   - RepositoryReader: canonical repository identity
//   - IssueReader: issue lists, comments and events
//   - PullRequestReader: pull request lists and detail
//
// Older API generation (raw documents):
//
//   - RepositoryService, IssueService, PullRequestService
//   - UserService, GistService, OrganizationService
//
// Persistence:
//
//   - GraphStore: idempotent vertex/edge upserts plus the FreshnessReader
//     accessors consulted by the staleness policy
//   - GraphReader: the FreshnessReader accessors plus vertex counts, used
//     for inspection
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
