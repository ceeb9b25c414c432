// Package github implements the newer, typed generation of the GitHub API
// clients used by the harvester.
//
// # Architecture
//
// The package satisfies the driven ports [driven.RepositoryReader],
// [driven.IssueReader] and [driven.PullRequestReader]. It comprises:
//
//   - Client: wraps go-github with quota handling and error mapping
//   - RateLimiter: guards the shared quota of one token
//   - GetDocument / ListDocuments: raw JSON access used by the legacy package
//
// Every entity is converted into its domain type and tagged [domain.SourceV3].
//
// # Rate Limiting
//
// Two layers apply to every request:
//
//  1. Admission: the http.Client passed in Options is expected to carry an
//     intercept.Transport for the generation's throttle channel.
//
//  2. Quota: the RateLimiter monitors X-RateLimit-Remaining and
//     X-RateLimit-Reset. When fewer than the configured reserve remain it
//     waits for the reset. An optional token bucket paces requests proactively.
//
// # Error Handling
//
// API errors are returned as [APIError] wrapping a domain sentinel:
//
//   - 404: [domain.ErrNotFound]
//   - 410: [domain.ErrDisabled], e.g. issues switched off on a repository
//   - 403: [domain.ErrForbidden]
//
// Rate limit errors are returned as [RateLimitError] wrapping
// [domain.ErrRateLimited].
//
// # Example Usage
//
//	httpClient := intercept.NewClient(github.NewHTTPClient(ctx, token), thr, domain.ChannelV3)
//	client, err := github.NewClient(github.Options{HTTPClient: httpClient})
//	if err != nil {
//	    return err
//	}
//	issues, err := client.ListIssues(ctx, domain.ProjectRef{Owner: "octo", Name: "repo"})
package github
