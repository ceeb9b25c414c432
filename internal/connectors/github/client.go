package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// PerPage is the page size requested from every list endpoint.
	PerPage = 100
)

// Options configures a Client.
type Options struct {
	// HTTPClient carries authentication and, in production, the throttled
	// transport of one API generation. Nil means an unauthenticated client.
	HTTPClient *http.Client
	// BaseURL overrides https://api.github.com/, e.g. for GitHub Enterprise.
	BaseURL string
	// RateLimiter is shared between clients using the same token. Nil creates
	// a limiter with default settings.
	RateLimiter *RateLimiter
}

// Client wraps the go-github client with quota handling and error mapping.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
}

// NewHTTPClient returns an http.Client authenticating with a static access
// token. An empty token yields a plain client with the default timeout.
func NewHTTPClient(ctx context.Context, token string) *http.Client {
	if token == "" {
		return &http.Client{Timeout: DefaultTimeout}
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout
	return tc
}

// NewClient creates a GitHub API client.
func NewClient(opts Options) (*Client, error) {
	client := gh.NewClient(opts.HTTPClient)
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		client.BaseURL = u
	}

	rl := opts.RateLimiter
	if rl == nil {
		rl = NewRateLimiter(0, MinBuffer)
	}

	return &Client{gh: client, rateLimiter: rl}, nil
}

// GitHub returns the underlying go-github client.
func (c *Client) GitHub() *gh.Client {
	return c.gh
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// call waits for quota, performs one request and records the quota headers.
func call[T any](ctx context.Context, c *Client, operation string, fn func() (T, *gh.Response, error)) (T, error) {
	var zero T
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("rate limit wait: %w", err)
	}
	v, resp, err := fn()
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return zero, c.wrapError(err, operation)
	}
	return v, nil
}

// collect follows page numbers until the last page of a list endpoint.
func collect[T any](
	ctx context.Context, c *Client, operation string,
	fetch func(opts gh.ListOptions) ([]T, *gh.Response, error),
) ([]T, error) {
	var all []T
	opts := gh.ListOptions{PerPage: PerPage}

	for {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		page, resp, err := fetch(opts)
		c.updateRateLimitFromResponse(resp)
		if err != nil {
			return nil, c.wrapError(err, operation)
		}
		all = append(all, page...)

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   rateLimitErr.Rate.Reset.Time,
			Remaining: rateLimitErr.Rate.Remaining,
			Limit:     rateLimitErr.Rate.Limit,
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &RateLimitError{
			ResetAt:   time.Now().Add(abuseErr.GetRetryAfter()),
			Remaining: c.rateLimiter.Remaining(),
			Limit:     c.rateLimiter.Limit(),
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil && ghErr.Response.Request.URL != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return fmt.Errorf("%s: %w", operation, apiErr)
	}

	return fmt.Errorf("%s: %w", operation, err)
}

// GetDocument fetches one JSON object as an open map, every field included.
func (c *Client) GetDocument(ctx context.Context, path string) (map[string]any, error) {
	req, err := c.gh.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return call(ctx, c, "get "+path, func() (map[string]any, *gh.Response, error) {
		var doc map[string]any
		resp, err := c.gh.Do(ctx, req, &doc)
		return doc, resp, err
	})
}

// linkRegex matches Link header entries: <url>; rel="type".
var linkRegex = regexp.MustCompile(`<([^>]+)>;\s*rel="([^"]+)"`)

// nextLink extracts the "next" URL from a Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		m := linkRegex.FindStringSubmatch(strings.TrimSpace(part))
		if len(m) == 3 && m[2] == "next" {
			return m[1]
		}
	}
	return ""
}

// ListDocuments fetches every page of a JSON array endpoint, following the
// Link header, and returns the elements as open maps.
func (c *Client) ListDocuments(ctx context.Context, path string) ([]map[string]any, error) {
	var all []map[string]any

	next := path
	if !strings.Contains(next, "?") {
		next += fmt.Sprintf("?per_page=%d", PerPage)
	}

	for next != "" {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}

		req, err := c.gh.NewRequest(http.MethodGet, next, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		var link string
		page, err := call(ctx, c, "list "+path, func() ([]map[string]any, *gh.Response, error) {
			var docs []map[string]any
			resp, err := c.gh.Do(ctx, req, &docs)
			if resp != nil && resp.Response != nil {
				link = resp.Header.Get("Link")
			}
			return docs, resp, err
		})
		if err != nil {
			return nil, err
		}

		all = append(all, page...)
		next = nextLink(link)
	}

	return all, nil
}
