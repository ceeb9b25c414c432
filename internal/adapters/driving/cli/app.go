package cli

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ghminer/internal/connectors/github"
	"github.com/custodia-labs/ghminer/internal/connectors/github/legacy"
	"github.com/custodia-labs/ghminer/internal/core/domain"
	"github.com/custodia-labs/ghminer/internal/core/services"
	"github.com/custodia-labs/ghminer/internal/intercept"
	"github.com/custodia-labs/ghminer/internal/logger"
	"github.com/custodia-labs/ghminer/internal/throttle"
)

// newThrottle registers the budget of every configured channel.
func newThrottle(limits map[string]domain.ChannelLimit) *throttle.Throttle {
	t := throttle.New()
	for id, l := range limits {
		t.Configure(id, l.MaxCalls, l.Interval)
		if l.Enabled() {
			logger.Debug("Throttle %s: %d calls per %s", id, l.MaxCalls, l.Interval)
		} else {
			logger.Debug("Throttle %s: disabled", id)
		}
	}
	return t
}

// newClients builds the remote clients of both API generations. Each
// generation sends its requests through its own throttle channel; both share
// one quota guard, which is returned, since they spend the same token.
func newClients(
	ctx context.Context, cfg domain.GitHubConfig, admit intercept.Admitter,
) (services.HarvestClients, *github.RateLimiter, error) {
	base := github.NewHTTPClient(ctx, cfg.Token)
	if cfg.Token == "" {
		logger.Warn("No GitHub token configured, requests are unauthenticated")
	}
	limiter := github.NewRateLimiter(cfg.ProactiveRate, cfg.MinRemaining)

	v3, err := github.NewClient(github.Options{
		HTTPClient:  intercept.NewClient(base, admit, domain.ChannelV3),
		BaseURL:     cfg.BaseURL,
		RateLimiter: limiter,
	})
	if err != nil {
		return services.HarvestClients{}, nil, fmt.Errorf("creating %s client: %w", domain.ChannelV3, err)
	}

	v2api, err := github.NewClient(github.Options{
		HTTPClient:  intercept.NewClient(base, admit, domain.ChannelV2),
		BaseURL:     cfg.BaseURL,
		RateLimiter: limiter,
	})
	if err != nil {
		return services.HarvestClients{}, nil, fmt.Errorf("creating %s client: %w", domain.ChannelV2, err)
	}
	v2 := legacy.New(v2api)

	return services.HarvestClients{
		Repositories:       v3,
		Issues:             v3,
		PullRequests:       v3,
		LegacyRepositories: v2,
		LegacyIssues:       v2,
		LegacyPullRequests: v2,
		Users:              v2,
		Gists:              v2,
		Organizations:      v2,
	}, limiter, nil
}
