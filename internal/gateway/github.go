// Package gateway provides a gateway to the GitHub API, covering the App
// credential exchange and the Copilot usage report endpoints.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/aki-fujii/copilot-pr-metrics/internal/domain"
)

const (
	// reportPeriod is the reporting window of the deployment. It is a
	// configuration constant, not derived from the data.
	reportPeriod = "enterprise-28-day"

	// apiTimeout bounds the two authenticated API calls.
	apiTimeout = 30 * time.Second
	// shardTimeout bounds shard downloads, which may be large.
	shardTimeout = 60 * time.Second
)

// Fetcher defines the behavior of a gateway for fetching the usage report.
// The calls mirror the credential-exchange chain: the assertion buys an
// installation token, the token locates the report, the report links need
// no credentials at all.
type Fetcher interface {
	ExchangeInstallationToken(ctx context.Context, assertion string) (string, error)
	FetchReportManifest(ctx context.Context, accessToken string) (domain.ReportManifest, error)
	DownloadShards(ctx context.Context, manifest domain.ReportManifest) ([]domain.ReportShard, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	baseURL        *url.URL
	installationID int64
	enterprise     string
	shardClient    *http.Client
	logger         *slog.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(apiBase string, installationID int64, enterprise string, logger *slog.Logger) (Fetcher, error) {
	if !strings.HasSuffix(apiBase, "/") {
		apiBase += "/"
	}
	baseURL, err := url.Parse(apiBase)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", apiBase, err)
	}
	return &GitHubGateway{
		baseURL:        baseURL,
		installationID: installationID,
		enterprise:     enterprise,
		shardClient:    &http.Client{Timeout: shardTimeout},
		logger:         logger,
	}, nil
}

// newAPIClient builds a go-github client whose transport sends the given
// bearer credential and waits out secondary rate limits.
func (g *GitHubGateway) newAPIClient(bearer string) (*github.Client, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: bearer})
	httpClient := &http.Client{
		Timeout: apiTimeout,
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	client := github.NewClient(httpClient)
	client.BaseURL = g.baseURL
	return client, nil
}

// ExchangeInstallationToken trades the signed app assertion for a short-lived
// installation access token. Single attempt, no retries.
func (g *GitHubGateway) ExchangeInstallationToken(ctx context.Context, assertion string) (string, error) {
	g.logger.Debug("[1/3] Requesting installation access token")
	client, err := g.newAPIClient(assertion)
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("app/installations/%d/access_tokens", g.installationID)
	token, resp, err := client.Apps.CreateInstallationToken(ctx, g.installationID, nil)
	if err != nil {
		return "", g.wrapAPIError(endpoint, resp, err)
	}
	if token.GetToken() == "" {
		return "", &domain.ProtocolError{Endpoint: endpoint, Reason: "token field missing from response"}
	}
	g.logger.Debug("Completed installation token exchange")
	return token.GetToken(), nil
}

// FetchReportManifest retrieves the manifest of the latest usage report for
// the configured enterprise. A body without download_links is an empty
// manifest, not an error.
func (g *GitHubGateway) FetchReportManifest(ctx context.Context, accessToken string) (domain.ReportManifest, error) {
	g.logger.Debug("[2/3] Fetching usage report manifest", "period", reportPeriod)
	client, err := g.newAPIClient(accessToken)
	if err != nil {
		return domain.ReportManifest{}, err
	}
	endpoint := fmt.Sprintf("enterprises/%s/copilot/metrics/reports/%s/latest", g.enterprise, reportPeriod)
	req, err := client.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.ReportManifest{}, fmt.Errorf("building manifest request: %w", err)
	}
	var manifest domain.ReportManifest
	resp, err := client.Do(ctx, req, &manifest)
	if err != nil {
		return domain.ReportManifest{}, g.wrapAPIError(endpoint, resp, err)
	}
	g.logger.Debug("Completed manifest fetch", "links", len(manifest.DownloadLinks))
	return manifest, nil
}

// DownloadShards retrieves every shard listed in the manifest. The links are
// pre-signed, so no credential is attached. Downloads run concurrently but
// the result keeps manifest order. Any single failure aborts the whole batch.
func (g *GitHubGateway) DownloadShards(ctx context.Context, manifest domain.ReportManifest) ([]domain.ReportShard, error) {
	links := manifest.DownloadLinks
	if len(links) == 0 {
		g.logger.Debug("[3/3] Manifest is empty, skipping shard downloads")
		return []domain.ReportShard{}, nil
	}
	g.logger.Debug("[3/3] Downloading report shards", "count", len(links))

	shards := make([]domain.ReportShard, len(links))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, link := range links {
		i, link := i, link
		eg.Go(func() error {
			shard, err := g.downloadShard(egCtx, link)
			if err != nil {
				return err
			}
			shards[i] = shard
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	g.logger.Debug("Completed shard downloads")
	return shards, nil
}

func (g *GitHubGateway) downloadShard(ctx context.Context, link string) (domain.ReportShard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return domain.ReportShard{}, &domain.ShardFetchError{Link: link, Err: err}
	}
	resp, err := g.shardClient.Do(req)
	if err != nil {
		return domain.ReportShard{}, &domain.ShardFetchError{Link: link, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return domain.ReportShard{}, &domain.ShardFetchError{Link: link, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ReportShard{}, &domain.ShardFetchError{Link: link, Err: err}
	}
	var shard domain.ReportShard
	if err := json.Unmarshal(body, &shard); err != nil {
		return domain.ReportShard{}, &domain.ShardFetchError{Link: link, Err: err}
	}
	return shard, nil
}

// wrapAPIError maps go-github errors onto the domain taxonomy: non-2xx
// responses carry their status and message, a 2xx body that failed to decode
// is a protocol violation.
func (g *GitHubGateway) wrapAPIError(endpoint string, resp *github.Response, err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &domain.AuthExchangeError{
			Endpoint:   endpoint,
			StatusCode: ghErr.Response.StatusCode,
			Body:       ghErr.Message,
		}
	}
	if resp != nil && resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return &domain.ProtocolError{Endpoint: endpoint, Reason: err.Error()}
	}
	return fmt.Errorf("calling %s: %w", endpoint, err)
}
