// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"log/slog"

	"github.com/aki-fujii/copilot-pr-metrics/internal/domain"
	"github.com/aki-fujii/copilot-pr-metrics/internal/gateway"
)

// Pipeline runs the credential-exchange chain: assertion to installation
// token, token to report manifest, manifest to downloaded shards. The stages
// are strictly sequential since each output is the next stage's input.
type Pipeline struct {
	fetcher gateway.Fetcher
	logger  *slog.Logger
}

// NewPipeline creates a new Pipeline instance.
func NewPipeline(fetcher gateway.Fetcher, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Run executes the chain with the given signed assertion and returns the
// usage report: the manifest plus every shard it referenced. Any stage
// failure halts the run immediately; nothing downstream is attempted.
func (p *Pipeline) Run(ctx context.Context, assertion string) (*domain.UsageReport, error) {
	p.logger.Debug("Usecase: starting usage report pipeline")

	accessToken, err := p.fetcher.ExchangeInstallationToken(ctx, assertion)
	if err != nil {
		return nil, err
	}

	manifest, err := p.fetcher.FetchReportManifest(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	shards, err := p.fetcher.DownloadShards(ctx, manifest)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Usecase: pipeline complete", "shards", len(shards))
	return &domain.UsageReport{
		ReportLinks: manifest,
		Reports:     shards,
	}, nil
}
