package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aki-fujii/copilot-pr-metrics/internal/domain"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
// It allows us to simulate the credential-exchange chain without making
// real API calls.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) ExchangeInstallationToken(ctx context.Context, assertion string) (string, error) {
	args := m.Called(ctx, assertion)
	return args.String(0), args.Error(1)
}

func (m *mockFetcher) FetchReportManifest(ctx context.Context, accessToken string) (domain.ReportManifest, error) {
	args := m.Called(ctx, accessToken)
	return args.Get(0).(domain.ReportManifest), args.Error(1)
}

func (m *mockFetcher) DownloadShards(ctx context.Context, manifest domain.ReportManifest) ([]domain.ReportShard, error) {
	args := m.Called(ctx, manifest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReportShard), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPipeline_Run(t *testing.T) {
	ctx := context.Background()
	manifest := domain.ReportManifest{DownloadLinks: []string{"https://blob/a", "https://blob/b"}}
	shards := []domain.ReportShard{
		shard(dayTotal("2024-01-01", 1, 1, 0, 0)),
		shard(dayTotal("2024-01-02", 2, 2, 0, 0)),
	}

	fetcher := new(mockFetcher)
	fetcher.On("ExchangeInstallationToken", mock.Anything, "signed-assertion").Return("ghs_token", nil)
	fetcher.On("FetchReportManifest", mock.Anything, "ghs_token").Return(manifest, nil)
	fetcher.On("DownloadShards", mock.Anything, manifest).Return(shards, nil)

	pipeline := NewPipeline(fetcher, discardLogger())
	report, err := pipeline.Run(ctx, "signed-assertion")

	require.NoError(t, err)
	assert.Equal(t, manifest, report.ReportLinks)
	assert.Equal(t, shards, report.Reports)
	fetcher.AssertExpectations(t)
}

// TestPipeline_Run_ExchangeFailureHaltsChain verifies the sequencing
// invariant: a failed token exchange means no manifest or shard call is
// ever attempted.
func TestPipeline_Run_ExchangeFailureHaltsChain(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("ExchangeInstallationToken", mock.Anything, "signed-assertion").
		Return("", &domain.AuthExchangeError{Endpoint: "access_tokens", StatusCode: 401, Body: "Bad credentials"})

	pipeline := NewPipeline(fetcher, discardLogger())
	report, err := pipeline.Run(context.Background(), "signed-assertion")

	assert.Nil(t, report)
	var exchangeErr *domain.AuthExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, 401, exchangeErr.StatusCode)
	fetcher.AssertNotCalled(t, "FetchReportManifest", mock.Anything, mock.Anything)
	fetcher.AssertNotCalled(t, "DownloadShards", mock.Anything, mock.Anything)
}

func TestPipeline_Run_ManifestFailureHaltsChain(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("ExchangeInstallationToken", mock.Anything, "signed-assertion").Return("ghs_token", nil)
	fetcher.On("FetchReportManifest", mock.Anything, "ghs_token").
		Return(domain.ReportManifest{}, errors.New("network down"))

	pipeline := NewPipeline(fetcher, discardLogger())
	report, err := pipeline.Run(context.Background(), "signed-assertion")

	assert.Nil(t, report)
	assert.Error(t, err)
	fetcher.AssertNotCalled(t, "DownloadShards", mock.Anything, mock.Anything)
}

func TestPipeline_Run_ShardFailureAborts(t *testing.T) {
	manifest := domain.ReportManifest{DownloadLinks: []string{"https://blob/a"}}

	fetcher := new(mockFetcher)
	fetcher.On("ExchangeInstallationToken", mock.Anything, "signed-assertion").Return("ghs_token", nil)
	fetcher.On("FetchReportManifest", mock.Anything, "ghs_token").Return(manifest, nil)
	fetcher.On("DownloadShards", mock.Anything, manifest).
		Return(nil, &domain.ShardFetchError{Link: "https://blob/a", Err: errors.New("unexpected status 500")})

	pipeline := NewPipeline(fetcher, discardLogger())
	report, err := pipeline.Run(context.Background(), "signed-assertion")

	assert.Nil(t, report)
	var shardErr *domain.ShardFetchError
	assert.ErrorAs(t, err, &shardErr)
}

// TestPipeline_Run_EmptyManifest covers the designed terminal state: the
// pipeline succeeds with an empty report that downstream stages must treat
// as "no data".
func TestPipeline_Run_EmptyManifest(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("ExchangeInstallationToken", mock.Anything, "signed-assertion").Return("ghs_token", nil)
	fetcher.On("FetchReportManifest", mock.Anything, "ghs_token").Return(domain.ReportManifest{}, nil)
	fetcher.On("DownloadShards", mock.Anything, domain.ReportManifest{}).Return([]domain.ReportShard{}, nil)

	pipeline := NewPipeline(fetcher, discardLogger())
	report, err := pipeline.Run(context.Background(), "signed-assertion")

	require.NoError(t, err)
	assert.Empty(t, report.ReportLinks.DownloadLinks)
	assert.Empty(t, report.Reports)
	assert.Empty(t, BuildTimeSeries(report.Reports))
}
