package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/teampulse/internal/performance/application"
	"github.com/felixgeelhaar/teampulse/internal/performance/application/queries"
	"github.com/felixgeelhaar/teampulse/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/teampulse/pkg/config"
	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

const sampleRecords = `{
  "leaders": [
    {"id": "11111111-1111-1111-1111-111111111111", "first_name": "Ana", "last_name": "North", "team_name": "North"}
  ],
  "workers": [
    {"id": "22222222-2222-2222-2222-222222222222", "first_name": "Ben", "last_name": "Stone", "team_leader_id": "11111111-1111-1111-1111-111111111111", "active": true}
  ],
  "assignments": [
    {"id": "33333333-3333-3333-3333-333333333333", "worker_id": "22222222-2222-2222-2222-222222222222",
     "team_leader_id": "11111111-1111-1111-1111-111111111111", "assigned_date": "2024-03-05T08:00:00Z",
     "status": "completed", "completed_at": "2024-03-05T10:00:00Z"}
  ]
}`

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:                    "test",
		LocalMode:                 true,
		DatabaseDriver:            "sqlite",
		SQLitePath:                filepath.Join(t.TempDir(), "teampulse.db"),
		CacheBackend:              config.CacheBackendMemory,
		PublishInsights:           true,
		InsightRoutingKey:         "analytics.insight",
		AnalyticsCacheTTL:         time.Minute,
		AnalyticsRefreshInterval:  time.Minute,
		AnalyticsFilterDebounce:   10 * time.Millisecond,
		AnalyticsFetchConcurrency: 2,
		FetchBreakerThreshold:     3,
		FetchBreakerTimeout:       time.Second,
	}
}

func TestLocalModeContainer(t *testing.T) {
	ctx := context.Background()
	c, err := NewContainer(ctx, localConfig(t), observability.DiscardLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.DBConn)
	assert.Nil(t, c.RedisClient)
	assert.IsType(t, &application.MemoryStore{}, c.Cache)
	require.NotNil(t, c.Bus, "local mode publishes through the in-process bus")
	assert.Same(t, c.Bus, c.EventPublisher)

	var refreshed []string
	c.Bus.Subscribe("analytics.refreshed", func(_ context.Context, key string, _ []byte) error {
		refreshed = append(refreshed, key)
		return nil
	})

	stats, err := c.RecordWriter.ImportJSON(ctx, strings.NewReader(sampleRecords))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total())

	filter := application.DateFilter(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	result, err := c.Aggregator.Refresh(ctx, filter)
	require.NoError(t, err)
	require.Len(t, result.Teams, 1)
	assert.Equal(t, 1, result.Metrics.TotalAssignments)
	assert.Equal(t, []string{"analytics.refreshed"}, refreshed)

	ranking, err := c.GetWorkerRankingHandler.Handle(ctx, queries.GetWorkerRankingQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, ranking.Total)

	health := c.Health.GetOverallHealth(ctx)
	assert.Equal(t, observability.HealthStatusHealthy, health.Status)
}

func TestContainer_PublishingDisabled(t *testing.T) {
	cfg := localConfig(t)
	cfg.PublishInsights = false

	c, err := NewContainer(context.Background(), cfg, observability.DiscardLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Bus)
	assert.IsType(t, &eventbus.NoopPublisher{}, c.EventPublisher)
}

func TestContainer_RedisFallbackInDevelopment(t *testing.T) {
	cfg := localConfig(t)
	cfg.AppEnv = "development"
	cfg.CacheBackend = config.CacheBackendRedis
	cfg.RedisURL = "not a url"

	c, err := NewContainer(context.Background(), cfg, observability.DiscardLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.RedisClient)
	assert.IsType(t, &application.MemoryStore{}, c.Cache)
}

func TestContainer_RedisRequiredOutsideDevelopment(t *testing.T) {
	cfg := localConfig(t)
	cfg.AppEnv = "production"
	cfg.CacheBackend = config.CacheBackendRedis
	cfg.RedisURL = "not a url"

	_, err := NewContainer(context.Background(), cfg, observability.DiscardLogger())
	assert.ErrorContains(t, err, "Redis URL")
}
