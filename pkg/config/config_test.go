package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnvVars clears all teampulse-related environment variables.
func clearEnvVars() {
	envVars := []string{
		"APP_ENV", "LOG_LEVEL",
		"DATABASE_URL", "DATABASE_DRIVER", "SQLITE_PATH",
		"REDIS_URL", "ANALYTICS_CACHE_BACKEND",
		"RABBITMQ_URL", "ANALYTICS_PUBLISH_INSIGHTS", "ANALYTICS_INSIGHT_ROUTING_KEY",
		"ANALYTICS_CACHE_TTL", "ANALYTICS_REFRESH_INTERVAL", "ANALYTICS_FILTER_DEBOUNCE",
		"ANALYTICS_FETCH_CONCURRENCY", "ANALYTICS_GRACE_BONUS",
		"FETCH_BREAKER_THRESHOLD", "FETCH_BREAKER_TIMEOUT",
		"WORKER_HEALTH_ADDR", "MCP_ADDR", "MCP_AUTH_TOKEN",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)

	// Local mode is enabled by default when no DATABASE_URL is set
	assert.True(t, cfg.LocalMode)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Contains(t, cfg.SQLitePath, "teampulse.db")

	assert.Equal(t, CacheBackendMemory, cfg.CacheBackend)
	assert.False(t, cfg.PublishInsights)
	assert.Equal(t, "analytics.insight", cfg.InsightRoutingKey)

	assert.Equal(t, 30*time.Second, cfg.AnalyticsCacheTTL)
	assert.Equal(t, 30*time.Second, cfg.AnalyticsRefreshInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.AnalyticsFilterDebounce)
	assert.Equal(t, 8, cfg.AnalyticsFetchConcurrency)
	assert.Zero(t, cfg.AnalyticsGraceBonus)

	assert.Equal(t, 5, cfg.FetchBreakerThreshold)
	assert.Equal(t, 30*time.Second, cfg.FetchBreakerTimeout)

	assert.Equal(t, "0.0.0.0:8081", cfg.WorkerHealthAddr)
	assert.Equal(t, "0.0.0.0:8082", cfg.MCPAddr)
	assert.Empty(t, cfg.MCPAuthToken)
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("APP_ENV", "production")
	os.Setenv("DATABASE_URL", "postgres://u:p@db:5432/teampulse")
	os.Setenv("ANALYTICS_CACHE_BACKEND", "Redis")
	os.Setenv("ANALYTICS_PUBLISH_INSIGHTS", "true")
	os.Setenv("ANALYTICS_CACHE_TTL", "1m")
	os.Setenv("ANALYTICS_FILTER_DEBOUNCE", "100ms")
	os.Setenv("ANALYTICS_FETCH_CONCURRENCY", "3")
	os.Setenv("ANALYTICS_GRACE_BONUS", "2.5")
	os.Setenv("MCP_AUTH_TOKEN", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
	assert.False(t, cfg.LocalMode)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, CacheBackendRedis, cfg.CacheBackend)
	assert.True(t, cfg.PublishInsights)
	assert.Equal(t, time.Minute, cfg.AnalyticsCacheTTL)
	assert.Equal(t, 100*time.Millisecond, cfg.AnalyticsFilterDebounce)
	assert.Equal(t, 3, cfg.AnalyticsFetchConcurrency)
	assert.Equal(t, 2.5, cfg.AnalyticsGraceBonus)
	assert.Equal(t, "secret", cfg.MCPAuthToken)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("ANALYTICS_CACHE_TTL", "soon")
	os.Setenv("ANALYTICS_FETCH_CONCURRENCY", "many")
	os.Setenv("ANALYTICS_PUBLISH_INSIGHTS", "perhaps")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.AnalyticsCacheTTL)
	assert.Equal(t, 8, cfg.AnalyticsFetchConcurrency)
	assert.False(t, cfg.PublishInsights)
}

func TestLoad_RejectsNonPositiveSettings(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("ANALYTICS_REFRESH_INTERVAL", "0s")
	os.Setenv("FETCH_BREAKER_THRESHOLD", "-1")

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "ANALYTICS_REFRESH_INTERVAL")
	assert.Contains(t, err.Error(), "FETCH_BREAKER_THRESHOLD")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DatabaseDriver:            "sqlite",
			CacheBackend:              CacheBackendMemory,
			AnalyticsCacheTTL:         time.Second,
			AnalyticsRefreshInterval:  time.Second,
			AnalyticsFilterDebounce:   time.Millisecond,
			AnalyticsFetchConcurrency: 1,
			FetchBreakerThreshold:     1,
			FetchBreakerTimeout:       time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero ttl", mutate: func(c *Config) { c.AnalyticsCacheTTL = 0 }, wantErr: "ANALYTICS_CACHE_TTL"},
		{name: "negative debounce", mutate: func(c *Config) { c.AnalyticsFilterDebounce = -time.Second }, wantErr: "ANALYTICS_FILTER_DEBOUNCE"},
		{name: "zero concurrency", mutate: func(c *Config) { c.AnalyticsFetchConcurrency = 0 }, wantErr: "ANALYTICS_FETCH_CONCURRENCY"},
		{name: "grace bonus above cap", mutate: func(c *Config) { c.AnalyticsGraceBonus = 6 }, wantErr: "ANALYTICS_GRACE_BONUS"},
		{name: "unknown driver", mutate: func(c *Config) { c.DatabaseDriver = "mysql" }, wantErr: "DATABASE_DRIVER"},
		{name: "postgres without url", mutate: func(c *Config) { c.DatabaseDriver = "postgres" }, wantErr: "DATABASE_URL"},
		{name: "unknown cache backend", mutate: func(c *Config) { c.CacheBackend = "memcached" }, wantErr: "ANALYTICS_CACHE_BACKEND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
