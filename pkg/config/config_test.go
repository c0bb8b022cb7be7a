package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaultsAndCatalog(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.True(t, c.Server.CORS)
	assert.Equal(t, 5*time.Minute, c.Refresh.Markets.Interval)
	assert.Equal(t, time.Minute, c.Refresh.Prices.Interval)
	assert.Equal(t, 50, c.Refresh.Prices.Limit)
	assert.Equal(t, "public, s-maxage=60, stale-while-revalidate=300", c.Relay.CacheControl)
	assert.Equal(t, float64(30), c.RateLimit.Relay.Capacity)
	assert.Len(t, c.Catalog.Templates, 3)
	assert.Len(t, c.Catalog.SimulatorAssets, 7)
}

func TestParseExplicitFalseWinsOverDefault(t *testing.T) {
	c, err := Parse([]byte("environment: test\nserver:\n  cors: false\nstream:\n  enabled: false\n"))
	require.NoError(t, err)
	assert.False(t, c.Server.CORS)
	assert.False(t, c.Stream.Enabled)
}

func TestOrigins(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, c.Origins())

	c, err = Parse([]byte("environment: test\nserver:\n  allow_origins: [\"https://dash.example\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://dash.example"}, c.Origins())

	c.Server.CORS = false
	assert.Nil(t, c.Origins())
}

func TestParseRejectsTemplateNotSummingTo100(t *testing.T) {
	doc := `
environment: test
catalog:
  templates:
    - key: broken
      name: Broken
      allocations:
        - { symbol: BTC, percentage: 60 }
        - { symbol: ETH, percentage: 30 }
  simulator_assets:
    - { id: bitcoin, symbol: BTC, name: Bitcoin }
  lookback_windows:
    - { label: 1 month, days: 30 }
  listing_sizes: [10]
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 90")
}

func TestParseRejectsListingLimitOutsideCatalog(t *testing.T) {
	_, err := Parse([]byte("environment: test\nrefresh:\n  markets:\n    limit: 7\n"))
	require.Error(t, err)
}

func TestValidateKafkaRequiresBrokers(t *testing.T) {
	_, err := Parse([]byte("environment: test\nkafka:\n  enabled: true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka.brokers")
}

func TestLoadWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o644))

	t.Setenv("COINGECKO_API_KEY", "demo-key")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "demo-key", c.CoinGecko.APIKey)
	assert.Equal(t, 9090, c.Server.Port)
	assert.True(t, c.Cache.Redis.Enabled)
	assert.Equal(t, "redis", c.Cache.Redis.Host)
	assert.Equal(t, 6380, c.Cache.Redis.Port)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
