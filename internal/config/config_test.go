package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, DefaultSources(), cfg.Sources)
	assert.Equal(t, 15*time.Second, cfg.SourceTimeout)
	assert.Equal(t, "Mozilla/5.0 InsuranceNewsIntelligenceBot", cfg.UserAgent)
	assert.Equal(t, 400, cfg.MaxRawItems)
	assert.Equal(t, 200, cfg.MaxArticles)
	assert.Equal(t, 10*time.Minute, cfg.ResultTTL)
	assert.Equal(t, time.Duration(0), cfg.RefreshInterval)
	assert.Equal(t, 1, cfg.EnrichWorkers)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.GeocodeURL)
	assert.Equal(t, 5*time.Second, cfg.GeocodeTimeout)
	assert.Equal(t, time.Second, cfg.GeocodeInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.GeocodeTTL)
	assert.Equal(t, 5000, cfg.GeocodeCacheSize)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "enriched-news-articles", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("SOURCE_TIMEOUT", "3s")
	t.Setenv("USER_AGENT", "test-agent")
	t.Setenv("MAX_RAW_ITEMS", "100")
	t.Setenv("MAX_ARTICLES", "50")
	t.Setenv("RESULT_TTL", "1m")
	t.Setenv("REFRESH_INTERVAL", "5m")
	t.Setenv("ENRICH_WORKERS", "4")
	t.Setenv("GEOCODE_URL", "http://geocoder.local")
	t.Setenv("GEOCODE_TIMEOUT", "2s")
	t.Setenv("GEOCODE_INTERVAL", "0s")
	t.Setenv("GEOCODE_TTL", "24h")
	t.Setenv("GEOCODE_CACHE_SIZE", "10")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-topic")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 3*time.Second, cfg.SourceTimeout)
	assert.Equal(t, "test-agent", cfg.UserAgent)
	assert.Equal(t, 100, cfg.MaxRawItems)
	assert.Equal(t, 50, cfg.MaxArticles)
	assert.Equal(t, time.Minute, cfg.ResultTTL)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 4, cfg.EnrichWorkers)
	assert.Equal(t, "http://geocoder.local", cfg.GeocodeURL)
	assert.Equal(t, 2*time.Second, cfg.GeocodeTimeout)
	assert.Equal(t, time.Duration(0), cfg.GeocodeInterval)
	assert.Equal(t, 24*time.Hour, cfg.GeocodeTTL)
	assert.Equal(t, 10, cfg.GeocodeCacheSize)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidDurations(t *testing.T) {
	for _, key := range []string{"SOURCE_TIMEOUT", "RESULT_TTL", "GEOCODE_TIMEOUT", "GEOCODE_TTL"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "0s")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_NegativeRefreshInterval(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "-1m")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REFRESH_INTERVAL")
}

func TestLoad_InvalidInts(t *testing.T) {
	for _, key := range []string{"MAX_RAW_ITEMS", "MAX_ARTICLES", "ENRICH_WORKERS", "GEOCODE_CACHE_SIZE"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "0")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", testBroker)
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{testBroker}, cfg.KafkaBrokers)
}

func TestLoad_SourcesFile(t *testing.T) {
	path := writeSources(t, `
sources:
  - name: Artemis
    kind: feed
    prefix: art
    url: https://example.com/feed.xml
    category: Major Loss
  - name: Press Room
    kind: scrape
    prefix: pr
    url: https://example.com/news/
    host: example.com
    path_pattern: /news/
`)
	t.Setenv("SOURCES_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "Artemis", cfg.Sources[0].Name)
	assert.Equal(t, "Major Loss", cfg.Sources[0].Category)
	assert.Equal(t, KindScrape, cfg.Sources[1].Kind)
	assert.Equal(t, "/news/", cfg.Sources[1].PathPattern)
}

func TestLoad_SourcesFileMissing(t *testing.T) {
	t.Setenv("SOURCES_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOURCES_FILE")
}

func TestLoadSources_Validation(t *testing.T) {
	cases := map[string]string{
		"empty list":       "sources: []\n",
		"unknown kind":     "sources:\n  - {name: a, kind: api, prefix: a, url: http://x}\n",
		"missing url":      "sources:\n  - {name: a, kind: feed, prefix: a}\n",
		"missing prefix":   "sources:\n  - {name: a, kind: feed, url: http://x}\n",
		"bad category":     "sources:\n  - {name: a, kind: feed, prefix: a, url: http://x, category: weather}\n",
		"scrape no host":   "sources:\n  - {name: a, kind: scrape, prefix: a, url: http://x}\n",
		"scrape bad regex": "sources:\n  - {name: a, kind: scrape, prefix: a, url: http://x, host: x, path_pattern: '('}\n",
		"not yaml":         "sources: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSources(writeSources(t, body))
			assert.Error(t, err)
		})
	}
}

func TestDefaultSources_Valid(t *testing.T) {
	for _, s := range DefaultSources() {
		assert.NoError(t, s.Validate(), s.Prefix)
	}
}

func writeSources(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}
