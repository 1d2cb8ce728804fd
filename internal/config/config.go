package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Ingestion.
	Sources       []SourceConfig
	SourceTimeout time.Duration
	UserAgent     string
	MaxRawItems   int
	MaxArticles   int

	// Result cache and background rebuilds.
	ResultTTL       time.Duration
	RefreshInterval time.Duration

	// Enrichment and geocoding.
	EnrichWorkers    int
	GeocodeURL       string
	GeocodeTimeout   time.Duration
	GeocodeInterval  time.Duration
	GeocodeTTL       time.Duration
	GeocodeCacheSize int

	// Optional Kafka sink.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sources := DefaultSources()
	if path := os.Getenv("SOURCES_FILE"); path != "" {
		if sources, err = LoadSources(path); err != nil {
			return nil, fmt.Errorf("SOURCES_FILE: %w", err)
		}
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		Sources:         sources,
		UserAgent:       sharedcfg.EnvOrDefault("USER_AGENT", "Mozilla/5.0 InsuranceNewsIntelligenceBot"),
		GeocodeURL:      sharedcfg.EnvOrDefault("GEOCODE_URL", "https://nominatim.openstreetmap.org"),
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "enriched-news-articles"),
	}

	durations := []struct {
		dst       *time.Duration
		key, def  string
		allowZero bool
	}{
		{&cfg.SourceTimeout, "SOURCE_TIMEOUT", "15s", false},
		{&cfg.ResultTTL, "RESULT_TTL", "10m", false},
		{&cfg.RefreshInterval, "REFRESH_INTERVAL", "0s", true},
		{&cfg.GeocodeTimeout, "GEOCODE_TIMEOUT", "5s", false},
		{&cfg.GeocodeInterval, "GEOCODE_INTERVAL", "1s", true},
		{&cfg.GeocodeTTL, "GEOCODE_TTL", "168h", false},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(d.key, d.def, d.allowZero); err != nil {
			return nil, err
		}
	}

	ints := []struct {
		dst *int
		key string
		def int
	}{
		{&cfg.MaxRawItems, "MAX_RAW_ITEMS", 400},
		{&cfg.MaxArticles, "MAX_ARTICLES", 200},
		{&cfg.EnrichWorkers, "ENRICH_WORKERS", 1},
		{&cfg.GeocodeCacheSize, "GEOCODE_CACHE_SIZE", 5000},
	}
	for _, n := range ints {
		if *n.dst, err = parsePositiveInt(n.key, n.def); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(v)
	}
	cfg.KafkaEnabled = len(cfg.KafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		cfg.KafkaEnabled = v == "true"
	}

	if len(cfg.Sources) == 0 {
		return nil, errors.New("at least one source is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when the sink is enabled")
	}

	return cfg, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}
