package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Compositing configuration.
	CenterID         string
	AreaRegistryFile string
	ProfileFile      string
	OutputDir        string
	DumpPath         string
	CloudTypeDir     string

	// Object store fallback for UUID references.
	ObjectStoreURL       string
	ObjectStoreTimeout   time.Duration
	ObjectStoreCacheSize int

	// GRA coefficient lookup.
	GRADatabaseURL string
	GRALookback    time.Duration
	RedisAddr      string
	GRACacheTTL    time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file (ENV_FILE, default ".env") is read first when present; variables
// already set in the environment win.
func Load() (*Config, error) {
	if err := loadDotEnv(sharedcfg.EnvOrDefault("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	objectStoreTimeout, err := parsePositiveDuration("OBJECT_STORE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	graLookback, err := parsePositiveDuration("GRA_LOOKBACK", "12h")
	if err != nil {
		return nil, err
	}
	graCacheTTL, err := parsePositiveDuration("GRA_CACHE_TTL", "1h")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "composite-jobs"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "composite-products"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "radar-compositor"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		CenterID:         sharedcfg.EnvOrDefault("CENTER_ID", "ORG:82"),
		AreaRegistryFile: os.Getenv("AREA_REGISTRY_FILE"),
		ProfileFile:      os.Getenv("PROFILE_FILE"),
		OutputDir:        sharedcfg.EnvOrDefault("OUTPUT_DIR", "."),
		DumpPath:         os.Getenv("DUMP_PATH"),
		CloudTypeDir:     os.Getenv("CLOUD_TYPE_DIR"),

		ObjectStoreURL:       os.Getenv("OBJECT_STORE_URL"),
		ObjectStoreTimeout:   objectStoreTimeout,
		ObjectStoreCacheSize: parseCacheSize(),

		GRADatabaseURL: os.Getenv("GRA_DATABASE_URL"),
		GRALookback:    graLookback,
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		GRACacheTTL:    graCacheTTL,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.CenterID == "" {
		return nil, errors.New("CENTER_ID is required")
	}
	if cfg.RedisAddr != "" && cfg.GRADatabaseURL == "" {
		return nil, errors.New("REDIS_ADDR is set but GRA_DATABASE_URL is not set")
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize() int {
	if s := os.Getenv("OBJECT_STORE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}
