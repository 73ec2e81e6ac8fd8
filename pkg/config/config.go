// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Postgres, Kafka, Redis, Indexer, Search, Proximity, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Indexer   IndexerConfig   `yaml:"indexer"`
	Search    SearchConfig    `yaml:"search"`
	Proximity ProximityConfig `yaml:"proximity"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters. The document store
// is optional; services run without it when Enabled is false.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	DocumentIngest string `yaml:"documentIngest"`
	IndexComplete  string `yaml:"indexComplete"`
}

// RedisConfig holds Redis connection and caching parameters. An empty Addr
// disables the result cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// IndexerConfig controls the indexing engine's memory threshold, flush
// interval and shard layout.
type IndexerConfig struct {
	DataDir        string        `yaml:"dataDir"`
	SegmentMaxSize int64         `yaml:"segmentMaxSize"`
	FlushInterval  time.Duration `yaml:"flushInterval"`
	NumShards      int           `yaml:"numShards"`
}

// SearchConfig controls query execution limits and timeouts.
type SearchConfig struct {
	MaxResults      int           `yaml:"maxResults"`
	DefaultLimit    int           `yaml:"defaultLimit"`
	TimeoutPerShard time.Duration `yaml:"timeoutPerShard"`
}

// ProximityConfig sets the default window parameters of the minwin weighting
// and summarizer. Boost scales the proximity weight before it is added to
// the BM25 score.
type ProximityConfig struct {
	MaxWindowSize    int     `yaml:"maxWindowSize"`
	MinCardinality   int     `yaml:"minCardinality"`
	ForwardIndexType string  `yaml:"forwardIndexType"`
	Boost            float64 `yaml:"boost"`
	Summaries        bool    `yaml:"summaries"`
	Trace            bool    `yaml:"trace"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with defaults for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  10 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "proximity",
			User:            "proximity",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "proximity-group",
			Topics: KafkaTopics{
				DocumentIngest: "document-ingest",
				IndexComplete:  "index.complete",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Indexer: IndexerConfig{
			DataDir:        "data/index",
			SegmentMaxSize: 32 << 20,
			FlushInterval:  30 * time.Second,
			NumShards:      4,
		},
		Search: SearchConfig{
			MaxResults:      100,
			DefaultLimit:    10,
			TimeoutPerShard: 2 * time.Second,
		},
		Proximity: ProximityConfig{
			MaxWindowSize:    1000,
			ForwardIndexType: "orig",
			Boost:            1.0,
			Summaries:        true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	if c.Indexer.NumShards <= 0 {
		return fmt.Errorf("indexer.numShards %d: %w: must be positive", c.Indexer.NumShards, apperrors.ErrInvalidParameter)
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxResults < c.Search.DefaultLimit {
		return fmt.Errorf("search limits %d/%d: %w", c.Search.DefaultLimit, c.Search.MaxResults, apperrors.ErrInvalidParameter)
	}
	if c.Proximity.MaxWindowSize <= 0 {
		return fmt.Errorf("proximity.maxWindowSize %d: %w: must be a positive integer", c.Proximity.MaxWindowSize, apperrors.ErrInvalidParameter)
	}
	if c.Proximity.MinCardinality < 0 {
		return fmt.Errorf("proximity.minCardinality %d: %w: must be a non-negative integer", c.Proximity.MinCardinality, apperrors.ErrInvalidParameter)
	}
	if c.Proximity.Boost < 0 {
		return fmt.Errorf("proximity.boost %v: %w: must not be negative", c.Proximity.Boost, apperrors.ErrInvalidParameter)
	}
	return nil
}

// applyEnvOverrides reads PS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setInt("PS_SERVER_PORT", &cfg.Server.Port)
	setBool("PS_POSTGRES_ENABLED", &cfg.Postgres.Enabled)
	setString("PS_POSTGRES_HOST", &cfg.Postgres.Host)
	setInt("PS_POSTGRES_PORT", &cfg.Postgres.Port)
	setString("PS_POSTGRES_DATABASE", &cfg.Postgres.Database)
	setString("PS_POSTGRES_USER", &cfg.Postgres.User)
	setString("PS_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	setString("PS_POSTGRES_SSLMODE", &cfg.Postgres.SSLMode)
	if v := os.Getenv("PS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	setString("PS_REDIS_ADDR", &cfg.Redis.Addr)
	setString("PS_REDIS_PASSWORD", &cfg.Redis.Password)
	setString("PS_INDEXER_DATA_DIR", &cfg.Indexer.DataDir)
	setInt("PS_INDEXER_NUM_SHARDS", &cfg.Indexer.NumShards)
	setInt("PS_PROXIMITY_MAX_WINDOW_SIZE", &cfg.Proximity.MaxWindowSize)
	setInt("PS_PROXIMITY_MIN_CARDINALITY", &cfg.Proximity.MinCardinality)
	setString("PS_PROXIMITY_FORWARD_INDEX_TYPE", &cfg.Proximity.ForwardIndexType)
	if v := os.Getenv("PS_PROXIMITY_BOOST"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Proximity.Boost = f
		}
	}
	setBool("PS_PROXIMITY_SUMMARIES", &cfg.Proximity.Summaries)
	setBool("PS_PROXIMITY_TRACE", &cfg.Proximity.Trace)
	setString("PS_LOGGING_LEVEL", &cfg.Logging.Level)
	setString("PS_LOGGING_FORMAT", &cfg.Logging.Format)
}
