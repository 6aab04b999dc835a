package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	pkgstrings "abcretail/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr      string `yaml:"addr"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Blob     BlobConfig     `yaml:"blob"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Queue    QueueConfig    `yaml:"queue"`
	Archive  ArchiveConfig  `yaml:"archive"`
}

// RedisConfig configures the Redis client backing the queue channels.
// An empty URL selects the in-memory queue backend.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PostgresConfig configures the entity store. An empty DSN selects the
// in-memory store.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// BlobConfig selects and configures the blob driver: memory, fs or s3.
type BlobConfig struct {
	Driver          string        `yaml:"driver"`
	Root            string        `yaml:"root"`
	Bucket          string        `yaml:"bucket"`
	Region          string        `yaml:"region"`
	Endpoint        string        `yaml:"endpoint"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	UsePathStyle    bool          `yaml:"use_path_style"`
	ImageURLTTL     time.Duration `yaml:"image_url_ttl"`
}

// KafkaConfig configures the optional archive stream mirror. No brokers
// disables it.
type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	Partitions        int32    `yaml:"partitions"`
	ReplicationFactor int16    `yaml:"replication_factor"`
}

// QueueConfig tunes queue leases and the order worker.
type QueueConfig struct {
	KeyPrefix       string        `yaml:"key_prefix"`
	LeaseDuration   time.Duration `yaml:"lease_duration"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	BatchSize       int           `yaml:"batch_size"`
	Concurrency     int           `yaml:"concurrency"`
	MaxDequeueCount int           `yaml:"max_dequeue_count"`
}

// ArchiveConfig tunes the audit archiver.
type ArchiveConfig struct {
	Interval time.Duration `yaml:"interval"`
	Format   string        `yaml:"format"`
	TimeZone string        `yaml:"time_zone"`
	Strategy string        `yaml:"strategy"`
}

// Location resolves TimeZone, defaulting to UTC.
func (a ArchiveConfig) Location() (*time.Location, error) {
	if a.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(a.TimeZone)
}

// Default returns the development defaults: in-memory everything on :8080.
func Default() Server {
	return Server{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "json",
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: PostgresConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Blob: BlobConfig{
			Driver:      "memory",
			Root:        "./data/blobs",
			Region:      "us-east-1",
			ImageURLTTL: 24 * time.Hour,
		},
		Kafka: KafkaConfig{
			Topic:             "audit-archive",
			Partitions:        1,
			ReplicationFactor: 1,
		},
		Queue: QueueConfig{
			KeyPrefix:       "abcretail",
			LeaseDuration:   30 * time.Second,
			PollInterval:    time.Second,
			BatchSize:       16,
			Concurrency:     4,
			MaxDequeueCount: 5,
		},
		Archive: ArchiveConfig{
			Interval: 5 * time.Minute,
			Format:   "xlsx",
			TimeZone: "UTC",
			Strategy: "persist-first",
		},
	}
}

// FromEnv builds a Server config from defaults and environment variables.
func FromEnv() (Server, error) {
	return Load("")
}

// Load layers defaults, an optional YAML file at path, then environment
// variables. Environment always wins over the file.
func Load(path string) (Server, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Server{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Server{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Server{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (s Server) Validate() error {
	switch s.Blob.Driver {
	case "memory", "fs", "s3":
	default:
		return fmt.Errorf("unknown blob driver %q", s.Blob.Driver)
	}
	if s.Blob.Driver == "s3" && s.Blob.Bucket == "" {
		return fmt.Errorf("blob bucket is required for the s3 driver")
	}
	switch s.Archive.Format {
	case "xlsx", "csv":
	default:
		return fmt.Errorf("unknown archive format %q", s.Archive.Format)
	}
	switch s.Archive.Strategy {
	case "persist-first", "delete-first":
	default:
		return fmt.Errorf("unknown archive strategy %q", s.Archive.Strategy)
	}
	if _, err := s.Archive.Location(); err != nil {
		return fmt.Errorf("archive time zone: %w", err)
	}
	if s.Queue.LeaseDuration <= 0 {
		return fmt.Errorf("queue lease duration must be positive")
	}
	if s.Queue.MaxDequeueCount <= 0 {
		return fmt.Errorf("queue max dequeue count must be positive")
	}
	return nil
}

type envReader struct {
	err error
}

func (e *envReader) str(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (e *envReader) integer(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" || e.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = n
}

func (e *envReader) duration(key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" || e.err != nil {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = d
}

func (e *envReader) boolean(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1"
	}
}

func (e *envReader) list(key string, dst *[]string) {
	if v := os.Getenv(key); v != "" {
		*dst = pkgstrings.SplitList(v)
	}
}

func applyEnv(cfg *Server) error {
	e := &envReader{}
	e.str("ABC_ADDR", &cfg.Addr)
	e.str("LOG_LEVEL", &cfg.LogLevel)
	e.str("LOG_FORMAT", &cfg.LogFormat)

	e.str("REDIS_URL", &cfg.Redis.URL)
	e.integer("REDIS_POOL_SIZE", &cfg.Redis.PoolSize)
	e.integer("REDIS_MIN_IDLE_CONNS", &cfg.Redis.MinIdleConns)
	e.duration("REDIS_DIAL_TIMEOUT", &cfg.Redis.DialTimeout)
	e.duration("REDIS_READ_TIMEOUT", &cfg.Redis.ReadTimeout)
	e.duration("REDIS_WRITE_TIMEOUT", &cfg.Redis.WriteTimeout)

	e.str("DATABASE_URL", &cfg.Postgres.DSN)
	e.integer("DB_MAX_OPEN_CONNS", &cfg.Postgres.MaxOpenConns)
	e.integer("DB_MAX_IDLE_CONNS", &cfg.Postgres.MaxIdleConns)
	e.duration("DB_CONN_MAX_LIFETIME", &cfg.Postgres.ConnMaxLifetime)

	e.str("BLOB_DRIVER", &cfg.Blob.Driver)
	e.str("BLOB_ROOT", &cfg.Blob.Root)
	e.str("BLOB_BUCKET", &cfg.Blob.Bucket)
	e.str("BLOB_REGION", &cfg.Blob.Region)
	e.str("BLOB_ENDPOINT", &cfg.Blob.Endpoint)
	e.str("BLOB_ACCESS_KEY_ID", &cfg.Blob.AccessKeyID)
	e.str("BLOB_SECRET_ACCESS_KEY", &cfg.Blob.SecretAccessKey)
	e.boolean("BLOB_USE_PATH_STYLE", &cfg.Blob.UsePathStyle)
	e.duration("BLOB_IMAGE_URL_TTL", &cfg.Blob.ImageURLTTL)

	e.list("KAFKA_BROKERS", &cfg.Kafka.Brokers)
	e.str("KAFKA_TOPIC", &cfg.Kafka.Topic)

	e.str("QUEUE_KEY_PREFIX", &cfg.Queue.KeyPrefix)
	e.duration("QUEUE_LEASE_DURATION", &cfg.Queue.LeaseDuration)
	e.duration("QUEUE_POLL_INTERVAL", &cfg.Queue.PollInterval)
	e.integer("QUEUE_BATCH_SIZE", &cfg.Queue.BatchSize)
	e.integer("QUEUE_CONCURRENCY", &cfg.Queue.Concurrency)
	e.integer("QUEUE_MAX_DEQUEUE_COUNT", &cfg.Queue.MaxDequeueCount)

	e.duration("ARCHIVE_INTERVAL", &cfg.Archive.Interval)
	e.str("ARCHIVE_FORMAT", &cfg.Archive.Format)
	e.str("ARCHIVE_TIME_ZONE", &cfg.Archive.TimeZone)
	e.str("ARCHIVE_STRATEGY", &cfg.Archive.Strategy)
	return e.err
}
