package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	JWTIssuer       string
	DatabaseURL     string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AutosaveDelay   time.Duration
	// SeedUsers inserts the development users on startup.
	SeedUsers bool
	Log       LogConfig
	Redis     RedisConfig
	Blob      BlobConfig
	Kafka     KafkaConfig
	Stats     StatsConfig
	RateLimit RateLimitConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// RedisConfig holds pool settings for the dashboard stats cache. An empty URL
// disables the cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// BlobConfig selects S3 when Bucket is set, in-memory otherwise.
type BlobConfig struct {
	Bucket        string
	Region        string
	PublicBaseURL string
	KeyPrefix     string
	// Endpoint overrides the S3 endpoint (localstack, minio).
	Endpoint string
}

// KafkaConfig enables the decision event stream when Brokers is non-empty.
type KafkaConfig struct {
	Brokers           []string
	DecisionsTopic    string
	Partitions        int32
	ReplicationFactor int16
}

// RateLimitConfig shares buckets through Redis when RedisConfig.URL is set.
type RateLimitConfig struct {
	Disabled bool
}

type StatsConfig struct {
	CacheTTL        time.Duration
	RefreshSchedule string
	Timezone        *time.Location
}

// LoadDotEnv loads a .env file when present. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; production deployments set JWT_SIGNING_KEY.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	tzName := envOr("STATS_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Server{}, fmt.Errorf("STATS_TIMEZONE %q: %w", tzName, err)
	}

	cfg := Server{
		Addr:            envOr("VETTING_ADDR", ":8080"),
		JWTSigningKey:   jwtSigningKey,
		JWTIssuer:       envOr("JWT_ISSUER", "vetting"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RequestTimeout:  durationOr("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: durationOr("SHUTDOWN_TIMEOUT", 10*time.Second),
		AutosaveDelay:   durationOr("AUTOSAVE_DELAY", 500*time.Millisecond),
		SeedUsers:       boolOr("SEED_USERS", true),
		Log: LogConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "json"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: intOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Blob: BlobConfig{
			Bucket:        os.Getenv("S3_BUCKET"),
			Region:        envOr("S3_REGION", "us-east-1"),
			PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
			KeyPrefix:     envOr("S3_KEY_PREFIX", "identity-documents"),
			Endpoint:      os.Getenv("AWS_ENDPOINT_URL"),
		},
		Kafka: KafkaConfig{
			Brokers:           splitList(os.Getenv("KAFKA_BROKERS")),
			DecisionsTopic:    envOr("KAFKA_DECISIONS_TOPIC", "verification.decisions"),
			Partitions:        int32(intOr("KAFKA_DECISIONS_PARTITIONS", 3)),
			ReplicationFactor: int16(intOr("KAFKA_REPLICATION_FACTOR", 1)),
		},
		Stats: StatsConfig{
			CacheTTL:        durationOr("STATS_CACHE_TTL", time.Minute),
			RefreshSchedule: envOr("STATS_REFRESH_SCHEDULE", "@every 1m"),
			Timezone:        loc,
		},
		RateLimit: RateLimitConfig{
			Disabled: boolOr("RATE_LIMIT_DISABLED", false),
		},
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func intOr(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func boolOr(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
