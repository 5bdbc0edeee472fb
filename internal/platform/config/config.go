package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings so main stays lean.
type Config struct {
	Addr        string
	Environment string
	DatabaseURL string
	Redis       RedisConfig
	JWT         JWTConfig
	Uploads     UploadsConfig
	Cooldown    time.Duration
	Audit       AuditConfig
	Kafka       KafkaConfig
}

// RedisConfig configures the optional cooldown cache. An empty URL disables
// Redis entirely; the rate limiter then reads the profile store directly.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
}

type UploadsConfig struct {
	Dir      string
	MaxBytes int64
}

// AuditConfig controls audit retention. Retention of zero disables the sweep.
type AuditConfig struct {
	Retention     time.Duration
	SweepInterval time.Duration
}

// KafkaConfig configures the optional after-commit audit stream. No brokers
// means no stream; audit durability never depends on it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables. A .env file in the
// working directory is loaded first when present (development convenience).
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		Addr:        getenv("PROFILED_ADDR", ":8080"),
		Environment: getenv("PROFILED_ENV", "development"),
		DatabaseURL: os.Getenv("PROFILED_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("PROFILED_REDIS_URL"),
			PoolSize:     intenv("PROFILED_REDIS_POOL_SIZE", 10),
			MinIdleConns: intenv("PROFILED_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durenv("PROFILED_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durenv("PROFILED_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durenv("PROFILED_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		JWT: JWTConfig{
			// Development default; must be overridden in production.
			SigningKey: getenv("PROFILED_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     getenv("PROFILED_JWT_ISSUER", "profiled"),
			Audience:   getenv("PROFILED_JWT_AUDIENCE", "profiled-api"),
			AccessTTL:  durenv("PROFILED_JWT_ACCESS_TTL", time.Hour),
		},
		Uploads: UploadsConfig{
			Dir:      getenv("PROFILED_UPLOADS_DIR", "uploads"),
			MaxBytes: int64(intenv("PROFILED_UPLOADS_MAX_BYTES", 5<<20)),
		},
		Cooldown: durenv("PROFILED_UPDATE_COOLDOWN", 5*time.Minute),
		Audit: AuditConfig{
			Retention:     durenv("PROFILED_AUDIT_RETENTION", 365*24*time.Hour),
			SweepInterval: durenv("PROFILED_AUDIT_SWEEP_INTERVAL", time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers: splitenv("PROFILED_KAFKA_BROKERS"),
			Topic:   getenv("PROFILED_KAFKA_AUDIT_TOPIC", "profiled.audit"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intenv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func durenv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitenv(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
