// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const devIPHashSecret = "dev-ip-hash-secret-change-in-production"

// Config is the full service configuration. Empty URLs for optional
// subsystems select in-memory or mock implementations.
type Config struct {
	Server     Server
	Auth       AuthConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	ImageGen   ImageGenConfig
	Billing    BillingConfig
	GuestQuota GuestQuotaConfig
	Admin      AdminConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"ATELIER_ADDR,default=:8080"`
	Environment     string        `env:"ATELIER_ENV,default=development"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	TrustProxy      bool          `env:"TRUST_PROXY_HEADERS,default=false"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=15s"`
}

// AuthConfig selects how bearer tokens are verified. JWKSURL wins when both
// are set.
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
	JWKSURL   string `env:"JWKS_URL"`
	Issuer    string `env:"JWT_ISSUER"`
	Audience  string `env:"JWT_AUDIENCE,default=authenticated"`
}

type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`
}

type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE,default=10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS,default=2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT,default=5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT,default=3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT,default=3s"`
}

type KafkaConfig struct {
	Brokers    string `env:"KAFKA_BROKERS"`
	AuditTopic string `env:"KAFKA_AUDIT_TOPIC,default=atelier.audit"`
	ClientID   string `env:"KAFKA_CLIENT_ID,default=atelier"`
}

// BrokerList splits the comma separated broker string.
func (k KafkaConfig) BrokerList() []string {
	return splitList(k.Brokers)
}

type ImageGenConfig struct {
	URL             string        `env:"IMAGEGEN_URL"`
	APIKey          string        `env:"IMAGEGEN_API_KEY"`
	Model           string        `env:"IMAGEGEN_MODEL,default=gemini-2.5-flash-image"`
	Timeout         time.Duration `env:"IMAGEGEN_TIMEOUT,default=90s"`
	MaxRetries      int           `env:"IMAGEGEN_MAX_RETRIES,default=3"`
	Concurrency     int           `env:"IMAGEGEN_CONCURRENCY,default=2"`
	BreakerFailures int           `env:"IMAGEGEN_BREAKER_FAILURES,default=5"`
	BreakerCooldown time.Duration `env:"IMAGEGEN_BREAKER_COOLDOWN,default=30s"`
}

type BillingConfig struct {
	URL           string `env:"PAYMENTS_URL"`
	APIKey        string `env:"PAYMENTS_API_KEY"`
	WebhookSecret string `env:"PAYMENTS_WEBHOOK_SECRET"`
	SuccessURL    string `env:"CHECKOUT_SUCCESS_URL,default=http://localhost:5173/billing/success"`
	CancelURL     string `env:"CHECKOUT_CANCEL_URL,default=http://localhost:5173/billing/cancel"`
}

type GuestQuotaConfig struct {
	Limit         int           `env:"GUEST_QUOTA_LIMIT,default=3"`
	Window        time.Duration `env:"GUEST_QUOTA_WINDOW,default=24h"`
	SweepSchedule string        `env:"GUEST_QUOTA_SWEEP,default=@every 1h"`
	IPHashSecret  string        `env:"IP_HASH_SECRET"`
	ThrottleRPS   float64       `env:"THROTTLE_RPS,default=1"`
	ThrottleBurst int           `env:"THROTTLE_BURST,default=5"`
}

type AdminConfig struct {
	Token string `env:"ADMIN_TOKEN"`
}

// IsProduction reports whether development fallbacks must be refused.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Load reads an optional .env file and decodes the environment into Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv decodes configuration from the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode env: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	if c.GuestQuota.IPHashSecret == "" {
		if c.IsProduction() {
			return errors.New("IP_HASH_SECRET is required in production")
		}
		c.GuestQuota.IPHashSecret = devIPHashSecret
	}
	if c.IsProduction() && c.Auth.JWTSecret == "" && c.Auth.JWKSURL == "" {
		return errors.New("JWT_SECRET or JWKS_URL is required in production")
	}
	if c.GuestQuota.Limit <= 0 {
		return fmt.Errorf("GUEST_QUOTA_LIMIT must be positive, got %d", c.GuestQuota.Limit)
	}
	if c.GuestQuota.Window <= 0 {
		return fmt.Errorf("GUEST_QUOTA_WINDOW must be positive, got %s", c.GuestQuota.Window)
	}
	if c.ImageGen.Concurrency <= 0 {
		c.ImageGen.Concurrency = 1
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
