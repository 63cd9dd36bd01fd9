package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	liststrings "shelterhub/pkg/platform/strings"
)

// Config is the full process configuration.
type Config struct {
	HTTP      HTTPConfig      `koanf:"http"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	Redis     RedisConfig     `koanf:"redis"`
	Kafka     KafkaConfig     `koanf:"kafka"`
	Broadcast BroadcastConfig `koanf:"broadcast"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Log       LogConfig       `koanf:"log"`
	// Identities seeds the in-memory identity store when no database is configured.
	Identities []Identity `koanf:"identities"`
}

type HTTPConfig struct {
	Addr           string        `koanf:"addr"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	MaxUploadBytes int64         `koanf:"max_upload_bytes"`
}

type DatabaseConfig struct {
	URL         string `koanf:"url"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

type AuthConfig struct {
	SigningKey string        `koanf:"signing_key"`
	Issuer     string        `koanf:"issuer"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	// AdminKey is the password accepted for the "admin" username. Empty disables admin login.
	AdminKey string `koanf:"admin_key"`
}

// RedisConfig holds Redis connection settings. An empty URL keeps revocations in memory.
type RedisConfig struct {
	URL          string        `koanf:"url"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// KafkaConfig enables the change event mirror when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

type BroadcastConfig struct {
	RequireToken bool `koanf:"require_token"`
	SendBuffer   int  `koanf:"send_buffer"`
}

type RateLimitConfig struct {
	TokenRPS   float64 `koanf:"token_rps"`
	TokenBurst int     `koanf:"token_burst"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Identity is a company account available to the in-memory identity store.
type Identity struct {
	ID           string `koanf:"id"`
	Email        string `koanf:"email"`
	DisplayName  string `koanf:"display_name"`
	PasswordHash string `koanf:"password_hash"`
}

// Load reads defaults, then the optional YAML file at path, then environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.HTTP.AllowedOrigins = liststrings.DedupeAndTrimLower(cfg.HTTP.AllowedOrigins)
	cfg.Kafka.Brokers = liststrings.DedupeAndTrim(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka.brokers is set")
	}
	return nil
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "http.addr", ":8080")
	setDefault(k, "http.allowed_origins", []string{"*"})
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)
	setDefault(k, "http.max_upload_bytes", int64(10<<20))

	setDefault(k, "database.auto_migrate", true)

	setDefault(k, "auth.signing_key", "dev-secret-key-change-in-production")
	setDefault(k, "auth.issuer", "shelterhub")
	setDefault(k, "auth.token_ttl", 180*time.Minute)

	setDefault(k, "redis.pool_size", 10)
	setDefault(k, "redis.min_idle_conns", 2)
	setDefault(k, "redis.dial_timeout", 5*time.Second)
	setDefault(k, "redis.read_timeout", 3*time.Second)
	setDefault(k, "redis.write_timeout", 3*time.Second)

	setDefault(k, "kafka.topic", "shelter-events")

	setDefault(k, "broadcast.require_token", false)
	setDefault(k, "broadcast.send_buffer", 256)

	setDefault(k, "ratelimit.token_rps", 1.0)
	setDefault(k, "ratelimit.token_burst", 5)

	setDefault(k, "log.level", "info")
	setDefault(k, "log.format", "json")
}

func applyEnvOverrides(k *koanf.Koanf) {
	if v := os.Getenv("SHELTERHUB_ADDR"); v != "" {
		k.Set("http.addr", v)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		k.Set("http.allowed_origins", liststrings.SplitList(v))
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		k.Set("database.url", v)
	}
	if v, ok := envBool("DATABASE_AUTO_MIGRATE"); ok {
		k.Set("database.auto_migrate", v)
	}
	if v := os.Getenv("JWT_SIGNING_KEY"); v != "" {
		k.Set("auth.signing_key", v)
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		k.Set("auth.issuer", v)
	}
	if v := envInt("TOKEN_TTL_MINUTES"); v > 0 {
		k.Set("auth.token_ttl", time.Duration(v)*time.Minute)
	}
	if v := os.Getenv("ADMIN_API_KEY"); v != "" {
		k.Set("auth.admin_key", v)
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		k.Set("redis.url", v)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		k.Set("kafka.brokers", liststrings.SplitList(v))
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		k.Set("kafka.topic", v)
	}
	if v, ok := envBool("BROADCAST_REQUIRE_TOKEN"); ok {
		k.Set("broadcast.require_token", v)
	}
	if v := envInt("BROADCAST_SEND_BUFFER"); v > 0 {
		k.Set("broadcast.send_buffer", v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		k.Set("log.level", v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		k.Set("log.format", v)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value any) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}

func envInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}

func envBool(key string) (bool, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
