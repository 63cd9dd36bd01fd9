package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 180*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 256, cfg.Broadcast.SendBuffer)
	assert.False(t, cfg.Broadcast.RequireToken)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "shelter-events", cfg.Kafka.Topic)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
http:
  addr: ":9090"
auth:
  signing_key: file-key
  token_ttl: 30m
broadcast:
  require_token: true
identities:
  - id: c1
    email: c1@example.com
    display_name: Company One
    password_hash: "$2a$10$abc"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("JWT_SIGNING_KEY", "env-key")
	t.Setenv("KAFKA_BROKERS", "localhost:9092, other:9092")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "env-key", cfg.Auth.SigningKey)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Broadcast.RequireToken)
	assert.Equal(t, []string{"localhost:9092", "other:9092"}, cfg.Kafka.Brokers)
	require.Len(t, cfg.Identities, 1)
	assert.Equal(t, "Company One", cfg.Identities[0].DisplayName)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRequiresTopicWithBrokers(t *testing.T) {
	cfg := Config{
		Auth:  AuthConfig{SigningKey: "k", TokenTTL: time.Minute},
		Kafka: KafkaConfig{Brokers: []string{"b:9092"}},
	}
	assert.Error(t, cfg.Validate())
}
