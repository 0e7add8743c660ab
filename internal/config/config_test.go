package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"HTTP_ADDR", "CART_STORE", "CART_FILE_DIR", "REDIS_ADDR", "REDIS_PASSWORD", "POSTGRES_DSN",
	"KAFKA_BROKERS", "KAFKA_TOPIC", "AI_GATEWAY_URL", "AI_GATEWAY_API_KEY", "AI_MODEL",
	"CHAT_ENDPOINT", "CHAT_TOKEN", "LOG_LEVEL", "CORS_ORIGINS", "SHUTDOWN_TIMEOUT",
	"CART_WRITE_TIMEOUT", "CHAT_IDLE_TIMEOUT", "LOG_PRETTY",
}

// clearEnv blanks every key so the host environment cannot leak into a case.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 2*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.ChatIdleTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigin)
	assert.False(t, cfg.LogPretty)
}

func TestLoad_Env(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		check     func(t *testing.T, cfg Config)
		wantError string
	}{
		{
			name: "redis with kafka: ok",
			env: map[string]string{
				"CART_STORE":    "Redis",
				"REDIS_ADDR":    "cache:6379",
				"KAFKA_BROKERS": "k1:9092, k2:9092,",
				"LOG_PRETTY":    "true",
			},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, StoreRedis, cfg.StoreDriver)
				assert.Equal(t, "cache:6379", cfg.RedisAddr)
				assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
				assert.True(t, cfg.LogPretty)
			},
		},
		{
			name: "durations: ok",
			env:  map[string]string{"CHAT_IDLE_TIMEOUT": "45s", "CART_WRITE_TIMEOUT": "500ms"},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 45*time.Second, cfg.ChatIdleTimeout)
				assert.Equal(t, 500*time.Millisecond, cfg.WriteTimeout)
			},
		},
		{
			name:      "unknown store: error",
			env:       map[string]string{"CART_STORE": "mongo"},
			wantError: "CART_STORE[mongo] is not valid",
		},
		{
			name:      "postgres without dsn: error",
			env:       map[string]string{"CART_STORE": "postgres"},
			wantError: "POSTGRES_DSN is empty",
		},
		{
			name:      "negative duration: error",
			env:       map[string]string{"CHAT_IDLE_TIMEOUT": "-1s"},
			wantError: "CHAT_IDLE_TIMEOUT must be positive",
		},
		{
			name:      "bad bool: error",
			env:       map[string]string{"LOG_PRETTY": "sometimes"},
			wantError: `LOG_PRETTY: strconv.ParseBool: parsing "sometimes": invalid syntax`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides variables that are already set, even when empty
	for _, key := range []string{"CART_STORE", "CART_FILE_DIR", "AI_MODEL"} {
		require.NoError(t, os.Unsetenv(key))
	}
	t.Cleanup(func() {
		for _, key := range []string{"CART_STORE", "CART_FILE_DIR", "AI_MODEL"} {
			_ = os.Unsetenv(key)
		}
	})

	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("CART_STORE=file\nCART_FILE_DIR=/var/lib/carts\nAI_MODEL=test-model\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, StoreFile, cfg.StoreDriver)
	assert.Equal(t, "/var/lib/carts", cfg.FileDir)
	assert.Equal(t, "test-model", cfg.UpstreamModel)
}
