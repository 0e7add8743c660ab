package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	StoreDriver   string
	FileDir       string
	RedisAddr     string
	RedisPassword string
	PostgresDSN   string
	WriteTimeout  time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	UpstreamURL    string
	UpstreamAPIKey string
	UpstreamModel  string

	ChatEndpoint    string
	ChatToken       string
	ChatIdleTimeout time.Duration

	LogLevel   string
	LogPretty  bool
	CORSOrigin []string
}

// Load reads .env files when present, then the process environment. Missing
// files are not an error; real environment variables win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("godotenv.Load: %w", err)
		}
	}

	var err error
	cfg := Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		StoreDriver:    strings.ToLower(getEnv("CART_STORE", StoreMemory)),
		FileDir:        getEnv("CART_FILE_DIR", "./data/carts"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		KafkaBrokers:   splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "bookings.confirmed"),
		UpstreamURL:    getEnv("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1/chat/completions"),
		UpstreamAPIKey: getEnv("AI_GATEWAY_API_KEY", ""),
		UpstreamModel:  getEnv("AI_MODEL", "google/gemini-3-flash-preview"),
		ChatEndpoint:   getEnv("CHAT_ENDPOINT", "http://localhost:8080/api/assistant"),
		ChatToken:      getEnv("CHAT_TOKEN", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigin:     splitList(getEnv("CORS_ORIGINS", "*")),
	}

	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getDuration("CART_WRITE_TIMEOUT", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ChatIdleTimeout, err = getDuration("CHAT_IDLE_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.LogPretty, err = getBool("LOG_PRETTY", false); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case StoreMemory, StoreRedis:
	case StoreFile:
		if c.FileDir == "" {
			return fmt.Errorf("CART_FILE_DIR is empty")
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is empty")
		}
	default:
		return fmt.Errorf("CART_STORE[%s] is not valid", c.StoreDriver)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: time.ParseDuration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}

	return d, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}

	return b, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
