package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"codecraft/internal/artifact"
	"codecraft/internal/history"
	llmclient "codecraft/internal/llmClient"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	// APIKey may be empty; requests then fail with a missing-credential error.
	APIKey string
	LLM    LLMConfig

	History  history.Config
	Session  SessionConfig
	Artifact artifact.Config
}

type LLMConfig struct {
	Provider string
	Model    string
	BaseURL  string
	RPS      float64
	Burst    int
	// Timeout of zero leaves model calls unbounded.
	Timeout time.Duration
}

type SessionConfig struct {
	Capacity int
	TTL      time.Duration
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := firstNonEmpty(getenv("APP_ENV"), "local")
	cfg := &Config{
		Port:     NormalizePort(firstNonEmpty(getenv("PORT"), ":8080")),
		Env:      env,
		LogLevel: firstNonEmpty(getenv("LOG_LEVEL"), "info"),
		APIKey:   firstNonEmpty(getenv("GEMINI_API_KEY"), getenv("API_KEY")),
		LLM: LLMConfig{
			Provider: firstNonEmpty(getenv("LLM_PROVIDER"), llmclient.ProviderGemini),
			Model:    firstNonEmpty(getenv("GEMINI_MODEL"), llmclient.DefaultGeminiModel),
			BaseURL:  getenv("GEMINI_BASE_URL"),
		},
		History: history.Config{
			Backend: firstNonEmpty(getenv("HISTORY_BACKEND"), "memory"),
			DSN:     getenv("HISTORY_DSN"),
		},
		Artifact: artifact.Config{
			Backend: firstNonEmpty(getenv("ARCHIVE_BACKEND"), "none"),
			S3: artifact.S3Config{
				Endpoint:  getenv("ARCHIVE_S3_ENDPOINT"),
				Region:    firstNonEmpty(getenv("ARCHIVE_S3_REGION"), "us-east-1"),
				AccessKey: firstNonEmpty(getenv("ARCHIVE_S3_ACCESS_KEY"), getenv("MINIO_ROOT_USER")),
				SecretKey: firstNonEmpty(getenv("ARCHIVE_S3_SECRET_KEY"), getenv("MINIO_ROOT_PASSWORD")),
				Bucket:    firstNonEmpty(getenv("ARCHIVE_S3_BUCKET"), "codecraft-archive"),
			},
		},
	}

	var err error
	if cfg.LLM.RPS, err = floatEnv("LLM_RPS", 0); err != nil {
		return nil, err
	}
	if cfg.LLM.Burst, err = intEnv("LLM_BURST", 1); err != nil {
		return nil, err
	}
	if cfg.LLM.Timeout, err = durationEnv("LLM_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.History.Capacity, err = intEnv("HISTORY_CAPACITY", history.DefaultCapacity); err != nil {
		return nil, err
	}
	if cfg.Artifact.MemoryCapacity, err = intEnv("ARCHIVE_MEMORY_CAPACITY", artifact.DefaultMemoryCapacity); err != nil {
		return nil, err
	}
	if cfg.Session.Capacity, err = intEnv("SESSION_CAPACITY", 1024); err != nil {
		return nil, err
	}
	if cfg.Session.TTL, err = durationEnv("SESSION_TTL", 2*time.Hour); err != nil {
		return nil, err
	}
	cfg.Artifact.S3.UseSSL = resolveUseSSL(env)
	return cfg, nil
}

// IsLocal reports whether the process runs in a developer environment.
func (c *Config) IsLocal() bool { return strings.EqualFold(c.Env, "local") }

// NormalizePort turns a bare port ("8080") into a listen address (":8080").
func NormalizePort(p string) string {
	if strings.Contains(p, ":") {
		return p
	}
	return ":" + p
}

func resolveUseSSL(env string) bool {
	if strings.EqualFold(env, "local") {
		return false
	}
	v, err := strconv.ParseBool(getenv("ARCHIVE_S3_USE_SSL"))
	if err != nil {
		return true
	}
	return v
}

func getenv(key string) string { return strings.TrimSpace(os.Getenv(key)) }

func intEnv(key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return v, nil
}

func floatEnv(key string, def float64) (float64, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
