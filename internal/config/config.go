package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable the service reads at startup.
type Config struct {
	HTTPAddr    string
	DatabaseURL string
	LocalDBPath string

	JWTSecret      string
	JWTExpiry      time.Duration
	PairTokenTTL   time.Duration

	RAGBaseURL string
	RAGTimeout time.Duration

	SyncMinInterval time.Duration

	TelegramToken   string
	TelegramEnabled bool

	RateLimitPerMin int
	LogLevel        string
}

// Load reads .env if present and builds the Config from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		LocalDBPath:     getEnv("LOCAL_DB_PATH", "elevex.db"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTExpiry:       getDuration("JWT_EXPIRY", 24*time.Hour),
		PairTokenTTL:    getDuration("PAIR_TOKEN_TTL", 5*time.Minute),
		RAGBaseURL:      getEnv("RAG_BASE_URL", "http://localhost:8000"),
		RAGTimeout:      getDuration("RAG_TIMEOUT", 60*time.Second),
		SyncMinInterval: getDuration("SYNC_MIN_INTERVAL", 5*time.Second),
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		RateLimitPerMin: getInt("RATE_LIMIT_PER_MIN", 30),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
	cfg.TelegramEnabled = cfg.TelegramToken != ""

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
