package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort                = "8080"
	defaultEnvironment         = "development"
	defaultSQLitePath          = "./data/codeblocks.db"
	defaultRatingRateLimit     = "30-M"
	defaultWSMessagesPerSecond = 50
	defaultMaxCodeSize         = 100 * 1024
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	return FromEnv(os.Getenv)
}

// builds a Config from a lookup function so tests can avoid touching the
// process environment
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:            orDefault(getenv("PORT"), defaultPort),
		Environment:     orDefault(getenv("ENVIRONMENT"), defaultEnvironment),
		LogLevel:        getenv("LOG_LEVEL"),
		DatabaseURL:     getenv("DATABASE_URL"),
		SQLitePath:      orDefault(getenv("SQLITE_PATH"), defaultSQLitePath),
		RedisURL:        getenv("REDIS_URL"),
		AllowedOrigins:  splitList(getenv("ALLOWED_ORIGINS")),
		RatingRateLimit: orDefault(getenv("RATING_RATE_LIMIT"), defaultRatingRateLimit),
	}

	var err error

	if cfg.MentorReadOnly, err = parseBool(getenv("MENTOR_READ_ONLY"), true); err != nil {
		return nil, fmt.Errorf("MENTOR_READ_ONLY: %w", err)
	}

	if cfg.MentorReclaimGrace, err = parseDuration(getenv("MENTOR_RECLAIM_GRACE"), 0); err != nil {
		return nil, fmt.Errorf("MENTOR_RECLAIM_GRACE: %w", err)
	}

	if cfg.WSMessagesPerSecond, err = parsePositiveInt(getenv("WS_MESSAGES_PER_SECOND"), defaultWSMessagesPerSecond); err != nil {
		return nil, fmt.Errorf("WS_MESSAGES_PER_SECOND: %w", err)
	}

	if cfg.MaxCodeSize, err = parsePositiveInt(getenv("MAX_CODE_SIZE"), defaultMaxCodeSize); err != nil {
		return nil, fmt.Errorf("MAX_CODE_SIZE: %w", err)
	}

	if cfg.IsProduction() && len(cfg.AllowedOrigins) == 0 {
		return nil, fmt.Errorf("ALLOWED_ORIGINS environment variable is required in production")
	}

	return cfg, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

func parseBool(value string, fallback bool) (bool, error) {
	if value == "" {
		return fallback, nil
	}

	return strconv.ParseBool(value)
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}

	if d < 0 {
		return 0, fmt.Errorf("must not be negative, got %s", value)
	}

	return d, nil
}

func parsePositiveInt(value string, fallback int) (int, error) {
	if value == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}

	return n, nil
}
