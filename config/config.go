// config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/HSouheill/barrim_commission/logger"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the settings of the commission worker, read from the environment.
type Config struct {
	Env                string `validate:"omitempty,oneof=development dev staging production"`
	MongoURI           string `validate:"required"`
	DBName             string `validate:"required"`
	RedisAddr          string `validate:"required_if=AgentStore redis"`
	RedisPassword      string
	RedisDB            int           `validate:"min=0"`
	AgentStore         string        `validate:"oneof=mongo redis"`
	LogLevel           string        `validate:"omitempty,oneof=debug info warn warning error"`
	AgentLookupTimeout time.Duration `validate:"gt=0"`
	PollInterval       time.Duration `validate:"gt=0"`
	RateLimit          float64       `validate:"gte=0"`
	ClaimLease         time.Duration `validate:"gt=0"`
	MaxAttempts        int           `validate:"gt=0"`
	RetryBackoff       time.Duration `validate:"gt=0"`
}

const devMongoURI = "mongodb://localhost:27017"

// Load reads .env if present, then the process environment, and validates the result.
func Load() (*Config, error) {
	loadDotEnv(logger.L)

	cfg := &Config{
		Env:           os.Getenv("ENV"),
		MongoURI:      os.Getenv("MONGO_URI"),
		DBName:        getEnv("DB_NAME", "barrim"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		AgentStore:    getEnv("AGENT_STORE", "mongo"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
	if cfg.MongoURI == "" {
		cfg.MongoURI = os.Getenv("MONGODB_URI")
	}
	if cfg.MongoURI == "" && (cfg.Env == "development" || cfg.Env == "dev") {
		cfg.MongoURI = devMongoURI
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.AgentLookupTimeout, err = getDuration("AGENT_LOOKUP_TIMEOUT", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getDuration("COMMISSION_POLL_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getFloat("COMMISSION_RATE_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.ClaimLease, err = getDuration("COMMISSION_CLAIM_LEASE", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = getInt("COMMISSION_MAX_ATTEMPTS", 10); err != nil {
		return nil, err
	}
	if cfg.RetryBackoff, err = getDuration("COMMISSION_RETRY_BACKOFF", 30*time.Second); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadDotEnv applies .env (or the given files) to the environment. A missing file is
// normal outside local development; anything else is logged and the file is skipped.
func loadDotEnv(log *slog.Logger, filenames ...string) {
	err := godotenv.Load(filenames...)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return
	}
	log.Warn("Failed to load .env file", "error", err)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
