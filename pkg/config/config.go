package config

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"coderanker/pkg/apperrors"

	"github.com/joho/godotenv"
)

// Config is the configuration of every coderanker process.
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Bucket    BucketConfig
	Providers ProvidersConfig
	Ranking   RankingConfig
	Hub       HubConfig
	Server    ServerConfig
	Scheduler SchedulerConfig
}

// DatabaseConfig holds the Postgres connection and migration settings.
type DatabaseConfig struct {
	DSN            string
	Database       string
	MigrationsPath string
}

// RedisConfig configuration struct.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// BucketConfig configures the S3 compatible bucket used for log archives.
type BucketConfig struct {
	Region       string
	Endpoint     string
	AccessKey    string
	AccessSecret string
	LogBucket    string
}

// ProvidersConfig configures the GitHub and LeetCode clients.
type ProvidersConfig struct {
	GitHubToken     string
	GitHubBaseURL   string
	LeetCodeBaseURL string
	Timeout         time.Duration
	GitHubLimit     LimitConfig
	LeetCodeLimit   LimitConfig
}

// LimitConfig is a single rate limit window.
type LimitConfig struct {
	Count         int
	ResetInterval time.Duration
}

// RankingConfig contains the score weights and the sweep bounds.
type RankingConfig struct {
	LeetCodeWeight   float64
	GitHubWeight     float64
	SweepBatchSize   int
	SweepConcurrency int
	ActiveWindow     time.Duration
	LogRetention     time.Duration
}

// HubConfig configures the real time broadcast cadence.
type HubConfig struct {
	LeaderboardInterval time.Duration
	GlobalInterval      time.Duration
	LeaderboardSize     int
	SendBuffer          int
}

// ServerConfig configures the api process.
type ServerConfig struct {
	Address         string
	JWTSecret       string
	RefreshCooldown time.Duration
	RefreshPerHour  int
}

// SchedulerConfig configures the scheduler process.
type SchedulerConfig struct {
	HealthAddress string
}

// Load the environment into a validated configuration.
func Load() (*Config, error) {
	// Load the .env file when not running on Docker.
	if os.Getenv("ENVIRONMENT") != "docker" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("Couldn't load the .env file: %v", err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			DSN:            os.Getenv("DATABASE_DSN"),
			Database:       getString("POSTGRES_DB", "coderanker"),
			MigrationsPath: getString("MIGRATIONS_PATH", "pkg/database/migrations"),
		},
		Redis: RedisConfig{
			Host:     getString("REDIS_HOST", "localhost"),
			Port:     getString("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Bucket: BucketConfig{
			Region:       os.Getenv("BUCKET_REGION"),
			Endpoint:     os.Getenv("BUCKET_ENDPOINT"),
			AccessKey:    os.Getenv("BUCKET_ACCESS_KEY"),
			AccessSecret: os.Getenv("BUCKET_ACCESS_SECRET"),
			LogBucket:    os.Getenv("BUCKET_LOG_NAME"),
		},
		Providers: ProvidersConfig{
			GitHubToken:     os.Getenv("GITHUB_TOKEN"),
			GitHubBaseURL:   getString("GITHUB_BASE_URL", "https://api.github.com"),
			LeetCodeBaseURL: getString("LEETCODE_BASE_URL", "https://leetcode-stats-api.herokuapp.com"),
		},
		Server: ServerConfig{
			Address:   getString("SERVER_ADDRESS", ":8080"),
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Scheduler: SchedulerConfig{
			HealthAddress: getString("SCHEDULER_HEALTH_ADDRESS", ":50051"),
		},
	}

	env := &envReader{}
	cfg.Providers.Timeout = env.duration("PROVIDER_TIMEOUT", 10*time.Second)
	cfg.Providers.GitHubLimit = LimitConfig{
		Count:         env.int("GITHUB_LIMIT_COUNT", 5000),
		ResetInterval: env.duration("GITHUB_LIMIT_INTERVAL", time.Hour),
	}
	cfg.Providers.LeetCodeLimit = LimitConfig{
		Count:         env.int("LEETCODE_LIMIT_COUNT", 60),
		ResetInterval: env.duration("LEETCODE_LIMIT_INTERVAL", time.Minute),
	}
	cfg.Ranking = RankingConfig{
		LeetCodeWeight:   env.float("LEETCODE_WEIGHT", 0.7),
		GitHubWeight:     env.float("GITHUB_WEIGHT", 0.3),
		SweepBatchSize:   env.int("SWEEP_BATCH_SIZE", 50),
		SweepConcurrency: env.int("SWEEP_CONCURRENCY", 5),
		ActiveWindow:     env.duration("ACTIVE_WINDOW", 7*24*time.Hour),
		LogRetention:     env.duration("LOG_RETENTION", 7*24*time.Hour),
	}
	cfg.Hub = HubConfig{
		LeaderboardInterval: env.duration("HUB_LEADERBOARD_INTERVAL", 30*time.Second),
		GlobalInterval:      env.duration("HUB_GLOBAL_INTERVAL", time.Minute),
		LeaderboardSize:     env.int("HUB_LEADERBOARD_SIZE", 100),
		SendBuffer:          env.int("HUB_SEND_BUFFER", 32),
	}
	cfg.Server.RefreshCooldown = env.duration("REFRESH_COOLDOWN", time.Minute)
	cfg.Server.RefreshPerHour = env.int("REFRESH_PER_HOUR", 5)
	if env.err != nil {
		return nil, env.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the invariants the ranking pipeline relies on.
func (c *Config) Validate() error {
	if c.Ranking.LeetCodeWeight < 0 || c.Ranking.GitHubWeight < 0 {
		return fmt.Errorf("%w: score weights can't be negative", apperrors.ErrValidation)
	}
	if math.Abs(c.Ranking.LeetCodeWeight+c.Ranking.GitHubWeight-1) > 1e-9 {
		return fmt.Errorf("%w: score weights must sum to 1, got %v + %v",
			apperrors.ErrValidation, c.Ranking.LeetCodeWeight, c.Ranking.GitHubWeight)
	}

	positives := map[string]int64{
		"PROVIDER_TIMEOUT":         int64(c.Providers.Timeout),
		"SWEEP_BATCH_SIZE":         int64(c.Ranking.SweepBatchSize),
		"SWEEP_CONCURRENCY":        int64(c.Ranking.SweepConcurrency),
		"LOG_RETENTION":            int64(c.Ranking.LogRetention),
		"HUB_LEADERBOARD_INTERVAL": int64(c.Hub.LeaderboardInterval),
		"HUB_GLOBAL_INTERVAL":      int64(c.Hub.GlobalInterval),
		"HUB_LEADERBOARD_SIZE":     int64(c.Hub.LeaderboardSize),
		"HUB_SEND_BUFFER":          int64(c.Hub.SendBuffer),
		"REFRESH_PER_HOUR":         int64(c.Server.RefreshPerHour),
		"GITHUB_LIMIT_COUNT":       int64(c.Providers.GitHubLimit.Count),
		"GITHUB_LIMIT_INTERVAL":    int64(c.Providers.GitHubLimit.ResetInterval),
		"LEETCODE_LIMIT_COUNT":     int64(c.Providers.LeetCodeLimit.Count),
		"LEETCODE_LIMIT_INTERVAL":  int64(c.Providers.LeetCodeLimit.ResetInterval),
	}
	for name, value := range positives {
		if value <= 0 {
			return fmt.Errorf("%w: %s must be positive", apperrors.ErrValidation, name)
		}
	}

	return nil
}

// RedisAddr returns the host:port pair of the Redis server.
func (c *Config) RedisAddr() string {
	return c.Redis.Host + ":" + c.Redis.Port
}

func getString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// envReader parses typed variables and keeps the first error.
type envReader struct {
	err error
}

func (r *envReader) lookup(key string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	value, ok := os.LookupEnv(key)
	return value, ok && value != ""
}

func (r *envReader) fail(key, kind string, err error) {
	r.err = fmt.Errorf("%w: %s must be %s: %v", apperrors.ErrValidation, key, kind, err)
}

func (r *envReader) int(key string, fallback int) int {
	value, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, "an integer", err)
	}
	return parsed
}

func (r *envReader) float(key string, fallback float64) float64 {
	value, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.fail(key, "a number", err)
	}
	return parsed
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	value, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		r.fail(key, "a duration", err)
	}
	return parsed
}
