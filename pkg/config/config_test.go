package config

import (
	"testing"
	"time"

	"coderanker/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "docker")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.7, cfg.Ranking.LeetCodeWeight)
	assert.Equal(t, 0.3, cfg.Ranking.GitHubWeight)
	assert.Equal(t, 50, cfg.Ranking.SweepBatchSize)
	assert.Equal(t, 7*24*time.Hour, cfg.Ranking.ActiveWindow)
	assert.Equal(t, 30*time.Second, cfg.Hub.LeaderboardInterval)
	assert.Equal(t, time.Minute, cfg.Hub.GlobalInterval)
	assert.Equal(t, 5, cfg.Server.RefreshPerHour)
	assert.Equal(t, 10*time.Second, cfg.Providers.Timeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "docker")
	t.Setenv("LEETCODE_WEIGHT", "0.5")
	t.Setenv("GITHUB_WEIGHT", "0.5")
	t.Setenv("HUB_LEADERBOARD_INTERVAL", "5s")
	t.Setenv("REDIS_HOST", "cache")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Ranking.LeetCodeWeight)
	assert.Equal(t, 5*time.Second, cfg.Hub.LeaderboardInterval)
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "weights not summing to one", key: "GITHUB_WEIGHT", value: "0.5"},
		{name: "unparsable weight", key: "LEETCODE_WEIGHT", value: "heavy"},
		{name: "unparsable duration", key: "PROVIDER_TIMEOUT", value: "10"},
		{name: "zero batch", key: "SWEEP_BATCH_SIZE", value: "0"},
		{name: "negative limit", key: "GITHUB_LIMIT_COUNT", value: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", "docker")
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestValidateNegativeWeight(t *testing.T) {
	t.Setenv("ENVIRONMENT", "docker")
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Ranking.LeetCodeWeight = 1.3
	cfg.Ranking.GitHubWeight = -0.3

	assert.ErrorIs(t, cfg.Validate(), apperrors.ErrValidation)
}
