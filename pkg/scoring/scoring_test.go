package scoring

import (
	"testing"

	"coderanker/pkg/config"
	"coderanker/pkg/database/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
)

func TestCalculateLeetCodeOnly(t *testing.T) {
	calc := NewCalculator(DefaultWeights())

	scores := calc.Calculate(&models.LeetCodeStats{
		TotalSolved:    50,
		EasySolved:     20,
		MediumSolved:   20,
		HardSolved:     10,
		AcceptanceRate: 60,
		Ranking:        10000,
		Reputation:     0,
	}, nil)

	assert.Equal(t, models.Scores{LeetCodeScore: 160, GithubScore: 0, TotalScore: 112}, scores)
}

func TestGitHubScore(t *testing.T) {
	calc := NewCalculator(DefaultWeights())

	tests := []struct {
		name     string
		stats    *models.GitHubStats
		expected int
	}{
		{name: "absent", stats: nil, expected: 0},
		{name: "zero", stats: &models.GitHubStats{}, expected: 0},
		{
			name:     "no synergy without contributions",
			stats:    &models.GitHubStats{PublicRepos: 2, TotalStars: 4, TotalForks: 1, Followers: 3},
			expected: 10 + 40 + 3 + 6,
		},
		{
			name:     "synergy bonus",
			stats:    &models.GitHubStats{PublicRepos: 2, TotalStars: 4, Contributions: 10},
			expected: 10 + 40 + 1 + 2,
		},
		{
			name:     "following counts a little",
			stats:    &models.GitHubStats{Following: 20},
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, calc.GitHubScore(tt.stats))
		})
	}
}

func TestLeetCodeScoreFloorsAtZero(t *testing.T) {
	calc := NewCalculator(DefaultWeights())

	// A huge ranking number alone is a negative contribution.
	score := calc.LeetCodeScore(&models.LeetCodeStats{TotalSolved: 1, Ranking: 2_000_000})

	assert.Equal(t, 0, score)
}

func TestCalculateCombinesWithWeights(t *testing.T) {
	calc := NewCalculator(WeightsFromConfig(config.RankingConfig{LeetCodeWeight: 0.5, GitHubWeight: 0.5}))

	scores := calc.Calculate(
		&models.LeetCodeStats{TotalSolved: 10},
		&models.GitHubStats{PublicRepos: 4},
	)

	assert.Equal(t, 20, scores.LeetCodeScore)
	assert.Equal(t, 20, scores.GithubScore)
	assert.Equal(t, 20, scores.TotalScore)
}

// Random inputs must always produce the same non negative scores.
func TestCalculateDeterministicAndNonNegative(t *testing.T) {
	faker := gofakeit.New(42)
	calc := NewCalculator(DefaultWeights())

	for i := 0; i < 500; i++ {
		lc := &models.LeetCodeStats{
			TotalSolved:    faker.IntRange(0, 3000),
			EasySolved:     faker.IntRange(0, 1000),
			MediumSolved:   faker.IntRange(0, 1500),
			HardSolved:     faker.IntRange(0, 700),
			AcceptanceRate: faker.Float64Range(0, 100),
			Ranking:        faker.IntRange(0, 5_000_000),
			Reputation:     faker.IntRange(0, 10_000),
		}
		gh := &models.GitHubStats{
			PublicRepos:   faker.IntRange(0, 300),
			TotalStars:    faker.IntRange(0, 50_000),
			TotalForks:    faker.IntRange(0, 10_000),
			Followers:     faker.IntRange(0, 20_000),
			Following:     faker.IntRange(0, 1000),
			Contributions: faker.IntRange(0, 5000),
		}

		first := calc.Calculate(lc, gh)
		second := calc.Calculate(lc, gh)

		assert.Equal(t, first, second)
		assert.GreaterOrEqual(t, first.LeetCodeScore, 0)
		assert.GreaterOrEqual(t, first.GithubScore, 0)
		assert.GreaterOrEqual(t, first.TotalScore, 0)
	}
}
