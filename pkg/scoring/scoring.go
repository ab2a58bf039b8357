package scoring

import (
	"math"

	"coderanker/pkg/config"
	"coderanker/pkg/database/models"
)

// LeetCodeWeights are the per counter weights of the LeetCode sub-score.
type LeetCodeWeights struct {
	TotalSolved    float64
	EasySolved     float64
	MediumSolved   float64
	HardSolved     float64
	AcceptanceRate float64
	Ranking        float64 // Negative, a lower global ranking is better.
	Reputation     float64
}

// GitHubWeights are the per counter weights of the GitHub sub-score.
type GitHubWeights struct {
	PublicRepos   float64
	TotalStars    float64
	TotalForks    float64
	Followers     float64
	Contributions float64
	Following     float64
	// Extra fraction of the stars given when the user has both stars and contributions.
	SynergyBonus float64
}

// Weights is the full weight set shared by every caller of the calculator.
type Weights struct {
	LeetCode       LeetCodeWeights
	GitHub         GitHubWeights
	LeetCodeWeight float64
	GitHubWeight   float64
}

// DefaultWeights returns the standard weights.
func DefaultWeights() Weights {
	return Weights{
		LeetCode: LeetCodeWeights{
			TotalSolved:    2,
			EasySolved:     1,
			MediumSolved:   3,
			HardSolved:     5,
			AcceptanceRate: 0.5,
			Ranking:        -0.01,
			Reputation:     0.1,
		},
		GitHub: GitHubWeights{
			PublicRepos:   5,
			TotalStars:    10,
			TotalForks:    3,
			Followers:     2,
			Contributions: 0.1,
			Following:     0.1,
			SynergyBonus:  0.5,
		},
		LeetCodeWeight: 0.7,
		GitHubWeight:   0.3,
	}
}

// WeightsFromConfig returns the default counter weights with the configured provider split.
func WeightsFromConfig(cfg config.RankingConfig) Weights {
	w := DefaultWeights()
	w.LeetCodeWeight = cfg.LeetCodeWeight
	w.GitHubWeight = cfg.GitHubWeight
	return w
}

// Calculator translates provider statistics into scores. It holds no state besides the weights.
type Calculator struct {
	weights Weights
}

// NewCalculator creates a calculator with the given weights.
func NewCalculator(weights Weights) *Calculator {
	return &Calculator{weights: weights}
}

// Weights returns the weights used by the calculator.
func (c *Calculator) Weights() Weights {
	return c.weights
}

// LeetCodeScore returns the LeetCode sub-score. An absent record scores 0.
func (c *Calculator) LeetCodeScore(stats *models.LeetCodeStats) int {
	if stats == nil {
		return 0
	}

	w := c.weights.LeetCode
	score := float64(stats.TotalSolved)*w.TotalSolved +
		float64(stats.EasySolved)*w.EasySolved +
		float64(stats.MediumSolved)*w.MediumSolved +
		float64(stats.HardSolved)*w.HardSolved +
		stats.AcceptanceRate*w.AcceptanceRate +
		float64(stats.Ranking)*w.Ranking +
		float64(stats.Reputation)*w.Reputation

	return floorAtZero(score)
}

// GitHubScore returns the GitHub sub-score. An absent record scores 0.
func (c *Calculator) GitHubScore(stats *models.GitHubStats) int {
	if stats == nil {
		return 0
	}

	w := c.weights.GitHub
	score := float64(stats.PublicRepos)*w.PublicRepos +
		float64(stats.TotalStars)*w.TotalStars +
		float64(stats.TotalForks)*w.TotalForks +
		float64(stats.Followers)*w.Followers +
		float64(stats.Contributions)*w.Contributions +
		float64(stats.Following)*w.Following

	if stats.TotalStars > 0 && stats.Contributions > 0 {
		score += float64(stats.TotalStars) * w.SynergyBonus
	}

	return floorAtZero(score)
}

// Calculate returns the score triple for the given statistics, either may be nil.
func (c *Calculator) Calculate(leetcode *models.LeetCodeStats, github *models.GitHubStats) models.Scores {
	leetCodeScore := c.LeetCodeScore(leetcode)
	githubScore := c.GitHubScore(github)

	total := float64(leetCodeScore)*c.weights.LeetCodeWeight + float64(githubScore)*c.weights.GitHubWeight

	return models.Scores{
		LeetCodeScore: leetCodeScore,
		GithubScore:   githubScore,
		TotalScore:    floorAtZero(total),
	}
}

func floorAtZero(score float64) int {
	return int(math.Max(0, math.Round(score)))
}
