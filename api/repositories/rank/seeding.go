package rankrepo

import (
	"testing"
	"time"

	"coderanker/pkg/database/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedDate = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func seedRankTestData(t *testing.T, db *gorm.DB) {
	t.Helper()

	// Clean up existing data
	db.Exec("TRUNCATE TABLE rank_entries, profiles")

	profiles := []*models.Profile{
		{UserID: "u1", Username: "Ana"},
		{UserID: "u2", Username: "Bruno"},
		{UserID: "u3", Username: "Carla"},
		{UserID: "u4", Username: "Anabel"},
	}
	for _, p := range profiles {
		require.NoError(t, db.Create(p).Error)
	}

	entries := []*models.RankEntry{
		{UserID: "u1", TotalScore: 300, LeetCodeScore: 400, GithubScore: 66, Rank: 2, PreviousRank: 2, ScoreUpdatedAt: fixedDate.Add(time.Hour), LastUpdated: fixedDate},
		{UserID: "u2", TotalScore: 300, LeetCodeScore: 0, GithubScore: 1000, Rank: 1, PreviousRank: 1, ScoreUpdatedAt: fixedDate, LastUpdated: fixedDate},
		{UserID: "u3", TotalScore: 100, LeetCodeScore: 143, GithubScore: 0, Rank: 3, PreviousRank: 5, RankChange: 2, ScoreUpdatedAt: fixedDate, LastUpdated: fixedDate},
		{UserID: "u4", TotalScore: 50, LeetCodeScore: 71, GithubScore: 0, Rank: 0, ScoreUpdatedAt: fixedDate, LastUpdated: fixedDate},
	}
	for _, e := range entries {
		require.NoError(t, db.Create(e).Error)
	}
}
