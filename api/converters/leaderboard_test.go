package converters

import (
	"testing"
	"time"

	"coderanker/api/dto"
	"coderanker/pkg/database/models"

	"github.com/stretchr/testify/assert"
)

func TestConvertEntry(t *testing.T) {
	updated := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	entry := &models.RankEntry{
		UserID:        "u1",
		TotalScore:    112,
		LeetCodeScore: 120,
		GithubScore:   95,
		Rank:          2,
		PreviousRank:  5,
		RankChange:    3,
		LastUpdated:   updated,
	}

	tests := []struct {
		name     string
		profile  *models.Profile
		total    int64
		expected *dto.LeaderboardEntry
	}{
		{
			name:    "with profile",
			profile: &models.Profile{UserID: "u1", Username: "ana", Avatar: "a.png"},
			total:   8,
			expected: &dto.LeaderboardEntry{
				UserID: "u1", Username: "ana", Avatar: "a.png",
				Rank: 2, PreviousRank: 5, RankChange: 3,
				TotalScore: 112, LeetCodeScore: 120, GithubScore: 95,
				Percentile: 75, LastUpdated: updated,
			},
		},
		{
			name:  "missing profile",
			total: 3,
			expected: &dto.LeaderboardEntry{
				UserID: "u1", Rank: 2, PreviousRank: 5, RankChange: 3,
				TotalScore: 112, LeetCodeScore: 120, GithubScore: 95,
				Percentile: 33.33, LastUpdated: updated,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ConvertEntry(entry, tt.profile, tt.total))
		})
	}
}

func TestConvertProfile(t *testing.T) {
	github := "octocat"

	assert.Nil(t, ConvertProfile(nil))
	assert.Equal(t, &dto.Profile{UserID: "u1", Username: "ana", GithubUsername: "octocat"},
		ConvertProfile(&models.Profile{UserID: "u1", Username: "ana", GithubUsername: &github}))
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		limit    int
		total    int64
		expected dto.Pagination
	}{
		{name: "first page", page: 1, limit: 20, total: 45, expected: dto.Pagination{Page: 1, Limit: 20, Total: 45, Pages: 3, HasNext: true}},
		{name: "last page", page: 3, limit: 20, total: 45, expected: dto.Pagination{Page: 3, Limit: 20, Total: 45, Pages: 3, HasPrev: true}},
		{name: "empty", page: 1, limit: 20, total: 0, expected: dto.Pagination{Page: 1, Limit: 20}},
		{name: "exact", page: 2, limit: 10, total: 20, expected: dto.Pagination{Page: 2, Limit: 10, Total: 20, Pages: 2, HasPrev: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewPagination(tt.page, tt.limit, tt.total))
		})
	}
}
