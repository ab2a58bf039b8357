package converters

import (
	"coderanker/api/dto"
	rankrepo "coderanker/api/repositories/rank"
	"coderanker/pkg/database/models"
)

// ConvertEntry builds the client view of a rank entry.
// Profile may be nil when the user was removed after the entry was read.
func ConvertEntry(entry *models.RankEntry, profile *models.Profile, totalUsers int64) *dto.LeaderboardEntry {
	view := &dto.LeaderboardEntry{
		UserID:        entry.UserID,
		Rank:          entry.Rank,
		PreviousRank:  entry.PreviousRank,
		RankChange:    entry.RankChange,
		TotalScore:    entry.TotalScore,
		LeetCodeScore: entry.LeetCodeScore,
		GithubScore:   entry.GithubScore,
		Percentile:    rankrepo.Percentile(entry.Rank, totalUsers),
		LastUpdated:   entry.LastUpdated,
	}

	if profile != nil {
		view.Username = profile.Username
		view.Avatar = profile.Avatar
	}

	return view
}

// ConvertEntries converts a page of entries, looking the profiles up by user id.
func ConvertEntries(entries []*models.RankEntry, profiles map[string]*models.Profile, totalUsers int64) []*dto.LeaderboardEntry {
	views := make([]*dto.LeaderboardEntry, 0, len(entries))
	for _, entry := range entries {
		views = append(views, ConvertEntry(entry, profiles[entry.UserID], totalUsers))
	}
	return views
}

// ConvertProfile keeps only the public fields of the profile.
func ConvertProfile(profile *models.Profile) *dto.Profile {
	if profile == nil {
		return nil
	}

	return &dto.Profile{
		UserID:           profile.UserID,
		Username:         profile.Username,
		Avatar:           profile.Avatar,
		GithubUsername:   profile.GitHub(),
		LeetcodeUsername: profile.LeetCode(),
	}
}

// NewPagination computes the page counters.
func NewPagination(page, limit int, total int64) dto.Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}

	return dto.Pagination{
		Page:    page,
		Limit:   limit,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}
