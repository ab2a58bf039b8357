package leaderboardservice

import (
	"context"
	"errors"
	"fmt"
	"math"

	"coderanker/api/converters"
	"coderanker/api/dto"
	"coderanker/api/filters"
	profilerepo "coderanker/api/repositories/profile"
	rankrepo "coderanker/api/repositories/rank"
	statsrepo "coderanker/api/repositories/stats"
	"coderanker/pkg/apperrors"
	"coderanker/pkg/database/models"

	"gorm.io/gorm"
)

// LeaderboardService builds the read views of the leaderboard.
type LeaderboardService struct {
	RankRepository    rankrepo.RankRepository
	ProfileRepository profilerepo.ProfileRepository
	StatsRepository   statsrepo.StatsRepository
}

// LeaderboardServiceDeps is the dependency list for the leaderboard service.
type LeaderboardServiceDeps struct {
	DB *gorm.DB
}

// NewLeaderboardService creates a leaderboard service.
func NewLeaderboardService(deps *LeaderboardServiceDeps) *LeaderboardService {
	return &LeaderboardService{
		RankRepository:    rankrepo.NewRankRepository(deps.DB),
		ProfileRepository: profilerepo.NewProfileRepository(deps.DB),
		StatsRepository:   statsrepo.NewStatsRepository(deps.DB),
	}
}

// GetLeaderboard returns a page of the leaderboard.
// When viewerID is set, the entry of the viewer is added, if ranked.
func (ls *LeaderboardService) GetLeaderboard(ctx context.Context, filter *filters.LeaderboardFilter, viewerID string) (*dto.LeaderboardPage, error) {
	entries, err := ls.RankRepository.GetPage(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get the leaderboard page: %w", err)
	}

	matching, err := ls.RankRepository.CountMatching(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count the leaderboard entries: %w", err)
	}

	totalUsers, err := ls.totalUsers(ctx)
	if err != nil {
		return nil, err
	}

	views, err := ls.withProfiles(ctx, entries, totalUsers)
	if err != nil {
		return nil, err
	}

	page := &dto.LeaderboardPage{
		Entries:    views,
		Pagination: converters.NewPagination(filter.Page, filter.Limit, matching),
	}

	if viewerID != "" {
		current, err := ls.GetUserRank(ctx, viewerID)
		switch {
		case err == nil:
			page.CurrentUser = current
		case !errors.Is(err, apperrors.ErrEntryNotFound):
			return nil, err
		}
	}

	return page, nil
}

// GetTop returns the first n entries of the leaderboard.
func (ls *LeaderboardService) GetTop(ctx context.Context, n int) ([]*dto.LeaderboardEntry, error) {
	entries, err := ls.RankRepository.GetTop(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to get the top entries: %w", err)
	}

	totalUsers, err := ls.totalUsers(ctx)
	if err != nil {
		return nil, err
	}

	return ls.withProfiles(ctx, entries, totalUsers)
}

// GetUserRank returns the leaderboard entry of a single user.
func (ls *LeaderboardService) GetUserRank(ctx context.Context, userID string) (*dto.LeaderboardEntry, error) {
	entry, err := ls.RankRepository.GetRank(ctx, userID)
	if err != nil {
		return nil, err
	}

	totalUsers, err := ls.totalUsers(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := ls.ProfileRepository.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, apperrors.ErrEntryNotFound) {
		return nil, fmt.Errorf("failed to get the profile of %s: %w", userID, err)
	}

	return converters.ConvertEntry(entry, profile, totalUsers), nil
}

// GetUserStats combines the profile, the entry and the provider snapshots of a user.
func (ls *LeaderboardService) GetUserStats(ctx context.Context, userID string) (*dto.UserStats, error) {
	profile, err := ls.ProfileRepository.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &dto.UserStats{
		UserID:  userID,
		Profile: converters.ConvertProfile(profile),
	}

	entry, err := ls.GetUserRank(ctx, userID)
	switch {
	case err == nil:
		stats.Leaderboard = entry
	case !errors.Is(err, apperrors.ErrEntryNotFound):
		return nil, err
	}

	if stats.GitHub, err = ls.StatsRepository.GetGitHub(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to get the github stats of %s: %w", userID, err)
	}
	if stats.LeetCode, err = ls.StatsRepository.GetLeetCode(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to get the leetcode stats of %s: %w", userID, err)
	}

	return stats, nil
}

// Compare puts two users side by side. Diffs are user minus other.
func (ls *LeaderboardService) Compare(ctx context.Context, userID, otherID string) (*dto.Comparison, error) {
	user, err := ls.GetUserStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	other, err := ls.GetUserStats(ctx, otherID)
	if err != nil {
		return nil, err
	}

	return &dto.Comparison{
		User:               user,
		Other:              other,
		ScoreDiff:          totalScore(user) - totalScore(other),
		LeetCodeSolvedDiff: solved(user.LeetCode) - solved(other.LeetCode),
		GithubStarsDiff:    stars(user.GitHub) - stars(other.GitHub),
	}, nil
}

// GetStats returns the leaderboard wide numbers and the first user.
func (ls *LeaderboardService) GetStats(ctx context.Context) (*dto.GlobalStats, error) {
	aggregate, err := ls.RankRepository.Aggregate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate the leaderboard: %w", err)
	}

	stats := &dto.GlobalStats{
		TotalUsers:   aggregate.TotalUsers,
		TotalScore:   aggregate.TotalScore,
		AverageScore: int(math.Round(aggregate.AverageScore)),
	}

	top, err := ls.RankRepository.GetTop(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to get the top user: %w", err)
	}
	if len(top) == 0 || top[0].Rank == 0 {
		return stats, nil
	}

	stats.TopUser = &dto.TopUser{UserID: top[0].UserID, Score: top[0].TotalScore}
	profile, err := ls.ProfileRepository.GetProfile(ctx, top[0].UserID)
	switch {
	case err == nil:
		stats.TopUser.Username = profile.Username
		stats.TopUser.Avatar = profile.Avatar
	case !errors.Is(err, apperrors.ErrEntryNotFound):
		return nil, fmt.Errorf("failed to get the top user profile: %w", err)
	}

	return stats, nil
}

// LeaderboardSnapshot is the state sent to the leaderboard room.
func (ls *LeaderboardService) LeaderboardSnapshot(ctx context.Context, n int) ([]*dto.LeaderboardEntry, error) {
	return ls.GetTop(ctx, n)
}

// GlobalSnapshot is the state sent to the global room.
func (ls *LeaderboardService) GlobalSnapshot(ctx context.Context) (*dto.GlobalStats, error) {
	return ls.GetStats(ctx)
}

// UserSnapshot is the state sent to the room of a single user.
func (ls *LeaderboardService) UserSnapshot(ctx context.Context, userID string) (*dto.UserStats, error) {
	return ls.GetUserStats(ctx, userID)
}

func (ls *LeaderboardService) totalUsers(ctx context.Context) (int64, error) {
	aggregate, err := ls.RankRepository.Aggregate(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count the users: %w", err)
	}
	return aggregate.TotalUsers, nil
}

// Convert the entries with a single profile query.
func (ls *LeaderboardService) withProfiles(ctx context.Context, entries []*models.RankEntry, totalUsers int64) ([]*dto.LeaderboardEntry, error) {
	if len(entries) == 0 {
		return []*dto.LeaderboardEntry{}, nil
	}

	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.UserID
	}

	profiles, err := ls.ProfileRepository.GetProfiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get the profiles: %w", err)
	}

	return converters.ConvertEntries(entries, profiles, totalUsers), nil
}

func totalScore(stats *dto.UserStats) int {
	if stats.Leaderboard == nil {
		return 0
	}
	return stats.Leaderboard.TotalScore
}

func solved(stats *models.LeetCodeStats) int {
	if stats == nil {
		return 0
	}
	return stats.TotalSolved
}

func stars(stats *models.GitHubStats) int {
	if stats == nil {
		return 0
	}
	return stats.TotalStars
}
