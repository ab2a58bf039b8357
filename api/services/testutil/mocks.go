package testutil

import (
	"context"
	"testing"
	"time"

	"coderanker/api/dto"
	"coderanker/api/filters"
	rankrepo "coderanker/api/repositories/rank"
	"coderanker/pkg/database/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// Assert the expectations of all mocks.
func VerifyAllMocks(t *testing.T, mocks ...any) {
	t.Helper()

	for _, m := range mocks {
		if mockObj, ok := m.(interface{ AssertExpectations(*testing.T) bool }); ok {
			mockObj.AssertExpectations(t)
		}
	}
}

// ============================================================================
// Repository mocks.
// ============================================================================

// Rank repository mock implementation.
type MockRankRepository struct {
	mock.Mock
}

func (m *MockRankRepository) UpsertScore(ctx context.Context, userID string, scores models.Scores, at time.Time) error {
	args := m.Called(ctx, userID, scores, at)
	return args.Error(0)
}

func (m *MockRankRepository) ListForRanking(ctx context.Context) ([]rankrepo.RankingRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]rankrepo.RankingRow)
	return rows, args.Error(1)
}

func (m *MockRankRepository) BulkReRank(ctx context.Context, orderedUserIDs []string, at time.Time) (*rankrepo.ReRankResult, error) {
	args := m.Called(ctx, orderedUserIDs, at)
	result, _ := args.Get(0).(*rankrepo.ReRankResult)
	return result, args.Error(1)
}

func (m *MockRankRepository) GetRank(ctx context.Context, userID string) (*models.RankEntry, error) {
	args := m.Called(ctx, userID)
	entry, _ := args.Get(0).(*models.RankEntry)
	return entry, args.Error(1)
}

func (m *MockRankRepository) GetTop(ctx context.Context, n int) ([]*models.RankEntry, error) {
	args := m.Called(ctx, n)
	entries, _ := args.Get(0).([]*models.RankEntry)
	return entries, args.Error(1)
}

func (m *MockRankRepository) GetPage(ctx context.Context, filter *filters.LeaderboardFilter) ([]*models.RankEntry, error) {
	args := m.Called(ctx, filter)
	entries, _ := args.Get(0).([]*models.RankEntry)
	return entries, args.Error(1)
}

func (m *MockRankRepository) CountMatching(ctx context.Context, filter *filters.LeaderboardFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRankRepository) Aggregate(ctx context.Context) (*rankrepo.Aggregate, error) {
	args := m.Called(ctx)
	aggregate, _ := args.Get(0).(*rankrepo.Aggregate)
	return aggregate, args.Error(1)
}

func (m *MockRankRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Stats repository mock implementation.
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) UpsertLeetCode(ctx context.Context, stats *models.LeetCodeStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockStatsRepository) UpsertGitHub(ctx context.Context, stats *models.GitHubStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockStatsRepository) GetLeetCode(ctx context.Context, userID string) (*models.LeetCodeStats, error) {
	args := m.Called(ctx, userID)
	stats, _ := args.Get(0).(*models.LeetCodeStats)
	return stats, args.Error(1)
}

func (m *MockStatsRepository) GetGitHub(ctx context.Context, userID string) (*models.GitHubStats, error) {
	args := m.Called(ctx, userID)
	stats, _ := args.Get(0).(*models.GitHubStats)
	return stats, args.Error(1)
}

// Profile repository mock implementation.
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *MockProfileRepository) GetProfiles(ctx context.Context, userIDs []string) (map[string]*models.Profile, error) {
	args := m.Called(ctx, userIDs)
	profiles, _ := args.Get(0).(map[string]*models.Profile)
	return profiles, args.Error(1)
}

func (m *MockProfileRepository) ListActive(ctx context.Context, since time.Time, limit int) ([]*models.Profile, error) {
	args := m.Called(ctx, since, limit)
	profiles, _ := args.Get(0).([]*models.Profile)
	return profiles, args.Error(1)
}

func (m *MockProfileRepository) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) TouchLogin(ctx context.Context, userID, username string, at time.Time) error {
	args := m.Called(ctx, userID, username, at)
	return args.Error(0)
}

// Refresh log repository mock implementation.
type MockRefreshLogRepository struct {
	mock.Mock
}

func (m *MockRefreshLogRepository) Create(ctx context.Context, entry *models.RefreshLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRefreshLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.RefreshLog, error) {
	args := m.Called(ctx, userID, limit)
	logs, _ := args.Get(0).([]*models.RefreshLog)
	return logs, args.Error(1)
}

func (m *MockRefreshLogRepository) ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*models.RefreshLog, error) {
	args := m.Called(ctx, cutoff, limit)
	logs, _ := args.Get(0).([]*models.RefreshLog)
	return logs, args.Error(1)
}

func (m *MockRefreshLogRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// ============================================================================
// Provider and side effect mocks.
// ============================================================================

// GitHub client mock implementation.
type MockGitHubClient struct {
	mock.Mock
}

func (m *MockGitHubClient) FetchStats(ctx context.Context, username string) (*models.GitHubStats, error) {
	args := m.Called(ctx, username)
	stats, _ := args.Get(0).(*models.GitHubStats)
	return stats, args.Error(1)
}

func (m *MockGitHubClient) Validate(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

// LeetCode client mock implementation.
type MockLeetCodeClient struct {
	mock.Mock
}

func (m *MockLeetCodeClient) FetchStats(ctx context.Context, username string) (*models.LeetCodeStats, error) {
	args := m.Called(ctx, username)
	stats, _ := args.Get(0).(*models.LeetCodeStats)
	return stats, args.Error(1)
}

func (m *MockLeetCodeClient) Validate(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

// Notifier mock implementation.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyRankChange(ctx context.Context, event dto.RankChangeEvent) {
	m.Called(ctx, event)
}

func (m *MockNotifier) NotifyUserStatsUpdated(ctx context.Context, userID string) {
	m.Called(ctx, userID)
}

// Archiver mock implementation.
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(ctx context.Context, key string, body []byte) error {
	args := m.Called(ctx, key, body)
	return args.Error(0)
}

// Redis client mock used by the refresh guard.
type MockRefreshRedisClient struct {
	mock.Mock
}

func (m *MockRefreshRedisClient) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.BoolCmd)
}

func (m *MockRefreshRedisClient) TTL(ctx context.Context, key string) *redis.DurationCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.DurationCmd)
}

func (m *MockRefreshRedisClient) Incr(ctx context.Context, key string) *redis.IntCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.IntCmd)
}

func (m *MockRefreshRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	args := m.Called(ctx, key, expiration)
	return args.Get(0).(*redis.BoolCmd)
}
