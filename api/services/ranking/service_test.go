package rankingservice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"coderanker/api/dto"
	rankrepo "coderanker/api/repositories/rank"
	"coderanker/api/services/testutil"
	"coderanker/pkg/apperrors"
	"coderanker/pkg/archive"
	"coderanker/pkg/config"
	"coderanker/pkg/database/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	testGitHub   = &models.GitHubStats{PublicRepos: 4, TotalStars: 12, Followers: 3, Contributions: 8}
	testLeetCode = &models.LeetCodeStats{TotalSolved: 10, EasySolved: 10}
)

// Simple test for asserting that everything is fine with the ranking service creation.
func TestNewRankingService(t *testing.T) {
	service := NewRankingService(&RankingServiceDeps{
		DB:     new(gorm.DB),
		Config: testConfig,
	})

	assert.NotNil(t, service)
	assert.NotNil(t, service.RankRepository)
	assert.NotNil(t, service.StatsRepository)
	assert.NotNil(t, service.ProfileRepository)
	assert.NotNil(t, service.RefreshLogRepository)
	assert.NotNil(t, service.Calculator())
	assert.IsType(t, nopNotifier{}, service.notifier)
}

func logWith(status models.RefreshStatus) any {
	return mock.MatchedBy(func(entry *models.RefreshLog) bool {
		return entry.Status == status
	})
}

func TestRefreshUser(t *testing.T) {
	notFound := apperrors.NewProviderError("github", apperrors.ErrProviderNotFound, nil)
	timeout := apperrors.NewProviderError("leetcode", apperrors.ErrProviderTimeout, nil)

	tests := []struct {
		name             string
		req              RefreshRequest
		setupMocks       func(m *testMocks, service *RankingService)
		expectedStatus   models.RefreshStatus
		expectedStates   []State
		expectedFailures []string
		expectedError    error
	}{
		{
			name: "both providers succeed",
			req:  RefreshRequest{UserID: "u1", GithubUsername: "octocat", LeetcodeUsername: "lc_user", Type: models.RefreshBoth},
			setupMocks: func(m *testMocks, service *RankingService) {
				m.github.On("FetchStats", mock.Anything, "octocat").Return(&models.GitHubStats{PublicRepos: 4, TotalStars: 12}, nil)
				m.leetcode.On("FetchStats", mock.Anything, "lc_user").Return(&models.LeetCodeStats{TotalSolved: 10}, nil)
				m.stats.On("UpsertGitHub", mock.Anything, mock.Anything).Return(nil)
				m.stats.On("UpsertLeetCode", mock.Anything, mock.Anything).Return(nil)
				m.stats.On("GetLeetCode", mock.Anything, "u1").Return(testLeetCode, nil)
				m.stats.On("GetGitHub", mock.Anything, "u1").Return(testGitHub, nil)
				m.rank.On("UpsertScore", mock.Anything, "u1", service.Calculator().Calculate(testLeetCode, testGitHub), testNow).Return(nil)
				m.logs.On("Create", mock.Anything, logWith(models.RefreshSuccess)).Return(nil)
			},
			expectedStatus: models.RefreshSuccess,
			expectedStates: []State{StateIdle, StateFetchingProviderData, StateScoring, StatePersisted, StateDone},
		},
		{
			name: "github not found keeps the leetcode data",
			req:  RefreshRequest{UserID: "u1", GithubUsername: "ghost", LeetcodeUsername: "lc_user", Type: models.RefreshBoth},
			setupMocks: func(m *testMocks, service *RankingService) {
				m.github.On("FetchStats", mock.Anything, "ghost").Return(nil, notFound)
				m.leetcode.On("FetchStats", mock.Anything, "lc_user").Return(&models.LeetCodeStats{TotalSolved: 10}, nil)
				m.stats.On("UpsertLeetCode", mock.Anything, mock.MatchedBy(func(s *models.LeetCodeStats) bool {
					return s.UserID == "u1" && s.SyncedAt.Equal(testNow)
				})).Return(nil)
				m.stats.On("GetLeetCode", mock.Anything, "u1").Return(testLeetCode, nil)
				m.stats.On("GetGitHub", mock.Anything, "u1").Return(nil, nil)
				m.rank.On("UpsertScore", mock.Anything, "u1", service.Calculator().Calculate(testLeetCode, nil), testNow).Return(nil)
				m.logs.On("Create", mock.Anything, mock.MatchedBy(func(entry *models.RefreshLog) bool {
					return entry.Status == models.RefreshPartial && entry.ErrorKind == "provider_not_found"
				})).Return(nil)
			},
			expectedStatus:   models.RefreshPartial,
			expectedStates:   []State{StateIdle, StateFetchingProviderData, StateScoring, StatePersisted, StateDone},
			expectedFailures: []string{"github"},
		},
		{
			name: "every provider failing leaves the scores untouched",
			req:  RefreshRequest{UserID: "u1", GithubUsername: "octocat", LeetcodeUsername: "lc_user", Type: models.RefreshBoth},
			setupMocks: func(m *testMocks, service *RankingService) {
				m.github.On("FetchStats", mock.Anything, "octocat").Return(nil, notFound)
				m.leetcode.On("FetchStats", mock.Anything, "lc_user").Return(nil, timeout)
				m.logs.On("Create", mock.Anything, logWith(models.RefreshFailed)).Return(nil)
			},
			expectedStatus:   models.RefreshFailed,
			expectedStates:   []State{StateIdle, StateFetchingProviderData, StateFailed},
			expectedFailures: []string{"github", "leetcode"},
		},
		{
			name: "single provider refresh",
			req:  RefreshRequest{UserID: "u1", LeetcodeUsername: "lc_user", Type: models.RefreshLeetCode},
			setupMocks: func(m *testMocks, service *RankingService) {
				m.leetcode.On("FetchStats", mock.Anything, "lc_user").Return(&models.LeetCodeStats{TotalSolved: 10}, nil)
				m.stats.On("UpsertLeetCode", mock.Anything, mock.Anything).Return(nil)
				m.stats.On("GetLeetCode", mock.Anything, "u1").Return(testLeetCode, nil)
				m.stats.On("GetGitHub", mock.Anything, "u1").Return(testGitHub, nil)
				m.rank.On("UpsertScore", mock.Anything, "u1", service.Calculator().Calculate(testLeetCode, testGitHub), testNow).Return(nil)
				m.logs.On("Create", mock.Anything, logWith(models.RefreshSuccess)).Return(nil)
			},
			expectedStatus: models.RefreshSuccess,
			expectedStates: []State{StateIdle, StateFetchingProviderData, StateScoring, StatePersisted, StateDone},
		},
		{
			name: "invalid username fails before any call",
			req:  RefreshRequest{UserID: "u1", GithubUsername: "-bad-", Type: models.RefreshGitHub},
			setupMocks: func(m *testMocks, service *RankingService) {
				m.logs.On("Create", mock.Anything, mock.MatchedBy(func(entry *models.RefreshLog) bool {
					return entry.Status == models.RefreshFailed && entry.ErrorKind == "validation"
				})).Return(nil)
			},
			expectedStatus: models.RefreshFailed,
			expectedStates: []State{StateIdle, StateFailed},
			expectedError:  apperrors.ErrValidation,
		},
		{
			name: "unknown refresh type",
			req:  RefreshRequest{UserID: "u1", Type: "gitlab"},
			setupMocks: func(m *testMocks, service *RankingService) {
				m.logs.On("Create", mock.Anything, mock.MatchedBy(func(entry *models.RefreshLog) bool {
					return entry.Type == models.RefreshBoth && entry.Status == models.RefreshFailed
				})).Return(nil)
			},
			expectedStatus: models.RefreshFailed,
			expectedStates: []State{StateIdle, StateFailed},
			expectedError:  apperrors.ErrValidation,
		},
		{
			name: "score store failure",
			req:  RefreshRequest{UserID: "u1", GithubUsername: "octocat", Type: models.RefreshGitHub},
			setupMocks: func(m *testMocks, service *RankingService) {
				m.github.On("FetchStats", mock.Anything, "octocat").Return(&models.GitHubStats{PublicRepos: 4}, nil)
				m.stats.On("UpsertGitHub", mock.Anything, mock.Anything).Return(nil)
				m.stats.On("GetLeetCode", mock.Anything, "u1").Return(nil, nil)
				m.stats.On("GetGitHub", mock.Anything, "u1").Return(testGitHub, nil)
				m.rank.On("UpsertScore", mock.Anything, "u1", mock.Anything, testNow).
					Return(fmt.Errorf("%w: connection refused", apperrors.ErrStoreUnavailable))
				m.logs.On("Create", mock.Anything, logWith(models.RefreshFailed)).Return(nil)
			},
			expectedStatus: models.RefreshFailed,
			expectedStates: []State{StateIdle, StateFetchingProviderData, StateScoring, StateFailed},
			expectedError:  apperrors.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, mocks := setupTestService()
			tt.setupMocks(mocks, service)

			result, err := service.RefreshUser(context.Background(), tt.req)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			require.NotNil(t, result)
			assert.Equal(t, tt.expectedStatus, result.Status)
			assert.Equal(t, tt.expectedStates, result.States)

			var failed []string
			for _, failure := range result.Failures {
				failed = append(failed, failure.Provider)
			}
			assert.ElementsMatch(t, tt.expectedFailures, failed)

			testutil.VerifyAllMocks(t, mocks.all()...)
		})
	}
}

// The audit log failing never fails the refresh.
func TestRefreshUserLogFailure(t *testing.T) {
	service, mocks := setupTestService()
	mocks.github.On("FetchStats", mock.Anything, "octocat").Return(nil, errors.New("boom"))
	mocks.logs.On("Create", mock.Anything, mock.Anything).Return(errors.New("log table missing"))

	result, err := service.RefreshUser(context.Background(), RefreshRequest{
		UserID: "u1", GithubUsername: "octocat", Type: models.RefreshGitHub,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.RefreshFailed, result.Status)
	assert.False(t, result.Persisted())
	testutil.VerifyAllMocks(t, mocks.all()...)
}

func TestSortForRanking(t *testing.T) {
	older := testNow.Add(-time.Hour)

	tests := []struct {
		name     string
		rows     []rankrepo.RankingRow
		expected []string
	}{
		{
			name: "most recent update wins a tie",
			rows: []rankrepo.RankingRow{
				{UserID: "b", TotalScore: 300, ScoreUpdatedAt: older},
				{UserID: "c", TotalScore: 100, ScoreUpdatedAt: testNow},
				{UserID: "a", TotalScore: 300, ScoreUpdatedAt: testNow},
			},
			expected: []string{"a", "b", "c"},
		},
		{
			name: "user id on a full tie",
			rows: []rankrepo.RankingRow{
				{UserID: "z", TotalScore: 50, ScoreUpdatedAt: testNow},
				{UserID: "m", TotalScore: 50, ScoreUpdatedAt: testNow},
			},
			expected: []string{"m", "z"},
		},
		{
			name:     "empty",
			rows:     nil,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sorted := SortForRanking(tt.rows)

			ids := make([]string, 0, len(sorted))
			for _, row := range sorted {
				ids = append(ids, row.UserID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestReRankAllTieBreak(t *testing.T) {
	service, _ := setupTestService()
	store := testutil.NewFakeRankRepository()
	service.RankRepository = store

	ctx := context.Background()
	require.NoError(t, store.UpsertScore(ctx, "B", models.Scores{TotalScore: 300}, testNow.Add(-time.Minute)))
	require.NoError(t, store.UpsertScore(ctx, "A", models.Scores{TotalScore: 300}, testNow))
	require.NoError(t, store.UpsertScore(ctx, "C", models.Scores{TotalScore: 100}, testNow))

	summary, err := service.ReRankAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, &dto.ReRankSummary{Ranked: 3}, summary)

	ranks := make(map[string]int)
	for _, entry := range store.Entries() {
		ranks[entry.UserID] = entry.Rank
	}
	assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 3}, ranks)
}

// Random leaderboards always end with contiguous ranks ordered by score.
func TestReRankAllDenseRanks(t *testing.T) {
	faker := gofakeit.New(42)

	for round := 0; round < 20; round++ {
		service, _ := setupTestService()
		store := testutil.NewFakeRankRepository()
		service.RankRepository = store

		ctx := context.Background()
		users := faker.IntRange(1, 60)
		for i := 0; i < users; i++ {
			at := testNow.Add(-time.Duration(faker.IntRange(0, 3600)) * time.Second)
			scores := models.Scores{TotalScore: faker.IntRange(0, 50)}
			require.NoError(t, store.UpsertScore(ctx, faker.UUID(), scores, at))
		}

		// Re-ranking twice must be stable.
		_, err := service.ReRankAll(ctx)
		require.NoError(t, err)
		summary, err := service.ReRankAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, users, summary.Ranked)

		entries := store.Entries()
		for i, entry := range entries {
			assert.Equal(t, i+1, entry.Rank)
			assert.Equal(t, 0, entry.RankChange)
			if i > 0 {
				assert.GreaterOrEqual(t, entries[i-1].TotalScore, entry.TotalScore)
			}
		}
	}
}

func TestReRankAllReportsRows(t *testing.T) {
	tests := []struct {
		name          string
		setupMocks    func(m *testutil.MockRankRepository)
		expected      *dto.ReRankSummary
		expectedError error
	}{
		{
			name: "skipped and failed rows",
			setupMocks: func(m *testutil.MockRankRepository) {
				m.On("ListForRanking", mock.Anything).Return([]rankrepo.RankingRow{
					{UserID: "u1", TotalScore: 10},
					{UserID: "u2", TotalScore: 20},
					{UserID: "u3", TotalScore: 30},
				}, nil)
				m.On("BulkReRank", mock.Anything, []string{"u3", "u2", "u1"}, testNow).Return(&rankrepo.ReRankResult{
					Updated: 1,
					Skipped: 1,
					Failed:  []rankrepo.RowError{{UserID: "u1", Err: errors.New("constraint")}},
				}, nil)
			},
			expected: &dto.ReRankSummary{Ranked: 1, Skipped: 1, Failed: 1},
		},
		{
			name: "store unavailable",
			setupMocks: func(m *testutil.MockRankRepository) {
				m.On("ListForRanking", mock.Anything).Return(nil, fmt.Errorf("%w: dial tcp", apperrors.ErrStoreUnavailable))
			},
			expectedError: apperrors.ErrStoreUnavailable,
		},
		{
			name: "lost connection mid run",
			setupMocks: func(m *testutil.MockRankRepository) {
				m.On("ListForRanking", mock.Anything).Return([]rankrepo.RankingRow{{UserID: "u1"}}, nil)
				m.On("BulkReRank", mock.Anything, []string{"u1"}, testNow).
					Return(&rankrepo.ReRankResult{}, fmt.Errorf("%w: broken pipe", apperrors.ErrStoreUnavailable))
			},
			expectedError: apperrors.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, mocks := setupTestService()
			tt.setupMocks(mocks.rank)

			summary, err := service.ReRankAll(context.Background())

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, summary)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, summary)
			}
			testutil.VerifyAllMocks(t, mocks.rank)
		})
	}
}

// Mock the provider and stats calls of a successful leetcode refresh.
func expectLeetCodeRefresh(m *testMocks, userID string, stats *models.LeetCodeStats) {
	m.leetcode.On("FetchStats", mock.Anything, userID).Return(&models.LeetCodeStats{TotalSolved: stats.TotalSolved}, nil)
	m.stats.On("UpsertLeetCode", mock.Anything, mock.Anything).Return(nil)
	m.stats.On("GetLeetCode", mock.Anything, userID).Return(stats, nil)
	m.stats.On("GetGitHub", mock.Anything, userID).Return(nil, nil)
	m.logs.On("Create", mock.Anything, mock.Anything).Return(nil)
}

func TestRefreshAndRankNotifiesRankChange(t *testing.T) {
	service, mocks := setupTestService()
	store := testutil.NewFakeRankRepository()
	service.RankRepository = store

	ctx := context.Background()
	for userID, score := range map[string]int{"a": 1000, "b": 15, "c": 10, "d": 5, "target": 1} {
		require.NoError(t, store.UpsertScore(ctx, userID, models.Scores{TotalScore: score}, testNow.Add(-time.Hour)))
	}
	_, err := service.ReRankAll(ctx)
	require.NoError(t, err)

	before, err := store.GetRank(ctx, "target")
	require.NoError(t, err)
	require.Equal(t, 5, before.Rank)

	// 10 easy problems score 21.
	expectLeetCodeRefresh(mocks, "target", testLeetCode)
	mocks.notifier.On("NotifyRankChange", mock.Anything, dto.RankChangeEvent{
		UserID:       "target",
		PreviousRank: 5,
		Rank:         2,
		RankChange:   3,
		TotalScore:   21,
	}).Return()
	mocks.notifier.On("NotifyUserStatsUpdated", mock.Anything, "target").Return()

	result, err := service.RefreshAndRank(ctx, RefreshRequest{
		UserID:           "target",
		LeetcodeUsername: "target",
		Type:             models.RefreshLeetCode,
		ReRank:           true,
	})

	require.NoError(t, err)
	assert.Equal(t, []State{StateIdle, StateFetchingProviderData, StateScoring, StatePersisted, StateReranking, StateDone}, result.States)
	assert.Equal(t, 5, result.PreviousRank)
	require.NotNil(t, result.Entry)
	assert.Equal(t, 2, result.Entry.Rank)
	assert.Equal(t, 3, result.Entry.RankChange)
	assert.Equal(t, 5, result.ReRanked)

	response := result.Response()
	assert.Equal(t, 2, response.Rank)
	assert.Equal(t, 3, response.RankChange)

	testutil.VerifyAllMocks(t, mocks.all()...)
}

func TestRefreshAndRankWithoutReRank(t *testing.T) {
	service, mocks := setupTestService()
	store := testutil.NewFakeRankRepository()
	service.RankRepository = store

	// First refresh of a new user, it stays unranked until the next sweep.
	expectLeetCodeRefresh(mocks, "newbie", testLeetCode)
	mocks.notifier.On("NotifyUserStatsUpdated", mock.Anything, "newbie").Return()

	result, err := service.RefreshAndRank(context.Background(), RefreshRequest{
		UserID:           "newbie",
		LeetcodeUsername: "newbie",
		Type:             models.RefreshLeetCode,
	})

	require.NoError(t, err)
	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 0, result.PreviousRank)
	require.NotNil(t, result.Entry)
	assert.Equal(t, 0, result.Entry.Rank)
	assert.Equal(t, 21, result.Entry.TotalScore)

	mocks.notifier.AssertNotCalled(t, "NotifyRankChange", mock.Anything, mock.Anything)
	testutil.VerifyAllMocks(t, mocks.all()...)
}

// Re-ranks racing with refreshes never lose an entry or break the ranks.
func TestReRankAllConcurrentWithRefreshes(t *testing.T) {
	service, mocks := setupTestService()
	store := testutil.NewFakeRankRepository()
	service.RankRepository = store

	const users = 30
	for i := 0; i < users; i++ {
		userID := fmt.Sprintf("user%02d", i)
		expectLeetCodeRefresh(mocks, userID, &models.LeetCodeStats{TotalSolved: i, EasySolved: i})
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := service.RefreshUser(ctx, RefreshRequest{UserID: userID, LeetcodeUsername: userID, Type: models.RefreshLeetCode})
			assert.NoError(t, err)
		}(fmt.Sprintf("user%02d", i))

		if i%5 == 0 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := service.ReRankAll(ctx)
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	// A re-rank after every upsert committed sees all of them.
	summary, err := service.ReRankAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, users, summary.Ranked)

	entries := store.Entries()
	require.Len(t, entries, users)
	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Rank)
	}
	assert.Equal(t, "user29", entries[0].UserID)
}

func TestRefreshActiveUsers(t *testing.T) {
	service, mocks := setupTestService()

	github := "octocat"
	leetcode := "lc_user"
	mocks.profile.On("ListActive", mock.Anything, testNow.Add(-testConfig.ActiveWindow), testConfig.SweepBatchSize).
		Return([]*models.Profile{
			{UserID: "both", GithubUsername: &github, LeetcodeUsername: &leetcode},
			{UserID: "lc-only", LeetcodeUsername: &leetcode},
			{UserID: "nothing"},
		}, nil)

	mocks.github.On("FetchStats", mock.Anything, github).Return(nil, apperrors.NewProviderError("github", apperrors.ErrProviderRateLimited, nil))
	mocks.leetcode.On("FetchStats", mock.Anything, leetcode).Return(&models.LeetCodeStats{TotalSolved: 3}, nil)
	mocks.stats.On("UpsertLeetCode", mock.Anything, mock.Anything).Return(nil)
	mocks.stats.On("GetLeetCode", mock.Anything, mock.Anything).Return(testLeetCode, nil)
	mocks.stats.On("GetGitHub", mock.Anything, mock.Anything).Return(nil, nil)
	mocks.rank.On("UpsertScore", mock.Anything, mock.Anything, mock.Anything, testNow).Return(nil)
	mocks.logs.On("Create", mock.Anything, mock.Anything).Return(nil)

	summary, err := service.RefreshActiveUsers(context.Background())

	require.NoError(t, err)
	assert.Equal(t, &SweepSummary{Attempted: 2, Succeeded: 1, Partial: 1}, summary)
	mocks.rank.AssertNumberOfCalls(t, "UpsertScore", 2)
	testutil.VerifyAllMocks(t, mocks.all()...)
}

func TestRefreshActiveUsersStoreFailure(t *testing.T) {
	service, mocks := setupTestService()
	mocks.profile.On("ListActive", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: dial tcp", apperrors.ErrStoreUnavailable))

	summary, err := service.RefreshActiveUsers(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.Nil(t, summary)
}

func TestCleanupRefreshLogs(t *testing.T) {
	cutoff := testNow.Add(-testConfig.LogRetention)
	expired := []*models.RefreshLog{
		{ID: 3, UserID: "u1", Type: models.RefreshBoth, Status: models.RefreshSuccess},
		{ID: 7, UserID: "u2", Type: models.RefreshGitHub, Status: models.RefreshFailed},
	}

	tests := []struct {
		name            string
		withArchiver    bool
		setupMocks      func(m *testMocks)
		expectedDeleted int64
		expectError     bool
	}{
		{
			name:         "archives then deletes",
			withArchiver: true,
			setupMocks: func(m *testMocks) {
				m.logs.On("ListOlderThan", mock.Anything, cutoff, cleanupBatchSize).Return(expired, nil)
				m.archiver.On("Archive", mock.Anything, "refresh-logs/2025-03-10/3-7.jsonl", mock.MatchedBy(func(body []byte) bool {
					return len(body) > 0 && body[len(body)-1] == '\n'
				})).Return(nil)
				m.logs.On("DeleteByIDs", mock.Anything, []uint{3, 7}).Return(int64(2), nil)
			},
			expectedDeleted: 2,
		},
		{
			name: "deletes without an archiver",
			setupMocks: func(m *testMocks) {
				m.logs.On("ListOlderThan", mock.Anything, cutoff, cleanupBatchSize).Return(expired, nil)
				m.logs.On("DeleteByIDs", mock.Anything, []uint{3, 7}).Return(int64(2), nil)
			},
			expectedDeleted: 2,
		},
		{
			name:         "archive failure keeps the logs",
			withArchiver: true,
			setupMocks: func(m *testMocks) {
				m.logs.On("ListOlderThan", mock.Anything, cutoff, cleanupBatchSize).Return(expired, nil)
				m.archiver.On("Archive", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket unreachable"))
			},
			expectError: true,
		},
		{
			name: "nothing expired",
			setupMocks: func(m *testMocks) {
				m.logs.On("ListOlderThan", mock.Anything, cutoff, cleanupBatchSize).Return([]*models.RefreshLog{}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, mocks := setupTestService()
			if !tt.withArchiver {
				service.archiver = nil
			}
			tt.setupMocks(mocks)

			deleted, err := service.CleanupRefreshLogs(context.Background())

			if tt.expectError {
				assert.Error(t, err)
				mocks.logs.AssertNotCalled(t, "DeleteByIDs", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedDeleted, deleted)
			testutil.VerifyAllMocks(t, mocks.all()...)
		})
	}
}

func TestCleanupRefreshLogsWithoutBucket(t *testing.T) {
	service, mocks := setupTestService()
	service.archiver = nil

	// Wired the same way as the scheduler.
	archiver, ok := archive.NewS3Archiver(config.BucketConfig{})
	if ok {
		service.archiver = archiver
	}
	require.False(t, ok)

	cutoff := testNow.Add(-testConfig.LogRetention)
	mocks.logs.On("ListOlderThan", mock.Anything, cutoff, cleanupBatchSize).
		Return([]*models.RefreshLog{{ID: 3, UserID: "u1", Type: models.RefreshBoth}}, nil)
	mocks.logs.On("DeleteByIDs", mock.Anything, []uint{3}).Return(int64(1), nil)

	deleted, err := service.CleanupRefreshLogs(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	testutil.VerifyAllMocks(t, mocks.all()...)
}

func TestRefreshHistory(t *testing.T) {
	tests := []struct {
		name          string
		limit         int
		expectedLimit int
	}{
		{name: "default", limit: 0, expectedLimit: 10},
		{name: "custom", limit: 25, expectedLimit: 25},
		{name: "capped", limit: 500, expectedLimit: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, mocks := setupTestService()
			logs := []*models.RefreshLog{{ID: 2}, {ID: 1}}
			mocks.logs.On("ListByUser", mock.Anything, "u1", tt.expectedLimit).Return(logs, nil)

			result, err := service.RefreshHistory(context.Background(), "u1", tt.limit)

			assert.NoError(t, err)
			assert.Equal(t, logs, result)
			testutil.VerifyAllMocks(t, mocks.logs)
		})
	}
}
