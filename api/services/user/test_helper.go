package userservice

import (
	"context"
	"time"

	rankingservice "coderanker/api/services/ranking"
	"coderanker/api/services/testutil"
	"coderanker/pkg/config"
	"coderanker/pkg/database/models"
	"coderanker/pkg/logger"

	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

// Ranking engine mock implementation.
type mockRankingEngine struct {
	mock.Mock
}

func (m *mockRankingEngine) RefreshAndRank(ctx context.Context, req rankingservice.RefreshRequest) (*rankingservice.RefreshResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*rankingservice.RefreshResult)
	return result, args.Error(1)
}

func (m *mockRankingEngine) RefreshHistory(ctx context.Context, userID string, limit int) ([]*models.RefreshLog, error) {
	args := m.Called(ctx, userID, limit)
	logs, _ := args.Get(0).([]*models.RefreshLog)
	return logs, args.Error(1)
}

// Helper to initialize the mocks.
func setupTestService() (
	*UserService,
	*testutil.MockProfileRepository,
	*mockRankingEngine,
	*testutil.MockGitHubClient,
	*testutil.MockLeetCodeClient,
	*testutil.MockRefreshRedisClient,
) {
	mockProfileRepo := new(testutil.MockProfileRepository)
	mockEngine := new(mockRankingEngine)
	mockGitHub := new(testutil.MockGitHubClient)
	mockLeetCode := new(testutil.MockLeetCodeClient)
	mockRedis := new(testutil.MockRefreshRedisClient)

	service := &UserService{
		ProfileRepository: mockProfileRepo,
		engine:            mockEngine,
		github:            mockGitHub,
		leetcode:          mockLeetCode,
		redis:             mockRedis,
		cfg: config.ServerConfig{
			RefreshCooldown: time.Minute,
			RefreshPerHour:  5,
		},
		log: logger.Nop{},
		now: func() time.Time { return testNow },
	}

	return service, mockProfileRepo, mockEngine, mockGitHub, mockLeetCode, mockRedis
}
