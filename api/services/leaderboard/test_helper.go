package leaderboardservice

import "coderanker/api/services/testutil"

// Helper to initialize the mocks.
func setupTestService() (
	*LeaderboardService,
	*testutil.MockRankRepository,
	*testutil.MockProfileRepository,
	*testutil.MockStatsRepository,
) {
	mockRankRepo := new(testutil.MockRankRepository)
	mockProfileRepo := new(testutil.MockProfileRepository)
	mockStatsRepo := new(testutil.MockStatsRepository)

	service := &LeaderboardService{
		RankRepository:    mockRankRepo,
		ProfileRepository: mockProfileRepo,
		StatsRepository:   mockStatsRepo,
	}

	return service, mockRankRepo, mockProfileRepo, mockStatsRepo
}
