package rankingservice

import (
	"time"

	"coderanker/api/services/testutil"
	"coderanker/pkg/config"
	"coderanker/pkg/logger"
	"coderanker/pkg/scoring"

	"go.opentelemetry.io/otel"
)

// Clock of every test service.
var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

var testConfig = config.RankingConfig{
	LeetCodeWeight:   0.7,
	GitHubWeight:     0.3,
	SweepBatchSize:   50,
	SweepConcurrency: 5,
	ActiveWindow:     7 * 24 * time.Hour,
	LogRetention:     7 * 24 * time.Hour,
}

type testMocks struct {
	rank     *testutil.MockRankRepository
	stats    *testutil.MockStatsRepository
	profile  *testutil.MockProfileRepository
	logs     *testutil.MockRefreshLogRepository
	github   *testutil.MockGitHubClient
	leetcode *testutil.MockLeetCodeClient
	notifier *testutil.MockNotifier
	archiver *testutil.MockArchiver
}

func (m *testMocks) all() []any {
	return []any{m.rank, m.stats, m.profile, m.logs, m.github, m.leetcode, m.notifier, m.archiver}
}

// Helper to initialize the mocks.
func setupTestService() (*RankingService, *testMocks) {
	mocks := &testMocks{
		rank:     new(testutil.MockRankRepository),
		stats:    new(testutil.MockStatsRepository),
		profile:  new(testutil.MockProfileRepository),
		logs:     new(testutil.MockRefreshLogRepository),
		github:   new(testutil.MockGitHubClient),
		leetcode: new(testutil.MockLeetCodeClient),
		notifier: new(testutil.MockNotifier),
		archiver: new(testutil.MockArchiver),
	}

	service := &RankingService{
		RankRepository:       mocks.rank,
		StatsRepository:      mocks.stats,
		ProfileRepository:    mocks.profile,
		RefreshLogRepository: mocks.logs,

		github:     mocks.github,
		leetcode:   mocks.leetcode,
		calculator: scoring.NewCalculator(scoring.WeightsFromConfig(testConfig)),
		notifier:   mocks.notifier,
		archiver:   mocks.archiver,
		logger:     logger.Nop{},
		tracer:     otel.Tracer("coderanker/ranking/test"),
		cfg:        testConfig,
		now:        func() time.Time { return testNow },
	}

	return service, mocks
}
