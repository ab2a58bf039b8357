package rankingservice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coderanker/api/dto"
	profilerepo "coderanker/api/repositories/profile"
	rankrepo "coderanker/api/repositories/rank"
	refreshlogrepo "coderanker/api/repositories/refreshlog"
	statsrepo "coderanker/api/repositories/stats"
	"coderanker/pkg/apperrors"
	"coderanker/pkg/config"
	"coderanker/pkg/database"
	"coderanker/pkg/database/models"
	"coderanker/pkg/logger"
	"coderanker/pkg/metrics"
	"coderanker/pkg/scoring"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// GitHubClient fetches the GitHub statistics of a username.
type GitHubClient interface {
	FetchStats(ctx context.Context, username string) (*models.GitHubStats, error)
}

// LeetCodeClient fetches the LeetCode statistics of a username.
type LeetCodeClient interface {
	FetchStats(ctx context.Context, username string) (*models.LeetCodeStats, error)
}

// Notifier receives the ranking events that must reach the connected clients.
type Notifier interface {
	NotifyRankChange(ctx context.Context, event dto.RankChangeEvent)
	NotifyUserStatsUpdated(ctx context.Context, userID string)
}

// Archiver keeps a copy of the expired refresh logs.
type Archiver interface {
	Archive(ctx context.Context, key string, body []byte) error
}

// RankingService orchestrates the user refreshes and the global re-rank.
type RankingService struct {
	RankRepository       rankrepo.RankRepository
	StatsRepository      statsrepo.StatsRepository
	ProfileRepository    profilerepo.ProfileRepository
	RefreshLogRepository refreshlogrepo.RefreshLogRepository

	github     GitHubClient
	leetcode   LeetCodeClient
	calculator *scoring.Calculator
	notifier   Notifier
	archiver   Archiver
	logger     logger.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	cfg        config.RankingConfig
	now        func() time.Time

	// Two overlapping re-ranks would snapshot each other's ranks as the previous ones.
	reRankMu sync.Mutex
}

// RankingServiceDeps is the dependency list for the ranking service.
type RankingServiceDeps struct {
	DB       *gorm.DB
	GitHub   GitHubClient
	LeetCode LeetCodeClient
	Notifier Notifier
	Archiver Archiver
	Logger   logger.Logger
	Metrics  *metrics.Metrics
	Config   config.RankingConfig
}

// NewRankingService creates a ranking service.
func NewRankingService(deps *RankingServiceDeps) *RankingService {
	rs := &RankingService{
		RankRepository:       rankrepo.NewRankRepository(deps.DB),
		StatsRepository:      statsrepo.NewStatsRepository(deps.DB),
		ProfileRepository:    profilerepo.NewProfileRepository(deps.DB),
		RefreshLogRepository: refreshlogrepo.NewRefreshLogRepository(deps.DB),

		github:     deps.GitHub,
		leetcode:   deps.LeetCode,
		calculator: scoring.NewCalculator(scoring.WeightsFromConfig(deps.Config)),
		notifier:   deps.Notifier,
		archiver:   deps.Archiver,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		tracer:     otel.Tracer("coderanker/ranking"),
		cfg:        deps.Config,
		now:        time.Now,
	}

	if rs.notifier == nil {
		rs.notifier = nopNotifier{}
	}
	if rs.logger == nil {
		rs.logger = logger.Nop{}
	}

	return rs
}

// Calculator returns the score calculator shared by every refresh.
func (rs *RankingService) Calculator() *scoring.Calculator {
	return rs.calculator
}

type nopNotifier struct{}

func (nopNotifier) NotifyRankChange(context.Context, dto.RankChangeEvent) {}
func (nopNotifier) NotifyUserStatsUpdated(context.Context, string)        {}

// Connectivity failures are reported as an unavailable store.
func storeError(op string, err error) error {
	if database.IsConnectivityError(err) {
		return fmt.Errorf("%s: %w: %v", op, apperrors.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
