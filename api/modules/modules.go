package modules

import (
	"fmt"

	"coderanker/api/handlers"
	"coderanker/api/hub"
	"coderanker/api/middleware"
	leaderboardservice "coderanker/api/services/leaderboard"
	rankingservice "coderanker/api/services/ranking"
	"coderanker/fetcher/data"
	"coderanker/pkg/config"
	"coderanker/pkg/logger"
	"coderanker/pkg/metrics"
	pkgredis "coderanker/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// ModuleDependencies are the shared resources of the api process.
type ModuleDependencies struct {
	DB       *gorm.DB
	Redis    *pkgredis.RedisClient
	Config   *config.Config
	Logger   logger.Logger
	Registry *prometheus.Registry
}

// Module containing the necessary handlers.
type Module struct {
	Router *gin.Engine
	Hub    *hub.Hub
	Relay  *hub.Relay

	LeaderboardHandler *handlers.LeaderboardHandler
	UserHandler        *handlers.UserHandler
	WSHandler          *handlers.WSHandler
	HealthHandler      *handlers.HealthHandler

	closers []func()
}

// services built once and shared by the handlers.
type services struct {
	providers   *data.ProviderFetcher
	leaderboard *leaderboardservice.LeaderboardService
	ranking     *rankingservice.RankingService
	auth        *middleware.Auth
}

// Create a new module with all the necessary handlers initialized.
func NewModule(deps *ModuleDependencies) (*Module, error) {
	router := gin.Default()

	m, err := metrics.New(deps.Registry)
	if err != nil {
		return nil, fmt.Errorf("couldn't register the metrics: %w", err)
	}

	leaderboard := leaderboardservice.NewLeaderboardService(&leaderboardservice.LeaderboardServiceDeps{
		DB: deps.DB,
	})

	// The hub is the notifier of the in process refreshes.
	h := hub.NewHub(&hub.HubDeps{
		Snapshots: leaderboard,
		Logger:    deps.Logger,
		Metrics:   m,
		Config:    deps.Config.Hub,
	})

	providers := data.NewProviderFetcher(deps.Config.Providers)
	ranking := rankingservice.NewRankingService(&rankingservice.RankingServiceDeps{
		DB:       deps.DB,
		GitHub:   providers.GitHub,
		LeetCode: providers.LeetCode,
		Notifier: h,
		Logger:   deps.Logger,
		Metrics:  m,
		Config:   deps.Config.Ranking,
	})

	svc := &services{
		providers:   providers,
		leaderboard: leaderboard,
		ranking:     ranking,
		auth:        middleware.NewAuth(deps.Config.Server.JWTSecret),
	}

	userHandler, users := initializeUserHandler(deps, svc)

	return &Module{
		Router:             router,
		Hub:                h,
		Relay:              hub.NewRelay(h, deps.Redis, deps.Logger),
		LeaderboardHandler: initializeLeaderboardHandler(deps, svc),
		UserHandler:        userHandler,
		WSHandler:          handlers.NewWSHandler(h, svc.auth, deps.Logger),
		HealthHandler:      handlers.NewHealthHandler(ranking.RankRepository, deps.Registry),
		closers:            []func(){users.Close, h.Close},
	}, nil
}

// Close waits for the background refreshes, then disconnects the websocket clients.
func (m *Module) Close() {
	for _, fn := range m.closers {
		fn()
	}
}
