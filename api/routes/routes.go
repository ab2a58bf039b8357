package routes

import (
	"coderanker/api/handlers"

	"github.com/gin-gonic/gin"
)

type Router struct {
	Engine *gin.Engine
	api    *gin.RouterGroup
}

func NewRouter(engine *gin.Engine) *Router {
	return &Router{
		api:    engine.Group("/api/v1"),
		Engine: engine,
	}
}

func (r *Router) SetupRoutes(handlerList ...any) {
	for _, h := range handlerList {
		switch handler := h.(type) {
		case *handlers.LeaderboardHandler:
			r.registerLeaderboardHandler(handler)
		case *handlers.UserHandler:
			r.registerUserHandler(handler)
		case *handlers.WSHandler:
			r.api.GET("/ws", handler.Auth.Required(), handler.Serve)
		case *handlers.HealthHandler:
			r.Engine.GET("/healthz", handler.Healthz)
			r.Engine.GET("/metrics", handler.Metrics())
		}
	}
}

// Register the leaderboard handler.
func (r *Router) registerLeaderboardHandler(handler *handlers.LeaderboardHandler) {
	leaderboard := r.api.Group("/leaderboard")
	{
		leaderboard.GET("", handler.Auth.Optional(), handler.GetLeaderboard)
		leaderboard.GET("/top", handler.GetTop)
		leaderboard.GET("/stats", handler.GetStats)
		leaderboard.GET("/user/:userId", handler.GetUserRank)
		leaderboard.POST("/refresh", handler.Auth.Required(), handler.Auth.AdminOnly(), handler.ReRank)
	}
}

// Register the user handler.
func (r *Router) registerUserHandler(handler *handlers.UserHandler) {
	r.api.POST("/users/validate", handler.ValidateUsernames)

	users := r.api.Group("/users", handler.Auth.Required())
	{
		users.GET("/profile", handler.GetProfile)
		users.PUT("/profile", handler.UpdateProfile)
		users.POST("/refresh", handler.RefreshStats)
		users.GET("/refresh/history", handler.RefreshHistory)
		users.GET("/compare/:userId", handler.Compare)
	}
}

// Start the router.
func (r *Router) Run(addr string) error {
	return r.Engine.Run(addr)
}
