package handlers

import (
	"context"
	"net/http"

	"coderanker/api/dto"
	"coderanker/api/filters"
	"coderanker/api/middleware"

	"github.com/gin-gonic/gin"
)

// LeaderboardReader serves the read side of the leaderboard.
type LeaderboardReader interface {
	GetLeaderboard(ctx context.Context, filter *filters.LeaderboardFilter, viewerID string) (*dto.LeaderboardPage, error)
	GetTop(ctx context.Context, n int) ([]*dto.LeaderboardEntry, error)
	GetUserRank(ctx context.Context, userID string) (*dto.LeaderboardEntry, error)
	GetStats(ctx context.Context) (*dto.GlobalStats, error)
}

// ReRanker recomputes every rank.
type ReRanker interface {
	ReRankAll(ctx context.Context) (*dto.ReRankSummary, error)
}

// LeaderboardHandler is the handler for the leaderboard endpoints.
type LeaderboardHandler struct {
	leaderboard LeaderboardReader
	ranker      ReRanker
	Auth        *middleware.Auth
}

// NewLeaderboardHandler creates a new instance of the leaderboard handler.
func NewLeaderboardHandler(leaderboard LeaderboardReader, ranker ReRanker, auth *middleware.Auth) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboard: leaderboard,
		ranker:      ranker,
		Auth:        auth,
	}
}

// GetLeaderboard handles requests for a leaderboard page.
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	var qp filters.LeaderboardQueryParams
	if err := c.ShouldBindQuery(&qp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	viewerID := ""
	if identity, ok := middleware.IdentityFrom(c); ok {
		viewerID = identity.UserID
	}

	result, err := h.leaderboard.GetLeaderboard(c.Request.Context(), filters.NewLeaderboardFilter(&qp), viewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetTop handles requests for the first entries of the leaderboard.
func (h *LeaderboardHandler) GetTop(c *gin.Context) {
	var qp filters.TopQueryParams
	if err := c.ShouldBindQuery(&qp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.leaderboard.GetTop(c.Request.Context(), qp.TopLimit())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetStats handles requests for the global leaderboard numbers.
func (h *LeaderboardHandler) GetStats(c *gin.Context) {
	result, err := h.leaderboard.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetUserRank handles requests for the entry of a single user.
func (h *LeaderboardHandler) GetUserRank(c *gin.Context) {
	var uri filters.UserURIParams
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.leaderboard.GetUserRank(c.Request.Context(), uri.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// ReRank recomputes the whole leaderboard.
func (h *LeaderboardHandler) ReRank(c *gin.Context) {
	result, err := h.ranker.ReRankAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}
