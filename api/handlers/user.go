package handlers

import (
	"context"
	"net/http"

	"coderanker/api/dto"
	"coderanker/api/filters"
	"coderanker/api/middleware"
	"coderanker/pkg/database/models"
	"coderanker/pkg/messages"

	"github.com/gin-gonic/gin"
)

// UserActions are the operations a user runs on its own account.
type UserActions interface {
	GetProfile(ctx context.Context, userID, username string) (*dto.Profile, error)
	UpdateProfile(ctx context.Context, userID, username string, body *filters.UpdateProfileBody) (*dto.Profile, error)
	RefreshStats(ctx context.Context, userID string, which models.RefreshType) (*dto.RefreshResponse, error)
	RefreshHistory(ctx context.Context, userID string, limit int) ([]*models.RefreshLog, error)
	ValidateUsernames(ctx context.Context, githubUsername, leetcodeUsername string) *dto.UsernameValidations
}

// Comparer compares two users.
type Comparer interface {
	Compare(ctx context.Context, userID, otherID string) (*dto.Comparison, error)
}

// UserHandler is the handler for the authenticated user endpoints.
type UserHandler struct {
	users    UserActions
	comparer Comparer
	Auth     *middleware.Auth
}

// NewUserHandler creates a new instance of the user handler.
func NewUserHandler(users UserActions, comparer Comparer, auth *middleware.Auth) *UserHandler {
	return &UserHandler{
		users:    users,
		comparer: comparer,
		Auth:     auth,
	}
}

// GetProfile returns the profile of the caller.
func (h *UserHandler) GetProfile(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": messages.Unauthorized})
		return
	}

	result, err := h.users.GetProfile(c.Request.Context(), identity.UserID, identity.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// UpdateProfile links the provider accounts of the caller.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": messages.Unauthorized})
		return
	}

	var body filters.UpdateProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.users.UpdateProfile(c.Request.Context(), identity.UserID, identity.Username, &body)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// RefreshStats refreshes the caller provider stats.
func (h *UserHandler) RefreshStats(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": messages.Unauthorized})
		return
	}

	var qp filters.RefreshQueryParams
	if err := c.ShouldBindQuery(&qp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.users.RefreshStats(c.Request.Context(), identity.UserID, models.RefreshType(qp.Type))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// RefreshHistory lists the latest refreshes of the caller.
func (h *UserHandler) RefreshHistory(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": messages.Unauthorized})
		return
	}

	var qp filters.HistoryQueryParams
	if err := c.ShouldBindQuery(&qp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.users.RefreshHistory(c.Request.Context(), identity.UserID, qp.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// Compare compares the caller against another user.
func (h *UserHandler) Compare(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": messages.Unauthorized})
		return
	}

	var uri filters.UserURIParams
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.comparer.Compare(c.Request.Context(), identity.UserID, uri.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// ValidateUsernames checks the provider usernames before linking them.
func (h *UserHandler) ValidateUsernames(c *gin.Context) {
	var body filters.ValidateUsernamesBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.users.ValidateUsernames(c.Request.Context(), body.GithubUsername, body.LeetcodeUsername)
	c.JSON(http.StatusOK, gin.H{"result": result})
}
