// File: internal/profile/handler.go
package profile

import (
	"localfelo_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's own profile.
type Handler struct {
	repo   Repository
	logger *zap.Logger
}

// NewHandler creates a new profile handler.
func NewHandler(repo Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// RegisterRoutes sets up the routes for profile operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	group := router.Group("/profile")
	group.Use(authMW)
	{
		group.GET("/me", h.getMe)
	}
}

func (h *Handler) getMe(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	p, err := h.repo.FindByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Warn("Failed to load own profile", zap.Error(err), zap.String("userID", userID.String()))
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile retrieved successfully.", ToProfileResponse(p))
}
