// File: internal/middleware/auth.go
package middleware

import (
	"context"
	"errors"

	"localfelo_backend/internal/common"
	"localfelo_backend/internal/profile"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenResolver maps an opaque client token to its profile.
type TokenResolver interface {
	FindByClientToken(ctx context.Context, token string) (*profile.Profile, error)
}

// AuthMiddleware authenticates requests carrying a Bearer client token.
func AuthMiddleware(profiles TokenResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(common.AuthorizationHeader)
		if authHeader == "" {
			logger.Debug("Authorization header missing")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header is required."))
			return
		}

		token := common.GetTokenFromContext(c)
		if token == "" {
			logger.Debug("Authorization header format invalid")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
			return
		}

		p, err := profiles.FindByClientToken(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, common.ErrNotFound) {
				logger.Error("Client token lookup failed", zap.Error(err))
				common.RespondWithError(c, common.ErrInternalServer)
				return
			}
			logger.Warn("Unknown client token")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired token."))
			return
		}

		setIdentity(c, p)
		logger.Debug("User authenticated successfully",
			zap.String("userID", p.ID.String()),
			zap.String("role", p.Role()),
		)
		c.Next()
	}
}

// OptionalAuthMiddleware identifies the user when a valid token is present and never rejects.
func OptionalAuthMiddleware(profiles TokenResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := common.GetTokenFromContext(c); token != "" {
			if p, err := profiles.FindByClientToken(c.Request.Context(), token); err == nil {
				setIdentity(c, p)
			} else if !errors.Is(err, common.ErrNotFound) {
				logger.Warn("Optional client token lookup failed", zap.Error(err))
			}
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, p *profile.Profile) {
	c.Set(common.UserIDKey, p.ID)
	c.Set(common.UserRoleKey, p.Role())
}

// RoleAuthMiddleware creates a middleware to check if the authenticated user has one of the required roles.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := common.GetUserRoleFromContext(c)
		if userRole == "" {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("User role not found in context."))
			return
		}

		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
	}
}
