package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"github.com/umar-io/lease-agreement-generator/internal/models"
	"github.com/umar-io/lease-agreement-generator/internal/services"
	"go.uber.org/zap"
)

const profileContextKey = "profile"

// ProfileMiddleware loads (or creates on first sight) the landlord profile for the authenticated
// subject. It must run after Authenticator.Middleware.
func ProfileMiddleware(profiles services.ProfileService, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			sub, ok := common.GetAuthSubjectFromContext(ctx)
			if !ok {
				return common.SendUnauthorizedError(c)
			}

			profile, err := profiles.FetchOrCreate(ctx, sub,
				common.GetAuthEmailFromContext(ctx),
				common.GetAuthNameFromContext(ctx))
			if err != nil {
				logger.Error("failed to resolve profile", zap.Error(err))
				return common.SendServerError(c, "Failed to load profile")
			}

			c.Set(profileContextKey, profile)
			return next(c)
		}
	}
}

// GetProfile returns the profile stored by ProfileMiddleware.
func GetProfile(c echo.Context) (*models.Profile, bool) {
	profile, ok := c.Get(profileContextKey).(*models.Profile)
	return profile, ok && profile != nil
}

// SetProfile stores a profile on the echo context; handler tests use it to skip authentication.
func SetProfile(c echo.Context, profile *models.Profile) {
	c.Set(profileContextKey, profile)
}
