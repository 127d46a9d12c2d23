package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"github.com/umar-io/lease-agreement-generator/internal/middleware"
	"github.com/umar-io/lease-agreement-generator/internal/services"
	"go.uber.org/zap"
)

// ProfileHandlers handles the landlord's own profile
type ProfileHandlers struct {
	profileService services.ProfileService
	logger         *zap.Logger
}

func NewProfileHandlers(profileService services.ProfileService, logger *zap.Logger) *ProfileHandlers {
	return &ProfileHandlers{profileService: profileService, logger: logger}
}

func (h *ProfileHandlers) RegisterRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.DELETE("/profile", h.DeleteProfile)
	g.POST("/profile/onboarding", h.CompleteOnboarding)
}

// ProfileRequest carries the editable profile fields.
type ProfileRequest struct {
	FullName    string  `json:"full_name"`
	CompanyName *string `json:"company_name"`
}

func (h *ProfileHandlers) GetProfile(c echo.Context) error {
	profile, ok := middleware.GetProfile(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandlers) UpdateProfile(c echo.Context) error {
	profile, ok := middleware.GetProfile(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	updated, err := h.profileService.UpdateDetails(c.Request().Context(), profile.ID, req.FullName, req.CompanyName)
	if err != nil {
		return respondError(c, h.logger, "update profile", err)
	}
	return c.JSON(http.StatusOK, updated)
}

// CompleteOnboarding records the landlord's details and unlocks lease generation.
func (h *ProfileHandlers) CompleteOnboarding(c echo.Context) error {
	profile, ok := middleware.GetProfile(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	onboarded, err := h.profileService.CompleteOnboarding(c.Request().Context(), profile.ID, req.FullName, req.CompanyName)
	if err != nil {
		return respondError(c, h.logger, "complete onboarding", err)
	}
	return c.JSON(http.StatusOK, onboarded)
}

// DeleteProfile removes the profile and, through the schema, every lease it owns.
func (h *ProfileHandlers) DeleteProfile(c echo.Context) error {
	profile, ok := middleware.GetProfile(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	if err := h.profileService.DeleteProfile(c.Request().Context(), profile.ID); err != nil {
		return respondError(c, h.logger, "delete profile", err)
	}
	return c.NoContent(http.StatusNoContent)
}
