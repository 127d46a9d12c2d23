package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/umar-io/lease-agreement-generator/internal/caching"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"github.com/umar-io/lease-agreement-generator/internal/middleware"
	"github.com/umar-io/lease-agreement-generator/internal/models"
	"github.com/umar-io/lease-agreement-generator/internal/repositories"
	"github.com/umar-io/lease-agreement-generator/internal/services"
	"go.uber.org/zap"
)

const defaultGenerateWindow = time.Hour

// LeaseHandlers handles lease generation, delivery and dashboard requests
type LeaseHandlers struct {
	leaseService   services.LeaseService
	profileService services.ProfileService
	limiter        caching.RateLimiter
	generateLimit  int
	generateWindow time.Duration
	logger         *zap.Logger
}

// RateLimit caps generation requests per profile. A zero Limit disables it.
type RateLimit struct {
	Limit  int
	Window time.Duration
}

// NewLeaseHandlers creates a new lease handlers instance. limiter may be nil.
func NewLeaseHandlers(
	leaseService services.LeaseService,
	profileService services.ProfileService,
	limiter caching.RateLimiter,
	limit RateLimit,
	logger *zap.Logger,
) *LeaseHandlers {
	if limit.Window <= 0 {
		limit.Window = defaultGenerateWindow
	}
	return &LeaseHandlers{
		leaseService:   leaseService,
		profileService: profileService,
		limiter:        limiter,
		generateLimit:  limit.Limit,
		generateWindow: limit.Window,
		logger:         logger,
	}
}

// RegisterRoutes mounts the lease endpoints on an authenticated group.
func (h *LeaseHandlers) RegisterRoutes(g *echo.Group) {
	g.POST("/leases/generate", h.GenerateLease)
	g.POST("/leases/deliver", h.DeliverLease)
	g.POST("/leases/save-draft", h.SaveDraft)
	g.GET("/leases", h.ListLeases)
	g.GET("/leases/summary", h.GetSummary)
	g.GET("/leases/:id", h.GetLease)
	g.DELETE("/leases/:id", h.DeleteLease)
}

// GenerateLeaseRequest is the lease terms plus delivery options.
type GenerateLeaseRequest struct {
	models.LeaseTermsInput
	SendEmail      bool `json:"send_email"`
	IncludePDFData bool `json:"include_pdf_data"`
}

// GenerateLease runs the full pipeline: record, text, PDF, upload and optional email.
func (h *LeaseHandlers) GenerateLease(c echo.Context) error {
	ctx := c.Request().Context()
	profile, ok := middleware.GetProfile(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	if err := h.profileService.RequireOnboarded(profile); err != nil {
		return respondError(c, h.logger, "generate lease", err)
	}

	var req GenerateLeaseRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	terms, err := req.Terms()
	if err != nil {
		return respondError(c, h.logger, "generate lease", err)
	}
	// Only well-formed submissions count against the quota.
	if err := h.checkRateLimit(c, profile.ID); err != nil {
		return respondError(c, h.logger, "generate lease", err)
	}

	result, err := h.leaseService.Generate(ctx, profile.ID, terms, services.GenerateOptions{
		Deliver:        req.SendEmail,
		IncludeDataURL: req.IncludePDFData,
	})
	if err != nil {
		return respondError(c, h.logger, "generate lease", err)
	}
	return c.JSON(http.StatusCreated, result)
}

// checkRateLimit lets requests through when the limiter itself is failing.
func (h *LeaseHandlers) checkRateLimit(c echo.Context, profileID uuid.UUID) error {
	if h.limiter == nil || h.generateLimit <= 0 {
		return nil
	}
	allowed, err := h.limiter.Allow(c.Request().Context(), "generate:"+profileID.String(), h.generateLimit, h.generateWindow)
	if err != nil {
		h.logger.Warn("rate limiter unavailable", zap.Error(err))
		return nil
	}
	if !allowed {
		return common.ErrRateLimited
	}
	return nil
}

// DeliverLease emails a generated lease (or any reachable PDF) to the tenant.
func (h *LeaseHandlers) DeliverLease(c echo.Context) error {
	profile, ok := middleware.GetProfile(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.DeliverInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	messageID, err := h.leaseService.Deliver(c.Request().Context(), profile.ID, req)
	if err != nil {
		return respondError(c, h.logger, "deliver lease", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message_id": messageID})
}

// SaveDraftRequest identifies the lease to move back to draft.
type SaveDraftRequest struct {
	LeaseID string `json:"lease_id"`
}

// SaveDraft marks a lease as draft
func (h *LeaseHandlers) SaveDraft(c echo.Context) error {
	profile, ok := middleware.GetProfile(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req SaveDraftRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	leaseID, err := common.ValidateUUID(req.LeaseID, "lease_id")
	if err != nil {
		return common.SendValidationError(c, "lease_id", err.Error())
	}

	lease, err := h.leaseService.SaveDraft(c.Request().Context(), profile.ID, leaseID)
	if err != nil {
		return respondError(c, h.logger, "save draft", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"lease": lease})
}

// ListLeasesRequest represents query parameters for listing leases
type ListLeasesRequest struct {
	Status string `query:"status"`
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
}

// ListLeases returns the caller's leases, newest first.
func (h *LeaseHandlers) ListLeases(c echo.Context) error {
	profile, ok := middleware.GetProfile(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req ListLeasesRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid query parameters")
	}

	filter := repositories.LeaseFilter{
		Status: models.LeaseStatus(req.Status),
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	leases, err := h.leaseService.ListLeases(c.Request().Context(), profile.ID, filter)
	if err != nil {
		return respondError(c, h.logger, "list leases", err)
	}

	limit, offset, _ := common.ValidatePaginationParams(req.Limit, req.Offset)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"leases": leases,
		"limit":  limit,
		"offset": offset,
	})
}

// GetSummary returns lease counts by status
func (h *LeaseHandlers) GetSummary(c echo.Context) error {
	profile, ok := middleware.GetProfile(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	summary, err := h.leaseService.Summary(c.Request().Context(), profile.ID)
	if err != nil {
		return respondError(c, h.logger, "summarize leases", err)
	}
	return c.JSON(http.StatusOK, summary)
}

// GetLease returns one lease by id
func (h *LeaseHandlers) GetLease(c echo.Context) error {
	profile, ok := middleware.GetProfile(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	leaseID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	lease, err := h.leaseService.GetLease(c.Request().Context(), profile.ID, leaseID)
	if err != nil {
		return respondError(c, h.logger, "get lease", err)
	}
	return c.JSON(http.StatusOK, lease)
}

// DeleteLease removes a lease and its stored document
func (h *LeaseHandlers) DeleteLease(c echo.Context) error {
	profile, ok := middleware.GetProfile(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	leaseID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.leaseService.DeleteLease(c.Request().Context(), profile.ID, leaseID); err != nil {
		return respondError(c, h.logger, "delete lease", err)
	}
	return c.NoContent(http.StatusNoContent)
}
