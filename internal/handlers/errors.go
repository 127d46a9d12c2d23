package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"go.uber.org/zap"
)

// respondError maps service errors onto the JSON error envelope.
func respondError(c echo.Context, logger *zap.Logger, operation string, err error) error {
	var verr *common.ValidationError
	if errors.As(err, &verr) {
		return common.SendValidationErrors(c, verr)
	}

	// A pipeline failure keeps its stage even when the cause is a missing row.
	var perr *common.PipelineError
	if errors.As(err, &perr) {
		status, code := pipelineStatus(perr)
		if status >= http.StatusInternalServerError {
			logger.Error(operation+" failed", zap.String("stage", string(perr.Stage)), zap.Error(err))
		} else {
			logger.Warn(operation+" rejected", zap.String("stage", string(perr.Stage)), zap.Error(err))
		}
		return common.SendPipelineError(c, status, code, perr)
	}

	switch {
	case errors.Is(err, common.ErrLeaseNotFound):
		return common.SendNotFoundError(c, "Lease")
	case errors.Is(err, common.ErrProfileNotFound):
		return common.SendNotFoundError(c, "Profile")
	case errors.Is(err, common.ErrNotOnboarded):
		return common.SendForbiddenError(c, "Complete onboarding before generating leases")
	case errors.Is(err, common.ErrRateLimited):
		return common.SendRateLimitedError(c)
	}

	logger.Error(operation+" failed", zap.Error(err))
	return common.SendServerError(c, common.SecureErrorMessage(operation, err).Error())
}

func pipelineStatus(perr *common.PipelineError) (int, string) {
	switch {
	case errors.Is(perr, common.ErrSizeLimitExceeded):
		return http.StatusRequestEntityTooLarge, "PDF_TOO_LARGE"
	case errors.Is(perr, common.ErrPdfUnavailable):
		return http.StatusBadGateway, "PDF_UNAVAILABLE"
	case errors.Is(perr, common.ErrTransportRejected):
		return http.StatusBadGateway, "DELIVERY_REJECTED"
	default:
		return http.StatusInternalServerError, "PIPELINE_FAILED"
	}
}
