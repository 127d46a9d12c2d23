package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"github.com/umar-io/lease-agreement-generator/internal/middleware"
	"github.com/umar-io/lease-agreement-generator/internal/models"
	"go.uber.org/zap"
)

func newProfileServer(profiles *MockProfileService, profile *models.Profile) *echo.Echo {
	e := echo.New()
	g := e.Group("/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if profile != nil {
				middleware.SetProfile(c, profile)
			}
			return next(c)
		}
	})
	NewProfileHandlers(profiles, zap.NewNop()).RegisterRoutes(g)
	return e
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestProfileHandlers(t *testing.T) {
	profile := &models.Profile{ID: uuid.New(), ExternalAuthID: "user_1", FullName: "New User", Email: "john@example.com"}

	t.Run("get", func(t *testing.T) {
		rec := serve(newProfileServer(&MockProfileService{}, profile), http.MethodGet, "/v1/profile", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"external_auth_id":"user_1"`)
	})

	t.Run("get without profile", func(t *testing.T) {
		rec := serve(newProfileServer(&MockProfileService{}, nil), http.MethodGet, "/v1/profile", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		profiles := &MockProfileService{}
		profiles.On("UpdateDetails", mock.Anything, profile.ID, "John Doe", mock.MatchedBy(func(c *string) bool {
			return c != nil && *c == "Doe Properties"
		})).Return(&models.Profile{ID: profile.ID, FullName: "John Doe"}, nil).Once()

		rec := serve(newProfileServer(profiles, profile), http.MethodPut, "/v1/profile",
			`{"full_name":"John Doe","company_name":"Doe Properties"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"full_name":"John Doe"`)
		profiles.AssertExpectations(t)
	})

	t.Run("onboarding validation", func(t *testing.T) {
		verr := &common.ValidationError{}
		verr.Add("full_name", "is required")
		profiles := &MockProfileService{}
		profiles.On("CompleteOnboarding", mock.Anything, profile.ID, "", (*string)(nil)).Return(nil, verr).Once()

		rec := serve(newProfileServer(profiles, profile), http.MethodPost, "/v1/profile/onboarding", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"full_name":"is required"`)
	})

	t.Run("onboarding", func(t *testing.T) {
		profiles := &MockProfileService{}
		profiles.On("CompleteOnboarding", mock.Anything, profile.ID, "John Doe", (*string)(nil)).
			Return(&models.Profile{ID: profile.ID, FullName: "John Doe", Onboarded: true}, nil).Once()

		rec := serve(newProfileServer(profiles, profile), http.MethodPost, "/v1/profile/onboarding", `{"full_name":"John Doe"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"onboarded":true`)
	})

	t.Run("delete", func(t *testing.T) {
		profiles := &MockProfileService{}
		profiles.On("DeleteProfile", mock.Anything, profile.ID).Return(nil).Once()

		rec := serve(newProfileServer(profiles, profile), http.MethodDelete, "/v1/profile", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		profiles.AssertExpectations(t)
	})

	t.Run("delete missing", func(t *testing.T) {
		profiles := &MockProfileService{}
		profiles.On("DeleteProfile", mock.Anything, profile.ID).Return(common.ErrProfileNotFound).Once()

		rec := serve(newProfileServer(profiles, profile), http.MethodDelete, "/v1/profile", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
