package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"github.com/umar-io/lease-agreement-generator/internal/models"
	"github.com/umar-io/lease-agreement-generator/internal/repositories"
	"go.uber.org/zap"
)

const (
	defaultProfileName = "New User"
	maxNameLength      = 200
)

// ProfileService maps authenticated subjects to landlord profiles.
type ProfileService interface {
	// FetchOrCreate returns the profile for an auth subject, creating it on first sight.
	FetchOrCreate(ctx context.Context, subject, email, fullName string) (*models.Profile, error)
	UpdateDetails(ctx context.Context, profileID uuid.UUID, fullName string, companyName *string) (*models.Profile, error)
	CompleteOnboarding(ctx context.Context, profileID uuid.UUID, fullName string, companyName *string) (*models.Profile, error)
	RequireOnboarded(profile *models.Profile) error
	DeleteProfile(ctx context.Context, profileID uuid.UUID) error
}

type profileService struct {
	profiles repositories.ProfileRepository
	logger   *zap.Logger
}

func NewProfileService(profiles repositories.ProfileRepository, logger *zap.Logger) ProfileService {
	return &profileService{profiles: profiles, logger: logger}
}

func (s *profileService) FetchOrCreate(ctx context.Context, subject, email, fullName string) (*models.Profile, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		verr := &common.ValidationError{}
		verr.Add("sub", "is required")
		return nil, verr
	}

	profile, err := s.profiles.GetByExternalAuthID(ctx, subject)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, common.ErrProfileNotFound) {
		return nil, err
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		fullName = defaultProfileName
	}
	profile, err = s.profiles.Upsert(ctx, subject, strings.TrimSpace(email), fullName)
	if err != nil {
		return nil, err
	}
	s.logger.Info("profile created", zap.String("profile_id", profile.ID.String()))
	return profile, nil
}

func (s *profileService) UpdateDetails(ctx context.Context, profileID uuid.UUID, fullName string, companyName *string) (*models.Profile, error) {
	fullName, companyName, err := validateProfileDetails(fullName, companyName)
	if err != nil {
		return nil, err
	}
	return s.profiles.UpdateDetails(ctx, profileID, fullName, companyName)
}

func (s *profileService) CompleteOnboarding(ctx context.Context, profileID uuid.UUID, fullName string, companyName *string) (*models.Profile, error) {
	fullName, companyName, err := validateProfileDetails(fullName, companyName)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.CompleteOnboarding(ctx, profileID, fullName, companyName)
	if err != nil {
		return nil, err
	}
	s.logger.Info("profile onboarded", zap.String("profile_id", profileID.String()))
	return profile, nil
}

func (s *profileService) RequireOnboarded(profile *models.Profile) error {
	if profile == nil || !profile.Onboarded {
		return common.ErrNotOnboarded
	}
	return nil
}

func (s *profileService) DeleteProfile(ctx context.Context, profileID uuid.UUID) error {
	return s.profiles.Delete(ctx, profileID)
}

func validateProfileDetails(fullName string, companyName *string) (string, *string, error) {
	verr := &common.ValidationError{}
	fullName = strings.TrimSpace(fullName)
	if err := common.ValidateRequiredString(fullName, "full_name"); err != nil {
		verr.Add("full_name", "is required")
	} else if len(fullName) > maxNameLength {
		verr.Add("full_name", "is too long")
	}
	if err := common.ValidateOptionalString(companyName, "company_name", maxNameLength); err != nil {
		verr.Add("company_name", "is too long")
	}
	if err := verr.Err(); err != nil {
		return "", nil, err
	}
	if companyName != nil {
		companyName = common.StringPtr(*companyName)
	}
	return fullName, companyName, nil
}
