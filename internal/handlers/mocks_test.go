package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/umar-io/lease-agreement-generator/internal/models"
	"github.com/umar-io/lease-agreement-generator/internal/repositories"
	"github.com/umar-io/lease-agreement-generator/internal/services"
)

type MockLeaseService struct {
	mock.Mock
}

func (m *MockLeaseService) Generate(ctx context.Context, profileID uuid.UUID, terms models.LeaseTerms, opts services.GenerateOptions) (*services.GenerateResult, error) {
	args := m.Called(ctx, profileID, terms, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GenerateResult), args.Error(1)
}

func (m *MockLeaseService) Deliver(ctx context.Context, profileID uuid.UUID, in services.DeliverInput) (string, error) {
	args := m.Called(ctx, profileID, in)
	return args.String(0), args.Error(1)
}

func (m *MockLeaseService) SaveDraft(ctx context.Context, profileID, leaseID uuid.UUID) (*models.LeaseRecord, error) {
	args := m.Called(ctx, profileID, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LeaseRecord), args.Error(1)
}

func (m *MockLeaseService) GetLease(ctx context.Context, profileID, leaseID uuid.UUID) (*models.LeaseRecord, error) {
	args := m.Called(ctx, profileID, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LeaseRecord), args.Error(1)
}

func (m *MockLeaseService) ListLeases(ctx context.Context, profileID uuid.UUID, filter repositories.LeaseFilter) ([]*models.LeaseRecord, error) {
	args := m.Called(ctx, profileID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeaseRecord), args.Error(1)
}

func (m *MockLeaseService) DeleteLease(ctx context.Context, profileID, leaseID uuid.UUID) error {
	return m.Called(ctx, profileID, leaseID).Error(0)
}

func (m *MockLeaseService) Summary(ctx context.Context, profileID uuid.UUID) (*services.LeaseSummary, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LeaseSummary), args.Error(1)
}

type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) FetchOrCreate(ctx context.Context, subject, email, fullName string) (*models.Profile, error) {
	args := m.Called(ctx, subject, email, fullName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) UpdateDetails(ctx context.Context, profileID uuid.UUID, fullName string, companyName *string) (*models.Profile, error) {
	args := m.Called(ctx, profileID, fullName, companyName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) CompleteOnboarding(ctx context.Context, profileID uuid.UUID, fullName string, companyName *string) (*models.Profile, error) {
	args := m.Called(ctx, profileID, fullName, companyName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) RequireOnboarded(profile *models.Profile) error {
	return m.Called(profile).Error(0)
}

func (m *MockProfileService) DeleteProfile(ctx context.Context, profileID uuid.UUID) error {
	return m.Called(ctx, profileID).Error(0)
}

type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockRateLimiter) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
