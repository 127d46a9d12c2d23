package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/umar-io/lease-agreement-generator/internal/models"
	"github.com/umar-io/lease-agreement-generator/internal/repositories"
)

type MockLeaseRepository struct {
	mock.Mock
}

func (m *MockLeaseRepository) Insert(ctx context.Context, profileID uuid.UUID, terms models.LeaseTerms) (uuid.UUID, error) {
	args := m.Called(ctx, profileID, terms)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockLeaseRepository) UpdateArtifact(ctx context.Context, id uuid.UUID, artifact models.StoredArtifact, generatedText string) error {
	return m.Called(ctx, id, artifact, generatedText).Error(0)
}

func (m *MockLeaseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.LeaseStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockLeaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.LeaseRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LeaseRecord), args.Error(1)
}

func (m *MockLeaseRepository) ListByProfile(ctx context.Context, profileID uuid.UUID, filter repositories.LeaseFilter) ([]*models.LeaseRecord, error) {
	args := m.Called(ctx, profileID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeaseRecord), args.Error(1)
}

func (m *MockLeaseRepository) CountByStatus(ctx context.Context, profileID uuid.UUID) (map[models.LeaseStatus]int, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.LeaseStatus]int), args.Error(1)
}

func (m *MockLeaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLeaseRepository) ExpireEnded(ctx context.Context, asOf models.Date) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) profile(args mock.Arguments) (*models.Profile, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return m.profile(m.Called(ctx, id))
}

func (m *MockProfileRepository) GetByExternalAuthID(ctx context.Context, externalAuthID string) (*models.Profile, error) {
	return m.profile(m.Called(ctx, externalAuthID))
}

func (m *MockProfileRepository) Upsert(ctx context.Context, externalAuthID, email, fullName string) (*models.Profile, error) {
	return m.profile(m.Called(ctx, externalAuthID, email, fullName))
}

func (m *MockProfileRepository) UpdateDetails(ctx context.Context, id uuid.UUID, fullName string, companyName *string) (*models.Profile, error) {
	return m.profile(m.Called(ctx, id, fullName, companyName))
}

func (m *MockProfileRepository) CompleteOnboarding(ctx context.Context, id uuid.UUID, fullName string, companyName *string) (*models.Profile, error) {
	return m.profile(m.Called(ctx, id, fullName, companyName))
}

func (m *MockProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Store(ctx context.Context, data []byte, name string) (models.StoredArtifact, error) {
	args := m.Called(ctx, data, name)
	return args.Get(0).(models.StoredArtifact), args.Error(1)
}

func (m *MockArtifactStore) Delete(ctx context.Context, publicID string) error {
	return m.Called(ctx, publicID).Error(0)
}

func (m *MockArtifactStore) IsStoreURL(raw string) bool {
	return m.Called(raw).Bool(0)
}

func (m *MockArtifactStore) SignedURL(ctx context.Context, raw string) (string, bool) {
	args := m.Called(ctx, raw)
	return args.String(0), args.Bool(1)
}

func (m *MockArtifactStore) EnsureBucket(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockArtifactStore) Ready(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, msg EmailMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type MockContentGenerator struct {
	mock.Mock
}

func (m *MockContentGenerator) Generate(ctx context.Context, terms models.LeaseTerms) (string, error) {
	args := m.Called(ctx, terms)
	return args.String(0), args.Error(1)
}

type MockDocumentRenderer struct {
	mock.Mock
}

func (m *MockDocumentRenderer) Render(text string, meta models.DocumentMetadata) (*models.RenderedDocument, error) {
	args := m.Called(text, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RenderedDocument), args.Error(1)
}

type MockDeliveryService struct {
	mock.Mock
}

func (m *MockDeliveryService) Send(ctx context.Context, req DeliveryRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockDeliveryService) Wait() {}
