package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"github.com/umar-io/lease-agreement-generator/internal/models"
	"github.com/umar-io/lease-agreement-generator/internal/repositories"
	"go.uber.org/zap"
)

const (
	defaultGenerationTimeout = 30 * time.Second
	defaultUploadTimeout     = 30 * time.Second
	defaultWriteTimeout      = 15 * time.Second
	pdfDataURLPrefix         = "data:application/pdf;base64,"
)

type GenerateOptions struct {
	// Deliver emails the document to the tenant once it is stored.
	Deliver bool
	// IncludeDataURL returns the PDF inline as a data URL as well.
	IncludeDataURL bool
}

type GenerateResult struct {
	LeaseID       uuid.UUID               `json:"lease_id"`
	PDFURL        string                  `json:"pdf_url"`
	PublicID      string                  `json:"public_id"`
	PDFDataURL    string                  `json:"pdf_data_url,omitempty"`
	GeneratedText string                  `json:"generated_text"`
	Source        models.GenerationSource `json:"source"`
	PageCount     int                     `json:"page_count"`
	MessageID     string                  `json:"message_id,omitempty"`
}

// DeliverInput sends either a stored lease (LeaseID set) or an arbitrary PDF reference.
// Blank fields fall back to the lease record.
type DeliverInput struct {
	LeaseID      *uuid.UUID `json:"lease_id"`
	PDFURL       string     `json:"pdf_url"`
	TenantEmail  string     `json:"tenant_email"`
	TenantName   string     `json:"tenant_name"`
	LandlordName string     `json:"landlord_name"`
}

type LeaseSummary struct {
	Total    int                        `json:"total"`
	ByStatus map[models.LeaseStatus]int `json:"by_status"`
}

type LeaseService interface {
	Generate(ctx context.Context, profileID uuid.UUID, terms models.LeaseTerms, opts GenerateOptions) (*GenerateResult, error)
	Deliver(ctx context.Context, profileID uuid.UUID, in DeliverInput) (string, error)
	SaveDraft(ctx context.Context, profileID, leaseID uuid.UUID) (*models.LeaseRecord, error)
	GetLease(ctx context.Context, profileID, leaseID uuid.UUID) (*models.LeaseRecord, error)
	ListLeases(ctx context.Context, profileID uuid.UUID, filter repositories.LeaseFilter) ([]*models.LeaseRecord, error)
	DeleteLease(ctx context.Context, profileID, leaseID uuid.UUID) error
	Summary(ctx context.Context, profileID uuid.UUID) (*LeaseSummary, error)
}

type LeaseServiceConfig struct {
	GenerationTimeout time.Duration
	UploadTimeout     time.Duration
	WriteTimeout      time.Duration
	// Now stamps artifact names; defaults to time.Now.
	Now func() time.Time
}

type leaseService struct {
	leases    repositories.LeaseRepository
	generator ContentGenerator
	renderer  DocumentRenderer
	store     ArtifactStore
	delivery  DeliveryService
	cfg       LeaseServiceConfig
	logger    *zap.Logger
}

func NewLeaseService(
	leases repositories.LeaseRepository,
	generator ContentGenerator,
	renderer DocumentRenderer,
	store ArtifactStore,
	delivery DeliveryService,
	cfg LeaseServiceConfig,
	logger *zap.Logger,
) LeaseService {
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = defaultGenerationTimeout
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = defaultUploadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &leaseService{
		leases:    leases,
		generator: generator,
		renderer:  renderer,
		store:     store,
		delivery:  delivery,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *leaseService) Generate(ctx context.Context, profileID uuid.UUID, terms models.LeaseTerms, opts GenerateOptions) (*GenerateResult, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}

	insertCtx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	leaseID, err := s.leases.Insert(insertCtx, profileID, terms)
	cancel()
	if err != nil {
		return nil, common.NewPipelineError(common.StageInserting, uuid.Nil, err)
	}
	log := s.logger.With(zap.String("lease_id", leaseID.String()))

	agreement := s.generate(ctx, terms, log)

	doc, err := s.renderer.Render(agreement.Text, models.MetadataFor(terms))
	if err != nil {
		log.Error("lease render failed", zap.Error(err))
		return nil, common.NewPipelineError(common.StageRendering, leaseID, err)
	}

	// Upload and record must finish together even if the caller goes away.
	durable := context.WithoutCancel(ctx)

	storeCtx, cancel := context.WithTimeout(durable, s.cfg.UploadTimeout)
	artifact, err := s.store.Store(storeCtx, doc.Data, ArtifactName(leaseID, s.cfg.Now()))
	cancel()
	if err != nil {
		log.Error("lease upload failed", zap.Error(err))
		return nil, common.NewPipelineError(common.StageStoring, leaseID, err)
	}

	persistCtx, cancel := context.WithTimeout(durable, s.cfg.WriteTimeout)
	err = s.leases.UpdateArtifact(persistCtx, leaseID, artifact, agreement.Text)
	cancel()
	if err != nil {
		log.Error("lease artifact not recorded", zap.String("public_id", artifact.PublicID), zap.Error(err))
		return nil, common.NewPipelineError(common.StagePersisting, leaseID, err)
	}

	result := &GenerateResult{
		LeaseID:       leaseID,
		PDFURL:        artifact.URL,
		PublicID:      artifact.PublicID,
		GeneratedText: agreement.Text,
		Source:        agreement.Source,
		PageCount:     doc.PageCount,
	}
	if opts.IncludeDataURL {
		result.PDFDataURL = pdfDataURLPrefix + base64.StdEncoding.EncodeToString(doc.Data)
	}
	log.Info("lease generated",
		zap.String("source", string(agreement.Source)),
		zap.Int("pages", doc.PageCount),
		zap.String("public_id", artifact.PublicID),
	)

	if opts.Deliver {
		messageID, err := s.delivery.Send(ctx, DeliveryRequest{
			TenantEmail:  terms.TenantEmail,
			TenantName:   terms.TenantName,
			LandlordName: terms.LandlordName,
			PDFRef:       artifact.URL,
			LeaseID:      uuid.NullUUID{UUID: leaseID, Valid: true},
		})
		if err != nil {
			return nil, common.NewPipelineError(common.StageDelivering, leaseID, err)
		}
		result.MessageID = messageID
	}
	return result, nil
}

// generate never fails: any generator error falls back to the local template.
func (s *leaseService) generate(ctx context.Context, terms models.LeaseTerms, log *zap.Logger) models.GeneratedAgreement {
	if s.generator != nil {
		genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
		text, err := s.generator.Generate(genCtx, terms)
		cancel()
		if err == nil && strings.TrimSpace(text) != "" {
			return models.GeneratedAgreement{Text: text, Terms: terms, Source: models.SourceRemote}
		}
		log.Warn("generation unavailable, using fallback template", zap.Error(err))
	}
	return models.GeneratedAgreement{Text: FallbackLease(terms), Terms: terms, Source: models.SourceFallback}
}

func (s *leaseService) Deliver(ctx context.Context, profileID uuid.UUID, in DeliverInput) (string, error) {
	req := DeliveryRequest{
		TenantEmail:  strings.TrimSpace(in.TenantEmail),
		TenantName:   strings.TrimSpace(in.TenantName),
		LandlordName: strings.TrimSpace(in.LandlordName),
		PDFRef:       strings.TrimSpace(in.PDFURL),
	}

	if in.LeaseID != nil {
		lease, err := s.GetLease(ctx, profileID, *in.LeaseID)
		if err != nil {
			return "", err
		}
		req.LeaseID = uuid.NullUUID{UUID: lease.ID, Valid: true}
		if req.TenantEmail == "" {
			req.TenantEmail = lease.TenantEmail
		}
		if req.TenantName == "" {
			req.TenantName = lease.TenantName
		}
		if req.LandlordName == "" {
			req.LandlordName = lease.LandlordName
		}
		if req.PDFRef == "" {
			req.PDFRef = common.SafeString(lease.PDFURL)
		}
		if req.PDFRef == "" {
			verr := &common.ValidationError{}
			verr.Add("pdf_url", "lease has no generated document")
			return "", verr
		}
	}

	messageID, err := s.delivery.Send(ctx, req)
	if err != nil {
		var verr *common.ValidationError
		if errors.As(err, &verr) {
			return "", err
		}
		return "", common.NewPipelineError(common.StageDelivering, req.LeaseID.UUID, err)
	}
	return messageID, nil
}

func (s *leaseService) SaveDraft(ctx context.Context, profileID, leaseID uuid.UUID) (*models.LeaseRecord, error) {
	lease, err := s.GetLease(ctx, profileID, leaseID)
	if err != nil {
		return nil, err
	}
	writeCtx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()
	if err := s.leases.UpdateStatus(writeCtx, leaseID, models.LeaseStatusDraft); err != nil {
		return nil, err
	}
	lease.Status = models.LeaseStatusDraft
	lease.UpdatedAt = s.cfg.Now().UTC()
	return lease, nil
}

// GetLease returns a lease owned by the profile. Deleted leases and leases of other
// profiles are reported as not found.
func (s *leaseService) GetLease(ctx context.Context, profileID, leaseID uuid.UUID) (*models.LeaseRecord, error) {
	lease, err := s.leases.GetByID(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	if lease.ProfileID != profileID || lease.Status == models.LeaseStatusDeleted {
		return nil, common.ErrLeaseNotFound
	}
	return lease, nil
}

func (s *leaseService) ListLeases(ctx context.Context, profileID uuid.UUID, filter repositories.LeaseFilter) ([]*models.LeaseRecord, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		verr := &common.ValidationError{}
		verr.Add("status", "is not a known lease status")
		return nil, verr
	}
	limit, offset, err := common.ValidatePaginationParams(filter.Limit, filter.Offset)
	if err != nil {
		verr := &common.ValidationError{}
		verr.Add("offset", err.Error())
		return nil, verr
	}
	filter.Limit, filter.Offset = limit, offset
	return s.leases.ListByProfile(ctx, profileID, filter)
}

// DeleteLease tombstones the lease, then removes its document. A failed document
// removal is logged and does not fail the call.
func (s *leaseService) DeleteLease(ctx context.Context, profileID, leaseID uuid.UUID) error {
	lease, err := s.GetLease(ctx, profileID, leaseID)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()
	if err := s.leases.Delete(writeCtx, leaseID); err != nil {
		return err
	}

	if artifact, ok := lease.Artifact(); ok && artifact.PublicID != "" {
		removeCtx, cancelRemove := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.UploadTimeout)
		defer cancelRemove()
		if err := s.store.Delete(removeCtx, artifact.PublicID); err != nil {
			s.logger.Warn("lease document not removed",
				zap.String("lease_id", leaseID.String()),
				zap.String("public_id", artifact.PublicID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *leaseService) Summary(ctx context.Context, profileID uuid.UUID) (*LeaseSummary, error) {
	counts, err := s.leases.CountByStatus(ctx, profileID)
	if err != nil {
		return nil, err
	}
	summary := &LeaseSummary{ByStatus: make(map[models.LeaseStatus]int, len(counts))}
	for status, n := range counts {
		if status == models.LeaseStatusDeleted {
			continue
		}
		summary.ByStatus[status] = n
		summary.Total += n
	}
	return summary, nil
}
