package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"github.com/umar-io/lease-agreement-generator/internal/models"
)

// LeaseFilter narrows ListByProfile. An empty Status matches every status.
type LeaseFilter struct {
	Status         models.LeaseStatus
	IncludeDeleted bool
	Limit          int
	Offset         int
}

type LeaseRepository interface {
	Insert(ctx context.Context, profileID uuid.UUID, terms models.LeaseTerms) (uuid.UUID, error)
	UpdateArtifact(ctx context.Context, id uuid.UUID, artifact models.StoredArtifact, generatedText string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.LeaseStatus) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.LeaseRecord, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID, filter LeaseFilter) ([]*models.LeaseRecord, error)
	CountByStatus(ctx context.Context, profileID uuid.UUID) (map[models.LeaseStatus]int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ExpireEnded(ctx context.Context, asOf models.Date) (int64, error)
}

type leaseRepo struct {
	db Database
}

func NewLeaseRepo(db Database) LeaseRepository {
	return &leaseRepo{db: db}
}

const leaseColumns = `id, profile_id, landlord_name, landlord_email, tenant_name, tenant_email,
		street_address, unit, city, state, zip, template_type, start_date, end_date,
		monthly_rent, security_deposit, pets_allowed, smoking_policy, additional_notes,
		generated_text, pdf_url, artifact_id, status, created_at, updated_at`

func persistenceError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrPersistence, err)
}

// Insert writes a draft lease and returns its id.
func (r *leaseRepo) Insert(ctx context.Context, profileID uuid.UUID, terms models.LeaseTerms) (uuid.UUID, error) {
	if terms.StartDate.IsZero() || terms.EndDate.IsZero() {
		return uuid.Nil, fmt.Errorf("insert lease: %w: start and end dates are required", common.ErrInvalidDate)
	}

	id := uuid.New()
	query := `
		INSERT INTO leases (id, profile_id, landlord_name, landlord_email, tenant_name, tenant_email,
			street_address, unit, city, state, zip, template_type, start_date, end_date,
			monthly_rent, security_deposit, pets_allowed, smoking_policy, additional_notes,
			status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, 'draft', NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		id, profileID, terms.LandlordName, terms.LandlordEmail, terms.TenantName, terms.TenantEmail,
		terms.StreetAddress, terms.Unit, terms.City, terms.State, terms.Zip, string(terms.TemplateID),
		terms.StartDate.Time, terms.EndDate.Time,
		terms.MonthlyRent.String(), terms.SecurityDeposit.String(),
		terms.PetsAllowed, string(terms.SmokingPolicy), terms.AdditionalNotes,
	)
	if err != nil {
		return uuid.Nil, persistenceError("insert lease", err)
	}
	return id, nil
}

// UpdateArtifact records the stored document and generated text, moving the lease to generated.
func (r *leaseRepo) UpdateArtifact(ctx context.Context, id uuid.UUID, artifact models.StoredArtifact, generatedText string) error {
	query := `
		UPDATE leases
		SET pdf_url = $1, artifact_id = $2, generated_text = $3, status = 'generated', updated_at = NOW()
		WHERE id = $4
	`
	tag, err := r.db.Exec(ctx, query, artifact.URL, artifact.PublicID, generatedText, id)
	if err != nil {
		return persistenceError("update lease artifact", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrLeaseNotFound
	}
	return nil
}

func (r *leaseRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.LeaseStatus) error {
	if !status.Valid() {
		return fmt.Errorf("update lease status: unknown status %q", status)
	}
	query := `UPDATE leases SET status = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, string(status), id)
	if err != nil {
		return persistenceError("update lease status", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrLeaseNotFound
	}
	return nil
}

func (r *leaseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.LeaseRecord, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases WHERE id = $1`
	lease, err := scanLease(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrLeaseNotFound
	}
	if err != nil {
		return nil, persistenceError("get lease", err)
	}
	return lease, nil
}

// ListByProfile returns the profile's leases newest first.
func (r *leaseRepo) ListByProfile(ctx context.Context, profileID uuid.UUID, filter LeaseFilter) ([]*models.LeaseRecord, error) {
	limit, offset, err := common.ValidatePaginationParams(filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + leaseColumns + `
		FROM leases
		WHERE profile_id = $1
			AND ($2::text = '' OR status = $2::text)
			AND ($3::boolean OR status <> 'deleted')
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`
	rows, err := r.db.Query(ctx, query, profileID, string(filter.Status), filter.IncludeDeleted, limit, offset)
	if err != nil {
		return nil, persistenceError("list leases", err)
	}
	defer rows.Close()

	var leases []*models.LeaseRecord
	for rows.Next() {
		lease, err := scanLease(rows)
		if err != nil {
			return nil, persistenceError("scan lease", err)
		}
		leases = append(leases, lease)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("list leases", err)
	}
	return leases, nil
}

func (r *leaseRepo) CountByStatus(ctx context.Context, profileID uuid.UUID) (map[models.LeaseStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM leases WHERE profile_id = $1 GROUP BY status`
	rows, err := r.db.Query(ctx, query, profileID)
	if err != nil {
		return nil, persistenceError("count leases", err)
	}
	defer rows.Close()

	counts := make(map[models.LeaseStatus]int)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, persistenceError("count leases", err)
		}
		counts[models.LeaseStatus(status)] = int(n)
	}
	return counts, rows.Err()
}

// Delete marks the lease deleted; rows are never removed.
func (r *leaseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.UpdateStatus(ctx, id, models.LeaseStatusDeleted)
}

// ExpireEnded moves delivered leases whose end date is before asOf to expired.
func (r *leaseRepo) ExpireEnded(ctx context.Context, asOf models.Date) (int64, error) {
	query := `
		UPDATE leases
		SET status = 'expired', updated_at = NOW()
		WHERE status IN ('sent', 'signed', 'active') AND end_date < $1
	`
	tag, err := r.db.Exec(ctx, query, asOf.Time)
	if err != nil {
		return 0, persistenceError("expire leases", err)
	}
	return tag.RowsAffected(), nil
}

func scanLease(row pgx.Row) (*models.LeaseRecord, error) {
	lease := &models.LeaseRecord{}
	var (
		templateType, smokingPolicy, status string
		startDate, endDate                  time.Time
		monthlyRent, securityDeposit        string
	)
	err := row.Scan(
		&lease.ID, &lease.ProfileID, &lease.LandlordName, &lease.LandlordEmail, &lease.TenantName, &lease.TenantEmail,
		&lease.StreetAddress, &lease.Unit, &lease.City, &lease.State, &lease.Zip, &templateType, &startDate, &endDate,
		&monthlyRent, &securityDeposit, &lease.PetsAllowed, &smokingPolicy, &lease.AdditionalNotes,
		&lease.GeneratedText, &lease.PDFURL, &lease.ArtifactID, &status, &lease.CreatedAt, &lease.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lease.MonthlyRent, err = models.ParseMoney(monthlyRent); err != nil {
		return nil, err
	}
	if lease.SecurityDeposit, err = models.ParseMoney(securityDeposit); err != nil {
		return nil, err
	}
	lease.TemplateID = models.TemplateID(templateType)
	lease.SmokingPolicy = models.SmokingPolicy(smokingPolicy)
	lease.Status = models.LeaseStatus(status)
	lease.StartDate = models.DateOf(startDate)
	lease.EndDate = models.DateOf(endDate)
	return lease, nil
}
