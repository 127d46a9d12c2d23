package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"github.com/umar-io/lease-agreement-generator/internal/models"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByExternalAuthID(ctx context.Context, externalAuthID string) (*models.Profile, error)
	// Upsert creates the profile for an auth subject, or returns the existing one unchanged.
	Upsert(ctx context.Context, externalAuthID, email, fullName string) (*models.Profile, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, fullName string, companyName *string) (*models.Profile, error)
	CompleteOnboarding(ctx context.Context, id uuid.UUID, fullName string, companyName *string) (*models.Profile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type profileRepo struct {
	db Database
}

func NewProfileRepo(db Database) ProfileRepository {
	return &profileRepo{db: db}
}

const profileColumns = `id, external_auth_id, email, full_name, company_name, onboarded, created_at, updated_at`

func (r *profileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id), "get profile")
}

func (r *profileRepo) GetByExternalAuthID(ctx context.Context, externalAuthID string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE external_auth_id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, externalAuthID), "get profile by auth id")
}

func (r *profileRepo) Upsert(ctx context.Context, externalAuthID, email, fullName string) (*models.Profile, error) {
	query := `
		INSERT INTO profiles (id, external_auth_id, email, full_name, onboarded, created_at, updated_at)
		VALUES ($1, $2, $3, $4, FALSE, NOW(), NOW())
		ON CONFLICT (external_auth_id) DO UPDATE SET external_auth_id = EXCLUDED.external_auth_id
		RETURNING ` + profileColumns
	return r.scanOne(r.db.QueryRow(ctx, query, uuid.New(), externalAuthID, email, fullName), "upsert profile")
}

func (r *profileRepo) UpdateDetails(ctx context.Context, id uuid.UUID, fullName string, companyName *string) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET full_name = $1, company_name = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + profileColumns
	return r.scanOne(r.db.QueryRow(ctx, query, fullName, companyName, id), "update profile")
}

func (r *profileRepo) CompleteOnboarding(ctx context.Context, id uuid.UUID, fullName string, companyName *string) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET full_name = $1, company_name = $2, onboarded = TRUE, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + profileColumns
	return r.scanOne(r.db.QueryRow(ctx, query, fullName, companyName, id), "complete onboarding")
}

// Delete removes the profile; its leases go with it through ON DELETE CASCADE.
func (r *profileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return persistenceError("delete profile", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrProfileNotFound
	}
	return nil
}

func (r *profileRepo) scanOne(row pgx.Row, op string) (*models.Profile, error) {
	p := &models.Profile{}
	err := row.Scan(&p.ID, &p.ExternalAuthID, &p.Email, &p.FullName, &p.CompanyName, &p.Onboarded, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrProfileNotFound
	}
	if err != nil {
		return nil, persistenceError(op, err)
	}
	return p, nil
}
