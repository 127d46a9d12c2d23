package models

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ExternalAuthID string    `json:"external_auth_id" db:"external_auth_id"`
	Email          string    `json:"email" db:"email"`
	FullName       string    `json:"full_name" db:"full_name"`
	CompanyName    *string   `json:"company_name" db:"company_name"`
	Onboarded      bool      `json:"onboarded" db:"onboarded"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
