package models

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/umar-io/lease-agreement-generator/internal/common"
)

type LeaseStatus string

const (
	LeaseStatusDraft     LeaseStatus = "draft"
	LeaseStatusGenerated LeaseStatus = "generated"
	LeaseStatusSent      LeaseStatus = "sent"
	LeaseStatusSigned    LeaseStatus = "signed"
	LeaseStatusActive    LeaseStatus = "active"
	LeaseStatusExpired   LeaseStatus = "expired"
	LeaseStatusDeleted   LeaseStatus = "deleted"
)

func (s LeaseStatus) Valid() bool {
	switch s {
	case LeaseStatusDraft, LeaseStatusGenerated, LeaseStatusSent, LeaseStatusSigned,
		LeaseStatusActive, LeaseStatusExpired, LeaseStatusDeleted:
		return true
	}
	return false
}

type SmokingPolicy string

const (
	SmokingNotAllowed   SmokingPolicy = "No Smoking"
	SmokingOutsideOnly  SmokingPolicy = "Smoking Outside Only"
	SmokingAllowed      SmokingPolicy = "Smoking Allowed"
	defaultSmokingPolicy              = SmokingNotAllowed
)

func (p SmokingPolicy) Valid() bool {
	return p == SmokingNotAllowed || p == SmokingOutsideOnly || p == SmokingAllowed
}

type TemplateID string

const (
	TemplateStandard   TemplateID = "standard"
	TemplateShortTerm  TemplateID = "short-term"
	TemplateCommercial TemplateID = "commercial"
)

var templateNames = map[TemplateID]string{
	TemplateStandard:   "Standard Residential",
	TemplateShortTerm:  "Short-Term Rental",
	TemplateCommercial: "Commercial",
}

// DisplayName falls back to "Standard Residential" for unknown ids.
func (t TemplateID) DisplayName() string {
	if name, ok := templateNames[t]; ok {
		return name
	}
	return templateNames[TemplateStandard]
}

func (t TemplateID) Valid() bool {
	_, ok := templateNames[t]
	return ok
}

// LeaseTerms is the validated input for one agreement.
type LeaseTerms struct {
	LandlordName    string        `json:"landlord_name"`
	LandlordEmail   string        `json:"landlord_email"`
	TenantName      string        `json:"tenant_name"`
	TenantEmail     string        `json:"tenant_email"`
	StreetAddress   string        `json:"street_address"`
	Unit            *string       `json:"unit,omitempty"`
	City            string        `json:"city"`
	State           string        `json:"state"`
	Zip             string        `json:"zip"`
	StartDate       Date          `json:"start_date"`
	EndDate         Date          `json:"end_date"`
	MonthlyRent     Money         `json:"monthly_rent"`
	SecurityDeposit Money         `json:"security_deposit"`
	PetsAllowed     bool          `json:"pets_allowed"`
	SmokingPolicy   SmokingPolicy `json:"smoking_policy"`
	AdditionalNotes *string       `json:"additional_notes,omitempty"`
	TemplateID      TemplateID    `json:"template_id"`
}

// FullAddress joins the address as "street, Unit X, city, state zip".
func (t LeaseTerms) FullAddress() string {
	var b strings.Builder
	b.WriteString(t.StreetAddress)
	if unit := common.SafeString(t.Unit); unit != "" {
		b.WriteString(", Unit ")
		b.WriteString(unit)
	}
	b.WriteString(", ")
	b.WriteString(t.City)
	b.WriteString(", ")
	b.WriteString(t.State)
	b.WriteString(" ")
	b.WriteString(t.Zip)
	return b.String()
}

// Validate reports every invalid field at once.
func (t LeaseTerms) Validate() error {
	verr := &common.ValidationError{}
	t.validateInto(verr, nil)
	return verr.Err()
}

func (t LeaseTerms) validateInto(verr *common.ValidationError, reported map[string]bool) {
	required := []struct {
		field, value string
	}{
		{"landlord_name", t.LandlordName},
		{"landlord_email", t.LandlordEmail},
		{"tenant_name", t.TenantName},
		{"tenant_email", t.TenantEmail},
		{"street_address", t.StreetAddress},
		{"city", t.City},
		{"state", t.State},
		{"zip", t.Zip},
	}
	for _, r := range required {
		if err := common.ValidateRequiredString(r.value, r.field); err != nil {
			verr.Add(r.field, "is required")
		}
	}

	emails := []struct {
		field, value string
	}{
		{"landlord_email", t.LandlordEmail},
		{"tenant_email", t.TenantEmail},
	}
	for _, e := range emails {
		if strings.TrimSpace(e.value) == "" {
			continue
		}
		if _, err := mail.ParseAddress(e.value); err != nil {
			verr.Add(e.field, "must be a valid email address")
		}
	}

	if t.StartDate.IsZero() && !reported["start_date"] {
		verr.Add("start_date", "is required")
	}
	if t.EndDate.IsZero() && !reported["end_date"] {
		verr.Add("end_date", "is required")
	}
	if !t.StartDate.IsZero() && !t.EndDate.IsZero() && !t.EndDate.After(t.StartDate.Time) {
		verr.Add("end_date", "must be after start_date")
	}

	validateAmount(verr, "monthly_rent", t.MonthlyRent)
	validateAmount(verr, "security_deposit", t.SecurityDeposit)

	if !t.SmokingPolicy.Valid() {
		verr.Add("smoking_policy", "must be one of: No Smoking, Smoking Outside Only, Smoking Allowed")
	}
	if !t.TemplateID.Valid() {
		verr.Add("template_id", "must be one of: standard, short-term, commercial")
	}
	if err := common.ValidateOptionalString(t.AdditionalNotes, "additional_notes", 5000); err != nil {
		verr.Add("additional_notes", "cannot exceed 5000 characters")
	}
}

func validateAmount(verr *common.ValidationError, field string, m Money) {
	switch {
	case m.IsNegative():
		verr.Add(field, "must not be negative")
	case m.GreaterThan(MaxMoney):
		verr.Add(field, "must not exceed "+NewMoney(MaxMoney).FormatUSD())
	case !m.WholeCents():
		verr.Add(field, "must not have more than two decimal places")
	}
}

// LeaseTermsInput is the wire form of LeaseTerms, with dates still as strings.
type LeaseTermsInput struct {
	LandlordName    string `json:"landlord_name"`
	LandlordEmail   string `json:"landlord_email"`
	TenantName      string `json:"tenant_name"`
	TenantEmail     string `json:"tenant_email"`
	StreetAddress   string `json:"street_address"`
	Unit            string `json:"unit"`
	City            string `json:"city"`
	State           string `json:"state"`
	Zip             string `json:"zip"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	MonthlyRent     *Money `json:"monthly_rent"`
	SecurityDeposit *Money `json:"security_deposit"`
	PetsAllowed     bool   `json:"pets_allowed"`
	SmokingPolicy   string `json:"smoking_policy"`
	AdditionalNotes string `json:"additional_notes"`
	TemplateID      string `json:"template_id"`
}

// Terms parses and validates the input, returning a *common.ValidationError on failure.
func (in LeaseTermsInput) Terms() (LeaseTerms, error) {
	verr := &common.ValidationError{}
	reported := map[string]bool{}

	terms := LeaseTerms{
		LandlordName:    strings.TrimSpace(in.LandlordName),
		LandlordEmail:   strings.TrimSpace(in.LandlordEmail),
		TenantName:      strings.TrimSpace(in.TenantName),
		TenantEmail:     strings.TrimSpace(in.TenantEmail),
		StreetAddress:   strings.TrimSpace(in.StreetAddress),
		Unit:            common.StringPtr(in.Unit),
		City:            strings.TrimSpace(in.City),
		State:           strings.TrimSpace(in.State),
		Zip:             strings.TrimSpace(in.Zip),
		PetsAllowed:     in.PetsAllowed,
		SmokingPolicy:   SmokingPolicy(strings.TrimSpace(in.SmokingPolicy)),
		AdditionalNotes: common.StringPtr(in.AdditionalNotes),
		TemplateID:      TemplateID(strings.TrimSpace(in.TemplateID)),
	}
	if terms.SmokingPolicy == "" {
		terms.SmokingPolicy = defaultSmokingPolicy
	}
	if terms.TemplateID == "" {
		terms.TemplateID = TemplateStandard
	}

	dates := []struct {
		field, raw string
		dst        *Date
	}{
		{"start_date", in.StartDate, &terms.StartDate},
		{"end_date", in.EndDate, &terms.EndDate},
	}
	for _, d := range dates {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		parsed, err := ParseDate(d.raw)
		if err != nil {
			verr.Add(d.field, "must be a valid date (YYYY-MM-DD)")
			reported[d.field] = true
			continue
		}
		*d.dst = parsed
	}

	if in.MonthlyRent == nil {
		verr.Add("monthly_rent", "is required")
	} else {
		terms.MonthlyRent = *in.MonthlyRent
	}
	if in.SecurityDeposit == nil {
		verr.Add("security_deposit", "is required")
	} else {
		terms.SecurityDeposit = *in.SecurityDeposit
	}

	terms.validateInto(verr, reported)
	if err := verr.Err(); err != nil {
		return LeaseTerms{}, err
	}
	return terms, nil
}

// LeaseRecord is the persisted lease with a denormalized copy of its terms.
type LeaseRecord struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProfileID uuid.UUID `json:"profile_id" db:"profile_id"`
	LeaseTerms
	GeneratedText *string     `json:"generated_text,omitempty" db:"generated_text"`
	PDFURL        *string     `json:"pdf_url,omitempty" db:"pdf_url"`
	ArtifactID    *string     `json:"artifact_id,omitempty" db:"artifact_id"`
	Status        LeaseStatus `json:"status" db:"status"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// Artifact returns the stored document reference, if the lease has one.
func (r *LeaseRecord) Artifact() (StoredArtifact, bool) {
	if r.PDFURL == nil || *r.PDFURL == "" {
		return StoredArtifact{}, false
	}
	return StoredArtifact{URL: *r.PDFURL, PublicID: common.SafeString(r.ArtifactID)}, true
}
