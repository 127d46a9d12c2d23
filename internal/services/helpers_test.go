package services

import (
	"time"

	"github.com/umar-io/lease-agreement-generator/internal/models"
)

func strPtr(s string) *string {
	return &s
}

func mustMoney(s string) models.Money {
	m, err := models.ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// johnAndJane is the reference lease used across the pipeline tests.
func johnAndJane() models.LeaseTerms {
	return models.LeaseTerms{
		LandlordName:    "John Doe",
		LandlordEmail:   "john@example.com",
		TenantName:      "Jane Doe",
		TenantEmail:     "jane@example.com",
		StreetAddress:   "12 Oak Street",
		Unit:            strPtr("4B"),
		City:            "Springfield",
		State:           "IL",
		Zip:             "62701",
		StartDate:       models.NewDate(2024, time.January, 1),
		EndDate:         models.NewDate(2024, time.December, 31),
		MonthlyRent:     mustMoney("2000"),
		SecurityDeposit: mustMoney("2000"),
		PetsAllowed:     false,
		SmokingPolicy:   models.SmokingNotAllowed,
		AdditionalNotes: strPtr("Tenant may install a washing machine."),
		TemplateID:      models.TemplateStandard,
	}
}
