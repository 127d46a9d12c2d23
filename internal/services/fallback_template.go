package services

import (
	"fmt"
	"strings"

	"github.com/umar-io/lease-agreement-generator/internal/common"
	"github.com/umar-io/lease-agreement-generator/internal/models"
)

const (
	petsAllowedClause    = "Pets are allowed on the Property with prior written consent from the Landlord."
	petsNotAllowedClause = "No pets are allowed on the Property without prior written consent from the Landlord."
)

// FallbackLease fills the terms into a fixed clause skeleton. It has no inputs other than
// the terms, so the same terms always produce the same text.
func FallbackLease(terms models.LeaseTerms) string {
	var b strings.Builder
	section := func(n int, title, body string) {
		fmt.Fprintf(&b, "%d. %s\n%s\n\n", n, title, body)
	}

	b.WriteString("RESIDENTIAL LEASE AGREEMENT\n\n")
	fmt.Fprintf(&b, "This Lease Agreement (\"Agreement\") is made effective as of %s between:\n\n", terms.StartDate.Long())
	fmt.Fprintf(&b, "LANDLORD: %s\n", terms.LandlordName)
	fmt.Fprintf(&b, "TENANT: %s\n\n", terms.TenantName)

	section(1, "PROPERTY", "The Landlord agrees to lease to the Tenant the residential property located at:\n"+
		terms.FullAddress()+"\n(the \"Property\")")
	section(2, "TERM", fmt.Sprintf("The lease term shall begin on %s and end on %s.",
		terms.StartDate.Long(), terms.EndDate.Long()))
	section(3, "RENT", fmt.Sprintf("The Tenant agrees to pay monthly rent of %s, due on the first day of each month.",
		terms.MonthlyRent.FormatUSD()))
	section(4, "SECURITY DEPOSIT", fmt.Sprintf("The Tenant shall pay a security deposit of %s, which will be held by the "+
		"Landlord and returned at the end of the lease term, subject to deductions for damages beyond normal wear and tear.",
		terms.SecurityDeposit.FormatUSD()))
	section(5, "UTILITIES", "The Tenant shall be responsible for all utilities and services, unless otherwise specified in writing.")
	section(6, "MAINTENANCE AND REPAIRS", "The Tenant agrees to maintain the Property in good condition and promptly "+
		"notify the Landlord of any necessary repairs.")
	pets := petsNotAllowedClause
	if terms.PetsAllowed {
		pets = petsAllowedClause
	}
	section(7, "PETS", pets)
	section(8, "SMOKING POLICY", string(terms.SmokingPolicy))
	section(9, "USE OF PROPERTY", "The Property shall be used exclusively as a private residence for the Tenant "+
		"and their immediate family.")
	section(10, "ENTRY AND INSPECTION", "The Landlord may enter the Property with 24 hours notice for inspection, "+
		"repairs, or to show the Property to prospective tenants or buyers.")
	section(11, "TERMINATION", "Either party may terminate this Agreement with 30 days written notice, subject to "+
		"all terms and conditions herein.")
	section(12, "DEFAULT", "Failure to pay rent when due or violation of any terms of this Agreement constitutes "+
		"default and may result in eviction proceedings.")
	if notes := strings.TrimSpace(common.SafeString(terms.AdditionalNotes)); notes != "" {
		section(13, "ADDITIONAL PROVISIONS", notes)
	}

	b.WriteString("This Agreement represents the entire agreement between the parties and supersedes all prior " +
		"negotiations, representations, or agreements.\n\n")
	b.WriteString("By signing below, both parties acknowledge they have read, understood, and agree to all terms " +
		"of this Lease Agreement.\n")
	return b.String()
}
