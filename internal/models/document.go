package models

type GenerationSource string

const (
	SourceRemote   GenerationSource = "remote"
	SourceFallback GenerationSource = "fallback"
)

// GeneratedAgreement is immutable once built; regenerating yields a new value.
type GeneratedAgreement struct {
	Text   string
	Terms  LeaseTerms
	Source GenerationSource
}

// DocumentMetadata is the header information drawn above the agreement body.
type DocumentMetadata struct {
	LandlordName    string
	TenantName      string
	PropertyAddress string
}

func MetadataFor(terms LeaseTerms) DocumentMetadata {
	return DocumentMetadata{
		LandlordName:    terms.LandlordName,
		TenantName:      terms.TenantName,
		PropertyAddress: terms.FullAddress(),
	}
}

// LayoutLine is one laid-out line of a rendered document.
type LayoutLine struct {
	Page    int
	Text    string
	Width   float64
	Heading bool
}

type RenderedDocument struct {
	Data           []byte
	PageCount      int
	PrintableWidth float64
	Lines          []LayoutLine
}

type StoredArtifact struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}
