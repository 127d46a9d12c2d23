package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrGenerationUnavailable    = errors.New("generation unavailable")
	ErrRenderFailed             = errors.New("render failed")
	ErrArtifactStoreUnavailable = errors.New("artifact store unavailable")
	ErrPersistence              = errors.New("persistence error")
	ErrPdfUnavailable           = errors.New("pdf unavailable")
	ErrSizeLimitExceeded        = errors.New("size limit exceeded")
	ErrTransportRejected        = errors.New("transport rejected")
	ErrInvalidDate              = errors.New("invalid date")
	ErrLeaseNotFound            = errors.New("lease not found")
	ErrProfileNotFound          = errors.New("profile not found")
	ErrNotOnboarded             = errors.New("profile has not completed onboarding")
	ErrRateLimited              = errors.New("rate limit exceeded")
)

// FieldError is a single rejected input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError collects every rejected field of one input instead of stopping at the first.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// Err returns nil when no field was rejected.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Details flattens the field list for the HTTP error envelope.
func (e *ValidationError) Details() map[string]string {
	details := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if _, ok := details[f.Field]; !ok {
			details[f.Field] = f.Reason
		}
	}
	return details
}

// Stage names a step of the generation and delivery pipeline.
type Stage string

const (
	StageValidating Stage = "validating"
	StageInserting  Stage = "inserting"
	StageGenerating Stage = "generating"
	StageRendering  Stage = "rendering"
	StageStoring    Stage = "storing"
	StagePersisting Stage = "persisting"
	StageDelivering Stage = "delivering"
)

// PipelineError tags a stage failure with the lease it belongs to, once one exists.
type PipelineError struct {
	Stage   Stage
	LeaseID uuid.NullUUID
	Err     error
}

func NewPipelineError(stage Stage, leaseID uuid.UUID, err error) *PipelineError {
	pe := &PipelineError{Stage: stage, Err: err}
	if leaseID != uuid.Nil {
		pe.LeaseID = uuid.NullUUID{UUID: leaseID, Valid: true}
	}
	return pe
}

func (e *PipelineError) Error() string {
	if e.LeaseID.Valid {
		return fmt.Sprintf("%s (lease %s): %v", e.Stage, e.LeaseID.UUID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
