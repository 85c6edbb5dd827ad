package model

import (
	"fmt"
	"strings"
)

// FailureKind classifies errors surfaced by the store layer.
type FailureKind int

const (
	StoreFailure FailureKind = iota
	ValidationFailure
	DuplicateKeyFailure
	CastFailure
	PartialBatchFailure
)

func (k FailureKind) String() string {
	switch k {
	case ValidationFailure:
		return "validation"
	case DuplicateKeyFailure:
		return "duplicate_key"
	case CastFailure:
		return "cast"
	case PartialBatchFailure:
		return "partial_batch"
	default:
		return "store"
	}
}

// Failure is the typed error carried from the repository up to the handlers.
type Failure struct {
	Kind FailureKind
	// Field is the offending unique field for DuplicateKeyFailure.
	Field string
	// Messages holds field-level messages for ValidationFailure.
	Messages []string
	// Items holds per-item outcomes for PartialBatchFailure.
	Items []ItemFailure
	// Status overrides the HTTP status chosen by the classifier when non-zero.
	Status int
	// Message is shown to clients with Status. Err never is.
	Message string
	Err     error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case ValidationFailure:
		return "validation failed: " + strings.Join(f.Messages, "; ")
	case DuplicateKeyFailure:
		return fmt.Sprintf("duplicate key on %s", f.Field)
	case PartialBatchFailure:
		return fmt.Sprintf("partial batch failure: %d item(s) failed", len(f.Items))
	}
	if f.Err != nil {
		return f.Kind.String() + ": " + f.Err.Error()
	}
	return f.Kind.String() + " failure"
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func NewValidationFailure(messages ...string) *Failure {
	return &Failure{Kind: ValidationFailure, Messages: messages}
}

func NewCastFailure(err error) *Failure {
	return &Failure{Kind: CastFailure, Err: err}
}

// ItemFailure reports one rejected record or operation of a bulk request.
// Index is the item's position in the request array.
type ItemFailure struct {
	Index  int    `json:"index"`
	Code   int    `json:"code,omitempty"`
	ErrMsg string `json:"errmsg"`
}
