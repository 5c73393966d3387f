package domain

import "fmt"

// ResolutionKind classifies why a line item could not be resolved.
type ResolutionKind string

// Resolution failure kinds.
const (
	ResolutionLookupFailed  ResolutionKind = "lookup_failed"
	ResolutionNoVariants    ResolutionKind = "no_variants"
	ResolutionInvalidFormat ResolutionKind = "invalid_format"
)

// ResolutionError is the failure to turn one line item into a hard variant id.
type ResolutionError struct {
	ProductID string
	Kind      ResolutionKind
	Err       error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %s: %s: %v", e.ProductID, e.Kind, e.Err)
	}
	return fmt.Sprintf("resolve %s: %s", e.ProductID, e.Kind)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Reason is the caller-safe explanation for the failure.
func (e *ResolutionError) Reason() string {
	switch e.Kind {
	case ResolutionNoVariants:
		return "product has no purchasable variants"
	case ResolutionInvalidFormat:
		return "product returned an unrecognised variant reference"
	default:
		return "variant lookup failed"
	}
}
