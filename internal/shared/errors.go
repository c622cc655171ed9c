package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a request that fails business validation.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState indicates a status transition that is not permitted.
	ErrInvalidState = errors.New("invalid status transition")
	// ErrExternalService indicates a failure in a collaborator (PDF, mail).
	ErrExternalService = errors.New("external service failure")
	// ErrUnknownPricingType aborts a billing run that met an unrecognized pricing model.
	ErrUnknownPricingType = errors.New("unknown pricing type")
	// ErrConflict indicates a uniqueness violation (e.g. document number).
	ErrConflict = errors.New("conflict")
)

// ValidationError wraps ErrValidation with a field-level message.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// InvalidStateError wraps ErrInvalidState with the offending transition.
func InvalidStateError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// ExternalError wraps a collaborator failure, keeping the underlying cause
// reachable through errors.Is and errors.As.
func ExternalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrExternalService, op, err)
}

// UserSafeMessage returns a message suitable for API consumers. Internal
// details are stripped from unexpected errors.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return err.Error()
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrInvalidState):
		return err.Error()
	case errors.Is(err, ErrConflict):
		return err.Error()
	case errors.Is(err, ErrExternalService):
		return err.Error()
	case errors.Is(err, ErrUnknownPricingType):
		return err.Error()
	default:
		return "internal error"
	}
}
