package match

import (
	"errors"
	"fmt"
)

// ValidationError rejects a malformed or out-of-range mutation payload:
// negative score, unknown contestant side, an end-turn from the wrong side.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// StateError rejects an operation that is legal in some phase but not the
// current one, such as scoring before Play.
type StateError struct {
	Op    string
	Phase Phase
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: not allowed in phase %s", e.Op, e.Phase)
}

func validationErrf(op, format string, args ...any) error {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func stateErr(op string, phase Phase) error {
	return &StateError{Op: op, Phase: phase}
}

// IsRejection reports whether err is a validation or state rejection, as
// opposed to an internal failure.
func IsRejection(err error) bool {
	var ve *ValidationError
	var se *StateError
	return errors.As(err, &ve) || errors.As(err, &se)
}
