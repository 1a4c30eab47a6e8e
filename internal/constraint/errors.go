package constraint

import (
	"fmt"
	"strings"
)

// The engine never reports failures as bare strings — every failure mode
// the transport layer can branch on gets its own error type, matchable
// with errors.As.

// DuplicateConstraintError is returned when an id is inserted into a
// library that already holds it (atomic or composite, case-insensitive).
type DuplicateConstraintError struct {
	ID string
}

func (e *DuplicateConstraintError) Error() string {
	return fmt.Sprintf("constraint %q already exists in the library", e.ID)
}

// ConstraintNotFoundError is returned by lookups and by resolution when
// a reference points at an id the library does not hold.
type ConstraintNotFoundError struct {
	ID string
}

func (e *ConstraintNotFoundError) Error() string {
	return fmt.Sprintf("constraint %q not found", e.ID)
}

// CircularReferenceError is returned when a composite transitively
// refers back to itself. Path holds the full traversal order, first and
// last element being the repeated id (e.g. [x y x]).
type CircularReferenceError struct {
	Path []string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular constraint reference: %s", strings.Join(e.Path, " → "))
}

// SkipAttemptError is returned by the progressive strategy when a level
// jump would bypass an intermediate level.
type SkipAttemptError struct {
	Attempted int
	Expected  int
}

func (e *SkipAttemptError) Error() string {
	return fmt.Sprintf("cannot skip to level %d: next allowed level is %d", e.Attempted, e.Expected)
}

// LayerViolationError reports a dependency from one architectural layer
// to another that is not in its declared allow-list.
type LayerViolationError struct {
	Source string
	Target string
}

func (e *LayerViolationError) Error() string {
	return fmt.Sprintf("layer violation: %q may not depend on %q", e.Source, e.Target)
}

// ValidationError reports a single invalid field on a constraint
// definition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidationErrors collects every field failure found while validating
// one definition, so loaders can report all problems in a single pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// ErrOrNil returns the collected errors as an error, or nil when empty.
func (e ValidationErrors) ErrOrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
