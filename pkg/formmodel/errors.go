package formmodel

import (
	"errors"
	"fmt"
	"strings"
)

// Definition and resolution errors.
var (
	ErrImmutable       = errors.New("formmodel: definition is immutable")
	ErrDuplicateID     = errors.New("formmodel: duplicate id")
	ErrInvalidID       = errors.New("formmodel: invalid id")
	ErrMissingChild    = errors.New("formmodel: missing required child")
	ErrUnknownClass    = errors.New("formmodel: unknown class")
	ErrNotAClass       = errors.New("formmodel: not a class")
	ErrMisplacedClass  = errors.New("formmodel: classes must be declared at form level")
	ErrResolutionCycle = errors.New("formmodel: resolution cycle")
	ErrNotResolved     = errors.New("formmodel: definition not resolved")
)

// Widget and processing errors.
var (
	ErrParentAlreadySet        = errors.New("formmodel: parent already set")
	ErrSubmitWidgetConflict    = errors.New("formmodel: submit widget already set")
	ErrWidgetNotAcceptingInput = errors.New("formmodel: widget does not accept input")
	ErrUnknownSubmitWidget     = errors.New("formmodel: unknown submit widget")
	ErrTooManyRows             = errors.New("formmodel: too many repeater rows")
	ErrInvalidRowCount         = errors.New("formmodel: invalid repeater row count")
	ErrRowIndexOutOfRange      = errors.New("formmodel: row index out of range")
	ErrInvalidRowAction        = errors.New("formmodel: invalid repeater action")
	ErrRowOperationNotAllowed  = errors.New("formmodel: row operation not allowed")
	ErrIncompatibleRowTypes    = errors.New("formmodel: incompatible row types")
	ErrValueNotSupported       = errors.New("formmodel: widget has no settable value")
	ErrInvalidValue            = errors.New("formmodel: invalid value")
	ErrWidgetNotFound          = errors.New("formmodel: widget not found")
)

// DefinitionError reports a broken definition together with its source location.
type DefinitionError struct {
	Err      error
	ID       string
	Location string
}

func (e *DefinitionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.ID != "" {
		fmt.Fprintf(&b, ": %q", e.ID)
	}
	if e.Location != "" {
		b.WriteString(" at " + e.Location)
	}
	return b.String()
}

func (e *DefinitionError) Unwrap() error { return e.Err }

func definitionError(d Definition, err error) *DefinitionError {
	return &DefinitionError{Err: err, ID: d.ID(), Location: d.Location()}
}

// CycleError reports a class that includes itself without an intervening union.
// Chain lists the definition ids from the class down to the offending reference.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrResolutionCycle, strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrResolutionCycle }
