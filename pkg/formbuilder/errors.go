package formbuilder

import (
	"errors"
	"strings"
)

var (
	ErrInvalidDocument = errors.New("formbuilder: invalid document")
	ErrInvalidNode     = errors.New("formbuilder: invalid node")
	ErrNotALibrary     = errors.New("formbuilder: document is not a library")
	ErrNotAForm        = errors.New("formbuilder: document is not a form")
	ErrUnknownLibrary  = errors.New("formbuilder: unknown library")
)

// SchemaError lists every schema violation found in a document.
type SchemaError struct {
	Source     string
	Violations []string
}

func (e *SchemaError) Error() string {
	return e.Source + ": schema validation failed:\n  - " + strings.Join(e.Violations, "\n  - ")
}

func (e *SchemaError) Unwrap() error { return ErrInvalidDocument }
