package definitions

import "errors"

var (
	ErrNotFound      = errors.New("definitions: document not found")
	ErrInvalidName   = errors.New("definitions: invalid document name")
	ErrAccessDenied  = errors.New("definitions: access denied")
	ErrSource        = errors.New("definitions: source failure")
	ErrInvalidConfig = errors.New("definitions: invalid configuration")
)
