package validator

import (
	"errors"
	"strings"
)

// TranslateFunc maps a translation key and its placeholder values to a message.
type TranslateFunc func(key string, values map[string]any) string

// ValidationError describes one failed check.
type ValidationError struct {
	TranslationValues map[string]any
	Field             string
	Message           string
	TranslationKey    string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Translated returns a copy of e with Message produced by fn.
// The copy is unchanged when fn is nil, e has no translation key or fn
// returns "".
func (e ValidationError) Translated(fn TranslateFunc) ValidationError {
	if fn != nil && e.TranslationKey != "" {
		if msg := fn(e.TranslationKey, e.TranslationValues); msg != "" {
			e.Message = msg
		}
	}
	return e
}

// ValidationErrors is a list of failed checks.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether any error belongs to field.
func (errs ValidationErrors) Has(field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Get returns the messages for field.
func (errs ValidationErrors) Get(field string) []string {
	var msgs []string
	for _, e := range errs {
		if e.Field == field {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

// GetErrors returns the errors for field.
func (errs ValidationErrors) GetErrors(field string) []ValidationError {
	var out []ValidationError
	for _, e := range errs {
		if e.Field == field {
			out = append(out, e)
		}
	}
	return out
}

// Translate replaces every message that has a translation key with fn's output.
func (errs ValidationErrors) Translate(fn TranslateFunc) {
	if fn == nil {
		return
	}
	for i := range errs {
		errs[i] = errs[i].Translated(fn)
	}
}

// IsValidationError reports whether err carries ValidationErrors.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// ExtractValidationErrors returns the ValidationErrors carried by err, or nil.
func ExtractValidationErrors(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
