package validator

import (
	"cmp"
	"fmt"
	"unicode/utf8"
)

// Rule is the outcome of a single check: Check is true when the value passed.
type Rule struct {
	Error ValidationError
	Check bool
}

// Apply collects the errors of every failed rule in order.
func Apply(rules ...Rule) error {
	var errs ValidationErrors
	for _, r := range rules {
		if !r.Check {
			errs = append(errs, r.Error)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func newRule(ok bool, field, key, msg string, values map[string]any) Rule {
	if values == nil {
		values = map[string]any{}
	}
	values["field"] = field
	return Rule{
		Check: ok,
		Error: ValidationError{Field: field, Message: msg, TranslationKey: key, TranslationValues: values},
	}
}

// RequiredString fails for an empty string.
func RequiredString(field, v string) Rule {
	return newRule(v != "", field, "validation.required", "is required", nil)
}

// RequiredNum fails for the zero value.
func RequiredNum[T cmp.Ordered](field string, v T) Rule {
	var zero T
	return newRule(v != zero, field, "validation.required", "is required", nil)
}

// RequiredSlice fails for an empty slice.
func RequiredSlice[T any](field string, v []T) Rule {
	return newRule(len(v) > 0, field, "validation.required", "is required", nil)
}

// RequiredMap fails for an empty map.
func RequiredMap[K comparable, V any](field string, v map[K]V) Rule {
	return newRule(len(v) > 0, field, "validation.required", "is required", nil)
}

// MinLenString fails when v has fewer than n characters.
func MinLenString(field, v string, n int) Rule {
	return newRule(utf8.RuneCountInString(v) >= n, field, "validation.min_length",
		fmt.Sprintf("must be at least %d characters long", n), map[string]any{"min": n})
}

// MaxLenString fails when v has more than n characters.
func MaxLenString(field, v string, n int) Rule {
	return newRule(utf8.RuneCountInString(v) <= n, field, "validation.max_length",
		fmt.Sprintf("must not exceed %d characters", n), map[string]any{"max": n})
}

// LenString fails unless v has exactly n characters.
func LenString(field, v string, n int) Rule {
	return newRule(utf8.RuneCountInString(v) == n, field, "validation.exact_length",
		fmt.Sprintf("must be exactly %d characters long", n), map[string]any{"length": n})
}

// MinNum fails when v is below lo.
func MinNum[T cmp.Ordered](field string, v, lo T) Rule {
	return newRule(v >= lo, field, "validation.min",
		fmt.Sprintf("must be at least %v", lo), map[string]any{"min": lo})
}

// MaxNum fails when v is above hi.
func MaxNum[T cmp.Ordered](field string, v, hi T) Rule {
	return newRule(v <= hi, field, "validation.max",
		fmt.Sprintf("must not exceed %v", hi), map[string]any{"max": hi})
}

// MinLenSlice fails when v has fewer than n items.
func MinLenSlice[T any](field string, v []T, n int) Rule {
	return newRule(len(v) >= n, field, "validation.min_items",
		fmt.Sprintf("must contain at least %d items", n), map[string]any{"min": n})
}

// MaxLenSlice fails when v has more than n items.
func MaxLenSlice[T any](field string, v []T, n int) Rule {
	return newRule(len(v) <= n, field, "validation.max_items",
		fmt.Sprintf("must not contain more than %d items", n), map[string]any{"max": n})
}
