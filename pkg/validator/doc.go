// Package validator provides the validation error model shared by widgets
// and a small set of reusable rules.
//
// A failed check is a [ValidationError]: a field name, a fallback message and
// a translation key with placeholder values. Errors collected across a form
// are returned as [ValidationErrors] and can be translated in place:
//
//	errs := form.ValidationErrors()
//	errs.Translate(func(key string, values map[string]any) string {
//	    return i18n.T(locale, key, values)
//	})
//
// Static rules ([RequiredString], [MinLenString], [MinNum], ...) evaluate a
// known Go value; [ValueRule] implementations check dynamically typed widget
// values.
package validator
