package upload

import "fmt"

// Rule checks an uploaded part.
type Rule interface {
	Check(p Part) error
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(p Part) error

func (f RuleFunc) Check(p Part) error { return f(p) }

// Check runs rules in order and returns the first failure.
func Check(p Part, rules ...Rule) error {
	for _, rule := range rules {
		if err := rule.Check(p); err != nil {
			return err
		}
	}
	return nil
}

// MaxSize rejects parts larger than limit bytes.
func MaxSize(limit int64) Rule {
	return RuleFunc(func(p Part) error {
		if p.Size() > limit {
			return &RuleError{
				Code:    CodeTooLarge,
				Message: fmt.Sprintf("file size %d exceeds limit of %d bytes", p.Size(), limit),
				Details: map[string]any{"got": p.Size(), "limit": limit},
			}
		}
		return nil
	})
}

// MinSize rejects parts smaller than limit bytes.
func MinSize(limit int64) Rule {
	return RuleFunc(func(p Part) error {
		if p.Size() < limit {
			return &RuleError{
				Code:    CodeTooSmall,
				Message: fmt.Sprintf("file size %d is below minimum of %d bytes", p.Size(), limit),
				Details: map[string]any{"got": p.Size(), "limit": limit},
			}
		}
		return nil
	})
}

// NotEmpty rejects zero-length parts.
func NotEmpty() Rule {
	return RuleFunc(func(p Part) error {
		if p.Size() == 0 {
			return &RuleError{
				Code:    CodeEmpty,
				Message: "file is empty",
				Details: map[string]any{"got": int64(0)},
			}
		}
		return nil
	})
}

// AllowedTypes accepts only parts whose content type matches a pattern.
func AllowedTypes(patterns ...string) Rule {
	return RuleFunc(func(p Part) error {
		if len(patterns) == 0 || MatchesMIME(p.ContentType(), patterns) {
			return nil
		}
		return &RuleError{
			Code:    CodeInvalidMIME,
			Message: fmt.Sprintf("file type %q is not allowed", p.ContentType()),
			Details: map[string]any{"got": p.ContentType(), "allowed": patterns},
		}
	})
}
