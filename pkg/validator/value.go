package validator

import (
	"fmt"
	"math/big"
	"net/mail"
	"regexp"
	"unicode/utf8"
)

// ValueRule checks a dynamically typed value. Nil values always pass;
// required-ness is checked separately.
type ValueRule interface {
	Check(field string, value any) Rule
}

// ValueRuleFunc adapts a function to ValueRule.
type ValueRuleFunc func(field string, value any) Rule

func (f ValueRuleFunc) Check(field string, value any) Rule { return f(field, value) }

func pass() Rule { return Rule{Check: true} }

// Length bounds the character count of string values. A negative bound is open.
func Length(lo, hi int) ValueRule {
	return ValueRuleFunc(func(field string, value any) Rule {
		s, ok := value.(string)
		if !ok {
			return pass()
		}
		n := utf8.RuneCountInString(s)
		switch {
		case lo >= 0 && n < lo:
			return MinLenString(field, s, lo)
		case hi >= 0 && n > hi:
			return MaxLenString(field, s, hi)
		}
		return pass()
	})
}

// Range bounds numeric values. A nil bound is open.
func Range(lo, hi *big.Rat) ValueRule {
	return ValueRuleFunc(func(field string, value any) Rule {
		r, ok := toRat(value)
		if !ok {
			return pass()
		}
		switch {
		case lo != nil && r.Cmp(lo) < 0:
			return newRule(false, field, "validation.min", "must be at least "+lo.RatString(),
				map[string]any{"min": lo.RatString()})
		case hi != nil && r.Cmp(hi) > 0:
			return newRule(false, field, "validation.max", "must not exceed "+hi.RatString(),
				map[string]any{"max": hi.RatString()})
		}
		return pass()
	})
}

// Pattern requires string values to match re.
func Pattern(re *regexp.Regexp) ValueRule {
	return ValueRuleFunc(func(field string, value any) Rule {
		s, ok := value.(string)
		if !ok {
			return pass()
		}
		return newRule(re.MatchString(s), field, "validation.pattern", "has an invalid format",
			map[string]any{"pattern": re.String()})
	})
}

// Email requires string values to be a bare e-mail address.
func Email() ValueRule {
	return ValueRuleFunc(func(field string, value any) Rule {
		s, ok := value.(string)
		if !ok {
			return pass()
		}
		addr, err := mail.ParseAddress(s)
		return newRule(err == nil && addr.Address == s, field, "validation.email",
			"must be a valid e-mail address", nil)
	})
}

func toRat(v any) (*big.Rat, bool) {
	switch x := v.(type) {
	case *big.Rat:
		return x, x != nil
	case int:
		return new(big.Rat).SetInt64(int64(x)), true
	case int64:
		return new(big.Rat).SetInt64(x), true
	case float64:
		return new(big.Rat).SetFloat64(x), true
	case string:
		r, ok := new(big.Rat).SetString(x)
		return r, ok
	}
	return nil, false
}

// MustRat parses s as a rational bound, panicking on malformed input.
func MustRat(s string) *big.Rat {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		panic(fmt.Sprintf("validator: invalid number %q", s))
	}
	return r
}
