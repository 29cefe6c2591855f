// Package expression evaluates the small expression language used by
// computed outputs, expression validators and union discriminants.
//
// Expressions are compiled once, when the definition is built, and evaluated
// per request against an environment of sibling widget values. Undefined
// variables evaluate to nil so that expressions stay valid while parts of a
// form are inactive.
package expression

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Sentinel errors for expression handling.
var (
	ErrCompile = errors.New("expression: compile failed")
	ErrEval    = errors.New("expression: evaluation failed")
	ErrNotBool = errors.New("expression: result is not a boolean")
)

// Program is a compiled expression. It is safe for concurrent use.
type Program struct {
	prog *vm.Program
	src  string
}

// Compile parses src.
func Compile(src string) (*Program, error) {
	prog, err := expr.Compile(src, options()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrCompile, src, err)
	}
	return &Program{prog: prog, src: src}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Program {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

// Source returns the expression text.
func (p *Program) Source() string { return p.src }

// Eval runs the program against env. Values in env are normalized first:
// decimals become float64 and sized integers become int.
func (p *Program) Eval(env map[string]any) (any, error) {
	normalized := make(map[string]any, len(env))
	for k, v := range env {
		normalized[k] = Normalize(v)
	}
	out, err := expr.Run(p.prog, normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrEval, p.src, err)
	}
	return out, nil
}

// EvalBool runs the program and requires a boolean result.
func (p *Program) EvalBool(env map[string]any) (bool, error) {
	out, err := p.Eval(env)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q returned %T", ErrNotBool, p.src, out)
	}
	return b, nil
}

// Normalize converts widget values into types the expression runtime
// handles natively.
func Normalize(v any) any {
	switch x := v.(type) {
	case *big.Rat:
		if x == nil {
			return nil
		}
		f, _ := x.Float64()
		return f
	case int64:
		return int(x)
	case int32:
		return int(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	}
	return v
}

func options() []expr.Option {
	return []expr.Option{
		expr.AllowUndefinedVariables(),
		expr.Function("isEmpty", func(params ...any) (any, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("isEmpty expects 1 argument")
			}
			return isEmpty(params[0]), nil
		}),
		expr.Function("strContains", func(params ...any) (any, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("strContains expects 2 arguments")
			}
			s, ok := params[0].(string)
			if !ok {
				return false, nil
			}
			substr, ok := params[1].(string)
			if !ok {
				return nil, fmt.Errorf("strContains: second argument must be a string")
			}
			return strings.Contains(s, substr), nil
		}),
	}
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}
