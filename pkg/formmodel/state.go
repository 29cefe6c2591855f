package formmodel

import "fmt"

// WidgetState controls whether a widget reads input, validates and renders.
// States are ordered by restrictiveness; a widget's effective state is the
// most restrictive of its own and its ancestors'.
type WidgetState int

const (
	// StateActive widgets read, validate and render.
	StateActive WidgetState = iota
	// StateDisabled widgets render but neither read nor validate.
	StateDisabled
	// StateOutput widgets render their value read-only.
	StateOutput
	// StateInvisible widgets do nothing at all.
	StateInvisible
)

func (s WidgetState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDisabled:
		return "disabled"
	case StateOutput:
		return "output"
	case StateInvisible:
		return "invisible"
	default:
		return fmt.Sprintf("WidgetState(%d)", int(s))
	}
}

// ParseState parses a state name.
func ParseState(name string) (WidgetState, error) {
	switch name {
	case "", "active":
		return StateActive, nil
	case "disabled":
		return StateDisabled, nil
	case "output":
		return StateOutput, nil
	case "invisible":
		return StateInvisible, nil
	}
	return StateActive, fmt.Errorf("formmodel: unknown widget state %q", name)
}

// AcceptsInput reports whether widgets in this state read from the request.
func (s WidgetState) AcceptsInput() bool { return s == StateActive }

// Validates reports whether widgets in this state are validated.
func (s WidgetState) Validates() bool { return s == StateActive }

// Rendered reports whether widgets in this state produce output.
func (s WidgetState) Rendered() bool { return s != StateInvisible }

func combineStates(a, b WidgetState) WidgetState {
	return max(a, b)
}
