package simulation

import (
	"errors"
	"fmt"
)

// Kind classifies a simulation-level error so callers can decide whether a
// fault is fatal to scenario start-up or merely penalises one candidate
// solution.
type Kind int

const (
	// InvalidChoice marks a configuration value outside its allowed set.
	InvalidChoice Kind = iota
	// InvalidClass marks a collaborator of the wrong shape.
	InvalidClass
	// UnprocessableEntity marks input that is well-formed but cannot be placed.
	UnprocessableEntity
	// ConflictCondition marks a runtime state that violates an invariant.
	ConflictCondition
	// NotFound marks a failed lookup by name.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case InvalidChoice:
		return "InvalidChoice"
	case InvalidClass:
		return "InvalidClass"
	case UnprocessableEntity:
		return "UnprocessableEntity"
	case ConflictCondition:
		return "ConflictCondition"
	case NotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// Error is the single error type raised by the simulation package. It
// carries a Kind so callers (in particular Simulation.step, which aborts on
// ConflictCondition) can branch on failure category without string matching.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds a *Error with a printf-style message.
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is, or wraps (via %w), a *Error of the given
// Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
