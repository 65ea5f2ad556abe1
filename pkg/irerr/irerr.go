// Package irerr provides the shared error-kind values surfaced by the IR
// basis core. Every fatal condition raised by the core (as opposed to a
// panic on an internal invariant break) wraps one of these kinds so
// callers can distinguish input mistakes from numerical loss.
package irerr

import "fmt"

// Kind identifies which contract violation occurred.
type Kind int

const (
	// RangeError: x outside a PP domain, or a negative Matsubara index.
	RangeError Kind = iota
	// PartitionMismatch: PP arithmetic attempted across distinct partitions.
	PartitionMismatch
	// OrderError: an input sequence was not strictly ascending.
	OrderError
	// BasisError: inconsistent PP orders or intervals within a basis set.
	BasisError
	// PrecisionError: singular values out of order after interleaving.
	// Recoverable by the caller by requesting fewer basis functions or
	// higher working precision.
	PrecisionError
	// ConfigError: num_local_poly < 2, a non-positive cutoff, etc.
	ConfigError
)

func (k Kind) String() string {
	switch k {
	case RangeError:
		return "RangeError"
	case PartitionMismatch:
		return "PartitionMismatch"
	case OrderError:
		return "OrderError"
	case BasisError:
		return "BasisError"
	case PrecisionError:
		return "PrecisionError"
	case ConfigError:
		return "ConfigError"
	default:
		return "UnknownError"
	}
}

// Error is the concrete error type returned by the core. It carries the
// offending value so the caller does not need to re-derive it.
type Error struct {
	Kind    Kind
	Message string
	Value   interface{}
}

func (e *Error) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (value=%v)", e.Kind, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an *Error of the given kind carrying the offending value.
func New(kind Kind, message string, value interface{}) *Error {
	return &Error{Kind: kind, Message: message, Value: value}
}

// Is reports whether err is an *Error of the given kind, so callers can
// write `errors.Is(err, irerr.RangeError)`-style checks via a target
// built with New(kind, "", nil).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
