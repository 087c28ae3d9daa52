package lower

import (
	"fmt"
	"strings"
)

// FailureKind says how an unmatched switch expression fails.
type FailureKind uint8

const (
	// FailureWithValue raises an exception carrying the unmatched value.
	FailureWithValue FailureKind = iota
	// FailurePlain raises the switch exception without a payload.
	FailurePlain
	// FailureGeneric raises a general invalid-state exception.
	FailureGeneric
)

func (k FailureKind) String() string {
	switch k {
	case FailureWithValue:
		return "with-value"
	case FailurePlain:
		return "plain"
	case FailureGeneric:
		return "generic"
	default:
		return fmt.Sprintf("failure(%d)", uint8(k))
	}
}

// Exception type names understood in lower.failure_types. A trailing "()"
// marks a runtime whose switch exception has only a parameterless
// constructor.
const (
	SwitchExpressionException = "SwitchExpressionException"
	InvalidOperationException = "InvalidOperationException"
)

// Failure is the selected unmatched-input behavior.
type Failure struct {
	Kind FailureKind
	Type string
}

// String renders the failure as it appears in plan listings.
func (f Failure) String() string {
	if f.Kind == FailureWithValue {
		return f.Type + "(t0)"
	}
	return f.Type + "()"
}

// ChooseFailure picks the failure for a switch expression given the
// exception types the target runtime offers: the switch exception with a
// value when possible, then without one, then a general invalid-state
// exception. The last is assumed to exist when nothing else is listed.
func ChooseFailure(available []string) Failure {
	plain, generic := false, ""
	for _, name := range available {
		name = strings.TrimSpace(name)
		switch {
		case name == SwitchExpressionException:
			return Failure{Kind: FailureWithValue, Type: SwitchExpressionException}
		case name == SwitchExpressionException+"()":
			plain = true
		case generic == "" && name != "":
			generic = strings.TrimSuffix(name, "()")
		}
	}
	if plain {
		return Failure{Kind: FailurePlain, Type: SwitchExpressionException}
	}
	if generic == "" {
		generic = InvalidOperationException
	}
	return Failure{Kind: FailureGeneric, Type: generic}
}

// MatchFailure is the runtime failure of an executed plan.
type MatchFailure struct {
	Failure Failure
	// Payload is the formatted unmatched value; empty unless the failure
	// carries it.
	Payload string
}

func (e *MatchFailure) Error() string {
	if e.Failure.Kind == FailureWithValue {
		return fmt.Sprintf("%s: unmatched value %s", e.Failure.Type, e.Payload)
	}
	return e.Failure.Type + ": no arm matched"
}
