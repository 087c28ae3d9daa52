package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/matchdag/internal/analysis"
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/rt"
	"github.com/roach88/matchdag/internal/types"
)

// Validation error codes (E100-E199). These cover document-level rules;
// pattern problems are diagnostics (PM codes) found while building.
const (
	ErrIsArity        = "E101" // an is-expression has exactly one arm
	ErrIsGuard        = "E102" // an is-expression has no when-clause
	ErrInputType      = "E103" // sample input is not a value of the input type
	ErrEmptyGuard     = "E104" // when-clause is blank
	ErrDuplicateInput = "E105" // the same sample input listed twice
)

// ValidationError represents a document validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the compiled document. It returns all errors found
// rather than stopping at the first.
func Validate(doc *Document) []ValidationError {
	var errs []ValidationError
	r := rt.New(doc.Universe)
	for _, c := range doc.Constructs {
		errs = append(errs, validateConstruct(r, c)...)
	}
	return errs
}

// ValidateConstruct checks one construct compiled against u.
func ValidateConstruct(u *types.Universe, c *Construct) []ValidationError {
	return validateConstruct(rt.New(u), c)
}

func validateConstruct(r *rt.Runtime, c *Construct) []ValidationError {
	var errs []ValidationError
	field := "construct." + c.Name

	if c.Kind == analysis.IsExpression {
		// E101: is-expressions test one pattern
		if len(c.Arms) != 1 {
			errs = append(errs, ValidationError{
				Field:   field + ".arms",
				Message: fmt.Sprintf("an is-expression has exactly one pattern, got %d", len(c.Arms)),
				Code:    ErrIsArity,
			})
		}
		// E102: is-expressions have no guards
		for i, arm := range c.Arms {
			if arm.Guard != "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.arms[%d].when", field, i),
					Message: "an is-expression cannot have a when-clause",
					Code:    ErrIsGuard,
				})
			}
		}
	}

	// E104: blank guards are almost certainly a mistake
	for i, arm := range c.Arms {
		if arm.Guard != "" && strings.TrimSpace(arm.Guard) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.arms[%d].when", field, i),
				Message: "when-clause is blank",
				Code:    ErrEmptyGuard,
			})
		}
	}

	seen := map[string]int{}
	for i, v := range c.Inputs {
		f := fmt.Sprintf("%s.inputs[%d]", field, i)
		// E103: inputs must be values of the input type
		if !(ir.IsNull(v) && c.Input.CanBeNull()) && !numeric(v, c.Input) && !r.IsInstance(v, c.Input) {
			errs = append(errs, ValidationError{
				Field:   f,
				Message: fmt.Sprintf("%s is not a value of %s", ir.Format(v), c.Input.Name),
				Code:    ErrInputType,
			})
		}
		// E105: duplicate inputs
		key := ir.Format(v)
		if j, dup := seen[key]; dup {
			errs = append(errs, ValidationError{
				Field:   f,
				Message: fmt.Sprintf("duplicate of inputs[%d]", j),
				Code:    ErrDuplicateInput,
			})
			continue
		}
		seen[key] = i
	}
	return errs
}

// numeric reports a number given for a numeric input type. Sample inputs
// are written as literals, so widths and signedness are not checked.
func numeric(v ir.IRValue, t *types.Type) bool {
	switch ir.Unwrap(v).(type) {
	case ir.IRInt, ir.IRFloat:
		k := t.Underlying().Kind
		return k == types.KindInt || k == types.KindFloat
	}
	return false
}
