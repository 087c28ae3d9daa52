package pattern

import (
	"github.com/roach88/matchdag/internal/diag"
)

// Validate checks the structural rules a pattern must satisfy before a
// graph can be built from it:
//   - no capture under or/not, directly or transitively (PM0001)
//   - a slice appears only as an element of a list, at most once (PM0002)
//
// The returned diagnostics are errors; arm is copied into each.
func Validate(p Pattern, arm int) diag.List {
	v := &validator{arm: arm}
	v.walk(p, false, false)
	return v.problems
}

type validator struct {
	arm      int
	problems diag.List
}

func (v *validator) report(code, subject, format string, args ...any) {
	d := diag.New(code, diag.SeverityError, subject, format, args...)
	d.Arm = v.arm
	v.problems = append(v.problems, d)
}

// walk visits p; underCombinator is true below or/not, sliceOK when p is a
// direct element of a list.
func (v *validator) walk(p Pattern, underCombinator, sliceOK bool) {
	if p == nil {
		return
	}
	if name := Capture(p); name != "" && underCombinator {
		v.report(diag.CodeCaptureUnderCombinator, Text(p),
			"variable %q may not be declared under 'or' or 'not'", name)
	}

	switch n := p.(type) {
	case *Var:
		v.walk(n.Inner, underCombinator, false)
	case *Recursive:
		for _, sub := range n.Positional {
			v.walk(sub, underCombinator, false)
		}
		for _, prop := range n.Properties {
			v.walk(prop.Pattern, underCombinator, false)
		}
	case *List:
		slices := 0
		for _, e := range n.Elements {
			if _, ok := e.(*Slice); ok {
				slices++
				if slices > 1 {
					v.report(diag.CodeMisplacedSlice, Text(e),
						"slice pattern may be used only once in a list pattern")
				}
			}
			v.walk(e, underCombinator, true)
		}
	case *Slice:
		if !sliceOK {
			v.report(diag.CodeMisplacedSlice, Text(p),
				"slice pattern is only permitted as an element of a list pattern")
		}
		v.walk(n.Inner, underCombinator, false)
	case *Negated:
		v.walk(n.Inner, true, false)
	case *Binary:
		under := underCombinator || n.Kind == Or
		v.walk(n.Left, under, false)
		v.walk(n.Right, under, false)
	}
}
