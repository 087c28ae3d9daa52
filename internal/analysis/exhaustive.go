package analysis

import (
	"strings"

	"github.com/roach88/matchdag/internal/decision"
	"github.com/roach88/matchdag/internal/diag"
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/pattern"
	"github.com/roach88/matchdag/internal/types"
	"github.com/roach88/matchdag/internal/valueset"
)

// exhaustiveness checks whether the no-match terminal is reachable by a
// non-null value (or by null, when some arm tests for it) and describes
// one value that gets there.
func (a *analyzer) exhaustiveness(res *Result) {
	nm := a.g.NoMatch()
	if nm < 0 {
		return
	}
	nullRelevant := false
	for _, arm := range a.g.Arms {
		if pattern.TestsNull(arm.Pattern) {
			nullRelevant = true
			break
		}
	}

	var paths []decision.Path
	for _, p := range a.g.PathsTo(nm, a.opts.WitnessMaxPaths) {
		if !nullRelevant && a.requiresNull(p.Facts) {
			continue
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		return
	}

	best := paths[0]
	for _, p := range paths[1:] {
		if len(p.Nodes) < len(best.Nodes) {
			best = p
		}
	}
	res.Exhaustive = false
	res.Witness = (&witness{g: a.g, f: best.Facts}).render(a.g.Input)
	res.Missing = a.missing(paths)

	sev := diag.SeverityWarning
	if a.kind == SwitchStatement {
		sev = diag.SeverityInfo
	}
	args := append([]string{res.Witness}, res.Missing...)
	d := diag.New(diag.CodeNonExhaustive, sev, res.Witness,
		"the switch does not handle all values of type %s; for example %q is not covered", a.g.Input.Type, res.Witness)
	if len(res.Missing) > 0 {
		d.Message += "; missing: " + strings.Join(res.Missing, ", ")
	}
	d.Args = args
	a.found = append(a.found, d)
}

func (a *analyzer) requiresNull(f *decision.Facts) bool {
	for _, t := range a.g.Tests {
		if t.Kind != decision.TestNonNull {
			continue
		}
		if v, ok := f.Outcome(t); ok && !v {
			return true
		}
	}
	return false
}

// missing unions the values of a finite scrutinee domain left over on the
// no-match paths.
func (a *analyzer) missing(paths []decision.Path) []string {
	d, ok := valueset.For(a.g.Input.Type)
	if !ok || !d.Finite() {
		return nil
	}
	left := d.None()
	null := false
	for _, p := range paths {
		if nn, known := p.Facts.NonNull(a.g.Input); known && !nn {
			null = true
			continue
		}
		pd, _, s, ok := p.Facts.Values(a.g.Input)
		if !ok || pd.Name() != d.Name() {
			return nil
		}
		left = left.Union(s)
	}
	vals, ok := left.Values()
	if !ok {
		return nil
	}
	out := make([]string, 0, len(vals)+1)
	for _, v := range vals {
		out = append(out, valueset.Label(d, v))
	}
	if null {
		out = append(out, "null")
	}
	return out
}

// witness renders the value a path's facts describe, in pattern syntax.
type witness struct {
	g *decision.Graph
	f *decision.Facts
}

func (w *witness) render(t *decision.Temp) string {
	if nn, known := w.f.NonNull(t); known && !nn {
		return "null"
	}
	evals := w.evaluated(t)
	static := t.Type.Underlying()
	narrowed := w.f.Narrowed(t)
	shapeType := static
	if narrowed != nil {
		shapeType = narrowed
	}

	if len(evals) == 0 {
		if s, ok := w.value(t); ok {
			return s
		}
		if narrowed != nil && narrowed != static {
			return narrowed.Name
		}
		return "_"
	}

	var parts []string
	if narrowed != nil && narrowed != static {
		parts = append(parts, narrowed.Name)
	}
	if pos := w.positional(shapeType, evals); pos != "" {
		parts = append(parts, pos)
	}
	if props := w.properties(shapeType, evals); props != "" {
		parts = append(parts, props)
	}
	if len(parts) == 0 {
		return "_"
	}
	return strings.Join(parts, " ")
}

// evaluated returns the evaluations the path performed on t.
func (w *witness) evaluated(t *decision.Temp) []*decision.Evaluation {
	var out []*decision.Evaluation
	for _, e := range w.g.Temps.Evaluations() {
		if e.Input == t && w.f.Evaluated(e) {
			out = append(out, e)
		}
	}
	return out
}

// value samples t's remaining value set when the path tested its value.
func (w *witness) value(t *decision.Temp) (string, bool) {
	tests, _ := w.f.Tests(t)
	tested := false
	for _, tt := range tests {
		if tt.Kind == decision.TestValue {
			tested = true
			break
		}
	}
	if !tested {
		return "", false
	}
	d, dt, s, ok := w.f.Values(t)
	if !ok {
		return "", false
	}
	v, ok := s.Sample()
	if !ok {
		return "", false
	}
	if d.Finite() {
		return valueset.Label(d, v), true
	}
	return pattern.FormatConstant(v, dt), true
}

func isTupleItem(t *types.Type, e *decision.Evaluation) (int, bool) {
	if t.Kind != types.KindTuple || e.Kind != decision.EvalMember {
		return 0, false
	}
	for i := range t.Elems {
		if e.Member == types.TupleItemName(i) {
			return i, true
		}
	}
	return 0, false
}

// positional renders tuple items, deconstruction outputs, structural items
// and list elements.
func (w *witness) positional(typ *types.Type, evals []*decision.Evaluation) string {
	if typ.Kind == types.KindTuple {
		items := make([]string, len(typ.Elems))
		seen := false
		for i := range items {
			items[i] = "_"
		}
		for _, e := range evals {
			if i, ok := isTupleItem(typ, e); ok {
				items[i] = w.render(e.Outputs[0])
				seen = true
			}
		}
		if seen {
			return "(" + strings.Join(items, ", ") + ")"
		}
	}

	var items []string
	var front, back map[int]string
	list, structural := false, false
	length := -1
	for _, e := range evals {
		switch e.Kind {
		case decision.EvalDeconstruct:
			items = make([]string, len(e.Outputs))
			for i, out := range e.Outputs {
				items[i] = w.render(out)
			}
			return "(" + strings.Join(items, ", ") + ")"
		case decision.EvalStructuralLength:
			structural = true
			length = w.length(e.Outputs[0])
		case decision.EvalLength:
			list = true
			length = w.length(e.Outputs[0])
		case decision.EvalStructuralItem, decision.EvalIndex:
			if front == nil {
				front, back = map[int]string{}, map[int]string{}
			}
			if e.FromEnd {
				back[e.Index] = w.render(e.Outputs[0])
			} else {
				front[e.Index] = w.render(e.Outputs[0])
			}
		}
	}
	if !list && !structural {
		return ""
	}
	if length < 0 {
		return ""
	}
	items = make([]string, length)
	for i := range items {
		items[i] = "_"
	}
	for i, s := range back {
		if j := length - i; j >= 0 && j < length {
			items[j] = s
		}
	}
	for i, s := range front {
		if i < length {
			items[i] = s
		}
	}
	if structural {
		return "(" + strings.Join(items, ", ") + ")"
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// length samples a length temp; an untested length reads as zero.
func (w *witness) length(t *decision.Temp) int {
	_, _, s, ok := w.f.Values(t)
	if !ok {
		return 0
	}
	v, ok := s.Sample()
	if !ok {
		return 0
	}
	if n, ok := ir.Unwrap(v).(ir.IRInt); ok {
		return int(n)
	}
	return 0
}

func (w *witness) properties(typ *types.Type, evals []*decision.Evaluation) string {
	var props []string
	for _, e := range evals {
		if e.Kind != decision.EvalMember {
			continue
		}
		if _, ok := isTupleItem(typ, e); ok {
			continue
		}
		props = append(props, e.Member+": "+w.render(e.Outputs[0]))
	}
	if len(props) == 0 {
		return ""
	}
	return "{ " + strings.Join(props, ", ") + " }"
}
