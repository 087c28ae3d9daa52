package decision

import (
	"errors"
	"strings"

	"github.com/roach88/matchdag/internal/diag"
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/pattern"
	"github.com/roach88/matchdag/internal/types"
	"github.com/roach88/matchdag/internal/valueset"
)

// Combinator records one user-written and/or inside an arm, with the
// conditions the analyzer needs to decide whether its right operand adds
// anything.
type Combinator struct {
	Pattern *pattern.Binary
	Arm     int
	// Depth counts the recursive/list patterns enclosing the combinator;
	// zero means it sits at the top level of the arm's pattern.
	Depth int
	// Pre holds whenever the combinator is evaluated.
	Pre         *Cond
	Left, Right *Cond
}

// converter turns one arm's pattern into a Cond over the build's temps.
type converter struct {
	b        *builder
	arm      int
	binds    map[string]*Temp
	problems diag.List
}

func (c *converter) report(code, subject, format string, args ...any) *Cond {
	d := diag.New(code, diag.SeverityError, subject, format, args...)
	d.Arm = c.arm
	c.problems = append(c.problems, d)
	return False()
}

func (c *converter) bind(name string, t *Temp) {
	if name != "" {
		c.binds[name] = t
	}
}

// typeTest returns the condition "temp is t". The test is omitted when the
// static type already guarantees it, leaving only the null check a
// nullable or reference temp still needs.
func (c *converter) typeTest(temp *Temp, t *types.Type) *Cond {
	in := temp.Type
	t = t.Underlying()
	if in.Kind == types.KindNullable && types.AssignableTo(in.Underlying(), t) {
		return c.b.nonNull(temp)
	}
	if types.AssignableTo(in, t) {
		if in.CanBeNull() {
			return c.b.nonNull(temp)
		}
		return True()
	}
	var parts []*Cond
	if in.CanBeNull() {
		parts = append(parts, c.b.nonNull(temp))
	}
	return And(append(parts, c.b.test(&Test{Kind: TestType, Temp: temp, Type: t}))...)
}

func (c *converter) nonNullIfNeeded(temp *Temp) *Cond {
	if temp.Type.CanBeNull() {
		return c.b.nonNull(temp)
	}
	return True()
}

func unsupported(t *types.Type) bool {
	t = t.Underlying()
	return t.Kind == types.KindPointer || t.ByRefLike
}

// convert returns the condition under which p matches temp, given that pre
// already holds. depth counts enclosing recursive/list patterns.
func (c *converter) convert(p pattern.Pattern, temp *Temp, pre *Cond, depth int) *Cond {
	switch n := p.(type) {
	case *pattern.Discard:
		return True()

	case *pattern.Var:
		cond := True()
		if n.Inner != nil {
			cond = c.convert(n.Inner, temp, pre, depth)
		}
		c.bind(n.Name, temp)
		return cond

	case *pattern.Declaration:
		c.bind(n.Name, temp)
		return c.typeTest(temp, n.Type)

	case *pattern.Constant:
		if ir.IsNull(n.Value) {
			if !temp.Type.CanBeNull() {
				return False()
			}
			return Not(c.b.nonNull(temp))
		}
		return c.compare(p, temp, ir.OpEq, n.Value, n.Type)

	case *pattern.Relational:
		return c.compare(p, temp, n.Op, n.Value, n.Type)

	case *pattern.Recursive:
		return c.recursive(n, temp, pre, depth)

	case *pattern.List:
		return c.list(n, temp, pre, depth)

	case *pattern.Slice:
		return c.report(diag.CodeMisplacedSlice, pattern.Text(p),
			"slice pattern is only permitted as an element of a list pattern")

	case *pattern.Negated:
		return Not(c.convert(n.Inner, temp, pre, depth))

	case *pattern.Binary:
		left := c.convert(n.Left, temp, pre, depth)
		rightPre := And(pre, left)
		if n.Kind == pattern.Or {
			rightPre = And(pre, Not(left))
		}
		right := c.convert(n.Right, temp, rightPre, depth)
		c.b.combinators = append(c.b.combinators, Combinator{
			Pattern: n, Arm: c.arm, Depth: depth, Pre: pre, Left: left, Right: right,
		})
		if n.Kind == pattern.And {
			return And(left, right)
		}
		return Or(left, right)
	}
	return c.report(diag.CodeUnsupportedDomain, pattern.Text(p), "unsupported pattern %T", p)
}

// compare handles constant and relational patterns: a type test for the
// comparison domain followed by the value test.
func (c *converter) compare(p pattern.Pattern, temp *Temp, op ir.RelOp, value ir.IRValue, declared *types.Type) *Cond {
	if unsupported(temp.Type) {
		return c.report(diag.CodeUnsupportedDomain, pattern.Text(p),
			"pattern %s is not supported for a value of type %s", pattern.Text(p), temp.Type)
	}
	dt := pattern.ConstantDomain(c.b.oracle, value, declared, temp.Type)
	if dt == nil {
		return c.report(diag.CodeUnsupportedDomain, pattern.Text(p),
			"constant %s has no comparable type", ir.Format(value))
	}
	d, ok := valueset.For(dt)
	if !ok {
		return c.report(diag.CodeUnsupportedDomain, pattern.Text(p),
			"values of type %s cannot be compared", dt)
	}
	if op != ir.OpEq && !d.Ordered() {
		return c.report(diag.CodeUnsupportedDomain, pattern.Text(p),
			"relational pattern %s is not supported for type %s", pattern.Text(p), dt)
	}
	value = pattern.ConvertConstant(value, dt)
	if !d.All().Contains(value) {
		return False()
	}
	return And(
		c.typeTest(temp, dt),
		c.b.test(&Test{Kind: TestValue, Temp: temp, Op: op, Value: value, Domain: d, DomainType: dt.Underlying()}),
	)
}

func (c *converter) recursive(n *pattern.Recursive, temp *Temp, pre *Cond, depth int) *Cond {
	narrowed := temp.Type
	var head *Cond
	if n.Type != nil {
		narrowed = n.Type
		head = c.typeTest(temp, n.Type)
	} else {
		head = c.nonNullIfNeeded(temp)
	}
	narrowed = narrowed.Underlying()
	if narrowed.Kind == types.KindPointer {
		return c.report(diag.CodeUnsupportedDomain, pattern.Text(n),
			"recursive pattern is not supported for type %s", narrowed)
	}

	parts := []*Cond{head}
	sub := func(p pattern.Pattern, t *Temp) {
		parts = append(parts, c.convert(p, t, And(pre, And(parts...)), depth+1))
	}

	if n.Positional != nil {
		res, err := types.ResolveDeconstruction(c.b.oracle, narrowed, len(n.Positional))
		if err != nil {
			var re *types.ResolveError
			if errors.As(err, &re) {
				return c.report(re.Code, pattern.Text(n), "%s", re.Error())
			}
			return c.report(diag.CodeMissingDeconstruct, pattern.Text(n), "%s", err.Error())
		}
		switch res.Kind {
		case types.DeconstructTuple:
			for i, p := range n.Positional {
				if _, ok := p.(*pattern.Discard); ok {
					continue
				}
				item, e := c.b.temps.Temp(temp, Descriptor{Kind: EvalMember, Member: types.TupleItemName(i)}, res.Outputs[i])
				parts = append(parts, evalCond(e))
				sub(p, item)
			}
		case types.DeconstructMember:
			e := c.b.temps.Evaluate(temp, Descriptor{Kind: EvalDeconstruct, Method: res.Method}, res.Outputs...)
			parts = append(parts, evalCond(e))
			for i, p := range n.Positional {
				sub(p, e.Outputs[i])
			}
		case types.DeconstructStructural:
			if res.Contract != nil {
				parts = append(parts, c.typeTest(temp, res.Contract))
			}
			lt := c.b.oracle.LengthType()
			length, e := c.b.temps.Temp(temp, Descriptor{Kind: EvalStructuralLength, Contract: res.Contract}, lt)
			parts = append(parts, evalCond(e), c.b.lengthTest(length, ir.OpEq, len(n.Positional)))
			for i, p := range n.Positional {
				if _, ok := p.(*pattern.Discard); ok {
					continue
				}
				item, e := c.b.temps.Temp(temp, Descriptor{Kind: EvalStructuralItem, Index: i, Contract: res.Contract}, res.Outputs[i])
				parts = append(parts, evalCond(e))
				sub(p, item)
			}
		}
	}

	for _, prop := range n.Properties {
		cur, curType := temp, narrowed
		segs := strings.Split(prop.Name, ".")
		failed := false
		for j, seg := range segs {
			m, ok := c.b.oracle.Member(curType, seg)
			if !ok {
				parts = append(parts, c.report(diag.CodeUnknownMember, prop.Name,
					"type %s has no member %s", curType, seg))
				failed = true
				break
			}
			last := j == len(segs)-1
			if _, discard := prop.Pattern.(*pattern.Discard); last && discard {
				failed = true
				break
			}
			next, e := c.b.temps.Temp(cur, Descriptor{Kind: EvalMember, Member: seg}, m.Type)
			parts = append(parts, evalCond(e))
			if !last {
				parts = append(parts, c.nonNullIfNeeded(next))
			}
			cur, curType = next, m.Type.Underlying()
		}
		if !failed {
			sub(prop.Pattern, cur)
		}
	}

	c.bind(n.Name, temp)
	return And(parts...)
}

func (c *converter) list(n *pattern.List, temp *Temp, pre *Cond, depth int) *Cond {
	narrowed := temp.Type
	var head *Cond
	if n.Type != nil {
		narrowed = n.Type
		head = c.typeTest(temp, n.Type)
	} else {
		head = c.nonNullIfNeeded(temp)
	}
	narrowed = narrowed.Underlying()
	shape := c.b.oracle.ListShape(narrowed)
	if shape == nil || narrowed.Kind == types.KindPointer {
		return c.report(diag.CodeUnsupportedDomain, pattern.Text(n),
			"list pattern is not supported for type %s", narrowed)
	}

	slice := -1
	for i, e := range n.Elements {
		if _, ok := e.(*pattern.Slice); ok {
			slice = i
			break
		}
	}
	fixed := len(n.Elements)
	op := ir.OpEq
	if slice >= 0 {
		fixed--
		op = ir.OpGe
	}

	length, e := c.b.temps.Temp(temp, Descriptor{Kind: EvalLength, Member: shape.LengthMember}, c.b.oracle.LengthType())
	parts := []*Cond{head, evalCond(e)}
	sub := func(p pattern.Pattern, t *Temp) {
		parts = append(parts, c.convert(p, t, And(pre, And(parts...)), depth+1))
	}

	// With a slice, each front read is guarded only by the length it needs,
	// so lists with a common prefix share the reads of that prefix. The
	// full bound comes before any read from the end.
	bound := 0
	if slice < 0 {
		parts = append(parts, c.b.lengthTest(length, op, fixed))
		bound = fixed
	}
	for i, el := range n.Elements {
		if _, ok := el.(*pattern.Discard); ok || i == slice {
			continue
		}
		d := Descriptor{Kind: EvalIndex, Index: i}
		need := i + 1
		if slice >= 0 && i > slice {
			d = Descriptor{Kind: EvalIndex, Index: len(n.Elements) - i, FromEnd: true}
			need = fixed
		}
		if need > bound {
			parts = append(parts, c.b.lengthTest(length, ir.OpGe, need))
			bound = need
		}
		item, e := c.b.temps.Temp(temp, d, shape.Elem)
		parts = append(parts, evalCond(e))
		sub(el, item)
	}
	if slice >= 0 && (bound < fixed || fixed == 0) {
		parts = append(parts, c.b.lengthTest(length, ir.OpGe, fixed))
	}

	if slice >= 0 {
		if s := n.Elements[slice].(*pattern.Slice); s.Inner != nil {
			if shape.Slice == nil {
				return c.report(diag.CodeUnsupportedDomain, pattern.Text(s),
					"type %s does not support slicing", narrowed)
			}
			span, e := c.b.temps.Temp(temp, Descriptor{Kind: EvalSlice, Start: slice, EndOffset: len(n.Elements) - slice - 1}, shape.Slice)
			parts = append(parts, evalCond(e))
			sub(s.Inner, span)
		}
	}

	c.bind(n.Name, temp)
	return And(parts...)
}
