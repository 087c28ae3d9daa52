package pattern

import (
	"fmt"
	"strings"

	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/rt"
	"github.com/roach88/matchdag/internal/types"
	"github.com/roach88/matchdag/internal/valueset"
)

// Bindings maps capture names to bound values.
type Bindings map[string]ir.IRValue

// Match evaluates p against v directly from the pattern definitions,
// without a decision graph. static is the static type of v. It is the
// reference the graph walk and plan execution are checked against.
func Match(o types.Oracle, r *rt.Runtime, p Pattern, v ir.IRValue, static *types.Type) (bool, Bindings, error) {
	m := &matcher{o: o, r: r, binds: Bindings{}}
	ok, err := m.match(p, v, static)
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, nil
	}
	return true, m.binds, nil
}

type matcher struct {
	o     types.Oracle
	r     *rt.Runtime
	binds Bindings
}

// ConstantDomain returns the type a constant is compared in: its own type
// when given, the input's value type when the constant converts to it,
// otherwise the constant's natural type.
func ConstantDomain(o types.Oracle, value ir.IRValue, declared, input *types.Type) *types.Type {
	if declared != nil {
		return declared.Underlying()
	}
	if input != nil {
		if d, ok := valueset.For(input); ok {
			if d.All().Contains(value) {
				return input.Underlying()
			}
		}
	}
	return o.ConstantType(value)
}

// ConvertConstant converts v to the representation of domain type t, so
// an integer literal compared in a floating domain becomes a float.
func ConvertConstant(v ir.IRValue, t *types.Type) ir.IRValue {
	if t != nil && t.Underlying().Kind == types.KindFloat {
		if i, ok := ir.Unwrap(v).(ir.IRInt); ok {
			return ir.IRFloat(float64(i))
		}
	}
	return v
}

func (m *matcher) isType(v ir.IRValue, static, t *types.Type) bool {
	if ir.IsNull(v) {
		return false
	}
	if types.AssignableTo(static.Underlying(), t) {
		return true
	}
	return m.r.IsInstance(v, t.Underlying())
}

func (m *matcher) match(p Pattern, v ir.IRValue, static *types.Type) (bool, error) {
	switch n := p.(type) {
	case *Discard:
		return true, nil

	case *Var:
		if n.Inner != nil {
			ok, err := m.match(n.Inner, v, static)
			if !ok || err != nil {
				return ok, err
			}
		}
		m.bind(n.Name, v)
		return true, nil

	case *Declaration:
		if !m.isType(v, static, n.Type) {
			return false, nil
		}
		m.bind(n.Name, v)
		return true, nil

	case *Constant:
		if ir.IsNull(n.Value) {
			return ir.IsNull(v), nil
		}
		return m.compare(v, static, ir.OpEq, n.Value, n.Type), nil

	case *Relational:
		return m.compare(v, static, n.Op, n.Value, n.Type), nil

	case *Recursive:
		return m.matchRecursive(n, v, static)

	case *List:
		return m.matchList(n, v, static)

	case *Slice:
		return false, fmt.Errorf("slice pattern outside a list")

	case *Negated:
		saved := m.binds
		m.binds = Bindings{}
		ok, err := m.match(n.Inner, v, static)
		m.binds = saved
		return !ok, err

	case *Binary:
		left, err := m.match(n.Left, v, static)
		if err != nil {
			return false, err
		}
		if n.Kind == And {
			if !left {
				return false, nil
			}
			return m.match(n.Right, v, static)
		}
		if left {
			return true, nil
		}
		return m.match(n.Right, v, static)
	}
	return false, fmt.Errorf("unknown pattern %T", p)
}

func (m *matcher) bind(name string, v ir.IRValue) {
	if name != "" {
		m.binds[name] = v
	}
}

func (m *matcher) compare(v ir.IRValue, static *types.Type, op ir.RelOp, c ir.IRValue, declared *types.Type) bool {
	dom := ConstantDomain(m.o, c, declared, static)
	if dom == nil || !m.isType(v, static, dom) {
		return false
	}
	return rt.Compare(v, op, ConvertConstant(c, dom))
}

func (m *matcher) narrow(v ir.IRValue, static, t *types.Type) (*types.Type, bool) {
	if t != nil {
		if !m.isType(v, static, t) {
			return nil, false
		}
		return t.Underlying(), true
	}
	if ir.IsNull(v) {
		return nil, false
	}
	return static.Underlying(), true
}

func (m *matcher) matchRecursive(n *Recursive, v ir.IRValue, static *types.Type) (bool, error) {
	narrowed, ok := m.narrow(v, static, n.Type)
	if !ok {
		return false, nil
	}

	if n.Positional != nil {
		res, err := types.ResolveDeconstruction(m.o, narrowed, len(n.Positional))
		if err != nil {
			return false, err
		}
		var parts []ir.IRValue
		switch res.Kind {
		case types.DeconstructTuple:
			for i := range n.Positional {
				item, err := m.r.Member(v, types.TupleItemName(i))
				if err != nil {
					return false, err
				}
				parts = append(parts, item)
			}
		case types.DeconstructMember:
			parts, err = m.r.Deconstruct(v, res.Method)
			if err != nil {
				return false, err
			}
		case types.DeconstructStructural:
			if res.Contract != nil && !m.r.IsInstance(v, res.Contract) {
				return false, nil
			}
			length, err := m.r.Length(v)
			if err != nil {
				return false, err
			}
			if length != len(n.Positional) {
				return false, nil
			}
			for i := range n.Positional {
				item, err := m.r.Index(v, i, false)
				if err != nil {
					return false, err
				}
				parts = append(parts, item)
			}
		}
		for i, sub := range n.Positional {
			ok, err := m.match(sub, parts[i], res.Outputs[i])
			if !ok || err != nil {
				return ok, err
			}
		}
	}

	for _, prop := range n.Properties {
		cur, curType := v, narrowed
		for _, seg := range strings.Split(prop.Name, ".") {
			if ir.IsNull(cur) {
				return false, nil
			}
			member, ok := m.o.Member(curType, seg)
			if !ok {
				return false, fmt.Errorf("%s has no member %s", curType, seg)
			}
			next, err := m.r.Member(cur, seg)
			if err != nil {
				return false, err
			}
			cur, curType = next, member.Type
		}
		ok, err := m.match(prop.Pattern, cur, curType)
		if !ok || err != nil {
			return ok, err
		}
	}

	m.bind(n.Name, v)
	return true, nil
}

func (m *matcher) matchList(n *List, v ir.IRValue, static *types.Type) (bool, error) {
	narrowed, ok := m.narrow(v, static, n.Type)
	if !ok {
		return false, nil
	}
	shape := m.o.ListShape(narrowed)
	if shape == nil {
		return false, fmt.Errorf("%s does not support list patterns", narrowed)
	}
	length, err := m.r.Length(v)
	if err != nil {
		return false, err
	}

	slice := -1
	for i, e := range n.Elements {
		if _, ok := e.(*Slice); ok {
			slice = i
		}
	}
	fixed := len(n.Elements)
	if slice >= 0 {
		fixed--
		if length < fixed {
			return false, nil
		}
	} else if length != fixed {
		return false, nil
	}

	for i, e := range n.Elements {
		switch {
		case i == slice:
			s := e.(*Slice)
			if s.Inner == nil {
				continue
			}
			span, err := m.r.Slice(v, slice, len(n.Elements)-slice-1)
			if err != nil {
				return false, err
			}
			ok, err := m.match(s.Inner, span, shape.Slice)
			if !ok || err != nil {
				return ok, err
			}
		case slice >= 0 && i > slice:
			item, err := m.r.Index(v, len(n.Elements)-i, true)
			if err != nil {
				return false, err
			}
			ok, err := m.match(e, item, shape.Elem)
			if !ok || err != nil {
				return ok, err
			}
		default:
			item, err := m.r.Index(v, i, false)
			if err != nil {
				return false, err
			}
			ok, err := m.match(e, item, shape.Elem)
			if !ok || err != nil {
				return ok, err
			}
		}
	}

	m.bind(n.Name, v)
	return true, nil
}
