package decision

import (
	"fmt"

	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/pattern"
	"github.com/roach88/matchdag/internal/rt"
	"github.com/roach88/matchdag/internal/types"
)

// GuardFunc evaluates the guard of arm given its bindings. A nil GuardFunc
// treats every guard as true.
type GuardFunc func(arm int, binds pattern.Bindings) (bool, error)

// Result is the outcome of running a value through a graph.
type Result struct {
	Arm      int // -1 when no arm matched
	Bindings pattern.Bindings
	Path     []int // node indices visited, root first
}

// Matched reports whether some arm matched.
func (r Result) Matched() bool { return r.Arm >= 0 }

// Walk runs v through the graph and returns the first arm that matches.
func (g *Graph) Walk(r *rt.Runtime, v ir.IRValue, guard GuardFunc) (Result, error) {
	env := map[*Temp]ir.IRValue{g.Input: v}
	var path []int
	i := g.Root
	for {
		path = append(path, i)
		n := g.Nodes[i]
		switch n.Kind {
		case NodeTest:
			if EvalTest(r, n.Test, env[n.Test.Temp]) {
				i = n.True
			} else {
				i = n.False
			}
		case NodeEval:
			outs, err := Perform(r, n.Eval, env[n.Eval.Input])
			if err != nil {
				return Result{Arm: -1, Path: path}, fmt.Errorf("node %d: %w", i, err)
			}
			for k, out := range n.Eval.Outputs {
				env[out] = outs[k]
			}
			i = n.Next
		case NodeWhen:
			ok := true
			if guard != nil {
				var err error
				ok, err = guard(n.Arm, g.bindings(n.Arm, env))
				if err != nil {
					return Result{Arm: -1, Path: path}, fmt.Errorf("guard of arm %d: %w", n.Arm, err)
				}
			}
			if ok {
				i = n.True
			} else {
				i = n.False
			}
		case NodeLeaf:
			return Result{Arm: n.Arm, Bindings: g.bindings(n.Arm, env), Path: path}, nil
		default:
			return Result{Arm: -1, Path: path}, nil
		}
	}
}

func (g *Graph) bindings(arm int, env map[*Temp]ir.IRValue) pattern.Bindings {
	out := pattern.Bindings{}
	for name, t := range g.Arms[arm].Bindings {
		out[name] = env[t]
	}
	return out
}

// EvalTest decides test t for value v at run time.
func EvalTest(r *rt.Runtime, t *Test, v ir.IRValue) bool {
	switch t.Kind {
	case TestNonNull:
		return !ir.IsNull(v)
	case TestType:
		return r.IsInstance(v, t.Type)
	default:
		return InDomain(r, t, v) && rt.Compare(v, t.Op, t.Value)
	}
}

// InDomain reports whether v is a non-null value of the value test's
// domain type, the precondition of every comparison in t's domain.
func InDomain(r *rt.Runtime, t *Test, v ir.IRValue) bool {
	if ir.IsNull(v) {
		return false
	}
	return types.AssignableTo(t.Temp.Type.Underlying(), t.DomainType) || r.IsInstance(v, t.DomainType)
}

// Perform computes the outputs of e from its input value v.
func Perform(r *rt.Runtime, e *Evaluation, v ir.IRValue) ([]ir.IRValue, error) {
	one := func(out ir.IRValue, err error) ([]ir.IRValue, error) {
		if err != nil {
			return nil, err
		}
		return []ir.IRValue{out}, nil
	}
	switch e.Kind {
	case EvalDeconstruct:
		return r.Deconstruct(v, e.Method)
	case EvalMember, EvalLength:
		return one(r.Member(v, e.Member))
	case EvalStructuralLength:
		n, err := r.Length(v)
		return one(ir.IRInt(n), err)
	case EvalStructuralItem:
		return one(r.Index(v, e.Index, false))
	case EvalIndex:
		return one(r.Index(v, e.Index, e.FromEnd))
	case EvalSlice:
		return one(r.Slice(v, e.Start, e.EndOffset))
	}
	return nil, fmt.Errorf("unknown evaluation %s", e.Kind)
}

// Path is one feasible route from the root to a node together with what
// the route learned.
type Path struct {
	Nodes []int
	Facts *Facts
}

// maxPathVisits bounds the path search independently of the path limit.
const maxPathVisits = 1 << 16

// PathsTo enumerates up to limit feasible paths from the root to target,
// depth first with true branches before false branches. Tests the path
// already decides follow only their consistent branch.
func (g *Graph) PathsTo(target, limit int) []Path {
	var out []Path
	visits := 0
	var dfs func(i int, f *Facts, nodes []int)
	dfs = func(i int, f *Facts, nodes []int) {
		if len(out) >= limit || visits >= maxPathVisits {
			return
		}
		visits++
		nodes = append(nodes, i)
		if i == target {
			out = append(out, Path{Nodes: append([]int(nil), nodes...), Facts: f})
			return
		}
		n := g.Nodes[i]
		switch n.Kind {
		case NodeTest:
			v, known := f.Resolve(n.Test)
			if !known || v {
				dfs(n.True, f.Learn(n.Test, true), nodes)
			}
			if !known || !v {
				dfs(n.False, f.Learn(n.Test, false), nodes)
			}
		case NodeEval:
			dfs(n.Next, f.Perform(n.Eval), nodes)
		case NodeWhen:
			dfs(n.True, f, nodes)
			dfs(n.False, f, nodes)
		}
	}
	if target >= 0 {
		dfs(g.Root, NewFacts(), nil)
	}
	return out
}

// Satisfiable reports whether some value of the scrutinee type meets c.
func (g *Graph) Satisfiable(c *Cond) bool {
	return NewFacts().Satisfiable(c, satisfiabilityBudget)
}

const satisfiabilityBudget = 1 << 12
