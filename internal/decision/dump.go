package decision

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/roach88/matchdag/internal/ir"
)

// tempNames names temps by first definition in node order: the scrutinee
// is t0, then each evaluation's outputs in the order their nodes appear.
// Temps a graph never evaluates keep no name.
func (g *Graph) tempNames() map[*Temp]string {
	names := map[*Temp]string{g.Input: "t0"}
	next := 1
	for _, n := range g.Nodes {
		if n.Kind != NodeEval {
			continue
		}
		for _, out := range n.Eval.Outputs {
			if _, ok := names[out]; !ok {
				names[out] = "t" + strconv.Itoa(next)
				next++
			}
		}
	}
	return names
}

// TempNames returns the dump name of every temp the graph evaluates.
func (g *Graph) TempNames() map[*Temp]string { return g.tempNames() }

// Describe renders node i as Dump does, without its successors.
func (g *Graph) Describe(i int, names map[*Temp]string) string {
	return g.describe(g.Nodes[i], names, false)
}

func name(names map[*Temp]string, t *Temp) string {
	if n, ok := names[t]; ok {
		return n
	}
	return t.String()
}

// Dump renders the graph one node per line:
//
//	[0]: t0 != null ? [1] : [4]
//	[1]: t1 = t0.Prop1; [2]
//	[2]: t1 == 42 ? [3] : [4]
//	[3]: leaf `{ Prop1: 42 }`
//	[4]: <no match>
//
// Node numbers are the canonical order, so equal builds dump identically.
func (g *Graph) Dump() string {
	names := g.tempNames()
	var b strings.Builder
	for i, n := range g.Nodes {
		fmt.Fprintf(&b, "[%d]: %s\n", i, g.describe(n, names, true))
	}
	return b.String()
}

// describe renders a node; with targets set, successors are appended.
func (g *Graph) describe(n Node, names map[*Temp]string, targets bool) string {
	switch n.Kind {
	case NodeTest:
		s := n.Test.render(name(names, n.Test.Temp))
		if targets {
			s += fmt.Sprintf(" ? [%d] : [%d]", n.True, n.False)
		}
		return s
	case NodeEval:
		s := renderEval(n.Eval, names)
		if targets {
			s += fmt.Sprintf("; [%d]", n.Next)
		}
		return s
	case NodeWhen:
		s := "when " + g.Arms[n.Arm].Guard
		if targets {
			s += fmt.Sprintf(" ? [%d] : [%d]", n.True, n.False)
		}
		return s
	case NodeLeaf:
		return "leaf `" + g.Arms[n.Arm].Text + "`"
	default:
		return "<no match>"
	}
}

func renderEval(e *Evaluation, names map[*Temp]string) string {
	in := name(names, e.Input)
	outs := make([]string, len(e.Outputs))
	for i, o := range e.Outputs {
		outs[i] = name(names, o)
	}
	cast := in
	if e.Contract != nil {
		cast = "((" + e.Contract.Name + ")" + in + ")"
	}
	switch e.Kind {
	case EvalDeconstruct:
		return "(" + strings.Join(outs, ", ") + ") = " + in + ".Deconstruct()"
	case EvalMember, EvalLength:
		return outs[0] + " = " + in + "." + e.Member
	case EvalStructuralLength:
		return outs[0] + " = " + cast + ".Length"
	case EvalStructuralItem:
		return outs[0] + " = " + cast + "[" + strconv.Itoa(e.Index) + "]"
	case EvalIndex:
		if e.FromEnd {
			return outs[0] + " = " + in + "[^" + strconv.Itoa(e.Index) + "]"
		}
		return outs[0] + " = " + in + "[" + strconv.Itoa(e.Index) + "]"
	case EvalSlice:
		return outs[0] + " = " + in + "[" + strconv.Itoa(e.Start) + "..^" + strconv.Itoa(e.EndOffset) + "]"
	}
	return strings.Join(outs, ", ") + " = " + e.Kind.String() + "(" + in + ")"
}

type edge struct {
	label  string
	target int
}

func (n Node) edges() []edge {
	switch n.Kind {
	case NodeTest, NodeWhen:
		return []edge{{"true", n.True}, {"false", n.False}}
	case NodeEval:
		return []edge{{"", n.Next}}
	}
	return nil
}

// Tree renders the graph as an indented tree for reading. Shared nodes are
// expanded once; later occurrences print as a reference "-> [n]".
func (g *Graph) Tree() string {
	names := g.tempNames()
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("[%d] %s", g.Root, g.describe(g.Nodes[g.Root], names, false)))
	seen := map[int]bool{g.Root: true}
	var grow func(parent treeprint.Tree, i int)
	grow = func(parent treeprint.Tree, i int) {
		for _, e := range g.Nodes[i].edges() {
			label := fmt.Sprintf("[%d] %s", e.target, g.describe(g.Nodes[e.target], names, false))
			ref := fmt.Sprintf("-> [%d]", e.target)
			if e.label != "" {
				label = e.label + ": " + label
				ref = e.label + ": " + ref
			}
			if seen[e.target] {
				parent.AddNode(ref)
				continue
			}
			seen[e.target] = true
			grow(parent.AddBranch(label), e.target)
		}
	}
	grow(tree, g.Root)
	return tree.String()
}

// Fingerprint identifies the graph's shape: equal fingerprints mean
// isomorphic builds under the canonical numbering.
func (g *Graph) Fingerprint() string {
	return ir.MustFingerprint(ir.DomainGraph, g.Dump())
}

// Stats summarizes a graph for logs.
type Stats struct {
	Nodes       int `json:"nodes"`
	Tests       int `json:"tests"`
	Evaluations int `json:"evaluations"`
	Leaves      int `json:"leaves"`
}

// Stats counts the graph's nodes by kind.
func (g *Graph) Stats() Stats {
	s := Stats{Nodes: len(g.Nodes)}
	for _, n := range g.Nodes {
		switch n.Kind {
		case NodeTest:
			s.Tests++
		case NodeEval:
			s.Evaluations++
		case NodeLeaf:
			s.Leaves++
		}
	}
	return s
}

// ArmNodes returns the nodes on some path from the root to arm's leaf,
// sorted. Sharing between arms shows up as common entries.
func (g *Graph) ArmNodes(arm int) []int {
	leaf := g.Leaf(arm)
	if leaf < 0 {
		return nil
	}
	reaches := make(map[int]bool)
	var visit func(int) bool
	done := make(map[int]bool)
	visit = func(i int) bool {
		if done[i] {
			return reaches[i]
		}
		done[i] = true
		r := i == leaf
		for _, s := range g.Nodes[i].Successors() {
			if visit(s) {
				r = true
			}
		}
		reaches[i] = r
		return r
	}
	visit(g.Root)
	var out []int
	for i, r := range reaches {
		if r {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}
