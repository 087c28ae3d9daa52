package decision

import (
	"fmt"

	"github.com/roach88/matchdag/internal/diag"
	"github.com/roach88/matchdag/internal/types"
)

// NodeKind tags a graph node.
type NodeKind uint8

const (
	NodeTest NodeKind = iota
	NodeEval
	NodeWhen
	NodeLeaf
	NodeNoMatch
)

func (k NodeKind) String() string {
	switch k {
	case NodeTest:
		return "test"
	case NodeEval:
		return "eval"
	case NodeWhen:
		return "when"
	case NodeLeaf:
		return "leaf"
	case NodeNoMatch:
		return "no-match"
	default:
		return fmt.Sprintf("node(%d)", uint8(k))
	}
}

// Node is one vertex of the decision graph. Successors are node indices.
type Node struct {
	Kind NodeKind
	Test *Test       // NodeTest
	Eval *Evaluation // NodeEval
	Arm  int         // NodeWhen, NodeLeaf
	// True and False are the branches of NodeTest and NodeWhen.
	True, False int
	// Next follows a NodeEval.
	Next int
}

func (n Node) key() string {
	switch n.Kind {
	case NodeTest:
		return fmt.Sprintf("T%d?%d:%d", n.Test.ID, n.True, n.False)
	case NodeEval:
		return fmt.Sprintf("E%d;%d", n.Eval.ID, n.Next)
	case NodeWhen:
		return fmt.Sprintf("W%d?%d:%d", n.Arm, n.True, n.False)
	case NodeLeaf:
		return fmt.Sprintf("L%d", n.Arm)
	default:
		return "N"
	}
}

// Successors returns the node's outgoing edges, true branch first.
func (n Node) Successors() []int {
	switch n.Kind {
	case NodeTest, NodeWhen:
		return []int{n.True, n.False}
	case NodeEval:
		return []int{n.Next}
	}
	return nil
}

// Graph is a built decision DAG with the tables it refers to.
type Graph struct {
	Input       *Temp
	Nodes       []Node
	Root        int
	Arms        []*ArmInfo
	Temps       *Temps
	Tests       []*Test
	Combinators []Combinator
	Problems    diag.List

	oracle types.Oracle
}

// Oracle returns the symbol oracle the graph was built against.
func (g *Graph) Oracle() types.Oracle { return g.oracle }

// Leaf returns the index of arm's leaf node, or -1 if no path reaches it.
func (g *Graph) Leaf(arm int) int {
	for i, n := range g.Nodes {
		if n.Kind == NodeLeaf && n.Arm == arm {
			return i
		}
	}
	return -1
}

// NoMatch returns the index of the no-match node, or -1 if every value
// reaches some arm.
func (g *Graph) NoMatch() int {
	for i, n := range g.Nodes {
		if n.Kind == NodeNoMatch {
			return i
		}
	}
	return -1
}

// renumber orders nodes canonically: a depth-first topological order from
// the root in which every node follows all of its predecessors and, among
// ready nodes, the true branch is numbered before the false branch.
// Unreachable nodes are dropped.
func renumber(nodes []Node, root int) ([]Node, int) {
	reachable := make([]bool, len(nodes))
	var mark func(int)
	mark = func(i int) {
		if reachable[i] {
			return
		}
		reachable[i] = true
		for _, s := range nodes[i].Successors() {
			mark(s)
		}
	}
	mark(root)

	indeg := make([]int, len(nodes))
	for i, n := range nodes {
		if !reachable[i] {
			continue
		}
		for _, s := range n.Successors() {
			indeg[s]++
		}
	}

	order := make([]int, 0, len(nodes))
	newIndex := make([]int, len(nodes))
	stack := []int{root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		newIndex[i] = len(order)
		order = append(order, i)
		succ := nodes[i].Successors()
		for j := len(succ) - 1; j >= 0; j-- {
			s := succ[j]
			indeg[s]--
			if indeg[s] == 0 {
				stack = append(stack, s)
			}
		}
	}

	out := make([]Node, len(order))
	for k, i := range order {
		n := nodes[i]
		switch n.Kind {
		case NodeTest, NodeWhen:
			n.True, n.False = newIndex[n.True], newIndex[n.False]
		case NodeEval:
			n.Next = newIndex[n.Next]
		}
		out[k] = n
	}
	return out, 0
}
