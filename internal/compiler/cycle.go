package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/matchdag/internal/types"
)

// Cycle is a loop in the inheritance graph of declared types.
type Cycle struct {
	Path    []string `json:"path"` // ["A", "B", "A"]
	Message string   `json:"message"`
}

// InheritanceCycles reports every cycle formed by base classes and
// implemented interfaces. Subtype checks walk these edges, so a cycle is a
// compile error rather than a warning.
//
// The algorithm:
//  1. Build the type → supertype graph from Base and Interfaces
//  2. Find strongly connected components with Tarjan's algorithm
//  3. Report each component with more than one type, or a self-loop
func InheritanceCycles(ts []*types.Type) []Cycle {
	graph := buildSupertypeGraph(ts)
	var cycles []Cycle
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && slices.Contains(graph[scc[0]], scc[0])) {
			cycles = append(cycles, sccToCycle(scc, graph))
		}
	}
	slices.SortFunc(cycles, func(a, b Cycle) int { return strings.Compare(a.Path[0], b.Path[0]) })
	return cycles
}

// supertypeGraph maps a type name to the names of its direct supertypes.
type supertypeGraph map[string][]string

func buildSupertypeGraph(ts []*types.Type) supertypeGraph {
	graph := make(supertypeGraph, len(ts))
	for _, t := range ts {
		edges := []string{}
		if t.Base != nil {
			edges = append(edges, t.Base.Name)
		}
		for _, it := range t.Interfaces {
			edges = append(edges, it.Name)
		}
		graph[t.Name] = edges
	}
	return graph
}

// tarjanSCC finds strongly connected components. Nodes are visited in
// sorted order so the result does not depend on map iteration.
func tarjanSCC(graph supertypeGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// sccToCycle walks the component from its smallest name back to itself.
func sccToCycle(scc []string, graph supertypeGraph) Cycle {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}
	start := slices.Min(scc)
	path := []string{start}
	visited := map[string]bool{start: true}
	for cur := start; ; {
		next := ""
		for _, w := range graph[cur] {
			if members[w] && (w == start || !visited[w]) {
				next = w
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		visited[next] = true
		cur = next
	}
	return Cycle{
		Path:    path,
		Message: fmt.Sprintf("inheritance cycle: %s", strings.Join(path, " -> ")),
	}
}
