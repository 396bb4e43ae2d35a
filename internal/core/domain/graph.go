package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Graph is the dependency edge set derived from a root node's transitive closure.
// Nodes are registered in first-discovery order and edges are kept as indices
// into that registry, so ordering is deterministic for a fixed graph shape.
type Graph struct {
	nodes  []*Node
	index  map[*Node]int
	edges  [][]int
	walked map[*Node]bool
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		index:  make(map[*Node]int),
		walked: make(map[*Node]bool),
	}
}

// register returns the registry index of n, adding it if needed.
func (g *Graph) register(n *Node) int {
	if i, ok := g.index[n]; ok {
		return i
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.edges = append(g.edges, nil)
	g.index[n] = i
	return i
}

// AddEdge records that dependent requires dependency. It does not walk either node.
func (g *Graph) AddEdge(dependent, dependency *Node) {
	from := g.register(dependent)
	to := g.register(dependency)
	g.edges[from] = append(g.edges[from], to)
}

// AddNode records an edge for every requirement of n and recurses into them.
// A node without requirements gets a single edge to the Null node.
// Nodes reachable through several paths are walked once.
func (g *Graph) AddNode(n *Node) {
	g.register(n)
	if g.walked[n] {
		return
	}
	g.walked[n] = true

	if n.kind == KindNull {
		return
	}

	if len(n.requires) == 0 {
		g.AddEdge(n, null)
		return
	}

	for _, r := range n.requires {
		g.AddEdge(n, r)
		g.AddNode(r)
	}
}

// Len returns the number of registered nodes, including the Null node.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Sort returns every registered node such that each node comes after all of
// its dependencies. It fails with ErrCycleDetected if the edges are not acyclic.
func (g *Graph) Sort() ([]*Node, error) {
	order := make([]*Node, 0, len(g.nodes))
	state := make([]int, len(g.nodes)) // 0: unvisited, 1: visiting, 2: visited
	var path []int

	var visit func(u int) error
	visit = func(u int) error {
		state[u] = 1
		path = append(path, u)

		for _, v := range g.edges[u] {
			switch state[v] {
			case 1:
				return g.buildCycleError(path, v)
			case 0:
				if err := visit(v); err != nil {
					return err
				}
			}
		}

		state[u] = 2
		path = path[:len(path)-1]
		order = append(order, g.nodes[u])
		return nil
	}

	for u := range g.nodes {
		if state[u] == 0 {
			if err := visit(u); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []int, dep int) error {
	start := 0
	for i, u := range path {
		if u == dep {
			start = i
			break
		}
	}

	names := make([]string, 0, len(path)-start+1)
	for _, u := range path[start:] {
		names = append(names, g.label(u))
	}
	names = append(names, g.label(dep))

	return CycleError(names)
}

func (g *Graph) label(u int) string {
	n := g.nodes[u]
	if n.kind == KindNull {
		return "<null>"
	}
	return n.ID()
}

// CycleError returns ErrCycleDetected annotated with the cycle path.
// The last element of path is expected to repeat the first.
func CycleError(path []string) error {
	cycle := strings.Join(path, " -> ")
	return zerr.With(zerr.Wrap(ErrCycleDetected, cycle), "cycle", cycle)
}
