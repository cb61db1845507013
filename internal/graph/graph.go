package graph

import "sort"

// Node is a document in the project graph.
type Node struct {
	Path string `json:"path"`
}

// Graph is the project-wide dependency graph: documents as nodes, include
// and extends references as ordered edges.
type Graph struct {
	Nodes      map[string]*Node `json:"nodes"`
	Edges      []Edge           `json:"edges"`
	Unresolved []Unresolved     `json:"unresolved,omitempty"`

	// reverse maps a target path to the indices of edges pointing at it.
	reverse map[string][]int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:   make(map[string]*Node),
		Edges:   []Edge{},
		reverse: make(map[string][]int),
	}
}

// AddFile registers a document.
func (g *Graph) AddFile(path string) {
	if _, ok := g.Nodes[path]; !ok {
		g.Nodes[path] = &Node{Path: path}
	}
}

// AddEdge records a resolved dependency. Both ends become nodes.
func (g *Graph) AddEdge(e Edge) {
	g.AddFile(e.From)
	g.AddFile(e.To)
	g.Edges = append(g.Edges, e)
	g.reverse[e.To] = append(g.reverse[e.To], len(g.Edges)-1)
}

// AddUnresolved records a reference that matched nothing.
func (g *Graph) AddUnresolved(u Unresolved) {
	g.AddFile(u.From)
	g.Unresolved = append(g.Unresolved, u)
}

// RemoveFile drops a document's outgoing edges and unresolved references,
// keeping the node itself when other documents still point at it.
func (g *Graph) RemoveFile(path string) {
	edges := g.Edges[:0]
	for _, e := range g.Edges {
		if e.From != path {
			edges = append(edges, e)
		}
	}
	g.Edges = edges

	unresolved := g.Unresolved[:0]
	for _, u := range g.Unresolved {
		if u.From != path {
			unresolved = append(unresolved, u)
		}
	}
	g.Unresolved = unresolved

	g.RebuildIndices()
	if len(g.reverse[path]) == 0 {
		delete(g.Nodes, path)
	}
}

// RebuildIndices recomputes lookup tables that are not serialized.
func (g *Graph) RebuildIndices() {
	g.reverse = make(map[string][]int, len(g.Nodes))
	for i, e := range g.Edges {
		g.reverse[e.To] = append(g.reverse[e.To], i)
	}
}

// Dependencies returns the targets path points at, in edge order.
func (g *Graph) Dependencies(path string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == path {
			out = append(out, e)
		}
	}
	return out
}

// Dependents returns the edges pointing at path, in edge order.
func (g *Graph) Dependents(path string) []Edge {
	idx := g.reverse[path]
	out := make([]Edge, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.Edges[i])
	}
	return out
}

// Files returns every node path, sorted.
func (g *Graph) Files() []string {
	out := make([]string, 0, len(g.Nodes))
	for p := range g.Nodes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
