package graph

import (
	"fmt"
	"testing"

	"ssilint/internal/directive"
	"ssilint/internal/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// edges builds an EdgeProvider from an adjacency list. Targets listed in
// missing resolve to nothing.
func edges(adj map[string][]string, missing ...string) EdgeProvider {
	gone := map[string]bool{}
	for _, m := range missing {
		gone[m] = true
	}
	return func(file string) []IncludeEdge {
		var out []IncludeEdge
		for _, to := range adj[file] {
			loc := resolver.Location{Candidates: []string{to}}
			if !gone[to] {
				loc.ExistingPath = to
				loc.Exists = true
			}
			out = append(out, NewIncludeEdge(file, loc))
		}
		return out
	}
}

func TestDetectCycle(t *testing.T) {
	tests := []struct {
		name    string
		adj     map[string][]string
		missing []string
		start   string
		cycle   bool
		path    []string
	}{
		{
			name:  "self loop",
			adj:   map[string][]string{"a": {"a"}},
			start: "a",
			cycle: true,
			path:  []string{"a", "a"},
		},
		{
			name:  "two files",
			adj:   map[string][]string{"a": {"b"}, "b": {"a"}},
			start: "a",
			cycle: true,
			path:  []string{"a", "b", "a"},
		},
		{
			name:  "diamond is not a cycle",
			adj:   map[string][]string{"a": {"b", "c"}, "b": {"d"}, "c": {"d"}},
			start: "a",
		},
		{
			name:  "cycle below the root",
			adj:   map[string][]string{"a": {"b"}, "b": {"c"}, "c": {"b"}},
			start: "a",
			cycle: true,
			path:  []string{"a", "b", "c", "b"},
		},
		{
			name:    "missing target is never a cycle",
			adj:     map[string][]string{"a": {"b"}, "b": {"a"}},
			missing: []string{"b"},
			start:   "a",
		},
		{
			name:  "shared subtree explored once then cycle elsewhere",
			adj:   map[string][]string{"a": {"b", "c"}, "b": {"d"}, "c": {"d", "e"}, "e": {"a"}},
			start: "a",
			cycle: true,
			path:  []string{"a", "c", "e", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := DetectCycle(tt.start, edges(tt.adj, tt.missing...), 0)
			assert.Equal(t, tt.cycle, res.Cycle)
			assert.False(t, res.TooDeep)
			if tt.cycle {
				assert.Equal(t, tt.path, res.Path)
			}
		})
	}
}

func TestDetectCycleFrom_Ancestors(t *testing.T) {
	adj := map[string][]string{"b": {"a"}}

	res := DetectCycleFrom("b", []string{"a"}, edges(adj), 0)
	assert.True(t, res.Cycle)
	assert.Equal(t, []string{"a", "b", "a"}, res.Path)

	res = DetectCycleFrom("a", []string{"a"}, edges(adj), 0)
	assert.True(t, res.Cycle, "starting on the stack is a self loop")
}

func TestDetectCycle_DepthBound(t *testing.T) {
	adj := map[string][]string{}
	for i := 0; i < 60; i++ {
		adj[fmt.Sprintf("f%d", i)] = []string{fmt.Sprintf("f%d", i+1)}
	}

	res := DetectCycle("f0", edges(adj), 50)
	assert.False(t, res.Cycle)
	assert.True(t, res.TooDeep)

	res = DetectCycle("f0", edges(adj), 100)
	assert.False(t, res.Cycle)
	assert.False(t, res.TooDeep)
}

func TestDetectCycle_WideDiamondsStayCheap(t *testing.T) {
	// 30 stacked diamonds would be 2^30 walks without the clean set.
	adj := map[string][]string{}
	calls := 0
	for i := 0; i < 30; i++ {
		top := fmt.Sprintf("t%d", i)
		next := fmt.Sprintf("t%d", i+1)
		adj[top] = []string{top + "l", top + "r"}
		adj[top+"l"] = []string{next}
		adj[top+"r"] = []string{next}
	}
	base := edges(adj)
	provider := func(file string) []IncludeEdge {
		calls++
		return base(file)
	}

	res := DetectCycle("t0", provider, 100)
	assert.False(t, res.Cycle)
	assert.False(t, res.TooDeep)
	assert.Less(t, calls, 200)
}

func TestDetectCycle_SharedIncludeAtTwoDepths(t *testing.T) {
	// d sits at depth 1 below s and again at depth 3 via p -> q; its own
	// subtree is two levels deep, so only the deeper route exceeds 4.
	for _, order := range [][]string{{"d", "p"}, {"p", "d"}} {
		t.Run(order[0]+" first", func(t *testing.T) {
			adj := map[string][]string{
				"s": order,
				"p": {"q"},
				"q": {"d"},
				"d": {"e"},
				"e": {"f"},
			}
			res := DetectCycle("s", edges(adj), 4)
			assert.False(t, res.Cycle)
			assert.True(t, res.TooDeep)

			res = DetectCycle("s", edges(adj), 5)
			assert.False(t, res.TooDeep)
		})
	}
}

func TestGraph_Dependents(t *testing.T) {
	g := NewGraph()
	g.AddEdge(Edge{From: "a", To: "inc", Kind: EdgeInclude})
	g.AddEdge(Edge{From: "b", To: "inc", Kind: EdgeInclude})
	g.AddEdge(Edge{From: "b", To: "layout", Kind: EdgeExtends})
	g.AddUnresolved(Unresolved{From: "a", Raw: "gone.html", Kind: EdgeInclude})
	g.AddUnresolved(Unresolved{From: "b", Raw: "base", Kind: EdgeExtends})

	deps := g.Dependents("inc")
	require.Len(t, deps, 2)
	assert.Equal(t, "a", deps[0].From)
	assert.Equal(t, "b", deps[1].From)

	assert.Len(t, g.Dependencies("b"), 2)
	assert.Equal(t, []string{"a", "b", "inc", "layout"}, g.Files())
	assert.Equal(t, map[EdgeKind]int{EdgeInclude: 1, EdgeExtends: 1}, g.UnresolvedCounts())

	g.RemoveFile("b")
	assert.Len(t, g.Dependents("inc"), 1)
	assert.Empty(t, g.Dependents("layout"))
	assert.Len(t, g.Unresolved, 1)
	_, hasB := g.Nodes["b"]
	assert.False(t, hasB)
}

func TestIncludeEdge_Exists(t *testing.T) {
	span := directive.Span{StartLine: 3, StartCol: 1}
	loc := resolver.Location{
		Reference:  directive.Reference{Path: "x", Span: span},
		Candidates: []string{"/w/x"},
	}
	e := NewIncludeEdge("/w/a.html", loc)
	assert.False(t, e.Exists())
	assert.Equal(t, span, e.Span)

	loc.ExistingPath, loc.Exists = "/w/x", true
	assert.True(t, NewIncludeEdge("/w/a.html", loc).Exists())
}
