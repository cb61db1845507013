package retrieval

import (
	"sort"

	"ssilint/internal/graph"
)

// Config controls how neighborhood subgraphs are extracted.
type Config struct {
	MaxHops      int
	AllowedKinds map[graph.EdgeKind]bool
}

func DefaultConfig() Config {
	return Config{
		MaxHops:      2,
		AllowedKinds: nil,
	}
}

// Subgraph is the part of the project graph within MaxHops of the seeds,
// following edges in both directions.
type Subgraph struct {
	MaxHops    int                `json:"max_hops"`
	Seeds      []string           `json:"seeds"`
	Files      []string           `json:"files"`
	Hops       map[string]int     `json:"hops"`
	Edges      []graph.Edge       `json:"edges"`
	Unresolved []graph.Unresolved `json:"unresolved,omitempty"`
}

// Extract collects the documents around seeds. Seeds unknown to the graph
// are dropped.
func Extract(g *graph.Graph, seeds []string, cfg Config) *Subgraph {
	if g == nil {
		return &Subgraph{Hops: map[string]int{}}
	}
	if cfg.MaxHops < 0 {
		cfg.MaxHops = 0
	}

	hops := make(map[string]int, len(seeds))
	queue := make([]queueItem, 0, len(seeds))
	var kept []string
	for _, s := range seeds {
		if _, ok := g.Nodes[s]; !ok {
			continue
		}
		if _, dup := hops[s]; dup {
			continue
		}
		hops[s] = 0
		kept = append(kept, s)
		queue = append(queue, queueItem{file: s, depth: 0})
	}
	sort.Strings(kept)

	adj := make(map[string][]edgeHop)
	for _, e := range g.Edges {
		if !edgeAllowed(e, cfg) {
			continue
		}
		adj[e.From] = append(adj[e.From], edgeHop{to: e.To, edge: e})
		adj[e.To] = append(adj[e.To], edgeHop{to: e.From, edge: e})
	}

	edgeSeen := make(map[edgeKey]bool)
	var edges []graph.Edge
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= cfg.MaxHops {
			continue
		}
		for _, next := range adj[cur.file] {
			k := edgeKey{from: next.edge.From, to: next.edge.To, kind: next.edge.Kind}
			if !edgeSeen[k] {
				edgeSeen[k] = true
				edges = append(edges, next.edge)
			}
			if _, seen := hops[next.to]; !seen {
				hops[next.to] = cur.depth + 1
				queue = append(queue, queueItem{file: next.to, depth: cur.depth + 1})
			}
		}
	}

	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].From == edges[j].From {
			if edges[i].To == edges[j].To {
				return edges[i].Kind < edges[j].Kind
			}
			return edges[i].To < edges[j].To
		}
		return edges[i].From < edges[j].From
	})

	var unresolved []graph.Unresolved
	for _, u := range g.Unresolved {
		if _, ok := hops[u.From]; ok && (len(cfg.AllowedKinds) == 0 || cfg.AllowedKinds[u.Kind]) {
			unresolved = append(unresolved, u)
		}
	}

	return &Subgraph{
		MaxHops:    cfg.MaxHops,
		Seeds:      kept,
		Files:      sortedKeys(hops),
		Hops:       hops,
		Edges:      edges,
		Unresolved: unresolved,
	}
}

type queueItem struct {
	file  string
	depth int
}

type edgeHop struct {
	to   string
	edge graph.Edge
}

type edgeKey struct {
	from, to string
	kind     graph.EdgeKind
}

func edgeAllowed(e graph.Edge, cfg Config) bool {
	if len(cfg.AllowedKinds) == 0 {
		return true
	}
	return cfg.AllowedKinds[e.Kind]
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
