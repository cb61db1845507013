package generator

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"ssilint/internal/graph"
	"ssilint/internal/retrieval"
)

// MermaidGenerator draws include graphs as Mermaid flowcharts. Labels are
// made relative to Root when possible.
type MermaidGenerator struct {
	Root string
}

// GenerateGraphDiagram draws the whole project graph.
func (m *MermaidGenerator) GenerateGraphDiagram(g *graph.Graph) string {
	return m.render(g.Files(), nil, g.Edges, g.Unresolved)
}

// GenerateSubgraphDiagram draws a neighborhood, highlighting its seeds.
func (m *MermaidGenerator) GenerateSubgraphDiagram(sg *retrieval.Subgraph) string {
	return m.render(sg.Files, sg.Seeds, sg.Edges, sg.Unresolved)
}

func (m *MermaidGenerator) render(files, seeds []string, edges []graph.Edge, unresolved []graph.Unresolved) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("graph LR\n")

	ids := newIDSet()
	for _, f := range files {
		sb.WriteString(fmt.Sprintf("    %s[%q]\n", ids.id(f), m.label(f)))
	}

	for _, e := range edges {
		arrow := "-->"
		if e.Kind == graph.EdgeExtends {
			arrow = "-. extends .->"
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", ids.id(e.From), arrow, ids.id(e.To)))
	}

	// Missing targets get one node per raw reference.
	missing := make(map[string]bool)
	for _, u := range unresolved {
		key := "missing:" + u.Raw
		id := ids.id(key)
		if !missing[key] {
			missing[key] = true
			sb.WriteString(fmt.Sprintf("    %s[%q]\n", id, "missing "+u.Raw))
		}
		sb.WriteString(fmt.Sprintf("    %s -.-x %s\n", ids.id(u.From), id))
	}

	if len(seeds) > 0 {
		sorted := append([]string(nil), seeds...)
		sort.Strings(sorted)
		var seedIDs []string
		for _, s := range sorted {
			seedIDs = append(seedIDs, ids.id(s))
		}
		sb.WriteString("    classDef changed stroke-width:3px\n")
		sb.WriteString(fmt.Sprintf("    class %s changed\n", strings.Join(seedIDs, ",")))
	}
	if len(missing) > 0 {
		var missingIDs []string
		for key := range missing {
			missingIDs = append(missingIDs, ids.id(key))
		}
		sort.Strings(missingIDs)
		sb.WriteString("    classDef missing stroke-dasharray:4 2\n")
		sb.WriteString(fmt.Sprintf("    class %s missing\n", strings.Join(missingIDs, ",")))
	}

	sb.WriteString("```\n")
	return sb.String()
}

func (m *MermaidGenerator) label(path string) string {
	if m.Root == "" {
		return path
	}
	if rel, err := filepath.Rel(m.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

// idSet hands out stable, unique Mermaid identifiers for paths.
type idSet struct {
	byKey map[string]string
	used  map[string]bool
}

func newIDSet() *idSet {
	return &idSet{byKey: make(map[string]string), used: make(map[string]bool)}
}

func (s *idSet) id(key string) string {
	if id, ok := s.byKey[key]; ok {
		return id
	}
	base := sanitizeMermaidID(key)
	id := base
	for n := 2; s.used[id]; n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	s.byKey[key] = id
	s.used[id] = true
	return id
}

var reMermaidUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

func sanitizeMermaidID(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" {
		return "node"
	}
	v = strings.Trim(reMermaidUnsafe.ReplaceAllString(v, "_"), "_")
	if v == "" {
		return "node"
	}
	if v[0] >= '0' && v[0] <= '9' {
		v = "n_" + v
	}
	return v
}
