package analysis

import (
	"ssilint/internal/graph"
)

// ImpactReport lists the documents whose reports a change invalidates.
type ImpactReport struct {
	DirectlyAffected   []string
	IndirectlyAffected []string
}

// All returns direct then indirect documents.
func (r *ImpactReport) All() []string {
	out := make([]string, 0, len(r.DirectlyAffected)+len(r.IndirectlyAffected))
	out = append(out, r.DirectlyAffected...)
	return append(out, r.IndirectlyAffected...)
}

// ImpactAnalyzer walks the project graph backwards from changed files.
type ImpactAnalyzer struct {
	g *graph.Graph
}

// NewImpactAnalyzer creates an analyzer over g.
func NewImpactAnalyzer(g *graph.Graph) *ImpactAnalyzer {
	return &ImpactAnalyzer{g: g}
}

// AnalyzeImpact returns the changed files plus every document that includes
// or extends one of them, transitively. A changed file the graph has never
// seen may satisfy a reference that used to be missing, so documents with
// unresolved references are affected too.
func (a *ImpactAnalyzer) AnalyzeImpact(changed []string) *ImpactReport {
	report := &ImpactReport{
		DirectlyAffected:   []string{},
		IndirectlyAffected: []string{},
	}
	seen := make(map[string]bool)

	newFiles := false
	for _, path := range changed {
		if seen[path] {
			continue
		}
		seen[path] = true
		report.DirectlyAffected = append(report.DirectlyAffected, path)
		if _, known := a.g.Nodes[path]; !known {
			newFiles = true
		}
	}

	queue := append([]string(nil), report.DirectlyAffected...)
	if newFiles {
		for _, u := range a.g.Unresolved {
			if !seen[u.From] {
				seen[u.From] = true
				report.IndirectlyAffected = append(report.IndirectlyAffected, u.From)
				queue = append(queue, u.From)
			}
		}
	}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		for _, dep := range a.g.Dependents(path) {
			if seen[dep.From] {
				continue
			}
			seen[dep.From] = true
			report.IndirectlyAffected = append(report.IndirectlyAffected, dep.From)
			queue = append(queue, dep.From)
		}
	}

	return report
}
