package resolver

import (
	"path/filepath"

	"ssilint/internal/fileaccess"
)

// Stage is one directory, relative to the source directory, searched for a
// template parent.
type Stage struct {
	Name string
	Dir  string
}

// StageResult records what one stage tried.
type StageResult struct {
	Stage     string `json:"stage"`
	Candidate string `json:"candidate"`
	Exists    bool   `json:"exists"`
}

// TemplateChain searches its stages in order; the first existing candidate wins.
type TemplateChain struct {
	stages []Stage
}

func NewTemplateChain(stages ...Stage) *TemplateChain {
	return &TemplateChain{stages: stages}
}

// NewDefaultChain searches layouts/, then components/, then the source root.
func NewDefaultChain() *TemplateChain {
	return NewTemplateChain(
		Stage{Name: "layouts", Dir: "layouts"},
		Stage{Name: "components", Dir: "components"},
		Stage{Name: "source", Dir: ""},
	)
}

// TemplateFileName appends .html to references that have no extension.
func TemplateFileName(ref string) string {
	if filepath.Ext(ref) == "" {
		return ref + ".html"
	}
	return ref
}

// Candidates returns the path each stage would try for ref, in priority order.
func (c *TemplateChain) Candidates(ref string, settings Settings, root string) []string {
	name := TemplateFileName(ref)
	base := filepath.Join(root, settings.SourceDirectory)
	out := make([]string, 0, len(c.stages))
	for _, st := range c.stages {
		out = append(out, filepath.Join(base, st.Dir, name))
	}
	return out
}

// Run tries every stage until one candidate exists. It returns the winning
// path (empty when none exists) and the per-stage results up to that point.
func (c *TemplateChain) Run(ref string, settings Settings, root string, fa fileaccess.FileAccess) (string, []StageResult) {
	return c.Probe(c.Candidates(ref, settings, root), fa)
}

// Probe is Run over candidates already built by Candidates.
func (c *TemplateChain) Probe(candidates []string, fa fileaccess.FileAccess) (string, []StageResult) {
	var out []StageResult
	for i, candidate := range candidates {
		ok := fa.Exists(candidate)
		stage := ""
		if i < len(c.stages) {
			stage = c.stages[i].Name
		}
		out = append(out, StageResult{Stage: stage, Candidate: candidate, Exists: ok})
		if ok {
			return candidate, out
		}
	}
	return "", out
}
