package analysis

import (
	"ssilint/internal/graph"
	"ssilint/internal/linker"
)

// Report is the full result of analyzing one document. A newer report for
// the same file replaces an older one; reports are never patched.
// Fingerprint is the content hash of the analyzed text.
type Report struct {
	File         string               `json:"file"`
	Fingerprint  uint64               `json:"fingerprint"`
	IncludeEdges []graph.IncludeEdge  `json:"include_edges"`
	TemplateLink *linker.TemplateLink `json:"template_link,omitempty"`
	SlotIssues   []linker.SlotIssue   `json:"slot_issues,omitempty"`
	Findings     []Finding            `json:"findings"`
}

// HasErrors reports whether any finding has error severity.
func (r *Report) HasErrors() bool {
	if r == nil {
		return false
	}
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of findings of kind k.
func (r *Report) Count(k Kind) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, f := range r.Findings {
		if f.Kind == k {
			n++
		}
	}
	return n
}

// Summary tallies findings by severity.
type Summary struct {
	Files    int `json:"files"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// Summarize tallies findings across reports.
func Summarize(reports []*Report) Summary {
	var s Summary
	for _, r := range reports {
		if r == nil {
			continue
		}
		s.Files++
		for _, f := range r.Findings {
			if f.Severity == SeverityError {
				s.Errors++
			} else {
				s.Warnings++
			}
		}
	}
	return s
}
