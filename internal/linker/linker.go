package linker

import (
	"ssilint/internal/directive"
	"ssilint/internal/fileaccess"
	"ssilint/internal/resolver"
)

// TemplateLink ties a child document to the parent its extends attribute
// names. ResolvedParent is empty when no stage of the search found it.
// Candidates lists every stage's path; Stages only those probed.
type TemplateLink struct {
	ChildFile      string                 `json:"child_file"`
	Extends        directive.Reference    `json:"extends"`
	ResolvedParent string                 `json:"resolved_parent,omitempty"`
	Candidates     []string               `json:"candidates"`
	Stages         []resolver.StageResult `json:"stages"`
}

// Found reports whether the parent resolved.
func (l *TemplateLink) Found() bool {
	return l != nil && l.ResolvedParent != ""
}

// Linker resolves template parents through a TemplateChain.
type Linker struct {
	chain *resolver.TemplateChain
}

// New returns a Linker over chain, or over the default chain when nil.
func New(chain *resolver.TemplateChain) *Linker {
	if chain == nil {
		chain = resolver.NewDefaultChain()
	}
	return &Linker{chain: chain}
}

// Link resolves the extends declaration of scan. It returns nil when the
// document extends nothing.
func (l *Linker) Link(childFile string, scan *directive.Result, settings resolver.Settings, root string, fa fileaccess.FileAccess) *TemplateLink {
	if scan == nil || scan.Extends == nil {
		return nil
	}
	ref := scan.Extends.Ref
	link := &TemplateLink{
		ChildFile:  childFile,
		Extends:    ref,
		Candidates: l.chain.Candidates(ref.Path, settings, root),
	}
	link.ResolvedParent, link.Stages = l.chain.Probe(link.Candidates, fa)
	return link
}

// Link is Linker.Link over the default chain.
func Link(childFile string, scan *directive.Result, settings resolver.Settings, root string, fa fileaccess.FileAccess) *TemplateLink {
	return New(nil).Link(childFile, scan, settings, root, fa)
}
