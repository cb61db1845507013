package graph

import (
	"ssilint/internal/directive"
	"ssilint/internal/resolver"
)

type EdgeKind string

const (
	EdgeInclude EdgeKind = "include"
	EdgeExtends EdgeKind = "extends"
)

// IncludeEdge links a document to the file one of its include directives
// pulls in. To is empty when the reference did not resolve.
type IncludeEdge struct {
	From     string            `json:"from"`
	To       string            `json:"to,omitempty"`
	Location resolver.Location `json:"location"`
	Span     directive.Span    `json:"span"`
}

// Exists reports whether the edge points at a file on disk.
func (e IncludeEdge) Exists() bool {
	return e.Location.Exists && e.To != ""
}

// NewIncludeEdge builds the edge for an include directive resolved to loc.
func NewIncludeEdge(from string, loc resolver.Location) IncludeEdge {
	return IncludeEdge{
		From:     from,
		To:       loc.ExistingPath,
		Location: loc,
		Span:     loc.Reference.Span,
	}
}

// Edge is a project-level dependency between two documents.
type Edge struct {
	From string         `json:"from"`
	To   string         `json:"to"`
	Kind EdgeKind       `json:"kind"`
	Span directive.Span `json:"span"`
}

// Unresolved is a reference that matched no file.
type Unresolved struct {
	From string         `json:"from"`
	Raw  string         `json:"raw"`
	Kind EdgeKind       `json:"kind"`
	Span directive.Span `json:"span"`
}
