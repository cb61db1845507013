package directive

import "fmt"

// Kind tells the resolver which base directory a reference is anchored to.
type Kind string

const (
	// Rooted references resolve against the configured source directory.
	Rooted Kind = "rooted"
	// Relative references resolve against the referencing file's directory.
	Relative Kind = "relative"
)

// Span locates a construct in a document. Lines and columns are 1-based,
// columns count bytes and EndCol is exclusive.
type Span struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.StartLine, s.StartCol)
}

// Before orders spans by start line, then start column.
func (s Span) Before(o Span) bool {
	if s.StartLine != o.StartLine {
		return s.StartLine < o.StartLine
	}
	return s.StartCol < o.StartCol
}

// Reference is a raw path written in a document.
type Reference struct {
	Kind Kind   `json:"kind"`
	Path string `json:"path"`
	Span Span   `json:"span"`
}

// Include is a well-formed <!--#include --> directive.
type Include struct {
	Attribute string    `json:"attribute"` // "virtual" or "file"
	Ref       Reference `json:"ref"`
}

// Extends is a <template extends="..."> declaration.
type Extends struct {
	Ref Reference `json:"ref"`
}

// SlotDeclaration is a named <slot name="..."> in a layout or component.
type SlotDeclaration struct {
	Name string `json:"name"`
	File string `json:"file,omitempty"`
	Span Span   `json:"span"`
}

// SlotUsage is a <template slot="..."> block filling a parent's slot.
type SlotUsage struct {
	Name string `json:"name"`
	File string `json:"file,omitempty"`
	Span Span   `json:"span"`
}

type ProblemKind string

const (
	ProblemMalformed        ProblemKind = "malformed_syntax"
	ProblemRedundantExtends ProblemKind = "redundant_template_extends"
)

// Problem is a syntax-level finding produced while scanning.
type Problem struct {
	Kind   ProblemKind `json:"kind"`
	Span   Span        `json:"span"`
	Detail string      `json:"detail"`
}

// Result is everything the scanner extracted from one document, in document order.
type Result struct {
	Includes []Include         `json:"includes,omitempty"`
	Extends  *Extends          `json:"extends,omitempty"`
	Slots    []SlotDeclaration `json:"slots,omitempty"`
	SlotUses []SlotUsage       `json:"slot_uses,omitempty"`
	Problems []Problem         `json:"problems,omitempty"`
}

// WithFile returns a copy of the scan whose slot entries carry file.
func (s *Result) WithFile(file string) *Result {
	if s == nil {
		return nil
	}
	out := *s
	out.Slots = make([]SlotDeclaration, len(s.Slots))
	for i, d := range s.Slots {
		d.File = file
		out.Slots[i] = d
	}
	out.SlotUses = make([]SlotUsage, len(s.SlotUses))
	for i, u := range s.SlotUses {
		u.File = file
		out.SlotUses[i] = u
	}
	return &out
}
