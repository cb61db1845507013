package analysis

import (
	"sort"

	"ssilint/internal/directive"
)

// Kind classifies a finding.
type Kind string

const (
	MissingInclude           Kind = "missing_include"
	CircularInclude          Kind = "circular_include"
	TemplateNotFound         Kind = "template_not_found"
	UndefinedSlot            Kind = "undefined_slot"
	MalformedSyntax          Kind = "malformed_syntax"
	RedundantTemplateExtends Kind = "redundant_template_extends"
	ResolutionTooDeep        Kind = "resolution_too_deep"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// stage breaks ties between findings at the same position.
type stage int

const (
	stageInclude stage = iota
	stageTemplate
	stageSlot
	stageSyntax
)

var kindInfo = map[Kind]struct {
	severity Severity
	stage    stage
}{
	MissingInclude:           {SeverityError, stageInclude},
	CircularInclude:          {SeverityError, stageInclude},
	ResolutionTooDeep:        {SeverityWarning, stageInclude},
	TemplateNotFound:         {SeverityError, stageTemplate},
	UndefinedSlot:            {SeverityWarning, stageSlot},
	MalformedSyntax:          {SeverityError, stageSyntax},
	RedundantTemplateExtends: {SeverityWarning, stageSyntax},
}

// Severity returns the default severity of findings of kind k.
func (k Kind) Severity() Severity {
	if info, ok := kindInfo[k]; ok {
		return info.severity
	}
	return SeverityWarning
}

func (k Kind) stage() stage {
	if info, ok := kindInfo[k]; ok {
		return info.stage
	}
	return stageSyntax
}

// Finding is one diagnostic for the analyzed document.
type Finding struct {
	Kind       Kind           `json:"kind"`
	Severity   Severity       `json:"severity"`
	Span       directive.Span `json:"span"`
	Detail     string         `json:"detail"`
	Suggestion string         `json:"suggestion,omitempty"`
}

func newFinding(kind Kind, span directive.Span, detail, suggestion string) Finding {
	return Finding{
		Kind:       kind,
		Severity:   kind.Severity(),
		Span:       span,
		Detail:     detail,
		Suggestion: suggestion,
	}
}

// sortFindings orders by line, then column, then stage. Findings of the
// same stage at the same position keep the order they were produced in.
func sortFindings(fs []Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if a.Span.StartLine != b.Span.StartLine {
			return a.Span.StartLine < b.Span.StartLine
		}
		if a.Span.StartCol != b.Span.StartCol {
			return a.Span.StartCol < b.Span.StartCol
		}
		return a.Kind.stage() < b.Kind.stage()
	})
}
