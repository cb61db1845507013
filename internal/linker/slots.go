package linker

import (
	"fmt"
	"strings"

	"ssilint/internal/directive"
)

type IssueKind string

const (
	UndefinedSlot IssueKind = "undefined_slot"
	// UnusedRequiredSlot is reserved for parents that mark a slot required.
	// The declaration grammar has no such marker yet, so nothing emits it.
	UnusedRequiredSlot IssueKind = "unused_required_slot"
)

// SlotIssue is a mismatch between a child's slot usages and its parent's
// declarations.
type SlotIssue struct {
	Kind     IssueKind           `json:"kind"`
	Usage    directive.SlotUsage `json:"usage"`
	Declared []string            `json:"declared"`
}

// Message renders the issue for a diagnostics surface.
func (i SlotIssue) Message() string {
	switch i.Kind {
	case UndefinedSlot:
		return fmt.Sprintf("slot %q is not declared by the parent template", i.Usage.Name)
	default:
		return string(i.Kind)
	}
}

// Suggestion lists the slots the parent does declare.
func (i SlotIssue) Suggestion() string {
	if len(i.Declared) == 0 {
		return "the parent template declares no slots"
	}
	return "declared slots: " + strings.Join(i.Declared, ", ")
}

// DeclaredNames de-duplicates declarations by name, keeping first-seen order.
func DeclaredNames(decls []directive.SlotDeclaration) []string {
	seen := make(map[string]bool, len(decls))
	names := make([]string, 0, len(decls))
	for _, d := range decls {
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		names = append(names, d.Name)
	}
	return names
}

// CompareSlots reports every usage whose name the parent does not declare.
// Names match exactly and case-sensitively.
func CompareSlots(uses []directive.SlotUsage, decls []directive.SlotDeclaration) []SlotIssue {
	declared := DeclaredNames(decls)
	known := make(map[string]bool, len(declared))
	for _, n := range declared {
		known[n] = true
	}

	var issues []SlotIssue
	for _, u := range uses {
		if known[u.Name] {
			continue
		}
		issues = append(issues, SlotIssue{
			Kind:     UndefinedSlot,
			Usage:    u,
			Declared: append([]string(nil), declared...),
		})
	}
	return append(issues, unusedRequired(uses, decls)...)
}

// unusedRequired would flag required parent slots the child leaves empty.
func unusedRequired(_ []directive.SlotUsage, _ []directive.SlotDeclaration) []SlotIssue {
	return nil
}
