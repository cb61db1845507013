package resolver

import (
	"path/filepath"

	"ssilint/internal/directive"
	"ssilint/internal/fileaccess"
)

// Location is the outcome of resolving one reference.
type Location struct {
	Reference    directive.Reference `json:"reference"`
	Candidates   []string            `json:"candidates"`
	ExistingPath string              `json:"existing_path,omitempty"`
	Exists       bool                `json:"exists"`
}

// Base returns the directory a reference of kind resolves against.
func Base(kind directive.Kind, sourceFile string, settings Settings, root string) string {
	if kind == directive.Relative {
		return filepath.Dir(sourceFile)
	}
	return filepath.Join(root, settings.SourceDirectory)
}

// Candidates lists the paths tried for raw under base: the raw path first,
// then the raw path with each candidate extension appended, in order.
func Candidates(base, raw string, extensions []string) []string {
	full := filepath.Join(base, raw)
	out := make([]string, 0, 1+len(extensions))
	out = append(out, full)
	for _, ext := range extensions {
		out = append(out, full+ext)
	}
	return out
}

// Resolve maps ref, written in sourceFile, to its candidate paths and the first
// one that exists. It does no caching; the file system is read at call time.
func Resolve(ref directive.Reference, sourceFile string, settings Settings, root string, fa fileaccess.FileAccess) Location {
	base := Base(ref.Kind, sourceFile, settings, root)
	loc := Location{
		Reference:  ref,
		Candidates: Candidates(base, ref.Path, settings.CandidateExtensions),
	}
	for _, c := range loc.Candidates {
		if fa.Exists(c) {
			loc.ExistingPath = c
			loc.Exists = true
			break
		}
	}
	return loc
}
