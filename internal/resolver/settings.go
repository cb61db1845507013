package resolver

import "strings"

// DefaultExtensions is the candidate extension order used when none is configured.
var DefaultExtensions = []string{".html", ".htm", ".md"}

// Settings controls how references map onto the workspace. They are fixed
// for the duration of an analysis run.
type Settings struct {
	SourceDirectory     string   `json:"source_directory" yaml:"source_dir"`
	IncludesDirectory   string   `json:"includes_directory" yaml:"includes_dir"`
	CandidateExtensions []string `json:"candidate_extensions" yaml:"extensions"`
}

// DefaultSettings resolves rooted references against the workspace root itself.
func DefaultSettings() Settings {
	return Settings{
		SourceDirectory:     ".",
		IncludesDirectory:   "includes",
		CandidateExtensions: append([]string(nil), DefaultExtensions...),
	}
}

// Normalized fills unset fields with defaults and gives every extension a
// leading dot. An explicitly empty extension list stays empty.
func (s Settings) Normalized() Settings {
	out := s
	if strings.TrimSpace(out.SourceDirectory) == "" {
		out.SourceDirectory = "."
	}
	if out.CandidateExtensions == nil {
		out.CandidateExtensions = append([]string(nil), DefaultExtensions...)
		return out
	}
	exts := make([]string, 0, len(out.CandidateExtensions))
	for _, ext := range out.CandidateExtensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	out.CandidateExtensions = exts
	return out
}

// HasCandidateExtension reports whether name ends with a configured extension.
func (s Settings) HasCandidateExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range s.CandidateExtensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
