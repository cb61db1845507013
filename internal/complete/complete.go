package complete

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"ssilint/internal/directive"
	"ssilint/internal/fileaccess"
	"ssilint/internal/resolver"
)

// Item is one completion proposal. Label is what replaces the typed prefix.
type Item struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
	// Preferred marks entries under the includes directory.
	Preferred bool `json:"preferred,omitempty"`
}

var reOpenAttr = regexp.MustCompile(`(virtual|file)\s*=\s*["']([^"']*)$`)

// Context inspects the text before the cursor and reports whether the cursor
// sits inside an include path, which kind of reference it is and what has
// been typed so far.
func Context(beforeCursor string) (directive.Kind, string, bool) {
	start := strings.LastIndex(beforeCursor, "<!--#include")
	if start == -1 || strings.Contains(beforeCursor[start:], "-->") {
		return "", "", false
	}
	m := reOpenAttr.FindStringSubmatch(beforeCursor[start:])
	if m == nil {
		return "", "", false
	}
	if m[1] == "virtual" {
		return directive.Rooted, m[2], true
	}
	return directive.Relative, m[2], true
}

// Complete lists the directory the typed prefix points into and returns the
// entries matching its last segment: directories, and files carrying a
// candidate extension. For rooted references, entries in the includes
// directory come first.
func Complete(fa fileaccess.FileAccess, file string, kind directive.Kind, prefix string, settings resolver.Settings, root string) []Item {
	settings = settings.Normalized()
	base := resolver.Base(kind, file, settings, root)

	typed := prefix
	if kind == directive.Rooted {
		typed = strings.TrimPrefix(typed, "/")
	}
	dirPart, partial := "", typed
	if i := strings.LastIndex(typed, "/"); i >= 0 {
		dirPart, partial = typed[:i+1], typed[i+1:]
	}
	dir := filepath.Join(base, filepath.FromSlash(dirPart))

	var includes string
	if kind == directive.Rooted && settings.IncludesDirectory != "" {
		includes = filepath.Join(root, settings.SourceDirectory, settings.IncludesDirectory)
	}

	labelPrefix := dirPart
	if kind == directive.Rooted && strings.HasPrefix(prefix, "/") {
		labelPrefix = "/" + dirPart
	}

	var items []Item
	for _, e := range fileaccess.List(fa, dir) {
		if strings.HasPrefix(e.Name, ".") && !strings.HasPrefix(partial, ".") {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(e.Name), strings.ToLower(partial)) {
			continue
		}
		if !e.IsDir && !settings.HasCandidateExtension(e.Name) {
			continue
		}
		full := filepath.Join(dir, e.Name)
		label := labelPrefix + e.Name
		if e.IsDir {
			label += "/"
		}
		items = append(items, Item{
			Label:     label,
			Path:      full,
			IsDir:     e.IsDir,
			Preferred: includes != "" && within(full, includes),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Preferred != b.Preferred {
			return a.Preferred
		}
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.Label < b.Label
	})
	return items
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
