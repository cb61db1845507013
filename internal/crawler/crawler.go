package crawler

import (
	"io/fs"
	"path/filepath"

	"ssilint/internal/resolver"
)

// DefaultIgnored lists directory names never descended into.
var DefaultIgnored = []string{".git", "node_modules", "vendor"}

// Crawler scans a directory tree for documents.
type Crawler struct {
	settings resolver.Settings
	ignored  []string
}

// NewCrawler creates a crawler that yields files carrying one of the
// candidate extensions of settings. A nil ignored list means DefaultIgnored.
func NewCrawler(settings resolver.Settings, ignored []string) *Crawler {
	if ignored == nil {
		ignored = DefaultIgnored
	}
	return &Crawler{
		settings: settings.Normalized(),
		ignored:  ignored,
	}
}

// ScanProject walks root and calls onFile with the absolute path of each
// document, in lexical order.
func (c *Crawler) ScanProject(root string, onFile func(path string)) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip ignored directories
		if d.IsDir() {
			if path == root {
				return nil
			}
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !d.Type().IsRegular() || !c.settings.HasCandidateExtension(d.Name()) {
			return nil
		}
		onFile(path)
		return nil
	})
}

// Files collects ScanProject's results.
func (c *Crawler) Files(root string) ([]string, error) {
	var files []string
	err := c.ScanProject(root, func(path string) {
		files = append(files, path)
	})
	return files, err
}
