package index

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"ssilint/internal/crawler"
	"ssilint/internal/directive"
	"ssilint/internal/fileaccess"
	"ssilint/internal/graph"
	"ssilint/internal/resolver"
)

// Indexer builds and maintains the project-wide include graph.
type Indexer struct {
	crawler  *crawler.Crawler
	fa       fileaccess.FileAccess
	settings resolver.Settings
	scanner  directive.Scanner
	chain    *resolver.TemplateChain
}

// NewIndexer creates a new indexer. A nil scanner scans without caching.
func NewIndexer(c *crawler.Crawler, fa fileaccess.FileAccess, settings resolver.Settings, scanner directive.Scanner) *Indexer {
	if scanner == nil {
		scanner = directive.ScannerFunc(directive.Scan)
	}
	return &Indexer{
		crawler:  c,
		fa:       fa,
		settings: settings.Normalized(),
		scanner:  scanner,
		chain:    resolver.NewDefaultChain(),
	}
}

// BuildGraph scans the project root and constructs the dependency graph.
func (i *Indexer) BuildGraph(root string) (*graph.Graph, error) {
	files, err := i.crawler.Files(root)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	g := graph.NewGraph()
	for _, f := range files {
		i.indexFile(g, root, f)
	}
	return g, nil
}

// UpdateFiles re-indexes files in place. Files that no longer exist keep
// their node only while other documents still point at them.
func (i *Indexer) UpdateFiles(g *graph.Graph, root string, files []string) {
	for _, f := range files {
		g.RemoveFile(f)
		if i.fa.Exists(f) {
			i.indexFile(g, root, f)
		}
	}
}

func (i *Indexer) indexFile(g *graph.Graph, root, file string) {
	g.AddFile(file)
	text, err := i.fa.ReadText(file)
	if err != nil {
		log.Printf("⚠️ Failed to read %s: %v", file, err)
		return
	}
	scan := i.scanner.Scan(text)

	for _, inc := range scan.Includes {
		loc := resolver.Resolve(inc.Ref, file, i.settings, root, i.fa)
		if !loc.Exists {
			g.AddUnresolved(graph.Unresolved{From: file, Raw: inc.Ref.Path, Kind: graph.EdgeInclude, Span: inc.Ref.Span})
			continue
		}
		g.AddEdge(graph.Edge{From: file, To: loc.ExistingPath, Kind: graph.EdgeInclude, Span: inc.Ref.Span})
	}

	if scan.Extends != nil {
		ref := scan.Extends.Ref
		parent, _ := i.chain.Run(ref.Path, i.settings, root, i.fa)
		if parent == "" {
			g.AddUnresolved(graph.Unresolved{From: file, Raw: ref.Path, Kind: graph.EdgeExtends, Span: ref.Span})
		} else {
			g.AddEdge(graph.Edge{From: file, To: parent, Kind: graph.EdgeExtends, Span: ref.Span})
		}
	}
}

// SaveGraph persists the graph to a JSON file.
func (i *Indexer) SaveGraph(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create graph file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(g); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return nil
}

// LoadGraph loads a graph from a JSON file.
func (i *Indexer) LoadGraph(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()

	g := graph.NewGraph()
	if err := json.NewDecoder(f).Decode(g); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}

	// Rebuild indices that aren't serialized
	g.RebuildIndices()
	return g, nil
}
