package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"ssilint/internal/directive"
	"ssilint/internal/fileaccess"
	"ssilint/internal/graph"
	"ssilint/internal/linker"
	"ssilint/internal/resolver"
)

// ErrCancelled is returned instead of a report when the context is done
// before the analysis finishes.
var ErrCancelled = errors.New("analysis cancelled")

// Engine analyzes documents. Its fields are read-only once analyses start,
// so one Engine serves concurrent calls.
type Engine struct {
	MaxDepth int
	Scanner  directive.Scanner
	Linker   *linker.Linker
	Logger   *log.Logger
}

// NewEngine returns an engine with the default depth bound and an uncached scanner.
func NewEngine() *Engine {
	return &Engine{
		MaxDepth: graph.DefaultMaxDepth,
		Scanner:  directive.ScannerFunc(directive.Scan),
		Linker:   linker.New(nil),
	}
}

// Analyze runs a default engine over one document.
func Analyze(ctx context.Context, file, text string, settings resolver.Settings, root string, fa fileaccess.FileAccess) (*Report, error) {
	return NewEngine().Analyze(ctx, file, text, settings, root, fa)
}

// Analyze scans text (the current contents of file), resolves its includes
// and checks each existing target for cycles, links its template parent and
// compares slots. Problems in the document are findings in the report; the
// only error is ErrCancelled.
func (e *Engine) Analyze(ctx context.Context, file, text string, settings resolver.Settings, root string, fa fileaccess.FileAccess) (*Report, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	if file != "" {
		file = filepath.Clean(file)
	}
	settings = settings.Normalized()
	walk := &run{engine: e, settings: settings, root: root, fa: fa, edges: map[string][]graph.IncludeEdge{}}

	scan := e.scan(text).WithFile(file)
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	report := &Report{
		File:         file,
		Fingerprint:  directive.Fingerprint(text),
		IncludeEdges: []graph.IncludeEdge{},
		Findings:     []Finding{},
	}

	for _, inc := range scan.Includes {
		if err := checkCtx(ctx); err != nil {
			return nil, err
		}
		loc := resolver.Resolve(inc.Ref, file, settings, root, fa)
		edge := graph.NewIncludeEdge(file, loc)
		report.IncludeEdges = append(report.IncludeEdges, edge)

		if !edge.Exists() {
			report.Findings = append(report.Findings, newFinding(MissingInclude, inc.Ref.Span,
				fmt.Sprintf("included file %q does not exist", inc.Ref.Path),
				missingSuggestion(loc, fa)))
			continue
		}

		res := graph.DetectCycleFrom(edge.To, []string{file}, walk.provider, e.maxDepth())
		switch {
		case res.Cycle:
			report.Findings = append(report.Findings, newFinding(CircularInclude, inc.Ref.Span,
				"circular include: "+formatPath(res.Path, root), ""))
		case res.TooDeep:
			report.Findings = append(report.Findings, newFinding(ResolutionTooDeep, inc.Ref.Span,
				fmt.Sprintf("include chain through %q is deeper than %d levels", inc.Ref.Path, e.maxDepth()), ""))
		}
	}

	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	report.TemplateLink = e.linker().Link(file, scan, settings, root, fa)
	if link := report.TemplateLink; link != nil && !link.Found() {
		report.Findings = append(report.Findings, newFinding(TemplateNotFound, link.Extends.Span,
			fmt.Sprintf("template %q not found", link.Extends.Path),
			"looked in: "+strings.Join(link.Candidates, ", ")))
	}

	if report.TemplateLink.Found() {
		if err := checkCtx(ctx); err != nil {
			return nil, err
		}
		parent := report.TemplateLink.ResolvedParent
		parentText, err := fa.ReadText(parent)
		if err != nil {
			e.logf("⚠️ Failed to read template %s: %v", parent, err)
		} else {
			decls := e.scan(parentText).WithFile(parent).Slots
			report.SlotIssues = linker.CompareSlots(scan.SlotUses, decls)
			for _, is := range report.SlotIssues {
				report.Findings = append(report.Findings, newFinding(UndefinedSlot, is.Usage.Span, is.Message(), is.Suggestion()))
			}
		}
	}

	for _, p := range scan.Problems {
		kind := MalformedSyntax
		if p.Kind == directive.ProblemRedundantExtends {
			kind = RedundantTemplateExtends
		}
		report.Findings = append(report.Findings, newFinding(kind, p.Span, p.Detail, ""))
	}

	sortFindings(report.Findings)
	return report, nil
}

func (e *Engine) scan(text string) *directive.Result {
	if e.Scanner == nil {
		return directive.Scan(text)
	}
	return e.Scanner.Scan(text)
}

func (e *Engine) linker() *linker.Linker {
	if e.Linker == nil {
		return linker.New(nil)
	}
	return e.Linker
}

func (e *Engine) maxDepth() int {
	if e.MaxDepth <= 0 {
		return graph.DefaultMaxDepth
	}
	return e.MaxDepth
}

func (e *Engine) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

// run holds the transient state of one Analyze call, including include
// edges memoised per target file.
type run struct {
	engine   *Engine
	settings resolver.Settings
	root     string
	fa       fileaccess.FileAccess
	edges    map[string][]graph.IncludeEdge
}

// provider re-reads and re-scans a target file to find its include edges.
// Unreadable files have no edges.
func (r *run) provider(file string) []graph.IncludeEdge {
	if edges, ok := r.edges[file]; ok {
		return edges
	}
	var edges []graph.IncludeEdge
	text, err := r.fa.ReadText(file)
	if err != nil {
		r.engine.logf("⚠️ Failed to read %s: %v", file, err)
	} else {
		for _, inc := range r.engine.scan(text).Includes {
			loc := resolver.Resolve(inc.Ref, file, r.settings, r.root, r.fa)
			edges = append(edges, graph.NewIncludeEdge(file, loc))
		}
	}
	r.edges[file] = edges
	return edges
}

func checkCtx(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

// missingSuggestion proposes creating the file when the directory it would
// live in already exists.
func missingSuggestion(loc resolver.Location, fa fileaccess.FileAccess) string {
	if len(loc.Candidates) == 0 {
		return ""
	}
	target := loc.Candidates[0]
	if filepath.Ext(target) == "" && len(loc.Candidates) > 1 {
		target = loc.Candidates[1]
	}
	if !fileaccess.IsDir(fa, filepath.Dir(target)) {
		return ""
	}
	return "create " + target
}

func formatPath(path []string, root string) string {
	out := make([]string, len(path))
	for i, p := range path {
		if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
		out[i] = p
	}
	return strings.Join(out, " -> ")
}
