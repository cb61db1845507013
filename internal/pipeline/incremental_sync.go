package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"ssilint/internal/analysis"
	"ssilint/internal/config"
	"ssilint/internal/crawler"
	"ssilint/internal/fileaccess"
	"ssilint/internal/git"
	"ssilint/internal/graph"
	"ssilint/internal/index"
	"ssilint/internal/storage"
)

// IncrementalSync re-analyzes only what a change can affect: the changed
// documents and every document that includes or extends them.
type IncrementalSync struct {
	Config  *config.Config
	BaseRef string
	// DetectChanges lists changed files relative to the project root.
	// It defaults to git diff against BaseRef.
	DetectChanges func(ctx context.Context, root string) ([]git.ChangedFile, error)

	root string
	fa   *fileaccess.Local
}

type updatePlan struct {
	Changed    []string
	Deleted    []string
	FullResync bool
	// Diffs holds the change of every changed document by absolute path.
	Diffs map[string]git.ChangedFile
}

// SyncResult summarizes one sync. OnChangedLines counts findings that sit
// on a line the diff touched.
type SyncResult struct {
	Analyzed       int
	Deleted        int
	OnChangedLines int
	Summary        analysis.Summary
}

func NewIncrementalSync(cfg *config.Config) *IncrementalSync {
	return &IncrementalSync{
		Config:  cfg,
		BaseRef: "HEAD",
	}
}

// Run syncs stored reports with the working tree. force rebuilds the whole
// graph and re-analyzes every document.
func (s *IncrementalSync) Run(ctx context.Context, force bool) (*SyncResult, error) {
	root, err := s.Config.RootDir()
	if err != nil {
		return nil, err
	}
	fa, err := fileaccess.NewLocal(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open project root: %w", err)
	}
	s.root, s.fa = fa.Root(), fa

	plan, err := s.detectChangesStage(ctx, force)
	if err != nil {
		return nil, err
	}
	if len(plan.Changed) == 0 && len(plan.Deleted) == 0 && !plan.FullResync {
		fmt.Println("✅ No changes detected.")
		return &SyncResult{}, nil
	}

	store, err := storage.NewSQLiteStore(s.dbPath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	g, err := s.graphLoadStage(ctx, store, plan)
	if err != nil {
		return nil, err
	}

	targets := g.Files()
	if !plan.FullResync {
		// Impact runs on the stored graph so files it has never seen still
		// count as new.
		targets = s.impactAnalysisStage(g, plan)
		s.graphUpdateStage(g, append(append([]string(nil), targets...), plan.Deleted...))
	}
	if err := store.SaveGraph(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to save updated graph: %w", err)
	}

	return s.analysisStage(ctx, store, targets, plan)
}

func (s *IncrementalSync) dbPath() string {
	db := s.Config.Storage.DB
	if filepath.IsAbs(db) {
		return db
	}
	return filepath.Join(s.root, db)
}

func (s *IncrementalSync) detectChangesStage(ctx context.Context, force bool) (*updatePlan, error) {
	if force {
		fmt.Println("🧭 Running full sync from current tree (--force).")
		return &updatePlan{FullResync: true}, nil
	}

	detect := s.DetectChanges
	if detect == nil {
		detect = func(ctx context.Context, root string) ([]git.ChangedFile, error) {
			return git.GetChangedFiles(ctx, root, s.BaseRef)
		}
	}
	changes, err := detect(ctx, s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to get git changes: %w", err)
	}

	settings := s.Config.Settings()
	plan := &updatePlan{Diffs: make(map[string]git.ChangedFile)}
	for _, c := range changes {
		if !settings.HasCandidateExtension(c.Path) {
			continue
		}
		abs := filepath.Join(s.root, c.Path)
		if c.Deleted || !s.fa.Exists(abs) {
			plan.Deleted = append(plan.Deleted, abs)
		} else {
			plan.Changed = append(plan.Changed, abs)
			plan.Diffs[abs] = c
		}
	}
	if n := len(plan.Changed) + len(plan.Deleted); n > 0 {
		fmt.Printf("📝 Detected %d changed documents.\n", n)
	}
	return plan, nil
}

func (s *IncrementalSync) indexer() *index.Indexer {
	settings := s.Config.Settings()
	cr := crawler.NewCrawler(settings, s.Config.Crawl.Ignore)
	return index.NewIndexer(cr, s.fa, settings, nil)
}

func (s *IncrementalSync) graphLoadStage(ctx context.Context, store *storage.SQLiteStore, plan *updatePlan) (*graph.Graph, error) {
	if !plan.FullResync {
		fmt.Println("🔄 Loading existing include graph...")
		g, err := store.LoadGraph(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load graph: %w", err)
		}
		if len(g.Nodes) > 0 {
			return g, nil
		}
		plan.FullResync = true
	}

	start := time.Now()
	g, err := s.indexer().BuildGraph(s.root)
	if err != nil {
		return nil, fmt.Errorf("full graph build failed: %w", err)
	}
	fmt.Printf("📊 Graph Update: full rebuild completed in %v. Nodes=%d\n", time.Since(start), len(g.Nodes))
	s.printGraphStats(g)
	return g, nil
}

// graphUpdateStage re-indexes files in place: changed documents, their
// includers and referrers, and deleted documents.
func (s *IncrementalSync) graphUpdateStage(g *graph.Graph, files []string) {
	start := time.Now()
	s.indexer().UpdateFiles(g, s.root, files)
	fmt.Printf("📊 Graph Update: %d documents re-indexed in %v.\n", len(files), time.Since(start))
	s.printGraphStats(g)
}

func (s *IncrementalSync) printGraphStats(g *graph.Graph) {
	counts := g.UnresolvedCounts()
	fmt.Printf("  -> Edges: %d, unresolved includes: %d, unresolved templates: %d\n",
		len(g.Edges), counts[graph.EdgeInclude], counts[graph.EdgeExtends])
}

func (s *IncrementalSync) impactAnalysisStage(g *graph.Graph, plan *updatePlan) []string {
	fmt.Println("🔍 Analyzing impact...")
	changed := append(append([]string(nil), plan.Changed...), plan.Deleted...)
	report := analysis.NewImpactAnalyzer(g).AnalyzeImpact(changed)

	fmt.Printf("  -> %d documents directly affected\n", len(report.DirectlyAffected))
	fmt.Printf("  -> %d documents indirectly affected (includers)\n", len(report.IndirectlyAffected))

	deleted := make(map[string]bool, len(plan.Deleted))
	for _, d := range plan.Deleted {
		deleted[d] = true
	}
	var targets []string
	for _, f := range report.All() {
		if !deleted[f] {
			targets = append(targets, f)
		}
	}
	return targets
}

func (s *IncrementalSync) analysisStage(ctx context.Context, store *storage.SQLiteStore, targets []string, plan *updatePlan) (*SyncResult, error) {
	deleted := plan.Deleted
	for _, d := range deleted {
		if err := store.DeleteReport(ctx, d); err != nil {
			return nil, fmt.Errorf("failed to delete report for %s: %w", d, err)
		}
	}

	fmt.Printf("🧪 Analyzing %d documents...\n", len(targets))
	engine, err := NewEngine(s.Config, nil)
	if err != nil {
		return nil, err
	}
	sink := NewSink(func(r *analysis.Report) error {
		return store.SaveReport(ctx, r)
	})
	batch := &Batch{
		Engine:   engine,
		FS:       s.fa,
		Settings: s.Config.Settings(),
		Root:     s.root,
		Workers:  s.Config.Analysis.Workers,
		Sink:     sink,
	}
	if _, err := batch.Run(ctx, targets); err != nil {
		return nil, err
	}

	res := &SyncResult{
		Analyzed: len(sink.Reports()),
		Deleted:  len(deleted),
		Summary:  analysis.Summarize(sink.Reports()),
	}
	for _, r := range sink.Reports() {
		diff, ok := plan.Diffs[r.File]
		if !ok {
			continue
		}
		for _, f := range r.Findings {
			if diff.Touches(f.Span.StartLine) {
				res.OnChangedLines++
			}
		}
	}
	fmt.Printf("✅ Sync complete: %d analyzed, %d errors, %d warnings.\n", res.Analyzed, res.Summary.Errors, res.Summary.Warnings)
	if !plan.FullResync {
		fmt.Printf("  -> %d findings on changed lines\n", res.OnChangedLines)
	}
	if len(deleted) > 0 {
		log.Printf("Removed reports for %d deleted documents", len(deleted))
	}
	return res, nil
}
