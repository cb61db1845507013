package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"ssilint/internal/analysis"
	"ssilint/internal/config"
	"ssilint/internal/directive"
	"ssilint/internal/fileaccess"
	"ssilint/internal/resolver"
)

// NewEngine builds an analysis engine from configuration, with a shared
// scan cache sized by analysis.cache_entries.
func NewEngine(cfg *config.Config, logger *log.Logger) (*analysis.Engine, error) {
	scanner, err := directive.NewCachedScanner(cfg.Analysis.CacheEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan cache: %w", err)
	}
	e := analysis.NewEngine()
	e.MaxDepth = cfg.Analysis.MaxDepth
	e.Scanner = scanner
	e.Logger = logger
	return e, nil
}

// Batch analyzes many documents through a bounded worker pool.
type Batch struct {
	Engine   *analysis.Engine
	FS       fileaccess.FileAccess
	Settings resolver.Settings
	Root     string
	Workers  int
	Sink     *Sink
}

// Run analyzes files and returns their reports in input order. Files that
// cannot be read have a nil report. A cancelled context stops the batch
// with analysis.ErrCancelled; a failing sink stops it with the sink's error.
func (b *Batch) Run(ctx context.Context, files []string) ([]*analysis.Report, error) {
	engine := b.Engine
	if engine == nil {
		engine = analysis.NewEngine()
	}
	workers := b.Workers
	if workers <= 0 {
		workers = 4
	}

	reports := make([]*analysis.Report, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, file := range files {
		g.Go(func() error {
			text, err := b.FS.ReadText(file)
			if err != nil {
				log.Printf("⚠️ Skipping %s: %v", file, err)
				return nil
			}
			report, err := engine.Analyze(ctx, file, text, b.Settings, b.Root, b.FS)
			if err != nil {
				return err
			}
			reports[i] = report
			if b.Sink != nil {
				return b.Sink.Apply(report)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, analysis.ErrCancelled) {
			return nil, err
		}
		return nil, fmt.Errorf("batch analysis failed: %w", err)
	}
	return reports, nil
}
