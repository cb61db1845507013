package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"ssilint/internal/analysis"
	"ssilint/internal/complete"
	"ssilint/internal/config"
	"ssilint/internal/crawler"
	"ssilint/internal/directive"
	"ssilint/internal/fileaccess"
	"ssilint/internal/generator"
	"ssilint/internal/graph"
	"ssilint/internal/index"
	"ssilint/internal/pipeline"
	"ssilint/internal/resolver"
	"ssilint/internal/retrieval"
	"ssilint/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "ssilint",
		Short: "Include, template and slot checker for server-side-include sites",
	}
	configPath string
	dbPath     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the ssilint config file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the report database (SQLite); overrides storage.db")

	checkCmd.Flags().Bool("json", false, "Print reports as JSON")
	checkCmd.Flags().Bool("save", false, "Persist reports to the database")
	checkCmd.Flags().Bool("stdin", false, "Read the text of the single given file from stdin (unsaved editor buffer)")
	syncCmd.Flags().Bool("force", false, "Rebuild the graph and re-analyze every document")
	syncCmd.Flags().String("base", "HEAD", "Git ref to diff against")
	resolveCmd.Flags().Bool("relative", false, "Treat the path as a file= reference")
	resolveCmd.Flags().Bool("template", false, "Resolve the path as a template extends reference")
	completeCmd.Flags().Bool("relative", false, "Complete a file= reference")
	graphCmd.Flags().StringP("out", "o", "", "Where to write the graph (default graph.json, or stdout for mermaid)")
	graphCmd.Flags().String("format", "json", "Output format: json or mermaid")
	graphCmd.Flags().StringSlice("focus", nil, "Only draw documents around these files")
	graphCmd.Flags().Int("hops", 2, "How far from --focus files to follow edges")
	graphCmd.Flags().String("in", "", "Render a graph saved by an earlier run instead of rebuilding it")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(graphCmd)
}

// project bundles what every command needs: configuration, the absolute
// root and file access for the configured backend.
type project struct {
	cfg  *config.Config
	root string
	fa   fileaccess.FileAccess
}

// loadProject reads the configuration and opens file access. ctx bounds
// storage calls of the afs backend.
func loadProject(ctx context.Context) *project {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dbPath != "" {
		cfg.Storage.DB = dbPath
	}
	root, err := cfg.RootDir()
	if err != nil {
		log.Fatalf("Failed to resolve project root: %v", err)
	}
	local, err := fileaccess.NewLocal(root)
	if err != nil {
		log.Fatalf("Failed to open project root: %v", err)
	}
	p := &project{cfg: cfg, root: local.Root(), fa: local}
	if cfg.Project.Backend == config.BackendAFS {
		p.fa = fileaccess.NewAFS(nil).WithContext(ctx)
	}
	return p
}

func (p *project) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Join(p.root, path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// initStore initializes the SQLite store.
func (p *project) initStore() (*storage.SQLiteStore, error) {
	db := p.cfg.Storage.DB
	if !filepath.IsAbs(db) {
		db = filepath.Join(p.root, db)
	}
	return storage.NewSQLiteStore(db)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Analyze documents and print their findings",
	Run: func(cmd *cobra.Command, args []string) {
		asJSON, _ := cmd.Flags().GetBool("json")
		save, _ := cmd.Flags().GetBool("save")
		stdin, _ := cmd.Flags().GetBool("stdin")
		ctx, cancel := signalContext()
		defer cancel()
		p := loadProject(ctx)
		settings := p.cfg.Settings()

		var files []string
		for _, a := range args {
			files = append(files, p.abs(a))
		}

		fa := p.fa
		if stdin {
			if len(files) != 1 {
				log.Fatalf("--stdin needs exactly one file argument")
			}
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				log.Fatalf("Failed to read stdin: %v", err)
			}
			overlay := fileaccess.NewOverlay(p.fa)
			overlay.Open(files[0], string(data))
			fa = overlay
		}
		if len(files) == 0 {
			found, err := crawler.NewCrawler(settings, p.cfg.Crawl.Ignore).Files(p.root)
			if err != nil {
				log.Fatalf("Failed to scan project: %v", err)
			}
			files = found
		}

		engine, err := pipeline.NewEngine(p.cfg, log.Default())
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}

		var onApply func(*analysis.Report) error
		if save {
			store, err := p.initStore()
			if err != nil {
				log.Fatalf("Failed to initialize database: %v", err)
			}
			defer store.Close()
			onApply = func(r *analysis.Report) error { return store.SaveReport(ctx, r) }
		}

		start := time.Now()
		sink := pipeline.NewSink(onApply)
		batch := &pipeline.Batch{
			Engine:   engine,
			FS:       fa,
			Settings: settings,
			Root:     p.root,
			Workers:  p.cfg.Analysis.Workers,
			Sink:     sink,
		}
		if _, err := batch.Run(ctx, files); err != nil {
			log.Fatalf("Check failed: %v", err)
		}
		reports := sink.Reports()

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(reports); err != nil {
				log.Fatalf("Failed to encode reports: %v", err)
			}
		} else {
			for _, r := range reports {
				printFindings(p.root, r.File, r.Findings)
			}
			sum := analysis.Summarize(reports)
			fmt.Printf("🔎 Checked %d documents in %v: %d errors, %d warnings.\n", sum.Files, time.Since(start), sum.Errors, sum.Warnings)
		}

		for _, r := range reports {
			if r.HasErrors() {
				os.Exit(1)
			}
		}
	},
}

func printFindings(root, file string, findings []analysis.Finding) {
	name := file
	if rel, err := filepath.Rel(root, file); err == nil {
		name = rel
	}
	for _, f := range findings {
		fmt.Printf("%s:%d:%d: %s %s: %s\n", name, f.Span.StartLine, f.Span.StartCol, f.Severity, f.Kind, f.Detail)
		if f.Suggestion != "" {
			fmt.Printf("    hint: %s\n", f.Suggestion)
		}
	}
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Re-analyze documents affected by git changes and store their reports",
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		base, _ := cmd.Flags().GetString("base")
		ctx, cancel := signalContext()
		defer cancel()
		p := loadProject(ctx)

		s := pipeline.NewIncrementalSync(p.cfg)
		s.BaseRef = base
		res, err := s.Run(ctx, force)
		if err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
		if res.Summary.Errors > 0 {
			os.Exit(1)
		}
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <file> <path>",
	Short: "Show where a reference written in file resolves to",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		relative, _ := cmd.Flags().GetBool("relative")
		template, _ := cmd.Flags().GetBool("template")
		p := loadProject(cmd.Context())
		settings := p.cfg.Settings()
		file := p.abs(args[0])

		if template {
			parent, stages := resolver.NewDefaultChain().Run(args[1], settings, p.root, p.fa)
			for _, st := range stages {
				fmt.Printf("%s %-10s %s\n", mark(st.Exists), st.Stage, st.Candidate)
			}
			if parent == "" {
				fmt.Printf("❌ template %q not found\n", args[1])
				os.Exit(1)
			}
			return
		}

		kind := directive.Rooted
		if relative {
			kind = directive.Relative
		}
		ref := directive.Reference{Kind: kind, Path: args[1]}
		loc := resolver.Resolve(ref, file, settings, p.root, p.fa)
		for _, c := range loc.Candidates {
			fmt.Printf("%s %s\n", mark(c == loc.ExistingPath), c)
		}
		if !loc.Exists {
			os.Exit(1)
		}
	},
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "  "
}

var completeCmd = &cobra.Command{
	Use:   "complete <file> <prefix>",
	Short: "List include path completions for a prefix typed in file",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		relative, _ := cmd.Flags().GetBool("relative")
		p := loadProject(cmd.Context())

		kind := directive.Rooted
		if relative {
			kind = directive.Relative
		}
		for _, it := range complete.Complete(p.fa, p.abs(args[0]), kind, args[1], p.cfg.Settings(), p.root) {
			fmt.Println(it.Label)
		}
	},
}

var reportCmd = &cobra.Command{
	Use:   "report [file]",
	Short: "Print findings stored by check --save or sync",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := loadProject(cmd.Context())
		store, err := p.initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		ctx := cmd.Context()
		if len(args) > 0 {
			file := p.abs(args[0])
			r, err := store.LoadReport(ctx, file)
			if errors.Is(err, storage.ErrReportNotFound) {
				fmt.Printf("❌ No stored report for %s\n", args[0])
				os.Exit(1)
			}
			if err != nil {
				log.Fatalf("Failed to load report: %v", err)
			}
			printFindings(p.root, r.File, r.Findings)
			fmt.Printf("%d findings, fingerprint %016x\n", len(r.Findings), r.Fingerprint)
			return
		}

		findings, err := store.ListFindings(ctx, "")
		if err != nil {
			log.Fatalf("Failed to load findings: %v", err)
		}
		if len(findings) == 0 {
			fmt.Println("✅ No stored findings.")
			return
		}
		for _, f := range findings {
			printFindings(p.root, f.File, []analysis.Finding{f.Finding})
		}
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Build the project include graph and write it as JSON or a Mermaid diagram",
	Run: func(cmd *cobra.Command, args []string) {
		out, _ := cmd.Flags().GetString("out")
		format, _ := cmd.Flags().GetString("format")
		focus, _ := cmd.Flags().GetStringSlice("focus")
		hops, _ := cmd.Flags().GetInt("hops")
		in, _ := cmd.Flags().GetString("in")
		if format != "json" && format != "mermaid" {
			log.Fatalf("Unknown format %q", format)
		}
		p := loadProject(cmd.Context())
		settings := p.cfg.Settings()

		scanner, err := directive.NewCachedScanner(p.cfg.Analysis.CacheEntries)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		idx := index.NewIndexer(crawler.NewCrawler(settings, p.cfg.Crawl.Ignore), p.fa, settings, scanner)

		var g *graph.Graph
		if in != "" {
			g, err = idx.LoadGraph(in)
			if err != nil {
				log.Fatalf("Failed to load graph: %v", err)
			}
		} else {
			fmt.Fprintln(os.Stderr, "🚀 Building include graph...")
			start := time.Now()
			g, err = idx.BuildGraph(p.root)
			if err != nil {
				log.Fatalf("Build failed: %v", err)
			}
			fmt.Fprintf(os.Stderr, "✅ Graph built in %v. Found %d documents, %d edges.\n", time.Since(start), len(g.Nodes), len(g.Edges))
		}

		var sg *retrieval.Subgraph
		if len(focus) > 0 {
			seeds := make([]string, 0, len(focus))
			for _, f := range focus {
				seeds = append(seeds, p.abs(f))
			}
			sg = retrieval.Extract(g, seeds, retrieval.Config{MaxHops: hops})
			if len(sg.Seeds) == 0 {
				log.Fatalf("None of the --focus files are in the graph")
			}
		}

		if format == "mermaid" {
			m := &generator.MermaidGenerator{Root: p.root}
			var diagram string
			if sg != nil {
				diagram = m.GenerateSubgraphDiagram(sg)
			} else {
				diagram = m.GenerateGraphDiagram(g)
			}
			if out == "" {
				fmt.Print(diagram)
				return
			}
			if err := os.WriteFile(out, []byte(diagram), 0o644); err != nil {
				log.Fatalf("Failed to write diagram: %v", err)
			}
			fmt.Fprintf(os.Stderr, "💾 Diagram written to %s\n", out)
			return
		}

		if out == "" {
			out = "graph.json"
		}
		if sg != nil {
			data, err := json.MarshalIndent(sg, "", "  ")
			if err != nil {
				log.Fatalf("Failed to encode subgraph: %v", err)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				log.Fatalf("Failed to save subgraph: %v", err)
			}
		} else if err := idx.SaveGraph(g, out); err != nil {
			log.Fatalf("Failed to save graph: %v", err)
		}
		fmt.Fprintf(os.Stderr, "💾 Graph written to %s\n", out)
	},
}
