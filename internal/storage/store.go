package storage

import (
	"context"
	"errors"

	"ssilint/internal/analysis"
	"ssilint/internal/graph"
)

// ErrReportNotFound is returned when no report is stored for a file.
var ErrReportNotFound = errors.New("report not found")

// Store combines graph and report storage capabilities.
type Store interface {
	GraphStore
	ReportStore
	Close() error
}

// GraphStore persists the project include graph.
type GraphStore interface {
	// SaveGraph replaces the stored graph with g.
	SaveGraph(ctx context.Context, g *graph.Graph) error

	// LoadGraph returns the stored graph, empty when nothing was saved.
	LoadGraph(ctx context.Context) (*graph.Graph, error)
}

// ReportStore keeps the latest analysis report per file.
type ReportStore interface {
	// SaveReport replaces any report stored for r.File.
	SaveReport(ctx context.Context, r *analysis.Report) error

	// LoadReport returns the report for file or ErrReportNotFound.
	LoadReport(ctx context.Context, file string) (*analysis.Report, error)

	// ListFindings returns stored findings for file, or for every file when
	// file is empty, ordered by file then position.
	ListFindings(ctx context.Context, file string) ([]StoredFinding, error)

	// DeleteReport forgets the report for file.
	DeleteReport(ctx context.Context, file string) error
}

// StoredFinding is a finding together with the file it belongs to.
type StoredFinding struct {
	File string `json:"file"`
	analysis.Finding
}
