package pipeline

import (
	"sort"
	"sync"

	"ssilint/internal/analysis"
)

// Sink holds the latest report per file. Reports are applied in completion
// order, so the last Apply for a file wins regardless of when its analysis
// started.
type Sink struct {
	mu      sync.Mutex
	latest  map[string]*analysis.Report
	onApply func(*analysis.Report) error
}

// NewSink creates a sink. onApply, when set, runs under the sink's lock for
// every applied report, so downstream writes see the same order.
func NewSink(onApply func(*analysis.Report) error) *Sink {
	return &Sink{
		latest:  make(map[string]*analysis.Report),
		onApply: onApply,
	}
}

// Apply makes r the current report for its file.
func (s *Sink) Apply(r *analysis.Report) error {
	if r == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[r.File] = r
	if s.onApply != nil {
		return s.onApply(r)
	}
	return nil
}

// Latest returns the current report for file, or nil.
func (s *Sink) Latest(file string) *analysis.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[file]
}

// Reports returns every current report, sorted by file.
func (s *Sink) Reports() []*analysis.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*analysis.Report, 0, len(s.latest))
	for _, r := range s.latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}
