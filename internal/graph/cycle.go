package graph

import "maps"

// DefaultMaxDepth bounds include traversal when no limit is configured.
const DefaultMaxDepth = 50

// EdgeProvider returns the include edges of file, re-derived on demand.
type EdgeProvider func(file string) []IncludeEdge

// CycleResult is the outcome of one traversal.
type CycleResult struct {
	Cycle   bool
	TooDeep bool
	// Path runs from the traversal root to the file that closes the cycle.
	Path []string
}

// DetectCycle walks include edges depth-first from start and reports whether
// any walk comes back to a file already on its stack.
func DetectCycle(start string, provider EdgeProvider, maxDepth int) CycleResult {
	return DetectCycleFrom(start, nil, provider, maxDepth)
}

// DetectCycleFrom is DetectCycle with ancestors already on the stack, so that
// reaching any of them also closes a cycle.
func DetectCycleFrom(start string, ancestors []string, provider EdgeProvider, maxDepth int) CycleResult {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	w := &walker{provider: provider, maxDepth: maxDepth, clean: map[string]int{}}

	stack := make(map[string]bool, len(ancestors))
	for _, a := range ancestors {
		stack[a] = true
	}
	if stack[start] {
		return CycleResult{Cycle: true, Path: append(append([]string(nil), ancestors...), start)}
	}

	cycle, truncated, _ := w.visit(start, stack, ancestors, len(ancestors))
	if cycle != nil {
		return CycleResult{Cycle: true, Path: cycle}
	}
	return CycleResult{TooDeep: truncated}
}

type walker struct {
	provider EdgeProvider
	maxDepth int
	// clean maps files whose whole subtree was walked without finding a cycle
	// or hitting the depth bound to the height of that subtree. Such a file
	// cannot reach any stack member: a stack member reaches it, so that would
	// be a cycle below it. It is skipped only when its subtree still fits in
	// the remaining depth.
	clean map[string]int
}

// visit returns the closing path of a cycle, whether the depth bound cut the
// walk short, and the height of the subtree below file.
func (w *walker) visit(file string, stack map[string]bool, path []string, depth int) ([]string, bool, int) {
	if depth > w.maxDepth {
		return nil, true, 0
	}
	stack = maps.Clone(stack)
	stack[file] = true
	path = append(path[:len(path):len(path)], file)

	truncated := false
	height := 0
	for _, e := range w.provider(file) {
		if !e.Exists() {
			continue
		}
		if stack[e.To] {
			return append(path[:len(path):len(path)], e.To), false, 0
		}
		if h, ok := w.clean[e.To]; ok && depth+1+h <= w.maxDepth {
			height = max(height, h+1)
			continue
		}
		cycle, t, h := w.visit(e.To, stack, path, depth+1)
		if cycle != nil {
			return cycle, false, 0
		}
		truncated = truncated || t
		height = max(height, h+1)
	}
	if !truncated {
		w.clean[file] = height
	}
	return nil, truncated, height
}
