package graph

// UnresolvedCounts tallies unresolved references by edge kind.
func (g *Graph) UnresolvedCounts() map[EdgeKind]int {
	counts := make(map[EdgeKind]int)
	if g == nil {
		return counts
	}
	for _, u := range g.Unresolved {
		kind := u.Kind
		if kind == "" {
			kind = EdgeInclude
		}
		counts[kind]++
	}
	return counts
}
