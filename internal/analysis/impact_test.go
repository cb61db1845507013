package analysis

import (
	"testing"

	"ssilint/internal/graph"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeImpact(t *testing.T) {
	g := graph.NewGraph()
	g.AddEdge(graph.Edge{From: "page.html", To: "nav.html", Kind: graph.EdgeInclude})
	g.AddEdge(graph.Edge{From: "nav.html", To: "links.html", Kind: graph.EdgeInclude})
	g.AddEdge(graph.Edge{From: "post.html", To: "base.html", Kind: graph.EdgeExtends})
	g.AddEdge(graph.Edge{From: "about.html", To: "nav.html", Kind: graph.EdgeInclude})
	g.AddUnresolved(graph.Unresolved{From: "draft.html", Raw: "todo.html", Kind: graph.EdgeInclude})

	t.Run("transitive includers", func(t *testing.T) {
		r := NewImpactAnalyzer(g).AnalyzeImpact([]string{"links.html", "links.html"})
		assert.Equal(t, []string{"links.html"}, r.DirectlyAffected)
		assert.Equal(t, []string{"nav.html", "page.html", "about.html"}, r.IndirectlyAffected)
		assert.Len(t, r.All(), 4)
	})

	t.Run("extends counts as a dependency", func(t *testing.T) {
		r := NewImpactAnalyzer(g).AnalyzeImpact([]string{"base.html"})
		assert.Equal(t, []string{"post.html"}, r.IndirectlyAffected)
	})

	t.Run("new file revisits unresolved references", func(t *testing.T) {
		r := NewImpactAnalyzer(g).AnalyzeImpact([]string{"todo.html"})
		assert.Equal(t, []string{"todo.html"}, r.DirectlyAffected)
		assert.Equal(t, []string{"draft.html"}, r.IndirectlyAffected)
	})

	t.Run("leaf page", func(t *testing.T) {
		r := NewImpactAnalyzer(g).AnalyzeImpact([]string{"page.html"})
		assert.Empty(t, r.IndirectlyAffected)
	})
}
