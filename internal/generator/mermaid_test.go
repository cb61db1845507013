package generator

import (
	"strings"
	"testing"

	"ssilint/internal/graph"
	"ssilint/internal/retrieval"

	"github.com/stretchr/testify/assert"
)

func sample() *graph.Graph {
	g := graph.NewGraph()
	g.AddEdge(graph.Edge{From: "/w/src/index.html", To: "/w/src/inc/nav.html", Kind: graph.EdgeInclude})
	g.AddEdge(graph.Edge{From: "/w/src/index.html", To: "/w/src/layouts/base.html", Kind: graph.EdgeExtends})
	g.AddUnresolved(graph.Unresolved{From: "/w/src/inc/nav.html", Raw: "/inc/logo.html", Kind: graph.EdgeInclude})
	return g
}

func TestGenerateGraphDiagram(t *testing.T) {
	m := &MermaidGenerator{Root: "/w"}
	out := m.GenerateGraphDiagram(sample())

	assert.True(t, strings.HasPrefix(out, "```mermaid\ngraph LR\n"))
	assert.Contains(t, out, `w_src_index_html["src/index.html"]`)
	assert.Contains(t, out, "w_src_index_html --> w_src_inc_nav_html")
	assert.Contains(t, out, "w_src_index_html -. extends .-> w_src_layouts_base_html")
	assert.Contains(t, out, `missing_inc_logo_html["missing /inc/logo.html"]`)
	assert.Contains(t, out, "w_src_inc_nav_html -.-x missing_inc_logo_html")
	assert.Contains(t, out, "class missing_inc_logo_html missing")
	assert.NotContains(t, out, "changed")
}

func TestGenerateSubgraphDiagram_MarksSeeds(t *testing.T) {
	sg := retrieval.Extract(sample(), []string{"/w/src/inc/nav.html"}, retrieval.Config{MaxHops: 1})
	out := (&MermaidGenerator{}).GenerateSubgraphDiagram(sg)

	assert.Contains(t, out, "class w_src_inc_nav_html changed")
	assert.NotContains(t, out, "base_html")
	assert.Contains(t, out, `["/w/src/index.html"]`)
}

func TestSanitizeMermaidID(t *testing.T) {
	assert.Equal(t, "node", sanitizeMermaidID("  "))
	assert.Equal(t, "n_404_html", sanitizeMermaidID("404.html"))
	assert.Equal(t, "my_page_html", sanitizeMermaidID("My-Page.html"))

	ids := newIDSet()
	a, b := ids.id("a.html"), ids.id("a_html")
	assert.Equal(t, "a_html", a)
	assert.Equal(t, "a_html_2", b)
	assert.Equal(t, a, ids.id("a.html"))
}
