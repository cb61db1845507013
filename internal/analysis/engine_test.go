package analysis

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"testing"

	"ssilint/internal/directive"
	"ssilint/internal/fileaccess"
	"ssilint/internal/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "/w"

var settings = resolver.Settings{SourceDirectory: "src", CandidateExtensions: []string{".html", ".md"}}

func analyzeFile(t *testing.T, fa *fileaccess.Memory, file string) *Report {
	t.Helper()
	text, err := fa.ReadText(file)
	require.NoError(t, err)
	report, err := Analyze(context.Background(), file, text, settings, root, fa)
	require.NoError(t, err)
	require.NotNil(t, report)
	return report
}

func kinds(r *Report) []Kind {
	var out []Kind
	for _, f := range r.Findings {
		out = append(out, f.Kind)
	}
	return out
}

func TestAnalyze_SelfLoop(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/w/src/a.html": `<!--#include virtual="/a.html" -->`,
	})

	r := analyzeFile(t, fa, "/w/src/a.html")

	require.Equal(t, []Kind{CircularInclude}, kinds(r))
	assert.Equal(t, SeverityError, r.Findings[0].Severity)
	assert.Equal(t, 1, r.Findings[0].Span.StartLine)
	assert.Contains(t, r.Findings[0].Detail, "src/a.html -> src/a.html")
}

func TestAnalyze_TwoFileCycleFromEitherSide(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/w/src/a.html": "<p>a</p>\n<!--#include file=\"b.html\" -->",
		"/w/src/b.html": `<!--#include file="a.html" -->`,
	})

	a := analyzeFile(t, fa, "/w/src/a.html")
	require.Equal(t, []Kind{CircularInclude}, kinds(a))
	assert.Equal(t, 2, a.Findings[0].Span.StartLine)

	b := analyzeFile(t, fa, "/w/src/b.html")
	require.Equal(t, []Kind{CircularInclude}, kinds(b))
	assert.Equal(t, 1, b.Findings[0].Span.StartLine)
}

func TestAnalyze_DiamondIsNotACycle(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/w/src/a.html": "<!--#include file=\"b.html\" -->\n<!--#include file=\"c.html\" -->",
		"/w/src/b.html": `<!--#include file="d.html" -->`,
		"/w/src/c.html": `<!--#include file="d.html" -->`,
		"/w/src/d.html": `<p>d</p>`,
	})

	r := analyzeFile(t, fa, "/w/src/a.html")

	assert.Empty(t, r.Findings)
	require.Len(t, r.IncludeEdges, 2)
	assert.Equal(t, "/w/src/b.html", r.IncludeEdges[0].To)
	assert.Equal(t, "/w/src/c.html", r.IncludeEdges[1].To)
}

func TestAnalyze_CycleBelowTarget(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/w/src/a.html": `<!--#include file="b.html" -->`,
		"/w/src/b.html": `<!--#include file="c.html" -->`,
		"/w/src/c.html": `<!--#include file="b.html" -->`,
	})

	r := analyzeFile(t, fa, "/w/src/a.html")
	require.Equal(t, []Kind{CircularInclude}, kinds(r))
	assert.Contains(t, r.Findings[0].Detail, "src/b.html -> src/c.html -> src/b.html")
}

func TestAnalyze_SlotRoundTrip(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/w/src/layouts/base.html": `<title><slot name="title"></slot></title><main><slot name="content"></slot></main>`,
		"/w/src/page.html": strings.Join([]string{
			`<template extends="base">`,
			`  <template slot="content">body</template>`,
			`  <template slot="sidebar">nav</template>`,
			`</template>`,
		}, "\n"),
	})

	r := analyzeFile(t, fa, "/w/src/page.html")

	require.Equal(t, []Kind{UndefinedSlot}, kinds(r))
	f := r.Findings[0]
	assert.Equal(t, SeverityWarning, f.Severity)
	assert.Equal(t, 3, f.Span.StartLine)
	assert.Contains(t, f.Detail, `"sidebar"`)
	assert.Equal(t, "declared slots: title, content", f.Suggestion)

	require.NotNil(t, r.TemplateLink)
	assert.Equal(t, "/w/src/layouts/base.html", r.TemplateLink.ResolvedParent)
	require.Len(t, r.SlotIssues, 1)
	assert.Equal(t, "/w/src/page.html", r.SlotIssues[0].Usage.File)
}

func TestAnalyze_TemplateNotFound(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/w/src/page.html": `<template extends="missing"><template slot="x"></template></template>`,
	})

	r := analyzeFile(t, fa, "/w/src/page.html")

	require.Equal(t, []Kind{TemplateNotFound}, kinds(r))
	assert.Contains(t, r.Findings[0].Suggestion, "/w/src/layouts/missing.html")
	assert.Empty(t, r.SlotIssues, "slots are not compared without a parent")
}

func TestAnalyze_Idempotent(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/w/src/layouts/base.html": `<slot name="content"></slot>`,
		"/w/src/inc/nav.html":      `<nav></nav>`,
		"/w/src/page.html": strings.Join([]string{
			`<!--#include virtual="/inc/nav" -->`,
			`<!--#include virtual="/inc/missing" -->`,
			`<!--#include path="bad.html" -->`,
			`<template extends="base"><template slot="aside"></template></template>`,
		}, "\n"),
	})

	first := analyzeFile(t, fa, "/w/src/page.html")
	second := analyzeFile(t, fa, "/w/src/page.html")

	assert.Equal(t, first, second)
	assert.Equal(t, []Kind{MissingInclude, MalformedSyntax, UndefinedSlot}, kinds(first))
}

func TestAnalyze_MalformedAttributeYieldsNoEdge(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/w/src/x.html":    "x",
		"/w/src/page.html": `<!--#include path="x.html" -->`,
	})

	r := analyzeFile(t, fa, "/w/src/page.html")

	assert.Equal(t, []Kind{MalformedSyntax}, kinds(r))
	assert.Empty(t, r.IncludeEdges)
}

func TestAnalyze_ExtensionOrder(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/w/src/a.html":    "html",
		"/w/src/a.md":      "md",
		"/w/src/page.html": `<!--#include virtual="/a" -->`,
	})

	r := analyzeFile(t, fa, "/w/src/page.html")

	require.Len(t, r.IncludeEdges, 1)
	assert.Equal(t, "/w/src/a.html", r.IncludeEdges[0].To)
	assert.Equal(t, []string{"/w/src/a", "/w/src/a.html", "/w/src/a.md"}, r.IncludeEdges[0].Location.Candidates)
}

func TestAnalyze_MissingIncludeSuggestion(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/w/src/inc/other.html": "o",
		"/w/src/page.html":      "<!--#include virtual=\"/inc/nav\" -->\n<!--#include virtual=\"/nowhere/nav.html\" -->",
	})

	r := analyzeFile(t, fa, "/w/src/page.html")

	require.Equal(t, []Kind{MissingInclude, MissingInclude}, kinds(r))
	assert.Equal(t, "create /w/src/inc/nav.html", r.Findings[0].Suggestion)
	assert.Empty(t, r.Findings[1].Suggestion)
	assert.False(t, r.IncludeEdges[0].Exists())
	assert.Empty(t, r.IncludeEdges[0].To)
}

func TestAnalyze_TooDeep(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 20; i++ {
		files[fmt.Sprintf("/w/src/f%d.html", i)] = fmt.Sprintf(`<!--#include file="f%d.html" -->`, i+1)
	}
	files["/w/src/f20.html"] = "end"
	fa := fileaccess.NewMemory(files)

	e := NewEngine()
	e.MaxDepth = 5
	r, err := e.Analyze(context.Background(), "/w/src/f0.html", files["/w/src/f0.html"], settings, root, fa)
	require.NoError(t, err)
	assert.Equal(t, []Kind{ResolutionTooDeep}, kinds(r))

	r = analyzeFile(t, fa, "/w/src/f0.html")
	assert.Empty(t, r.Findings, "default bound covers the chain")
}

func TestAnalyze_FindingOrder(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/w/src/page.html": strings.Join([]string{
			`<template extends="nope"><!--#include virtual="/gone.html" -->`,
			`<!--#include bogus="x" --><!--#include virtual="/gone2.html" -->`,
		}, "\n"),
	})

	r := analyzeFile(t, fa, "/w/src/page.html")

	assert.Equal(t, []Kind{
		TemplateNotFound, // 1:1, template stage
		MalformedSyntax,  // 1:1, unclosed template, syntax stage
		MissingInclude,   // 1:26
		MalformedSyntax,  // 2:1
		MissingInclude,   // 2:27
	}, kinds(r))
}

func TestAnalyze_RedundantExtends(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/w/src/layouts/a.html": "",
		"/w/src/page.html":      "<template extends=\"a\"></template>\n<template extends=\"b\"></template>",
	})

	r := analyzeFile(t, fa, "/w/src/page.html")

	require.Equal(t, []Kind{RedundantTemplateExtends}, kinds(r))
	assert.Equal(t, SeverityWarning, r.Findings[0].Severity)
	assert.Equal(t, "/w/src/layouts/a.html", r.TemplateLink.ResolvedParent)
}

func TestAnalyze_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := Analyze(ctx, "/w/src/a.html", "", settings, root, fileaccess.NewMemory(nil))
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

// cancelOnExists cancels the analysis the first time anything is resolved.
type cancelOnExists struct {
	*fileaccess.Memory
	cancel context.CancelFunc
}

func (c cancelOnExists) Exists(path string) bool {
	c.cancel()
	return c.Memory.Exists(path)
}

func TestAnalyze_CancelledBetweenIncludes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fa := cancelOnExists{Memory: fileaccess.NewMemory(nil), cancel: cancel}
	text := "<!--#include virtual=\"/a\" -->\n<!--#include virtual=\"/b\" -->"

	r, err := Analyze(ctx, "/w/src/page.html", text, settings, root, fa)
	assert.Nil(t, r, "no partial report")
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestAnalyze_UsesGivenTextNotDisk(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/w/src/page.html": `<!--#include virtual="/gone.html" -->`,
	})

	r, err := Analyze(context.Background(), "/w/src/page.html", "<p>edited</p>", settings, root, fa)
	require.NoError(t, err)
	assert.Empty(t, r.Findings)
	assert.Equal(t, directive.Fingerprint("<p>edited</p>"), r.Fingerprint)
}

func TestAnalyze_UncleanPathSelfLoop(t *testing.T) {
	// On disk the page includes nothing; only the given text loops.
	fa := fileaccess.NewMemory(map[string]string{"/w/src/a.html": "<p>a</p>"})

	r, err := Analyze(context.Background(), "/w/src/pages/../a.html", `<!--#include virtual="/a.html" -->`, settings, root, fa)
	require.NoError(t, err)
	assert.Equal(t, "/w/src/a.html", r.File)
	require.Len(t, r.Findings, 1)
	assert.Equal(t, CircularInclude, r.Findings[0].Kind)
	assert.Equal(t, "circular include: src/a.html -> src/a.html", r.Findings[0].Detail)
}

func TestAnalyze_UnreadableTargetIsLogged(t *testing.T) {
	fa := unreadable{fileaccess.NewMemory(map[string]string{"/w/src/b.html": "b"})}
	var buf bytes.Buffer
	e := NewEngine()
	e.Logger = log.New(&buf, "", 0)

	r, err := e.Analyze(context.Background(), "/w/src/a.html", `<!--#include file="b.html" -->`, settings, root, fa)
	require.NoError(t, err)
	assert.Empty(t, r.Findings)
	assert.Contains(t, buf.String(), "Failed to read /w/src/b.html")
}

// unreadable reports files as existing but refuses to read them.
type unreadable struct{ *fileaccess.Memory }

func (unreadable) ReadText(string) (string, error) { return "", fileaccess.ErrNotFound }

func TestEngine_ConcurrentWithCachedScanner(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/w/src/a.html": `<!--#include file="b.html" -->`,
		"/w/src/b.html": `<!--#include file="a.html" -->`,
	})
	cached, err := directive.NewCachedScanner(16)
	require.NoError(t, err)
	e := NewEngine()
	e.Scanner = cached

	var wg sync.WaitGroup
	reports := make([]*Report, 8)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i], _ = e.Analyze(context.Background(), "/w/src/a.html", `<!--#include file="b.html" -->`, settings, root, fa)
		}(i)
	}
	wg.Wait()

	for _, r := range reports {
		require.NotNil(t, r)
		assert.Equal(t, reports[0], r)
	}
	assert.Equal(t, 2, cached.Len())
}

func TestSummarize(t *testing.T) {
	reports := []*Report{
		{Findings: []Finding{newFinding(MissingInclude, directive.Span{}, "", ""), newFinding(UndefinedSlot, directive.Span{}, "", "")}},
		{Findings: []Finding{}},
		nil,
	}
	assert.Equal(t, Summary{Files: 2, Errors: 1, Warnings: 1}, Summarize(reports))
	assert.True(t, reports[0].HasErrors())
	assert.False(t, reports[1].HasErrors())
	assert.Equal(t, 1, reports[0].Count(UndefinedSlot))
}
