package resolver

import (
	"path/filepath"
	"sync"
	"testing"

	"ssilint/internal/directive"
	"ssilint/internal/fileaccess"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "/work"

func settings() Settings {
	return Settings{SourceDirectory: "src", CandidateExtensions: []string{".html", ".md"}}
}

func TestResolve_Rooted(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/work/src/inc/header.html": "h",
	})
	ref := directive.Reference{Kind: directive.Rooted, Path: "/inc/header"}

	loc := Resolve(ref, "/work/src/pages/a.html", settings(), root, fa)

	assert.Equal(t, []string{
		"/work/src/inc/header",
		"/work/src/inc/header.html",
		"/work/src/inc/header.md",
	}, loc.Candidates)
	assert.True(t, loc.Exists)
	assert.Equal(t, "/work/src/inc/header.html", loc.ExistingPath)
	assert.Equal(t, ref, loc.Reference)
}

func TestResolve_Relative(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/work/src/pages/part.html": "p",
	})
	ref := directive.Reference{Kind: directive.Relative, Path: "part.html"}

	loc := Resolve(ref, "/work/src/pages/a.html", settings(), root, fa)

	require.NotEmpty(t, loc.Candidates)
	assert.Equal(t, "/work/src/pages/part.html", loc.Candidates[0])
	assert.Equal(t, "/work/src/pages/part.html", loc.ExistingPath, "raw path wins when it exists verbatim")
}

func TestResolve_Missing(t *testing.T) {
	fa := fileaccess.NewMemory(nil)
	ref := directive.Reference{Kind: directive.Relative, Path: "../nope"}

	loc := Resolve(ref, "/work/src/pages/a.html", settings(), root, fa)

	assert.False(t, loc.Exists)
	assert.Empty(t, loc.ExistingPath)
	assert.Len(t, loc.Candidates, 3)
	assert.Equal(t, "/work/src/nope", loc.Candidates[0])
}

func TestResolve_ExtensionOrder(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"/work/src/a.html": "html",
		"/work/src/a.md":   "md",
	})
	ref := directive.Reference{Kind: directive.Rooted, Path: "a"}

	loc := Resolve(ref, "/work/src/index.html", settings(), root, fa)
	assert.Equal(t, ".html", filepath.Ext(loc.ExistingPath))

	reversed := settings()
	reversed.CandidateExtensions = []string{".md", ".html"}
	loc = Resolve(ref, "/work/src/index.html", reversed, root, fa)
	assert.Equal(t, ".md", filepath.Ext(loc.ExistingPath))
}

func TestResolve_Concurrent(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{"/work/src/x.html": "x"})
	var wg sync.WaitGroup
	results := make([]Location, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Resolve(directive.Reference{Kind: directive.Rooted, Path: "x"}, "/work/src/i.html", settings(), root, fa)
		}(i)
	}
	wg.Wait()
	for _, loc := range results {
		assert.Equal(t, "/work/src/x.html", loc.ExistingPath)
	}
}

func TestSettings_Normalized(t *testing.T) {
	s := Settings{CandidateExtensions: []string{"html", " .md ", ""}}.Normalized()
	assert.Equal(t, ".", s.SourceDirectory)
	assert.Equal(t, []string{".html", ".md"}, s.CandidateExtensions)

	defaults := Settings{}.Normalized()
	assert.Equal(t, DefaultExtensions, defaults.CandidateExtensions)

	empty := Settings{CandidateExtensions: []string{}}.Normalized()
	assert.Empty(t, empty.CandidateExtensions)

	assert.True(t, s.HasCandidateExtension("Page.HTML"))
	assert.False(t, s.HasCandidateExtension("style.css"))
}
