package fileaccess

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Memory is an in-memory file tree keyed by cleaned absolute path.
type Memory struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewMemory creates a Memory holding files (path -> text).
func NewMemory(files map[string]string) *Memory {
	m := &Memory{files: make(map[string]string, len(files))}
	for p, text := range files {
		m.files[filepath.Clean(p)] = text
	}
	return m
}

// Set creates or replaces a file.
func (m *Memory) Set(path, text string) {
	m.mu.Lock()
	m.files[filepath.Clean(path)] = text
	m.mu.Unlock()
}

// Delete removes a file.
func (m *Memory) Delete(path string) {
	m.mu.Lock()
	delete(m.files, filepath.Clean(path))
	m.mu.Unlock()
}

func (m *Memory) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

func (m *Memory) ReadText(path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, ok := m.files[filepath.Clean(path)]
	if !ok {
		return "", ErrNotFound
	}
	return text, nil
}

func (m *Memory) IsDir(path string) bool {
	prefix := dirPrefix(path)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func (m *Memory) List(dir string) ([]Entry, error) {
	prefix := dirPrefix(dir)
	seen := map[string]bool{}
	var out []Entry
	m.mu.RLock()
	defer m.mu.RUnlock()
	for p := range m.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := p[len(prefix):]
		name, _, nested := strings.Cut(rest, string(os.PathSeparator))
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, Entry{Name: name, IsDir: nested})
	}
	return out, nil
}

func dirPrefix(dir string) string {
	clean := filepath.Clean(dir)
	if strings.HasSuffix(clean, string(os.PathSeparator)) {
		return clean
	}
	return clean + string(os.PathSeparator)
}
