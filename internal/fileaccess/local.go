package fileaccess

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Local reads the OS file system, refusing anything that resolves outside root.
type Local struct {
	absRoot string // absolute root with symlinks resolved
}

// NewLocal locks all operations to root. The root is resolved to an absolute,
// symlink-free directory.
func NewLocal(root string) (*Local, error) {
	if root == "" {
		return nil, errors.New("fileaccess: empty root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("fileaccess: root is not a directory")
	}
	return &Local{absRoot: abs}, nil
}

// Root returns the absolute root bound to this Local.
func (l *Local) Root() string {
	return l.absRoot
}

func (l *Local) Exists(path string) bool {
	info, err := l.stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (l *Local) IsDir(path string) bool {
	info, err := l.stat(path)
	return err == nil && info.IsDir()
}

func (l *Local) ReadText(path string) (string, error) {
	p, err := l.resolve(path)
	if err != nil {
		return "", ErrNotFound
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", ErrNotFound
	}
	return string(data), nil
}

func (l *Local) List(dir string) ([]Entry, error) {
	p, err := l.resolve(dir)
	if err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(p)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(dirEntries))
	for _, e := range dirEntries {
		out = append(out, Entry{Name: e.Name(), IsDir: e.IsDir()})
	}
	return out, nil
}

func (l *Local) stat(path string) (os.FileInfo, error) {
	p, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

func (l *Local) resolve(path string) (string, error) {
	if path == "" {
		return "", errors.New("fileaccess: empty path")
	}
	clean := filepath.Clean(path)
	if !filepath.IsAbs(clean) {
		clean = filepath.Join(l.absRoot, clean)
	}
	resolved, err := filepath.EvalSymlinks(clean)
	if err != nil {
		return "", err
	}
	if !hasPathPrefix(resolved, l.absRoot) {
		return "", errors.New("fileaccess: path resolves outside root")
	}
	return resolved, nil
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path, root)
}
