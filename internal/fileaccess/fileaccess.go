package fileaccess

import (
	"errors"
	"sort"
)

// ErrNotFound is returned by ReadText when a file cannot be read.
var ErrNotFound = errors.New("fileaccess: not found")

// FileAccess is the read-only view of the file system the engine works against.
// Exists reports regular files only. Any I/O failure counts as "does not exist".
type FileAccess interface {
	Exists(path string) bool
	ReadText(path string) (string, error)
}

// DirChecker is implemented by backends that can tell directories apart.
type DirChecker interface {
	IsDir(path string) bool
}

// Entry is one directory listing entry.
type Entry struct {
	Name  string
	IsDir bool
}

// Lister is implemented by backends that can list directories.
type Lister interface {
	List(dir string) ([]Entry, error)
}

// IsDir reports whether path is a directory, false when fa cannot tell.
func IsDir(fa FileAccess, path string) bool {
	if dc, ok := fa.(DirChecker); ok {
		return dc.IsDir(path)
	}
	return false
}

// List returns the entries of dir sorted by name. Backends without listing
// support yield nothing.
func List(fa FileAccess, dir string) []Entry {
	l, ok := fa.(Lister)
	if !ok {
		return nil
	}
	entries, err := l.List(dir)
	if err != nil {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
