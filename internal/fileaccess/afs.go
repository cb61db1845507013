package fileaccess

import (
	"context"
	"path"
	"strings"

	"github.com/viant/afs"
)

// AFS adapts an afs.Service, so documents can live on any afs-supported
// storage (local disk, mem://, object stores).
type AFS struct {
	fs  afs.Service
	ctx context.Context
}

// NewAFS wraps service; a nil service defaults to afs.New().
func NewAFS(service afs.Service) *AFS {
	if service == nil {
		service = afs.New()
	}
	return &AFS{fs: service, ctx: context.Background()}
}

// WithContext returns a copy whose storage calls use ctx.
func (a *AFS) WithContext(ctx context.Context) *AFS {
	out := *a
	out.ctx = ctx
	return &out
}

func (a *AFS) Exists(location string) bool {
	obj, err := a.fs.Object(a.ctx, location)
	return err == nil && obj != nil && !obj.IsDir()
}

func (a *AFS) IsDir(location string) bool {
	obj, err := a.fs.Object(a.ctx, location)
	return err == nil && obj != nil && obj.IsDir()
}

func (a *AFS) ReadText(location string) (string, error) {
	data, err := a.fs.DownloadWithURL(a.ctx, location)
	if err != nil {
		return "", ErrNotFound
	}
	return string(data), nil
}

func (a *AFS) List(dir string) ([]Entry, error) {
	objects, err := a.fs.List(a.ctx, dir)
	if err != nil {
		return nil, err
	}
	self := path.Base(strings.TrimRight(dir, "/"))
	out := make([]Entry, 0, len(objects))
	for i, obj := range objects {
		// afs lists the directory itself first
		if i == 0 && obj.IsDir() && obj.Name() == self {
			continue
		}
		out = append(out, Entry{Name: obj.Name(), IsDir: obj.IsDir()})
	}
	return out, nil
}
