package fileaccess

// Overlay layers unsaved editor buffers over a base FileAccess. Open buffers
// win over the base for reads and existence checks.
type Overlay struct {
	base    FileAccess
	buffers *Memory
}

func NewOverlay(base FileAccess) *Overlay {
	return &Overlay{base: base, buffers: NewMemory(nil)}
}

// Open records the current text of an open document.
func (o *Overlay) Open(path, text string) {
	o.buffers.Set(path, text)
}

// Close drops the buffer; reads fall back to the base.
func (o *Overlay) Close(path string) {
	o.buffers.Delete(path)
}

func (o *Overlay) Exists(path string) bool {
	return o.buffers.Exists(path) || o.base.Exists(path)
}

func (o *Overlay) ReadText(path string) (string, error) {
	if text, err := o.buffers.ReadText(path); err == nil {
		return text, nil
	}
	return o.base.ReadText(path)
}

func (o *Overlay) IsDir(path string) bool {
	return o.buffers.IsDir(path) || IsDir(o.base, path)
}

func (o *Overlay) List(dir string) ([]Entry, error) {
	merged := map[string]Entry{}
	for _, e := range List(o.base, dir) {
		merged[e.Name] = e
	}
	buffered, _ := o.buffers.List(dir)
	for _, e := range buffered {
		if _, ok := merged[e.Name]; !ok {
			merged[e.Name] = e
		}
	}
	out := make([]Entry, 0, len(merged))
	for _, e := range merged {
		out = append(out, e)
	}
	return out, nil
}
