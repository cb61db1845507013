package directive

import "sort"

// lineIndex maps byte offsets to line/column positions.
type lineIndex struct {
	starts []int
}

func newLineIndex(text string) *lineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

func (li *lineIndex) position(offset int) (line, col int) {
	i := sort.Search(len(li.starts), func(k int) bool { return li.starts[k] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, offset - li.starts[i] + 1
}

func (li *lineIndex) span(start, end int) Span {
	sl, sc := li.position(start)
	el, ec := li.position(end)
	return Span{StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec}
}

// lineEnd returns the offset of the newline ending the line that holds offset,
// or len(text) on the last line.
func lineEnd(text string, offset int) int {
	for i := offset; i < len(text); i++ {
		if text[i] == '\n' {
			return i
		}
	}
	return len(text)
}
