package directive

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	includeMarker     = "<!--#include"
	reservedPathChars = "<>|*?"
)

var (
	reAttr          = regexp.MustCompile(`([A-Za-z_][\w:.-]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	reTemplateOpen  = regexp.MustCompile(`(?i)<template[\s>/]`)
	reTemplateClose = regexp.MustCompile(`(?i)</template\s*>`)
	reSlotOpen      = regexp.MustCompile(`(?i)<slot[\s>/]`)
)

type scanner struct {
	text     string
	lines    *lineIndex
	comments [][2]int // plain HTML comments; tags inside them are ignored
	out      *Result

	// firstExtends is the raw value of the first extends= seen, malformed
	// or not. Only that one counts.
	firstExtends *string
}

// Scan extracts include directives, template extends declarations and slot
// declarations/usages from text. It never fails: anything it cannot accept
// becomes a Problem.
func Scan(text string) *Result {
	s := &scanner{
		text:     text,
		lines:    newLineIndex(text),
		comments: plainComments(text),
		out:      &Result{},
	}
	s.scanIncludes()
	s.scanTemplates()
	s.scanSlots()
	sort.SliceStable(s.out.Problems, func(i, j int) bool {
		return s.out.Problems[i].Span.Before(s.out.Problems[j].Span)
	})
	return s.out
}

func (s *scanner) problem(kind ProblemKind, start, end int, detail string) {
	s.out.Problems = append(s.out.Problems, Problem{
		Kind:   kind,
		Span:   s.lines.span(start, end),
		Detail: detail,
	})
}

func (s *scanner) scanIncludes() {
	cur := 0
	for cur < len(s.text) {
		rel := strings.Index(s.text[cur:], includeMarker)
		if rel == -1 {
			return
		}
		start := cur + rel
		bodyStart := start + len(includeMarker)

		closeRel := strings.Index(s.text[bodyStart:], "-->")
		// A later comment opening before our --> means this directive never closed.
		if closeRel == -1 || strings.Contains(s.text[bodyStart:bodyStart+closeRel], "<!--") {
			s.problem(ProblemMalformed, start, lineEnd(s.text, start), "include directive is missing its closing -->")
			cur = bodyStart
			continue
		}
		end := bodyStart + closeRel + len("-->")
		s.include(start, end, s.text[bodyStart:bodyStart+closeRel])
		cur = end
	}
}

func (s *scanner) include(start, end int, body string) {
	name, value, ok := firstAttr(body)
	if !ok {
		s.problem(ProblemMalformed, start, end, `include directive has no attribute; expected virtual="..." or file="..."`)
		return
	}

	var kind Kind
	switch name {
	case "virtual":
		kind = Rooted
	case "file":
		kind = Relative
	default:
		s.problem(ProblemMalformed, start, end, fmt.Sprintf("unsupported include attribute %q; expected virtual= or file=", name))
		return
	}

	if reason := checkPath(value); reason != "" {
		s.problem(ProblemMalformed, start, end, fmt.Sprintf("include path %q %s", value, reason))
		return
	}

	s.out.Includes = append(s.out.Includes, Include{
		Attribute: name,
		Ref: Reference{
			Kind: kind,
			Path: strings.TrimSpace(value),
			Span: s.lines.span(start, end),
		},
	})
}

type openTag struct {
	start, end  int
	selfClosing bool
}

func (s *scanner) scanTemplates() {
	var opens []openTag
	for _, loc := range reTemplateOpen.FindAllStringIndex(s.text, -1) {
		start := loc[0]
		if s.inComment(start) {
			continue
		}
		end, ok := tagEnd(s.text, start+len("<template"))
		if !ok {
			s.problem(ProblemMalformed, start, lineEnd(s.text, start), "<template> opening tag is not terminated with >")
			continue
		}
		tag := s.text[start:end]
		opens = append(opens, openTag{start: start, end: end, selfClosing: strings.HasSuffix(tag, "/>")})
		s.templateAttrs(start, end, tag[len("<template"):])
	}

	var closes [][]int
	for _, loc := range reTemplateClose.FindAllStringIndex(s.text, -1) {
		if !s.inComment(loc[0]) {
			closes = append(closes, loc)
		}
	}

	// Pair openings with closings in document order; stray closings are ignored.
	var stack []openTag
	i, j := 0, 0
	for i < len(opens) || j < len(closes) {
		if j >= len(closes) || (i < len(opens) && opens[i].start < closes[j][0]) {
			if !opens[i].selfClosing {
				stack = append(stack, opens[i])
			}
			i++
			continue
		}
		if len(stack) > 0 {
			stack = stack[:len(stack)-1]
		}
		j++
	}
	for _, o := range stack {
		s.problem(ProblemMalformed, o.start, o.end, "<template> is never closed; expected </template>")
	}
}

func (s *scanner) templateAttrs(start, end int, attrs string) {
	for _, a := range allAttrs(attrs) {
		switch a.name {
		case "extends":
			if s.firstExtends != nil {
				s.problem(ProblemRedundantExtends, start, end,
					fmt.Sprintf("document already extends %q; extends=%q is ignored", *s.firstExtends, a.value))
				continue
			}
			raw := strings.TrimSpace(a.value)
			s.firstExtends = &raw
			if reason := checkPath(a.value); reason != "" {
				s.problem(ProblemMalformed, start, end, fmt.Sprintf("extends path %q %s", a.value, reason))
				continue
			}
			s.out.Extends = &Extends{Ref: Reference{
				Kind: Rooted,
				Path: strings.TrimSpace(a.value),
				Span: s.lines.span(start, end),
			}}
		case "slot":
			name := strings.TrimSpace(a.value)
			if name == "" {
				s.problem(ProblemMalformed, start, end, "template slot name is empty")
				continue
			}
			s.out.SlotUses = append(s.out.SlotUses, SlotUsage{Name: name, Span: s.lines.span(start, end)})
		}
	}
}

func (s *scanner) scanSlots() {
	for _, loc := range reSlotOpen.FindAllStringIndex(s.text, -1) {
		start := loc[0]
		if s.inComment(start) {
			continue
		}
		end, ok := tagEnd(s.text, start+len("<slot"))
		if !ok {
			s.problem(ProblemMalformed, start, lineEnd(s.text, start), "<slot> opening tag is not terminated with >")
			continue
		}
		for _, a := range allAttrs(s.text[start+len("<slot") : end]) {
			if a.name != "name" {
				continue
			}
			if name := strings.TrimSpace(a.value); name != "" {
				s.out.Slots = append(s.out.Slots, SlotDeclaration{Name: name, Span: s.lines.span(start, end)})
			}
			break
		}
	}
}

func (s *scanner) inComment(offset int) bool {
	i := sort.Search(len(s.comments), func(k int) bool { return s.comments[k][1] > offset })
	return i < len(s.comments) && s.comments[i][0] <= offset
}

// plainComments returns [start, end) ranges of ordinary <!-- --> comments.
// Server-side directives (<!--#...) are not comments for this purpose.
func plainComments(text string) [][2]int {
	var out [][2]int
	cur := 0
	for cur < len(text) {
		rel := strings.Index(text[cur:], "<!--")
		if rel == -1 {
			break
		}
		start := cur + rel
		if strings.HasPrefix(text[start+4:], "#") {
			cur = start + 4
			continue
		}
		closeRel := strings.Index(text[start+4:], "-->")
		if closeRel == -1 {
			out = append(out, [2]int{start, len(text)})
			break
		}
		end := start + 4 + closeRel + 3
		out = append(out, [2]int{start, end})
		cur = end
	}
	return out
}

// tagEnd finds the > closing a start tag, skipping quoted attribute values.
// A bare < before the > means the tag was left open.
func tagEnd(text string, from int) (int, bool) {
	var quote byte
	for i := from; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i + 1, true
		case c == '<':
			return 0, false
		}
	}
	return 0, false
}

type attr struct {
	name  string
	value string
}

func allAttrs(s string) []attr {
	var out []attr
	for _, m := range reAttr.FindAllStringSubmatchIndex(s, -1) {
		out = append(out, attrFromMatch(s, m))
	}
	return out
}

func firstAttr(s string) (name, value string, ok bool) {
	m := reAttr.FindStringSubmatchIndex(s)
	if m == nil {
		return "", "", false
	}
	a := attrFromMatch(s, m)
	return a.name, a.value, true
}

func attrFromMatch(s string, m []int) attr {
	a := attr{name: strings.ToLower(s[m[2]:m[3]])}
	if m[4] >= 0 {
		a.value = s[m[4]:m[5]]
	} else {
		a.value = s[m[6]:m[7]]
	}
	return a
}

func checkPath(p string) string {
	if strings.TrimSpace(p) == "" {
		return "is empty"
	}
	if i := strings.IndexAny(p, reservedPathChars); i >= 0 {
		return fmt.Sprintf("contains reserved character %q", p[i])
	}
	return ""
}
