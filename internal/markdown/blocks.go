package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	headingRe  = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.*)$`)
	listItemRe = regexp.MustCompile(`^([ \t]*)(\d+\.|[-*])[ \t]+(.*)$`)
)

// rewriteHeadings turns "#".."######" lines into h1..h6. A line carrying a
// code block placeholder is never a heading.
func rewriteHeadings(c *conversion) {
	c.text = headingRe.ReplaceAllStringFunc(c.text, func(m string) string {
		if strings.Contains(m, c.mark+kindCodeBlock) {
			return m
		}
		sub := headingRe.FindStringSubmatch(m)
		level := strconv.Itoa(len(sub[1]))
		return "<h" + level + ">" + strings.TrimRight(sub[2], " \t") + "</h" + level + ">"
	})
}

type listKind int

const (
	unordered listKind = iota
	ordered
)

func (k listKind) open() string {
	if k == ordered {
		return "<ol>"
	}
	return "<ul>"
}

func (k listKind) close() string {
	if k == ordered {
		return "</ol>"
	}
	return "</ul>"
}

// openList is one level of the nesting stack.
type openList struct {
	kind     listKind
	itemOpen bool
}

// listStack emits properly nested list markup. Items stay open until a
// sibling or an ancestor arrives so that a deeper list lands inside the
// item that precedes it.
type listStack struct {
	levels []openList
	out    strings.Builder
}

func (s *listStack) pop() {
	top := s.levels[len(s.levels)-1]
	if top.itemOpen {
		s.out.WriteString("</li>")
	}
	s.out.WriteString(top.kind.close())
	s.levels = s.levels[:len(s.levels)-1]
}

func (s *listStack) push(kind listKind) {
	if n := len(s.levels); n > 0 && !s.levels[n-1].itemOpen {
		// Jumping more than one level: give the skipped level an item to
		// hang the nested list on.
		s.out.WriteString("<li>")
		s.levels[n-1].itemOpen = true
	}
	s.out.WriteString(kind.open())
	s.levels = append(s.levels, openList{kind: kind})
}

// item writes one list item at the given depth.
func (s *listStack) item(depth int, kind listKind, content string) {
	for len(s.levels) > depth+1 {
		s.pop()
	}
	if len(s.levels) == depth+1 {
		top := &s.levels[len(s.levels)-1]
		if top.kind != kind {
			s.pop()
		} else if top.itemOpen {
			s.out.WriteString("</li>")
			top.itemOpen = false
		}
	}
	for len(s.levels) < depth+1 {
		s.push(kind)
	}
	s.out.WriteString("<li>")
	s.out.WriteString(content)
	s.levels[len(s.levels)-1].itemOpen = true
}

func (s *listStack) closeAll() {
	for len(s.levels) > 0 {
		s.pop()
	}
}

// flush returns what has been written since the last flush.
func (s *listStack) flush() string {
	out := s.out.String()
	s.out.Reset()
	return out
}

// rewriteLists converts marker lines into nested <ul>/<ol> markup. Depth is
// indentation width / 2, with a tab counting as two spaces. Any other line
// closes the lists that are open, and whatever is still open at the end of
// the input is closed too, so a half-streamed list is always balanced.
func rewriteLists(c *conversion) {
	if !strings.ContainsAny(c.text, "-*0123456789") {
		return
	}
	lines := strings.Split(c.text, "\n")
	var stack listStack
	for i, line := range lines {
		sub := listItemRe.FindStringSubmatch(line)
		if sub == nil {
			stack.closeAll()
			lines[i] = stack.flush() + line
			continue
		}
		kind := unordered
		if strings.HasSuffix(sub[2], ".") {
			kind = ordered
		}
		stack.item(indentWidth(sub[1])/2, kind, sub[3])
		lines[i] = stack.flush()
	}
	stack.closeAll()
	c.text = strings.Join(lines, "\n") + stack.flush()
}

func indentWidth(indent string) int {
	w := 0
	for _, r := range indent {
		if r == '\t' {
			w += 2
		} else {
			w++
		}
	}
	return w
}
