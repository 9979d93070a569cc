package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

// Placeholder kinds. A placeholder reads mark+kind+"_"+index+mark, where
// mark is chosen per conversion so it never occurs in the input.
const (
	kindCodeBlock  = "CODE_BLOCK"
	kindInlineCode = "INLINE_CODE"
	kindTag        = "TAG"

	placeholderMark = "\uE000"
)

type codeBlock struct {
	lang string
	code string
}

var (
	// A language tag only counts when the fence line ends right after it;
	// "```js x```" is a tagless block containing "js x".
	fencedCodeRe = regexp.MustCompile("(?s)```(?:([\\w+#.-]+)[ \\t]*\\n)?(.*?)```")
	inlineCodeRe = regexp.MustCompile("`([^`\\n]+)`")
)

// pickMark returns the shortest run of placeholderMark absent from text.
func pickMark(text string) string {
	mark := placeholderMark
	for strings.Contains(text, mark) {
		mark += placeholderMark
	}
	return mark
}

func (c *conversion) placeholder(kind string, n int) string {
	return c.mark + kind + "_" + strconv.Itoa(n) + c.mark
}

// extractCodeBlocks swaps every complete fenced block for a placeholder.
// An unterminated fence is left alone and renders literally until its
// closing backticks arrive.
func extractCodeBlocks(c *conversion) {
	c.text = fencedCodeRe.ReplaceAllStringFunc(c.text, func(m string) string {
		sub := fencedCodeRe.FindStringSubmatch(m)
		c.blocks = append(c.blocks, codeBlock{lang: sub[1], code: trimCode(sub[2])})
		return c.placeholder(kindCodeBlock, len(c.blocks)-1)
	})
}

// protectInlineCode does the same for single-backtick spans so that
// emphasis and link patterns cannot reach inside them.
func protectInlineCode(c *conversion) {
	c.text = inlineCodeRe.ReplaceAllStringFunc(c.text, func(m string) string {
		sub := inlineCodeRe.FindStringSubmatch(m)
		c.spans = append(c.spans, sub[1])
		return c.placeholder(kindInlineCode, len(c.spans)-1)
	})
}

// protectTag parks a finished HTML tag so emphasis never matches inside
// its attribute values.
func protectTag(c *conversion, tag string) string {
	c.tags = append(c.tags, tag)
	return c.placeholder(kindTag, len(c.tags)-1)
}

// restoreCode puts escaped code and parked tags back in place of every
// placeholder.
func restoreCode(c *conversion) {
	if len(c.blocks) == 0 && len(c.spans) == 0 && len(c.tags) == 0 {
		return
	}
	var b strings.Builder
	b.Grow(len(c.text))
	s := c.text
	for {
		i := strings.Index(s, c.mark)
		if i < 0 {
			break
		}
		rest := s[i+len(c.mark):]
		j := strings.Index(rest, c.mark)
		if j < 0 {
			break
		}
		html, ok := c.resolve(rest[:j])
		if !ok {
			b.WriteString(s[:i+len(c.mark)])
			s = rest
			continue
		}
		b.WriteString(s[:i])
		b.WriteString(html)
		s = rest[j+len(c.mark):]
	}
	b.WriteString(s)
	c.text = b.String()
}

// resolve maps a placeholder body such as "CODE_BLOCK_0" to its HTML.
func (c *conversion) resolve(body string) (string, bool) {
	sep := strings.LastIndexByte(body, '_')
	if sep < 0 {
		return "", false
	}
	n, err := strconv.Atoi(body[sep+1:])
	if err != nil || n < 0 {
		return "", false
	}
	switch body[:sep] {
	case kindCodeBlock:
		if n >= len(c.blocks) {
			return "", false
		}
		b := c.blocks[n]
		if b.lang != "" {
			return `<pre><code class="language-` + escapeAttr(b.lang) + `">` + escapeCode(b.code) + "</code></pre>", true
		}
		return "<pre><code>" + escapeCode(b.code) + "</code></pre>", true
	case kindInlineCode:
		if n >= len(c.spans) {
			return "", false
		}
		return "<code>" + escapeCode(c.spans[n]) + "</code>", true
	case kindTag:
		if n >= len(c.tags) {
			return "", false
		}
		return c.tags[n], true
	}
	return "", false
}

// trimCode drops the blank lines around a block and trailing whitespace,
// keeping the indentation of the first line.
func trimCode(code string) string {
	code = strings.TrimLeft(code, "\n")
	return strings.TrimRight(code, " \t\n")
}
