package markdown

import "regexp"

var (
	imageRe = regexp.MustCompile(`!\[([^\]\n]*)\]\(([^)\s]*)\)`)
	linkRe  = regexp.MustCompile(`\[([^\]\n]*)\]\(([^)\s]*)\)`)
	// Emphasis content never starts or ends with "*", so leftover asterisks
	// cannot pair across tags.
	boldItalicRe = regexp.MustCompile(`\*\*\*([^*\s](?:[^\n]*?[^*\s])?)\*\*\*`)
	boldRe       = regexp.MustCompile(`\*\*([^*\n](?:[^\n]*?[^*\n])?)\*\*`)
	// Single asterisks only, non-greedy, and never opening on "* " so that
	// list markers and stray multiplication signs stay literal.
	italicRe = regexp.MustCompile(`\*([^*\s](?:[^*\n]*?[^*\s])?)\*`)
	ruleRe   = regexp.MustCompile(`(?m)^-{3,}[ \t]*$`)
)

// rewriteInline applies the span-level rewrites in a fixed order.
func rewriteInline(c *conversion) {
	protectInlineCode(c)
	c.text = imageRe.ReplaceAllStringFunc(c.text, func(m string) string {
		sub := imageRe.FindStringSubmatch(m)
		return protectTag(c, `<img src="`+escapeAttr(sub[2])+`" alt="`+escapeAttr(sub[1])+`">`)
	})
	c.text = linkRe.ReplaceAllStringFunc(c.text, func(m string) string {
		sub := linkRe.FindStringSubmatch(m)
		open := protectTag(c, `<a href="`+escapeAttr(sub[2])+`" target="_blank" rel="noopener noreferrer">`)
		return open + sub[1] + "</a>"
	})
	c.text = boldItalicRe.ReplaceAllString(c.text, "<strong><em>$1</em></strong>")
	c.text = boldRe.ReplaceAllString(c.text, "<strong>$1</strong>")
	c.text = italicRe.ReplaceAllString(c.text, "<em>$1</em>")
	c.text = ruleRe.ReplaceAllString(c.text, "<hr>")
}
