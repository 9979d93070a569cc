package markdown

import "strings"

// Tags that impose their own layout, spelled exactly as the pipeline emits
// them so literal text such as "<line" or "<presto" is not mistaken for
// one. A newline before an opener or after a closer is dropped instead of
// becoming <br>. Links and images count as openers.
var (
	blockOpeners = []string{
		"<ul>", "<ol>", "<li>", "</ul>", "</ol>", "</li>",
		"<h1>", "<h2>", "<h3>", "<h4>", "<h5>", "<h6>",
		"</h1>", "</h2>", "</h3>", "</h4>", "</h5>", "</h6>",
		preOpen, "</pre>", "<hr>",
		`<a href="`, `<img src="`,
	}
	blockClosers = []string{
		"</ul>", "</ol>", "</li>", "<ul>", "<ol>",
		"</h1>", "</h2>", "</h3>", "</h4>", "</h5>", "</h6>",
		"</pre>", "<hr>",
	}
)

const preOpen = "<pre><code"

// normalizeNewlines turns the remaining newlines into <br>, except those
// adjacent to block tags. Text inside <pre> is copied verbatim.
func normalizeNewlines(c *conversion) {
	s := c.text
	if !strings.Contains(s, "\n") {
		return
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		if s[i] == '<' && strings.HasPrefix(s[i:], preOpen) {
			end := strings.Index(s[i:], "</pre>")
			if end < 0 {
				b.WriteString(s[i:])
				break
			}
			end += i + len("</pre>")
			b.WriteString(s[i:end])
			i = end - 1
			continue
		}
		if s[i] != '\n' {
			b.WriteByte(s[i])
			continue
		}
		if hasAnyPrefix(s[i+1:], blockOpeners) || hasAnySuffix(s[:i], blockClosers) {
			continue
		}
		b.WriteString("<br>")
	}
	c.text = b.String()
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, p := range suffixes {
		if strings.HasSuffix(s, p) {
			return true
		}
	}
	return false
}
