package markdown

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// PlainText flattens rendered HTML into the text a reader sees, the way a
// browser's innerText would: line breaks and block tags become newlines,
// list items get a bullet or their number, entities are decoded.
func PlainText(src string) string {
	if src == "" {
		return ""
	}
	z := html.NewTokenizer(strings.NewReader(src))

	var buf bytes.Buffer
	type listState struct {
		ordered bool
		counter int
	}
	var lists []listState

	lineStart := func() {
		if n := buf.Len(); n > 0 && buf.Bytes()[n-1] != '\n' {
			buf.WriteByte('\n')
		}
	}

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tok := z.Token()

		switch tt {
		case html.TextToken:
			buf.WriteString(tok.Data)

		case html.StartTagToken, html.SelfClosingTagToken:
			switch tok.Data {
			case "br":
				buf.WriteByte('\n')
			case "hr", "pre", "h1", "h2", "h3", "h4", "h5", "h6", "p":
				lineStart()
			case "ul":
				lists = append(lists, listState{})
			case "ol":
				lists = append(lists, listState{ordered: true})
			case "li":
				lineStart()
				if len(lists) == 0 {
					buf.WriteString("• ")
					break
				}
				buf.WriteString(strings.Repeat("  ", len(lists)-1))
				top := &lists[len(lists)-1]
				if top.ordered {
					top.counter++
					buf.WriteString(strconv.Itoa(top.counter) + ". ")
				} else {
					buf.WriteString("• ")
				}
			}

		case html.EndTagToken:
			switch tok.Data {
			case "ul", "ol":
				if len(lists) > 0 {
					lists = lists[:len(lists)-1]
				}
				lineStart()
			case "pre", "h1", "h2", "h3", "h4", "h5", "h6", "p":
				buf.WriteByte('\n')
			}
		}
	}

	result := strings.TrimSpace(buf.String())
	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}
	return result
}
