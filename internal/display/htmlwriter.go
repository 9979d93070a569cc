package display

import (
	"fmt"
	"html"
	"io"
)

// HTMLWriter writes rendered HTML to w. By default only the final document
// is written; with Frames every intermediate update is written too, one
// per line, which shows how a streamed answer grows.
type HTMLWriter struct {
	W      io.Writer
	Frames bool

	n int
}

func NewHTMLWriter(w io.Writer, frames bool) *HTMLWriter {
	return &HTMLWriter{W: w, Frames: frames}
}

func (h *HTMLWriter) Status(string) {}

func (h *HTMLWriter) Update(doc string) {
	if !h.Frames {
		return
	}
	h.n++
	fmt.Fprintf(h.W, "<!-- frame %d -->%s\n", h.n, doc)
}

func (h *HTMLWriter) Done(doc, _ string) {
	fmt.Fprintln(h.W, doc)
}

func (h *HTMLWriter) Fail(msg string) {
	fmt.Fprintf(h.W, "<p class=\"error\">%s</p>\n", html.EscapeString(msg))
}
