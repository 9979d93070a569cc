// Package display holds the surfaces a tutor flow streams into: in-memory
// recorders, HTML writers, the terminal and callback adapters.
package display

// Surface receives the progress of one flow. Update is called with the
// full re-rendered HTML after every chunk, so an implementation replaces
// what it showed before rather than appending.
type Surface interface {
	Status(msg string)
	Update(html string)
	Done(html, plain string)
	Fail(msg string)
}

// MarkdownSurface is implemented by surfaces that render the markdown
// source themselves instead of showing the HTML.
type MarkdownSurface interface {
	Surface
	UpdateMarkdown(md string)
	DoneMarkdown(md, plain string)
}

// Update sends one frame to s, preferring the markdown source when s can
// render it.
func Update(s Surface, md, html string) {
	if m, ok := s.(MarkdownSurface); ok {
		m.UpdateMarkdown(md)
		return
	}
	s.Update(html)
}

// Done sends the final frame to s.
func Done(s Surface, md, html, plain string) {
	if m, ok := s.(MarkdownSurface); ok {
		m.DoneMarkdown(md, plain)
		return
	}
	s.Done(html, plain)
}

// Discard is a Surface that ignores everything.
var Discard Surface = Func{}

// Func adapts callbacks to a Surface. Nil callbacks are skipped.
type Func struct {
	OnStatus func(msg string)
	OnUpdate func(html string)
	OnDone   func(html, plain string)
	OnFail   func(msg string)
}

func (f Func) Status(msg string) {
	if f.OnStatus != nil {
		f.OnStatus(msg)
	}
}

func (f Func) Update(html string) {
	if f.OnUpdate != nil {
		f.OnUpdate(html)
	}
}

func (f Func) Done(html, plain string) {
	if f.OnDone != nil {
		f.OnDone(html, plain)
	}
}

func (f Func) Fail(msg string) {
	if f.OnFail != nil {
		f.OnFail(msg)
	}
}
