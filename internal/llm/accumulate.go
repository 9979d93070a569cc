package llm

import "strings"

// Accumulator folds streamed text events into the response so far. Delta
// events append; snapshot events carry the whole text and replace it.
type Accumulator struct {
	b strings.Builder
}

// Apply folds ev into the text and reports whether the text changed.
func (a *Accumulator) Apply(ev Event) bool {
	switch ev.Type {
	case EventTextDelta:
		if ev.Text == "" {
			return false
		}
		a.b.WriteString(ev.Text)
		return true
	case EventTextSnapshot:
		text := strings.TrimSpace(ev.Text)
		if text == a.b.String() {
			return false
		}
		a.b.Reset()
		a.b.WriteString(text)
		return true
	}
	return false
}

// Text returns the accumulated text.
func (a *Accumulator) Text() string {
	return a.b.String()
}

// Reset clears the accumulated text.
func (a *Accumulator) Reset() {
	a.b.Reset()
}
