package display

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/pagetutor/pagetutor/internal/markdown"
	"github.com/pagetutor/pagetutor/internal/ui"
)

// Terminal shows a flow on a terminal. On a TTY the answer is rendered
// with glamour and redrawn in place as it grows; otherwise only the final
// plain text is printed, which keeps piped output clean.
type Terminal struct {
	out    io.Writer
	errOut io.Writer
	styles *ui.Styles
	width  int
	live   bool

	mu    sync.Mutex
	drawn int // lines occupied by the last frame
}

// NewTerminal builds a Terminal for f, detecting whether f is a TTY.
func NewTerminal(f *os.File) *Terminal {
	fd := int(f.Fd())
	width := 80
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		width = w
	}
	return &Terminal{
		out:    f,
		errOut: os.Stderr,
		styles: ui.NewStyles(f),
		width:  width,
		live:   term.IsTerminal(fd),
	}
}

// newTerminalWriter is a non-live Terminal over arbitrary writers.
func newTerminalWriter(out, errOut io.Writer, live bool) *Terminal {
	return &Terminal{out: out, errOut: errOut, styles: ui.DefaultStyles(), width: 80, live: live}
}

// Live reports whether frames are redrawn in place.
func (t *Terminal) Live() bool {
	return t.live
}

// Width is the wrap width used for rendering.
func (t *Terminal) Width() int {
	return t.width
}

// Styles exposes the styles so callers can match the surface's look.
func (t *Terminal) Styles() *ui.Styles {
	return t.styles
}

func (t *Terminal) Status(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.live {
		return
	}
	t.redraw(t.styles.Status.Render(msg))
}

// Update shows an HTML frame as plain text. Flows normally reach the
// markdown path through display.Update instead.
func (t *Terminal) Update(html string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.live {
		return
	}
	t.redraw(markdown.PlainText(html))
}

func (t *Terminal) UpdateMarkdown(md string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.live {
		return
	}
	t.redraw(ui.RenderMarkdown(md, t.wrapWidth()))
}

func (t *Terminal) Done(_, plain string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.live {
		t.redraw(plain)
	} else {
		fmt.Fprintln(t.out, plain)
	}
	t.drawn = 0
}

func (t *Terminal) DoneMarkdown(md, plain string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.live {
		t.redraw(ui.RenderMarkdown(md, t.wrapWidth()))
	} else {
		fmt.Fprintln(t.out, plain)
	}
	t.drawn = 0
}

func (t *Terminal) Fail(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	line := t.styles.Error.Render(ui.FailIcon + " " + msg)
	if t.live {
		t.redraw(line)
		t.drawn = 0
		return
	}
	fmt.Fprintln(t.errOut, line)
}

// redraw replaces the previous frame with content. Callers hold t.mu.
func (t *Terminal) redraw(content string) {
	if t.drawn > 0 {
		// Cursor up over the old frame, then clear to end of screen.
		fmt.Fprintf(t.out, "\x1b[%dA\r\x1b[J", t.drawn)
	}
	fmt.Fprintln(t.out, content)
	t.drawn = lipgloss.Height(content)
}

func (t *Terminal) wrapWidth() int {
	if t.width > 4 {
		return t.width - 2
	}
	return t.width
}
