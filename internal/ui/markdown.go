package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// renderers holds one glamour renderer per wrap width. Building one parses
// the whole style sheet, which is too slow to repeat for every chunk.
var renderers sync.Map // map[int]*glamour.TermRenderer

func termRenderer(width int) (*glamour.TermRenderer, error) {
	if r, ok := renderers.Load(width); ok {
		return r.(*glamour.TermRenderer), nil
	}

	style := GlamourStyle()
	margin := uint(0)
	style.Document.Margin = &margin
	style.Document.BlockPrefix = ""
	style.Document.BlockSuffix = ""

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	actual, _ := renderers.LoadOrStore(width, r)
	return actual.(*glamour.TermRenderer), nil
}

// RenderMarkdown renders a possibly unfinished answer for the terminal.
// On error it returns the content unchanged.
func RenderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	rendered, err := RenderMarkdownWithError(content, width)
	if err != nil {
		return content
	}
	return rendered
}

// RenderMarkdownWithError is RenderMarkdown with the glamour error exposed.
func RenderMarkdownWithError(content string, width int) (string, error) {
	r, err := termRenderer(width)
	if err != nil {
		return "", err
	}
	rendered, err := r.Render(closeOpenFence(content))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(rendered), nil
}

// closeOpenFence terminates a code fence the stream has not closed yet, so
// the partial block shows as code instead of flickering between shapes.
func closeOpenFence(content string) string {
	open := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			open = !open
		}
	}
	if !open {
		return content
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "```"
}
