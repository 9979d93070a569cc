package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Engine names accepted by NewEngine and the render.engine config key.
const (
	EngineStream     = "stream"
	EngineCommonMark = "commonmark"
)

// Engine renders markdown to HTML.
type Engine func(text string) string

// commonMark is a shared goldmark instance for strict CommonMark + GFM output.
var commonMark = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// CommonMark renders text with a full CommonMark parser. Unlike Render it
// escapes raw HTML, but it is not prefix-stable: an unterminated construct
// can change the shape of everything before it.
func CommonMark(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := commonMark.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// NewEngine returns the engine with the given name. An empty name selects
// the streaming renderer.
func NewEngine(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EngineStream:
		return Render, nil
	case EngineCommonMark:
		return func(text string) string {
			out, err := CommonMark(text)
			if err != nil {
				return Render(text)
			}
			return out
		}, nil
	default:
		return nil, fmt.Errorf("unknown render engine %q (want %s or %s)", name, EngineStream, EngineCommonMark)
	}
}
