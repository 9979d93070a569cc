// Package markdown converts model output into HTML for display surfaces.
//
// Render is meant to be called again and again on a growing string while a
// response streams in. Each call is a complete, independent conversion: all
// parsing state (the code placeholder table and the list stack) lives on the
// call's stack, so calls never observe each other and the function is safe
// for concurrent use.
package markdown

import "strings"

// conversion is the transient state of a single Render call.
type conversion struct {
	text   string
	mark   string      // placeholder delimiter, absent from the input
	blocks []codeBlock // fenced blocks, indexed by placeholder number
	spans  []string    // inline code spans, indexed by placeholder number
	tags   []string    // finished <a> and <img> tags, indexed by placeholder number
}

// stage is one named step of the pipeline. Stages run in order and each one
// rewrites conversion.text in place.
type stage struct {
	name string
	run  func(c *conversion)
}

// pipeline is the ordered rewrite chain. The order is load-bearing:
//   - code extraction runs first so no later pattern ever sees code contents
//   - images run before links so "![x](y)" never leaves a stray "!"
//   - link and image tags are parked so emphasis never reaches their URLs
//   - "***" runs before bold, and bold before italic, so "*" remnants of
//     "**" are already consumed
//   - headings skip lines holding a code placeholder
//   - lists run after inline rewrites so item content is already formatted
//   - newlines are normalized last, after code is restored
var pipeline = []stage{
	{name: "extract-code-blocks", run: extractCodeBlocks},
	{name: "inline", run: rewriteInline},
	{name: "headings", run: rewriteHeadings},
	{name: "lists", run: rewriteLists},
	{name: "restore-code", run: restoreCode},
	{name: "line-breaks", run: normalizeNewlines},
}

// StageOutput is the text as it stood after a pipeline stage.
type StageOutput struct {
	Stage  string
	Output string
}

// Render converts markdown-flavored text to HTML. Empty input yields "".
// Unmatched or incomplete markup is passed through literally, so a prefix of
// a streaming response always renders.
func Render(text string) string {
	if text == "" {
		return ""
	}
	c := newConversion(text)
	for _, st := range pipeline {
		st.run(c)
	}
	return c.text
}

// RenderTrace runs the same pipeline as Render and records the output of
// every stage.
func RenderTrace(text string) []StageOutput {
	c := newConversion(text)
	out := make([]StageOutput, 0, len(pipeline))
	for _, st := range pipeline {
		st.run(c)
		out = append(out, StageOutput{Stage: st.name, Output: c.text})
	}
	return out
}

// Stages returns the pipeline stage names in execution order.
func Stages() []string {
	names := make([]string, len(pipeline))
	for i, st := range pipeline {
		names[i] = st.name
	}
	return names
}

func newConversion(text string) *conversion {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return &conversion{text: text, mark: pickMark(text)}
}

// escapeCode escapes the three characters that matter inside <code>.
// Ampersand goes first so the other entities are not double-escaped.
func escapeCode(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}

// escapeAttr keeps attribute values from breaking out of their quotes.
func escapeAttr(s string) string {
	return strings.ReplaceAll(s, `"`, "&quot;")
}
