package tutor

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/pagetutor/pagetutor/internal/display"
	"github.com/pagetutor/pagetutor/internal/llm"
)

// Summary formats.
const (
	SummaryKeyPoints = "key-points"
	SummaryTLDR      = "tl;dr"
	SummaryTeaser    = "teaser"
	SummaryHeadline  = "headline"
)

// Summary lengths.
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

const summarizerPrompt = "You are a summarizer. You condense web page text for a student. " +
	"Use only facts stated in the text and write in the language of the text."

// SummaryTypes lists the accepted summary formats.
func SummaryTypes() []string {
	return []string{SummaryKeyPoints, SummaryTLDR, SummaryTeaser, SummaryHeadline}
}

// SummaryLengths lists the accepted summary lengths.
func SummaryLengths() []string {
	return []string{LengthShort, LengthMedium, LengthLong}
}

// summaryShape maps a length to the size of each format.
var summaryShape = map[string]map[string]int{
	SummaryKeyPoints: {LengthShort: 3, LengthMedium: 5, LengthLong: 7},
	SummaryTLDR:      {LengthShort: 1, LengthMedium: 3, LengthLong: 5},
	SummaryTeaser:    {LengthShort: 1, LengthMedium: 3, LengthLong: 5},
	SummaryHeadline:  {LengthShort: 12, LengthMedium: 17, LengthLong: 22},
}

// summaryInstruction describes the wanted output for a format and length.
func summaryInstruction(kind, length string) (string, error) {
	if !slices.Contains(SummaryTypes(), kind) {
		return "", fmt.Errorf("unknown summary type %q (want one of %s)", kind, strings.Join(SummaryTypes(), ", "))
	}
	n, ok := summaryShape[kind][length]
	if !ok {
		return "", fmt.Errorf("unknown summary length %q (want one of %s)", length, strings.Join(SummaryLengths(), ", "))
	}
	switch kind {
	case SummaryKeyPoints:
		return fmt.Sprintf("Summarize the text as a markdown bullet list of the %d most important key points. Each bullet starts with \"- \".", n), nil
	case SummaryTLDR:
		return fmt.Sprintf("Write a short and to the point summary of the text in %s.", sentences(n)), nil
	case SummaryTeaser:
		return fmt.Sprintf("Write an intriguing teaser of %s that makes the reader want to read the full text.", sentences(n)), nil
	default:
		return fmt.Sprintf("Write a single headline of at most %d words that captures the main point of the text. Reply with the headline only.", n), nil
	}
}

func sentences(n int) string {
	if n == 1 {
		return "a single sentence"
	}
	return fmt.Sprintf("%d sentences", n)
}

// SummarizeOptions override the configured summary format for one call.
type SummarizeOptions struct {
	Type   string
	Length string
}

// Summarize streams a summary of page text. Empty fields in opts use the
// configured defaults.
func (t *Tutor) Summarize(ctx context.Context, pageText string, opts SummarizeOptions, s display.Surface) (Result, error) {
	if strings.TrimSpace(pageText) == "" {
		s.Fail(FailSummarize)
		return Result{}, ErrEmptyInput
	}
	if opts.Type == "" {
		opts.Type = t.opts.Summarize.Type
	}
	if opts.Length == "" {
		opts.Length = t.opts.Summarize.Length
	}
	instruction, err := summaryInstruction(opts.Type, opts.Length)
	if err != nil {
		return Result{}, err
	}
	prompt := instruction + "\n\nText:\n\n" + strings.TrimSpace(pageText)
	req := t.request(summarizerPrompt, llm.UserText(prompt))
	return t.oneShot(ctx, "summarize", "Summarizing...",
		FailSummarize, req, s)
}
