package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/pagetutor/pagetutor/internal/display"
	"github.com/pagetutor/pagetutor/internal/llm"
)

// Simplification levels.
const (
	LevelBasic     = "basic"
	LevelTechnical = "technical"
)

var levelPrompts = map[string]string{
	LevelBasic:     "Simplify in very basic language",
	LevelTechnical: "Explain technically in very technical and professional language",
}

// SimplifyPrompt builds the prompt for a level.
func SimplifyPrompt(level, text string) (string, error) {
	p, ok := levelPrompts[level]
	if !ok {
		return "", fmt.Errorf("unknown simplification level %q (want %s or %s)", level, LevelBasic, LevelTechnical)
	}
	return p + ", the given text:\n\n" + text, nil
}

// Simplify rewrites text at the given level.
func (t *Tutor) Simplify(ctx context.Context, text, level string, s display.Surface) (Result, error) {
	if strings.TrimSpace(text) == "" {
		s.Fail(FailSimplify)
		return Result{}, ErrEmptyInput
	}
	prompt, err := SimplifyPrompt(level, text)
	if err != nil {
		return Result{}, err
	}
	req := t.request(t.opts.SystemPrompt, llm.UserText(prompt))
	return t.oneShot(ctx, "simplify", "Simplifying...", FailSimplify, req, s)
}
