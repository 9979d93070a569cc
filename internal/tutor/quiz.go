package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/pagetutor/pagetutor/internal/display"
	"github.com/pagetutor/pagetutor/internal/llm"
)

// Quiz kinds.
const (
	QuizMultiChoice = "multiChoice"
	QuizFillBlank   = "fillBlank"
	QuizTrueFalse   = "trueFalse"
)

var quizNames = map[string]string{
	QuizMultiChoice: "multiple-choice",
	QuizFillBlank:   "fill-in-the-blank",
	QuizTrueFalse:   "true/false",
}

// QuizKinds lists the accepted quiz kinds.
func QuizKinds() []string {
	return []string{QuizMultiChoice, QuizFillBlank, QuizTrueFalse}
}

// QuizPrompt builds the prompt for a quiz kind. A non-empty topic grounds
// the quiz in that text.
func QuizPrompt(kind, topic string) (string, error) {
	name, ok := quizNames[kind]
	if !ok {
		return "", fmt.Errorf("unknown quiz type %q (want one of %s)", kind, strings.Join(QuizKinds(), ", "))
	}
	prompt := fmt.Sprintf("Generate a %s quiz.", name)
	if topic = strings.TrimSpace(topic); topic != "" {
		prompt += " Base the questions on the following text:\n\n" + topic
	}
	return prompt, nil
}

// Quiz generates a quiz of the given kind.
func (t *Tutor) Quiz(ctx context.Context, kind, topic string, s display.Surface) (Result, error) {
	prompt, err := QuizPrompt(kind, topic)
	if err != nil {
		return Result{}, err
	}
	req := t.request(t.opts.SystemPrompt, llm.UserText(prompt))
	return t.oneShot(ctx, "quiz", "Generating quiz...", FailQuiz, req, s)
}
