package tutor

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pagetutor/pagetutor/internal/display"
	"github.com/pagetutor/pagetutor/internal/llm"
)

// Languages maps supported target codes to language names.
var Languages = map[string]string{
	"ar": "Arabic",
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"hi": "Hindi",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"nl": "Dutch",
	"pl": "Polish",
	"pt": "Portuguese",
	"ru": "Russian",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"zh": "Chinese",
}

// LanguageCodes returns the supported codes, sorted.
func LanguageCodes() []string {
	return slices.Sorted(maps.Keys(Languages))
}

// Translate translates text into the language with the given code.
func (t *Tutor) Translate(ctx context.Context, text, target string, s display.Surface) (Result, error) {
	if strings.TrimSpace(text) == "" {
		s.Fail(FailTranslate)
		return Result{}, ErrEmptyInput
	}
	name, ok := Languages[strings.ToLower(strings.TrimSpace(target))]
	if !ok {
		return Result{}, fmt.Errorf("unsupported target language %q (supported: %s)", target, strings.Join(LanguageCodes(), ", "))
	}
	prompt := fmt.Sprintf("Translate the following text to %s. Reply with the translation only.\n\n%s", name, text)
	req := t.request("", llm.UserText(prompt))
	return t.oneShot(ctx, "translate", "Translating...", FailTranslate, req, s)
}
