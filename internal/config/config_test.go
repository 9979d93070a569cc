package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyOverrides(t *testing.T) {
	cfg := &Config{
		Provider: "anthropic",
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-5",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
	}

	cfg.ApplyOverrides("openai", "gpt-4o")
	if cfg.Provider != "openai" {
		t.Fatalf("provider=%q, want %q", cfg.Provider, "openai")
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Fatalf("openai model=%q, want %q", cfg.OpenAI.Model, "gpt-4o")
	}
	if cfg.Anthropic.Model != "claude-sonnet-4-5" {
		t.Fatalf("anthropic model changed unexpectedly: %q", cfg.Anthropic.Model)
	}

	cfg.ApplyOverrides("", "gemini-2.5-pro")
	if cfg.Provider != "openai" {
		t.Fatalf("provider changed unexpectedly: %q", cfg.Provider)
	}
	if got := cfg.ModelFor("openai"); got != "gemini-2.5-pro" {
		t.Fatalf("openai model=%q, want %q", got, "gemini-2.5-pro")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tutor.SystemPrompt != DefaultSystemPrompt {
		t.Errorf("system prompt=%q", cfg.Tutor.SystemPrompt)
	}
	if cfg.Tutor.Temperature != 1 || cfg.Tutor.TopK != 4 {
		t.Errorf("expected temperature 1 / top_k 4, got %v / %d", cfg.Tutor.Temperature, cfg.Tutor.TopK)
	}
	if cfg.Page.Timeout != 20*time.Second {
		t.Errorf("page timeout=%v", cfg.Page.Timeout)
	}
	if cfg.Page.CacheTTL != 30*time.Minute {
		t.Errorf("page cache_ttl=%v", cfg.Page.CacheTTL)
	}
	if cfg.Anthropic.APIKey != "sk-test" {
		t.Errorf("expected key from env, got %q", cfg.Anthropic.APIKey)
	}
}

func TestLoadFileAndExpandEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("MY_OPENAI", "sk-from-var")
	t.Chdir(t.TempDir())

	body := "provider: openai\nopenai:\n  api_key: ${MY_OPENAI}\n  model: gpt-4o\nsummarize:\n  type: headline\npage:\n  timeout: 5s\n"
	if err := os.MkdirAll(filepath.Join(dir, "pagetutor"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pagetutor", "config.yaml"), []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "openai" || cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("got provider=%q model=%q", cfg.Provider, cfg.OpenAI.Model)
	}
	if cfg.OpenAI.APIKey != "sk-from-var" {
		t.Errorf("api key not expanded: %q", cfg.OpenAI.APIKey)
	}
	if cfg.Summarize.Type != "headline" || cfg.Summarize.Length != "medium" {
		t.Errorf("summarize=%+v", cfg.Summarize)
	}
	if cfg.Page.Timeout != 5*time.Second {
		t.Errorf("page timeout=%v", cfg.Page.Timeout)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	path, err := Save(Default(), false)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := Save(Default(), false); err == nil {
		t.Fatal("expected second Save without force to fail")
	}
	if _, err := Save(Default(), true); err != nil {
		t.Fatalf("Save with force: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load after Save (%s): %v", path, err)
	}
	if cfg.Summarize.Type != "key-points" || cfg.Render.Engine != "stream" {
		t.Errorf("unexpected values after round trip: %+v %+v", cfg.Summarize, cfg.Render)
	}
	if cfg.Tutor.SystemPrompt != DefaultSystemPrompt {
		t.Errorf("system prompt=%q", cfg.Tutor.SystemPrompt)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("PT_TOKEN", "abc")
	tests := map[string]string{
		"${PT_TOKEN}": "abc",
		"$PT_TOKEN":   "abc",
		"literal":     "literal",
		"":            "",
	}
	for in, want := range tests {
		if got := expandEnv(in); got != want {
			t.Errorf("expandEnv(%q)=%q, want %q", in, got, want)
		}
	}
}
