package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Provider     string             `mapstructure:"provider" yaml:"provider"`
	Tutor        TutorConfig        `mapstructure:"tutor" yaml:"tutor"`
	Summarize    SummarizeConfig    `mapstructure:"summarize" yaml:"summarize"`
	Render       RenderConfig       `mapstructure:"render" yaml:"render"`
	Page         PageConfig         `mapstructure:"page" yaml:"page"`
	Store        StoreConfig        `mapstructure:"store" yaml:"store"`
	Serve        ServeConfig        `mapstructure:"serve" yaml:"serve"`
	Anthropic    AnthropicConfig    `mapstructure:"anthropic" yaml:"anthropic"`
	OpenAI       OpenAIConfig       `mapstructure:"openai" yaml:"openai"`
	Gemini       GeminiConfig       `mapstructure:"gemini" yaml:"gemini"`
	Ollama       OllamaConfig       `mapstructure:"ollama" yaml:"ollama"`
	LMStudio     LMStudioConfig     `mapstructure:"lmstudio" yaml:"lmstudio"`
	OpenAICompat OpenAICompatConfig `mapstructure:"openai-compat" yaml:"openai-compat"`
}

// TutorConfig holds the generation settings shared by every tutor flow.
type TutorConfig struct {
	SystemPrompt    string  `mapstructure:"system_prompt" yaml:"system_prompt"`
	Temperature     float32 `mapstructure:"temperature" yaml:"temperature"`
	TopK            int     `mapstructure:"top_k" yaml:"top_k"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens" yaml:"max_output_tokens"`
}

type SummarizeConfig struct {
	Type   string `mapstructure:"type" yaml:"type"`     // key-points, tl;dr, teaser, headline
	Length string `mapstructure:"length" yaml:"length"` // short, medium, long
}

type RenderConfig struct {
	Engine string `mapstructure:"engine" yaml:"engine"` // stream or commonmark
}

// PageConfig controls how page text is pulled from a URL.
type PageConfig struct {
	Extractor  string        `mapstructure:"extractor" yaml:"extractor"` // http or browser
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxChars   int           `mapstructure:"max_chars" yaml:"max_chars"`
	UserAgent  string        `mapstructure:"user_agent" yaml:"user_agent"`
	ChromePath string        `mapstructure:"chrome_path" yaml:"chrome_path"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"` // 0 disables the page cache
}

type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"` // empty means the XDG data dir
}

type ServeConfig struct {
	Host  string `mapstructure:"host" yaml:"host"`
	Port  int    `mapstructure:"port" yaml:"port"`
	Token string `mapstructure:"token" yaml:"token"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	Model  string `mapstructure:"model" yaml:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	Model  string `mapstructure:"model" yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	Model  string `mapstructure:"model" yaml:"model"`
}

// OllamaConfig configures the Ollama provider (OpenAI-compatible)
type OllamaConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"` // Default: http://localhost:11434/v1
	Model   string `mapstructure:"model" yaml:"model"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"` // Optional, Ollama ignores it
}

// LMStudioConfig configures the LM Studio provider (OpenAI-compatible)
type LMStudioConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"` // Default: http://localhost:1234/v1
	Model   string `mapstructure:"model" yaml:"model"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
}

// OpenAICompatConfig configures a generic OpenAI-compatible server
type OpenAICompatConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"` // Required - no default
	Model   string `mapstructure:"model" yaml:"model"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
}

// Defaults shared by Load and the generated config file.
const (
	DefaultSystemPrompt = "Pretend to be a Tutor"
	DefaultUserAgent    = "Mozilla/5.0 (compatible; pagetutor/1.0)"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "anthropic")
	v.SetDefault("tutor.system_prompt", DefaultSystemPrompt)
	v.SetDefault("tutor.temperature", 1.0)
	v.SetDefault("tutor.top_k", 4)
	v.SetDefault("tutor.max_output_tokens", 2048)
	v.SetDefault("summarize.type", "key-points")
	v.SetDefault("summarize.length", "medium")
	v.SetDefault("render.engine", "stream")
	v.SetDefault("page.extractor", "http")
	v.SetDefault("page.timeout", 20*time.Second)
	v.SetDefault("page.max_chars", 20000)
	v.SetDefault("page.user_agent", DefaultUserAgent)
	v.SetDefault("page.cache_ttl", 30*time.Minute)
	v.SetDefault("store.enabled", true)
	v.SetDefault("serve.host", "127.0.0.1")
	v.SetDefault("serve.port", 8765)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("ollama.base_url", "http://localhost:11434/v1")
	v.SetDefault("ollama.model", "llama3.2")
	v.SetDefault("lmstudio.base_url", "http://localhost:1234/v1")
	// openai-compat has no base_url default - it's required
}

// Load reads config.yaml from the config dir (or the working directory).
// A missing file is not an error.
func Load() (*Config, error) {
	configPath, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.resolveCredentials()
	return &cfg, nil
}

// Default returns the configuration Load would produce with no file present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Unmarshalling defaults into a fixed struct cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// ApplyOverrides applies provider and model overrides to the config.
// If provider is non-empty, it overrides the global provider.
// If model is non-empty, it overrides the model for the active provider.
func (c *Config) ApplyOverrides(provider, model string) {
	if provider != "" {
		c.Provider = provider
	}
	if model != "" {
		switch c.Provider {
		case "anthropic":
			c.Anthropic.Model = model
		case "openai":
			c.OpenAI.Model = model
		case "gemini":
			c.Gemini.Model = model
		case "ollama":
			c.Ollama.Model = model
		case "lmstudio":
			c.LMStudio.Model = model
		case "openai-compat":
			c.OpenAICompat.Model = model
		}
	}
}

// ModelFor returns the configured model for a provider name.
func (c *Config) ModelFor(provider string) string {
	switch provider {
	case "anthropic":
		return c.Anthropic.Model
	case "openai":
		return c.OpenAI.Model
	case "gemini":
		return c.Gemini.Model
	case "ollama":
		return c.Ollama.Model
	case "lmstudio":
		return c.LMStudio.Model
	case "openai-compat":
		return c.OpenAICompat.Model
	}
	return ""
}

func (c *Config) resolveCredentials() {
	c.Anthropic.APIKey = expandEnv(c.Anthropic.APIKey)
	if c.Anthropic.APIKey == "" {
		c.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	c.OpenAI.APIKey = expandEnv(c.OpenAI.APIKey)
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	c.Gemini.APIKey = expandEnv(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	// API key is optional for local servers
	c.Ollama.APIKey = expandEnv(c.Ollama.APIKey)
	c.Ollama.BaseURL = expandEnv(c.Ollama.BaseURL)
	c.LMStudio.APIKey = expandEnv(c.LMStudio.APIKey)
	c.LMStudio.BaseURL = expandEnv(c.LMStudio.BaseURL)
	c.OpenAICompat.APIKey = expandEnv(c.OpenAICompat.APIKey)
	c.OpenAICompat.BaseURL = expandEnv(c.OpenAICompat.BaseURL)
	c.Serve.Token = expandEnv(c.Serve.Token)
	c.Page.ChromePath = expandEnv(c.Page.ChromePath)
}

// expandEnv expands ${VAR} or $VAR in a string
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

// GetConfigDir returns the XDG config directory for pagetutor.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config
func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, "pagetutor"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "pagetutor"), nil
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// GetDataDir returns the XDG data directory for pagetutor.
// Uses $XDG_DATA_HOME if set, otherwise ~/.local/share
func GetDataDir() (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "pagetutor"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "share", "pagetutor"), nil
}

// Exists returns true if a config file exists
func Exists() bool {
	path, err := GetConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Save writes a commented config file built from cfg. It refuses to
// overwrite an existing file unless force is set.
func Save(cfg *Config, force bool) (string, error) {
	path, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	if !force && Exists() {
		return path, fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`provider: %s

tutor:
  system_prompt: %q
  temperature: %g
  top_k: %d

summarize:
  type: %s # key-points, tl;dr, teaser, headline
  length: %s # short, medium, long

render:
  engine: %s # stream or commonmark

page:
  extractor: %s # http or browser (needs Chrome)
  timeout: %s
  max_chars: %d
  cache_ttl: %s # 0 disables the page cache
  # chrome_path: /usr/bin/chromium

store:
  enabled: %t

serve:
  host: %s
  port: %d
  # token: ${PAGETUTOR_TOKEN}

anthropic:
  model: %s
  # api_key: ${ANTHROPIC_API_KEY}

openai:
  model: %s

gemini:
  model: %s

ollama:
  base_url: %s
  model: %s
`, cfg.Provider,
		cfg.Tutor.SystemPrompt, cfg.Tutor.Temperature, cfg.Tutor.TopK,
		cfg.Summarize.Type, cfg.Summarize.Length,
		cfg.Render.Engine,
		cfg.Page.Extractor, cfg.Page.Timeout, cfg.Page.MaxChars, cfg.Page.CacheTTL,
		cfg.Store.Enabled,
		cfg.Serve.Host, cfg.Serve.Port,
		cfg.Anthropic.Model, cfg.OpenAI.Model, cfg.Gemini.Model,
		cfg.Ollama.BaseURL, cfg.Ollama.Model)

	return path, os.WriteFile(path, []byte(content), 0600)
}
