package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pagetutor/pagetutor/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage pagetutor configuration",
	Long: `View or create your pagetutor configuration.

Examples:
  pagetutor config                     # show effective config
  pagetutor config init                # write a commented config file
  pagetutor config path                # print the config file path
  pagetutor config completion zsh      # generate shell completions`,
	RunE: configShow, // Default to show
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  configShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	Args:  cobra.NoArgs,
	RunE:  configInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print configuration file path",
	Args:  cobra.NoArgs,
	RunE:  configPath,
}

var configCompletionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate a shell completion script.

Examples:
  pagetutor config completion bash
  pagetutor config completion zsh --install`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:      configCompletion,
}

var (
	configInitForce    bool
	installCompletions bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configCompletionCmd)
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
	configCompletionCmd.Flags().BoolVar(&installCompletions, "install", false, "Install completions to standard location")
}

func configShow(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if config.Exists() {
		fmt.Fprintf(out, "# %s\n\n", configPath)
	} else {
		fmt.Fprintf(out, "# No config file (using defaults)\n")
		fmt.Fprintf(out, "# Create one with: pagetutor config init\n\n")
	}
	b, err := marshalConfig(cfg)
	if err != nil {
		return err
	}
	_, err = out.Write(b)
	return err
}

// marshalConfig renders cfg as YAML with credentials masked.
func marshalConfig(cfg *config.Config) ([]byte, error) {
	masked := *cfg
	masked.Anthropic.APIKey = maskKey(masked.Anthropic.APIKey)
	masked.OpenAI.APIKey = maskKey(masked.OpenAI.APIKey)
	masked.Gemini.APIKey = maskKey(masked.Gemini.APIKey)
	masked.Ollama.APIKey = maskKey(masked.Ollama.APIKey)
	masked.LMStudio.APIKey = maskKey(masked.LMStudio.APIKey)
	masked.OpenAICompat.APIKey = maskKey(masked.OpenAICompat.APIKey)
	masked.Serve.Token = maskKey(masked.Serve.Token)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&masked); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func maskKey(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) <= 8:
		return "****"
	default:
		return key[:4] + "****" + key[len(key)-4:]
	}
}

func configInit(cmd *cobra.Command, args []string) error {
	path, err := config.Save(config.Default(), configInitForce)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}

func configPath(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func configCompletion(cmd *cobra.Command, args []string) error {
	shell := args[0]
	if installCompletions {
		return installShellCompletion(cmd, shell)
	}
	var buf bytes.Buffer
	if err := writeCompletion(shell, &buf); err != nil {
		return err
	}
	_, err := cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

func writeCompletion(shell string, buf *bytes.Buffer) error {
	switch shell {
	case "bash":
		return rootCmd.GenBashCompletion(buf)
	case "zsh":
		return rootCmd.GenZshCompletion(buf)
	case "fish":
		return rootCmd.GenFishCompletion(buf, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(buf)
	}
	return fmt.Errorf("unknown shell: %s", shell)
}

func completionPath(home, shell string) (string, error) {
	switch shell {
	case "bash":
		return filepath.Join(home, ".bash_completion.d", "pagetutor"), nil
	case "zsh":
		// Use ~/.local/share/zsh/site-functions which is the XDG standard
		return filepath.Join(home, ".local", "share", "zsh", "site-functions", "_pagetutor"), nil
	case "fish":
		return filepath.Join(home, ".config", "fish", "completions", "pagetutor.fish"), nil
	case "powershell":
		return filepath.Join(home, ".config", "powershell", "completions", "pagetutor.ps1"), nil
	}
	return "", fmt.Errorf("unknown shell: %s", shell)
}

func installShellCompletion(cmd *cobra.Command, shell string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	path, err := completionPath(home, shell)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := writeCompletion(shell, &buf); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write completion file: %w", err)
	}

	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "Installed completions to %s\n", path)
	switch shell {
	case "bash":
		fmt.Fprintf(errOut, "\nAdd to ~/.bashrc:\n  source %s\n", path)
	case "zsh":
		fmt.Fprintf(errOut, "\nAdd to ~/.zshrc (before compinit):\n  fpath=(%s $fpath)\n", dir)
	case "powershell":
		fmt.Fprintf(errOut, "\nAdd to your PowerShell profile:\n  . %s\n", path)
	}
	return nil
}
