package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/pagetutor/pagetutor/cmd.Version=...".
var Version = "dev"

var (
	providerFlag string
	debugFlag    bool
	htmlFlag     bool
	framesFlag   bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "Override provider, optionally with model (e.g., openai:gpt-4o-mini, echo)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "Show provider requests and debug logs")
	rootCmd.PersistentFlags().BoolVar(&htmlFlag, "html", false, "Write rendered HTML instead of terminal output")
	rootCmd.PersistentFlags().BoolVar(&framesFlag, "frames", false, "With --html, write every streamed frame")
}

var rootCmd = &cobra.Command{
	Use:   "pagetutor",
	Short: "An AI tutor for web pages",
	Long: `pagetutor summarizes, simplifies, quizzes and translates web pages and
answers questions about them, streaming the answer as it is written.

Examples:
  pagetutor summarize https://go.dev/doc/effective_go
  pagetutor summarize --type tl;dr --length short https://example.com
  pagetutor simplify --level technical "Photosynthesis converts light"
  pagetutor quiz --type trueFalse --url https://example.com
  pagetutor translate --to es "Where is the library?"
  pagetutor chat
  pagetutor serve --ui
  pagetutor render --trace notes.md`,
	Version:           Version,
	SilenceUsage:      true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(debugFlag)
	},
}

// setupLogging routes slog to stderr; debug raises the level.
func setupLogging(debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
