package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pagetutor/pagetutor/internal/signal"
	"github.com/pagetutor/pagetutor/internal/tutor"
)

var (
	translateTo    string
	translateStdin bool
)

var translateCmd = &cobra.Command{
	Use:   "translate [text...]",
	Short: "Translate text into another language",
	Long: `Translate text into the language given by --to (an ISO 639-1 code).

Examples:
  pagetutor translate --to es "Where is the library?"
  pagetutor translate --to ja < notes.txt`,
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)
	translateCmd.Flags().StringVarP(&translateTo, "to", "t", "en", "Target language code")
	translateCmd.Flags().BoolVar(&translateStdin, "stdin", false, "Read the text from stdin")
	translateCmd.RegisterFlagCompletionFunc("to", fixedCompletions(tutor.LanguageCodes()))
}

func runTranslate(cmd *cobra.Command, args []string) error {
	text, err := readText(args, os.Stdin, translateStdin)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background())
	defer stop()

	sess, err := newSession()
	if err != nil {
		return err
	}
	defer sess.Close()
	if err := sess.requireEnabled(ctx); err != nil {
		return err
	}

	_, err = sess.tutor.Translate(ctx, text, translateTo, newSurface())
	return flowError(err)
}
