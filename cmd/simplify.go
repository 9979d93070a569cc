package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pagetutor/pagetutor/internal/signal"
	"github.com/pagetutor/pagetutor/internal/tutor"
)

var (
	simplifyLevel string
	simplifyStdin bool
)

var simplifyCmd = &cobra.Command{
	Use:   "simplify [text...]",
	Short: "Explain text in basic or technical language",
	Long: `Rewrite a passage so it is easier (basic) or more precise (technical).

Examples:
  pagetutor simplify "Mitochondria are the powerhouse of the cell"
  pagetutor simplify --level technical "Plants make food from light"
  pbpaste | pagetutor simplify`,
	RunE: runSimplify,
}

func init() {
	rootCmd.AddCommand(simplifyCmd)
	simplifyCmd.Flags().StringVarP(&simplifyLevel, "level", "l", tutor.LevelBasic, "Simplification level (basic, technical)")
	simplifyCmd.Flags().BoolVar(&simplifyStdin, "stdin", false, "Read the text from stdin")
	simplifyCmd.RegisterFlagCompletionFunc("level", fixedCompletions([]string{tutor.LevelBasic, tutor.LevelTechnical}))
}

func runSimplify(cmd *cobra.Command, args []string) error {
	text, err := readText(args, os.Stdin, simplifyStdin)
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

	_, err = sess.tutor.Simplify(ctx, text, simplifyLevel, newSurface())
	return flowError(err)
}
