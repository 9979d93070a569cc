package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pagetutor/pagetutor/internal/signal"
	"github.com/pagetutor/pagetutor/internal/tutor"
)

var (
	summarizeText    string
	summarizeStdin   bool
	summarizeBrowser bool
	summarizeType    string
	summarizeLength  string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [url]",
	Short: "Summarize a web page",
	Long: `Summarize the text of a web page, or text given with --text or --stdin.

Summary types: key-points (default), tl;dr, teaser, headline.
Lengths: short, medium (default), long.

Examples:
  pagetutor summarize https://en.wikipedia.org/wiki/Photosynthesis
  pagetutor summarize --type headline --length short https://example.com
  pagetutor summarize --browser https://spa.example.com   # render with Chrome
  cat notes.txt | pagetutor summarize --stdin`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	summarizeCmd.Flags().StringVar(&summarizeText, "text", "", "Summarize this text instead of a page")
	summarizeCmd.Flags().BoolVar(&summarizeStdin, "stdin", false, "Read the text to summarize from stdin")
	summarizeCmd.Flags().BoolVar(&summarizeBrowser, "browser", false, "Load the page in headless Chrome")
	summarizeCmd.Flags().StringVar(&summarizeType, "type", "", "Summary type (key-points, tl;dr, teaser, headline)")
	summarizeCmd.Flags().StringVar(&summarizeLength, "length", "", "Summary length (short, medium, long)")
	summarizeCmd.RegisterFlagCompletionFunc("type", fixedCompletions(tutor.SummaryTypes()))
	summarizeCmd.RegisterFlagCompletionFunc("length", fixedCompletions(tutor.SummaryLengths()))
}

func runSummarize(cmd *cobra.Command, args []string) error {
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

	text := summarizeText
	switch {
	case summarizeStdin:
		if text, err = readText(nil, os.Stdin, true); err != nil {
			return err
		}
	case text == "" && len(args) == 1:
		p, err := extractPage(ctx, sess.cfg, args[0], summarizeBrowser)
		if err != nil {
			return fmt.Errorf("failed to read page: %w", err)
		}
		if p.Title != "" && !htmlFlag {
			fmt.Fprintf(os.Stderr, "%s\n\n", p.Title)
		}
		text = p.Text
	case text == "":
		return errors.New("give a URL, --text or --stdin")
	}

	_, err = sess.tutor.Summarize(ctx, text, tutor.SummarizeOptions{Type: summarizeType, Length: summarizeLength}, newSurface())
	return flowError(err)
}
