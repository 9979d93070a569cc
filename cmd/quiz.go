package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pagetutor/pagetutor/internal/signal"
	"github.com/pagetutor/pagetutor/internal/tutor"
)

var (
	quizType    string
	quizTopic   string
	quizURL     string
	quizBrowser bool
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate a quiz",
	Long: `Generate a multiple-choice, fill-in-the-blank or true/false quiz,
optionally based on a topic or the text of a web page.

Examples:
  pagetutor quiz
  pagetutor quiz --type fillBlank --topic "the water cycle"
  pagetutor quiz --type trueFalse --url https://en.wikipedia.org/wiki/Cell_(biology)`,
	Args: cobra.NoArgs,
	RunE: runQuiz,
}

func init() {
	rootCmd.AddCommand(quizCmd)
	quizCmd.Flags().StringVar(&quizType, "type", tutor.QuizMultiChoice, "Quiz type (multiChoice, fillBlank, trueFalse)")
	quizCmd.Flags().StringVar(&quizTopic, "topic", "", "Base the quiz on this text")
	quizCmd.Flags().StringVar(&quizURL, "url", "", "Base the quiz on this page")
	quizCmd.Flags().BoolVar(&quizBrowser, "browser", false, "Load --url in headless Chrome")
	quizCmd.MarkFlagsMutuallyExclusive("topic", "url")
	quizCmd.RegisterFlagCompletionFunc("type", fixedCompletions(tutor.QuizKinds()))
}

func runQuiz(cmd *cobra.Command, args []string) error {
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

	topic := quizTopic
	if quizURL != "" {
		p, err := extractPage(ctx, sess.cfg, quizURL, quizBrowser)
		if err != nil {
			return fmt.Errorf("failed to read page: %w", err)
		}
		topic = p.Text
	}

	_, err = sess.tutor.Quiz(ctx, quizType, topic, newSurface())
	return flowError(err)
}
