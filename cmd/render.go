package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pagetutor/pagetutor/internal/markdown"
	"github.com/pagetutor/pagetutor/internal/ui"
)

var (
	renderEngine string
	renderTrace  bool
	renderPlain  bool
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render markdown to HTML",
	Long: `Render a markdown file (or stdin) to the HTML the tutor shows.

--trace prints the text after every rewrite stage, which is handy when an
answer renders oddly. --plain prints the clipboard text instead.

Examples:
  pagetutor render answer.md
  echo '- **bold** item' | pagetutor render --trace
  pagetutor render --engine commonmark answer.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVar(&renderEngine, "engine", markdown.EngineStream, "Renderer (stream, commonmark)")
	renderCmd.Flags().BoolVar(&renderTrace, "trace", false, "Show the output of each rewrite stage")
	renderCmd.Flags().BoolVar(&renderPlain, "plain", false, "Print the plain text of the rendered HTML")
	renderCmd.MarkFlagsMutuallyExclusive("trace", "plain")
	renderCmd.RegisterFlagCompletionFunc("engine", fixedCompletions([]string{markdown.EngineStream, markdown.EngineCommonMark}))
}

func runRender(cmd *cobra.Command, args []string) error {
	var src []byte
	var err error
	if len(args) == 1 && args[0] != "-" {
		src, err = os.ReadFile(args[0])
	} else {
		src, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return writeRender(cmd.OutOrStdout(), string(src))
}

func writeRender(w io.Writer, text string) error {
	if renderTrace {
		if renderEngine != markdown.EngineStream {
			return fmt.Errorf("--trace only applies to the %s engine", markdown.EngineStream)
		}
		styles := ui.DefaultStyles()
		for _, st := range markdown.RenderTrace(text) {
			fmt.Fprintln(w, styles.Highlighted.Render("== "+st.Stage))
			fmt.Fprintln(w, st.Output)
		}
		return nil
	}

	engine, err := markdown.NewEngine(renderEngine)
	if err != nil {
		return err
	}
	html := engine(text)
	if renderPlain {
		fmt.Fprintln(w, markdown.PlainText(html))
		return nil
	}
	fmt.Fprintln(w, html)
	return nil
}
