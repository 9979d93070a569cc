package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/pagetutor/pagetutor/internal/clipboard"
	"github.com/pagetutor/pagetutor/internal/display"
	"github.com/pagetutor/pagetutor/internal/signal"
	"github.com/pagetutor/pagetutor/internal/speech"
	"github.com/pagetutor/pagetutor/internal/tutor"
	"github.com/pagetutor/pagetutor/internal/ui"
)

var (
	chatResume string
	chatCopy   bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask the tutor questions interactively",
	Long: `Start an interactive chat with the tutor. Every answer streams as it is
written; press Ctrl-C to stop an answer, or at the prompt to quit.

Commands:
  /copy    copy the last answer to the clipboard
  /speak   read the last answer aloud (Ctrl-C stops)
  /new     start a new conversation
  /help    show this help
  /quit    exit

Examples:
  pagetutor chat
  pagetutor chat --resume 6f1c...   # continue a stored conversation
  pagetutor chat --copy             # copy every answer`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatResume, "resume", "r", "", "Resume a stored conversation by ID")
	chatCmd.Flags().BoolVar(&chatCopy, "copy", false, "Copy each answer to the clipboard")
	chatCmd.RegisterFlagCompletionFunc("resume", conversationArgCompletion)
}

const chatHelp = `/copy   copy the last answer
/speak  read the last answer aloud
/new    start a new conversation
/quit   exit`

// chatREPL holds the state of one interactive chat.
type chatREPL struct {
	tutor   *tutor.Tutor
	conv    *tutor.Conversation
	out     io.Writer
	styles  *ui.Styles
	surface func() display.Surface
	begin   func(context.Context) (context.Context, func())

	autoCopy bool
	copyText func(context.Context, string) error
	speak    func(context.Context, string) error

	last tutor.Result
}

// handle runs one input line. It reports whether the chat should end.
func (r *chatREPL) handle(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if strings.HasPrefix(line, "/") {
		return r.command(ctx, line)
	}

	askCtx, end := r.begin(ctx)
	res, err := r.tutor.Chat(askCtx, r.conv, line, r.surface())
	end()
	switch {
	case err == nil, errors.Is(err, tutor.ErrStopped):
		r.last = res
	default:
		// The surface already showed the failure; keep chatting.
		return false, nil
	}
	if r.autoCopy && r.last.Plain != "" {
		r.copyLast(ctx)
	}
	return false, nil
}

func (r *chatREPL) command(ctx context.Context, line string) (bool, error) {
	name, _, _ := strings.Cut(line, " ")
	switch name {
	case "/quit", "/exit", "/q":
		return true, nil
	case "/help", "/?":
		fmt.Fprintln(r.out, r.styles.Muted.Render(chatHelp))
	case "/new":
		r.conv = &tutor.Conversation{}
		r.last = tutor.Result{}
		fmt.Fprintln(r.out, r.styles.Muted.Render("Started a new conversation."))
	case "/copy":
		if r.last.Plain == "" {
			fmt.Fprintln(r.out, r.styles.FormatResult(false, "Nothing to copy yet."))
			return false, nil
		}
		r.copyLast(ctx)
	case "/speak":
		if r.last.Plain == "" {
			fmt.Fprintln(r.out, r.styles.FormatResult(false, "Nothing to read yet."))
			return false, nil
		}
		speakCtx, end := r.begin(ctx)
		err := r.speak(speakCtx, r.last.Plain)
		end()
		if err != nil && speakCtx.Err() == nil {
			fmt.Fprintln(r.out, r.styles.FormatResult(false, "Failed to read the answer aloud: "+err.Error()))
		}
	default:
		fmt.Fprintln(r.out, r.styles.FormatResult(false, fmt.Sprintf("Unknown command %s (try /help)", name)))
	}
	return false, nil
}

func (r *chatREPL) copyLast(ctx context.Context) {
	if err := r.copyText(ctx, r.last.Plain); err != nil {
		fmt.Fprintln(r.out, r.styles.FormatResult(false, "Failed to copy: "+err.Error()))
		return
	}
	fmt.Fprintln(r.out, r.styles.FormatResult(true, "Response copied to clipboard!"))
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, err := newSession()
	if err != nil {
		return err
	}
	defer sess.Close()
	if err := sess.requireEnabled(ctx); err != nil {
		return err
	}

	conv := &tutor.Conversation{}
	if chatResume != "" {
		conv, err = sess.tutor.LoadConversation(ctx, chatResume)
		if err != nil {
			return fmt.Errorf("failed to resume conversation %s: %w", chatResume, err)
		}
	}

	quit := make(chan struct{})
	var quitOnce sync.Once
	stopper := signal.NewStopper(func() { quitOnce.Do(func() { close(quit) }) })
	defer stopper.Close()

	styles := ui.NewStyles(os.Stdout)
	repl := &chatREPL{
		tutor:    sess.tutor,
		conv:     conv,
		out:      os.Stdout,
		styles:   styles,
		surface:  newSurface,
		begin:    stopper.Begin,
		autoCopy: chatCopy,
		copyText: clipboard.WriteText,
		speak:    speech.Speak,
	}

	fmt.Fprintln(os.Stdout, styles.Title.Render("pagetutor chat")+" "+styles.Muted.Render("("+sess.tutor.Provider().Name()+", /help for commands)"))
	for _, turn := range conv.Turns {
		fmt.Fprintln(os.Stdout, styles.Prompt.Render("> ")+turn.Question)
		fmt.Fprintln(os.Stdout, ui.RenderMarkdown(turn.Answer, 78))
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Fprint(os.Stdout, styles.Prompt.Render("> "))
		var line string
		select {
		case <-quit:
			fmt.Fprintln(os.Stdout)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(os.Stdout)
				return nil
			}
			line = l
		}
		done, err := repl.handle(ctx, line)
		if err != nil || done {
			return err
		}
	}
}
