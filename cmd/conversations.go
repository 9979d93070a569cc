package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pagetutor/pagetutor/internal/store"
	"github.com/pagetutor/pagetutor/internal/ui"
)

var conversationsLimit int

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"convs"},
	Short:   "List, show and delete stored chat conversations",
	Long: `Chat transcripts are stored when store.enabled is true in the config.

Examples:
  pagetutor conversations list
  pagetutor conversations show 6f1c...
  pagetutor conversations rm 6f1c...`,
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent conversations",
	Args:  cobra.NoArgs,
	RunE:  runConversationsList,
}

var conversationsShowCmd = &cobra.Command{
	Use:               "show <id>",
	Short:             "Print a conversation",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: conversationArgCompletion,
	RunE:              runConversationsShow,
}

var conversationsRmCmd = &cobra.Command{
	Use:               "rm <id>",
	Short:             "Delete a conversation",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: conversationArgCompletion,
	RunE:              runConversationsRm,
}

func init() {
	rootCmd.AddCommand(conversationsCmd)
	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsShowCmd)
	conversationsCmd.AddCommand(conversationsRmCmd)
	conversationsListCmd.Flags().IntVarP(&conversationsLimit, "limit", "n", 20, "Maximum conversations to list")
}

func withStore(fn func(ctx context.Context, st store.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(context.Background(), st)
}

func runConversationsList(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st store.Store) error {
		convs, err := st.ListConversations(ctx, conversationsLimit)
		if err != nil {
			return err
		}
		if len(convs) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No conversations stored.")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUPDATED\tMSGS\tTITLE")
		for _, c := range convs {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.ID, c.UpdatedAt.Local().Format("2006-01-02 15:04"), c.MessageCount, ui.Truncate(c.Title, 50))
		}
		return tw.Flush()
	})
}

func runConversationsShow(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st store.Store) error {
		conv, err := st.GetConversation(ctx, args[0])
		if err != nil {
			return err
		}
		msgs, err := st.Messages(ctx, conv.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		styles := ui.NewStyles(os.Stdout)
		fmt.Fprintln(out, styles.Title.Render(conv.Title))
		for _, m := range msgs {
			switch m.Role {
			case store.RoleUser:
				fmt.Fprintln(out, styles.Prompt.Render("> ")+m.Content)
			case store.RoleAssistant:
				fmt.Fprintln(out, ui.RenderMarkdown(m.Content, 78))
				if m.Interrupted {
					fmt.Fprintln(out, styles.Muted.Render("(stopped)"))
				}
			}
		}
		return nil
	})
}

func runConversationsRm(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st store.Store) error {
		if err := st.DeleteConversation(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), ui.DefaultStyles().FormatResult(true, "Deleted "+args[0]))
		return nil
	})
}
