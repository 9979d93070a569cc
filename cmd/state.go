package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pagetutor/pagetutor/internal/ui"
)

var stateCmd = &cobra.Command{
	Use:   "state [on|off]",
	Short: "Show or switch the tutor on or off",
	Long: `Show whether the tutor is enabled, or switch it on or off. While off,
every flow refuses to run. The state is kept in the local database.

Examples:
  pagetutor state
  pagetutor state on
  pagetutor state off`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off"},
	RunE:      runState,
}

func init() {
	rootCmd.AddCommand(stateCmd)
}

func runState(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Store.Enabled {
		return errors.New("the on/off state needs the database (set store.enabled: true)")
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if len(args) == 1 {
		if err := st.SetEnabled(ctx, args[0] == "on"); err != nil {
			return fmt.Errorf("failed to update state: %w", err)
		}
	}
	enabled, err := st.GetEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to read state: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.NewStyles(os.Stdout).FormatEnabled(enabled))
	return nil
}
