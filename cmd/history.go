package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd(app *app) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded shell commands, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if clear {
				app.history.Clear()
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
				return nil
			}

			entries := app.history.Entries()
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no history")
				return nil
			}
			for i, entry := range entries {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s  %s\n",
					i+1, entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Text)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "Discard all recorded commands")

	return cmd
}
