package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bnema/bandit-cli/internal/domain"
)

func newHintCmd(app *app) *cobra.Command {
	var explain string

	cmd := &cobra.Command{
		Use:   "hint [level]",
		Short: "Get a spoiler-free hint for a level, or explain a command",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if explain != "" {
				text, err := app.mentor.ExplainCommand(ctx, explain)
				if err != nil {
					if errors.Is(err, domain.ErrUnavailable) {
						return fmt.Errorf("offline and no cached explanation for %q", explain)
					}
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}

			if len(args) == 0 {
				return errors.New("provide a level number or --explain <command>")
			}
			level, err := strconv.Atoi(args[0])
			if err != nil || level < 0 {
				return fmt.Errorf("invalid level %q", args[0])
			}

			entries := app.history.Entries()
			start := len(entries) - 5
			if start < 0 {
				start = 0
			}
			recent := make([]string, 0, len(entries)-start)
			for _, entry := range entries[start:] {
				recent = append(recent, entry.Text)
			}

			text, err := app.mentor.Hint(ctx, level, recent)
			if err != nil {
				if errors.Is(err, domain.ErrUnavailable) {
					return fmt.Errorf("offline and no cached hint for level %d", level)
				}
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVar(&explain, "explain", "", "Explain what a shell command does instead of hinting a level")

	return cmd
}
