package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/bandit-cli/internal/domain"
)

func newLevelCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "level <n>",
		Short: "Show the goal and suggested commands for a level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			level, err := strconv.Atoi(args[0])
			if err != nil || level < 0 {
				return fmt.Errorf("invalid level %q", args[0])
			}

			goal, err := app.mentor.LevelGoal(ctx, level)
			if err != nil {
				if errors.Is(err, domain.ErrUnavailable) {
					return fmt.Errorf("offline and no cached data for level %d", level)
				}
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Level %d\n\nGoal:\n  %s\n", level, goal)

			if commands, err := app.mentor.LevelCommands(ctx, level); err == nil && len(commands) > 0 {
				_, _ = fmt.Fprintf(out, "\nCommands you may need:\n  %s\n", strings.Join(commands, ", "))
			}
			if reading, err := app.mentor.LevelReadingMaterial(ctx, level); err == nil && len(reading) > 0 {
				_, _ = fmt.Fprintln(out, "\nReading material:")
				for _, link := range reading {
					_, _ = fmt.Fprintf(out, "  %s\n", link)
				}
			}
			return nil
		},
	}
}
