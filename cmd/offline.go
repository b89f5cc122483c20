package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newOfflineCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:       "offline [on|off|toggle]",
		Short:     "Inspect or change offline mode",
		Long:      "Offline mode refuses new connections and serves mentor data from cache only. Without an argument, the current mode is printed.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				switch args[0] {
				case "on":
					app.offline.SetOffline(true)
				case "off":
					app.offline.SetOffline(false)
				case "toggle":
					app.offline.Toggle()
				default:
					return fmt.Errorf("unknown mode %q", args[0])
				}
				if err := app.persistOfflineMarker(); err != nil {
					return err
				}
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), app.offline.Mode())
			return nil
		},
	}
}
