package cmd

import "github.com/spf13/cobra"

func Execute() error {
	root, shutdown := newRootCmd()
	defer shutdown()
	return root.Execute()
}

// newRootCmd wires the application and returns the command tree plus a
// shutdown func the caller must run after Execute, error or not, so queued
// history writes flush and the logger syncs.
func newRootCmd() (*cobra.Command, func()) {
	rootCmd := &cobra.Command{
		Use:           "bandit",
		Short:         "Interactive helper for the OverTheWire Bandit wargame",
		Long:          "bandit keeps your wargame sessions, command history and cached hints in one place: manage session descriptors, open SSH connections to the game hosts, and look up level info or AI hints that keep working offline once cached.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd, func() {}
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newSessionCmd(app),
		newConnectCmd(app),
		newHintCmd(app),
		newLevelCmd(app),
		newHistoryCmd(app),
		newOfflineCmd(app),
	)

	return rootCmd, app.shutdown
}
