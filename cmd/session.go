package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/bandit-cli/internal/domain"
)

func newSessionCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage saved wargame sessions",
	}

	cmd.AddCommand(
		newSessionListCmd(app),
		newSessionAddCmd(app),
		newSessionRemoveCmd(app),
	)

	return cmd
}

func newSessionListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, most recently used first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessions, err := app.sessions.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no saved sessions")
				return nil
			}

			for _, session := range sessions {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s@%s:%d\tlevel %d\n",
					session.ID, session.Name, session.Username, session.Hostname, session.Port, session.Level)
			}
			return nil
		},
	}
}

func newSessionAddCmd(app *app) *cobra.Command {
	var name string
	var host string
	var port int
	var user string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a new session descriptor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if host == "" {
				host = app.cfg.SSH.Host
			}
			if port == 0 {
				port = app.cfg.SSH.Port
			}

			session, err := app.sessions.Create(cmd.Context(), name, host, port, user)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved session %s (%s)\n", session.ID, session.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Human-readable session name")
	cmd.Flags().StringVar(&host, "host", "", "Target hostname (default: configured wargame host)")
	cmd.Flags().IntVar(&port, "port", 0, "Target port (default: configured wargame port)")
	cmd.Flags().StringVar(&user, "user", "", "Remote username, e.g. bandit0")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newSessionRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <session-id>",
		Short: "Remove a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.sessions.Remove(cmd.Context(), domain.SessionID(args[0])); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed session %s\n", args[0])
			return nil
		},
	}
}
