package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/bnema/bandit-cli/internal/domain"
)

func newConnectCmd(app *app) *cobra.Command {
	var level int

	cmd := &cobra.Command{
		Use:   "connect <session-id>",
		Short: "Open an interactive shell on a saved session",
		Long: `Connect dials the session's host and bridges the local terminal to the
remote shell. The password is read from the BANDIT_PASSWORD environment
variable when set, otherwise prompted without echo. Type commands at the
prompt; end the input stream (Ctrl-D) to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			session, err := app.sessions.Get(ctx, domain.SessionID(args[0]))
			if err != nil {
				return err
			}

			password, err := resolvePassword(cmd)
			if err != nil {
				return err
			}

			handle, err := app.manager.Open(ctx, session, domain.Credentials{Password: password})
			if err != nil {
				return fmt.Errorf("connect %s: %w", session.Name, err)
			}

			if _, err := app.sessions.Touch(ctx, session.ID); err != nil {
				app.logger.Warn("record session use", zap.Error(err))
			}
			if level > 0 {
				if _, err := app.sessions.SetLevel(ctx, session.ID, level); err != nil {
					app.logger.Warn("record session level", zap.Error(err))
				}
			}
			app.history.SetSession(session.ID)

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "connected to %s\n", session.Endpoint())

			// Remote output streams to stdout until the handle terminates.
			outputDone := make(chan struct{})
			go func() {
				defer close(outputDone)
				for chunk := range handle.Output() {
					_, _ = cmd.OutOrStdout().Write(chunk)
				}
			}()

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := scanner.Text()
				if err := app.manager.Send(handle, line); err != nil {
					if errors.Is(err, domain.ErrEmptyCommand) {
						continue
					}
					if errors.Is(err, domain.ErrCommandTooLong) {
						_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "command too long, not sent")
						continue
					}
					app.manager.Close(handle)
					<-outputDone
					return fmt.Errorf("send command: %w", err)
				}
				app.history.Append(line)
			}

			app.manager.Close(handle)
			<-outputDone

			if err := handle.Err(); err != nil && !errors.Is(err, domain.ErrConnectionClosed) {
				return fmt.Errorf("connection ended: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "disconnected")
			return scanner.Err()
		},
	}

	cmd.Flags().IntVar(&level, "level", 0, "Record the level this session is at")

	return cmd
}

// resolvePassword prefers the environment so scripted use never touches
// the terminal. Interactive prompts suppress echo.
func resolvePassword(cmd *cobra.Command) (string, error) {
	if password, ok := os.LookupEnv("BANDIT_PASSWORD"); ok {
		return password, nil
	}

	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		return "", errors.New("no password: set BANDIT_PASSWORD or run from a terminal")
	}

	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "password: ")
	raw, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}
