package ports

import (
	"context"
	"io"
	"time"

	"github.com/bnema/bandit-cli/internal/domain"
)

// ShellTransport is the consumed remote-shell capability. The connection
// manager depends only on this interface; the SSH implementation lives in an
// adapter. Dial errors are classified into the domain taxonomy
// (ErrAuthFailure, ErrTimeout, ErrNetworkUnreachable, ErrProtocol).
type ShellTransport interface {
	Dial(ctx context.Context, endpoint domain.Endpoint, creds domain.Credentials, timeout time.Duration) (ShellConn, error)
}

// ShellConn is one live remote shell. Reader blocks until the remote side
// produces output and returns io.EOF when the connection ends.
type ShellConn interface {
	Write(p []byte) error
	Reader() io.Reader
	Close() error
}
